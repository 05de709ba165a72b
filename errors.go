package nestrack

import "github.com/cockroachdb/errors"

// Error kinds returned by route resolution, structural mutations and state
// loading. Callers match them with errors.Is; the returned errors are always
// wrapped with the offending route or index.
var (
	ErrEmptyRoute                  = errors.New("empty route")
	ErrRouteOutOfBounds            = errors.New("route out of bounds")
	ErrIndexOutOfBounds            = errors.New("index out of bounds")
	ErrCannotNestInsideTrack       = errors.New("cannot nest inside a track")
	ErrCycleDetected               = errors.New("cycle detected")
	ErrPluginReinstantiationFailed = errors.New("plugin reinstantiation failed")
	ErrMalformedPersistedRecord    = errors.New("malformed persisted record")
	ErrClipsOnGroup                = errors.New("groups cannot hold clips")

	// ErrSelfParenting is a special case of a cycle: the node would become
	// its own parent. Errors of this kind are marked as ErrCycleDetected
	// too, so errors.Is matches both.
	ErrSelfParenting = errors.New("node cannot become its own parent")
)
