package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
	"github.com/nestrack/nestrack/render"
)

type (
	// Session owns the routing tree and is the only place it is mutated.
	//
	// A Session is owned by one control goroutine and is not safe for
	// concurrent use. Other goroutines, e.g. plugin host callbacks, hand work
	// to it through Exec while Run is running. The render goroutine never
	// sees the tree: after every successful mutation the Session publishes an
	// immutable render.Snapshot through its Exchange.
	Session struct {
		tracks    []*nestrack.Node
		mutator   nestrack.Mutator
		host      nestrack.PluginHost
		decoder   nestrack.Decoder
		editors   nestrack.EditorNotifier
		log       *slog.Logger
		exchange  *render.Exchange
		epoch     uint64
		retired   []retiredHandle
		clipboard ClipboardItem
		exec      chan func()

		filePath             string
		recoveryFilePath     string
		changedSinceSave     bool
		changedSinceRecovery bool
	}

	// Collaborators are the external parts a Session talks to. Any of them
	// may be nil: without a Host, nodes with plugins cannot be copied;
	// without a Decoder, clip buffers are not loaded; without a Logger,
	// slog.Default() is used.
	Collaborators struct {
		Host             nestrack.PluginHost
		Decoder          nestrack.Decoder
		Editors          nestrack.EditorNotifier
		Logger           *slog.Logger
		RecoveryFilePath string
	}

	// retiredHandle is a plugin instance detached from the tree that may
	// still be referenced by a snapshot older than epoch.
	retiredHandle struct {
		handle nestrack.PluginHandle
		epoch  uint64
	}
)

const collectInterval = 100 * time.Millisecond

// New returns an empty session and publishes its first snapshot.
func New(c Collaborators) *Session {
	s := &Session{
		host:             c.Host,
		decoder:          c.Decoder,
		editors:          c.Editors,
		log:              c.Logger,
		exchange:         new(render.Exchange),
		exec:             make(chan func(), 64),
		recoveryFilePath: c.RecoveryFilePath,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.mutator = nestrack.Mutator{Host: c.Host, Editors: c.Editors, Removed: s.retire, ReleaseSource: s.keepSource}
	s.publish()
	return s
}

// Exchange returns the exchange the render goroutine reads snapshots from.
func (s *Session) Exchange() *render.Exchange { return s.exchange }

// Tracks returns the top-level list. The returned nodes must not be modified
// nor retained across a mutation.
func (s *Session) Tracks() []*nestrack.Node { return s.tracks }

// Resolve returns the node addressed by route. The node must not be retained
// across a mutation.
func (s *Session) Resolve(route nestrack.Route) (*nestrack.Node, error) {
	return nestrack.Resolve(s.tracks, route)
}

// ChangedSinceSave reports whether the tree changed after the last Save or
// Load.
func (s *Session) ChangedSinceSave() bool { return s.changedSinceSave }

// FilePath returns the path of the last file saved or loaded.
func (s *Session) FilePath() string { return s.filePath }

// Exec returns a channel for running functions on the goroutine running Run.
func (s *Session) Exec() chan<- func() { return s.exec }

// Run executes the functions sent to Exec and periodically releases retired
// plugin instances, until ctx is done.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(collectInterval)
	defer ticker.Stop()
	for {
		select {
		case f := <-s.exec:
			f()
		case <-ticker.C:
			s.Collect()
		case <-ctx.Done():
			return
		}
	}
}

// change runs a mutation. Rejected mutations are logged and returned without
// any change to the tree. Successful ones are checked against the tree
// invariants and published to the render goroutine.
func (s *Session) change(kind string, f func() error) error {
	if err := f(); err != nil {
		s.log.Debug("rejected", "op", kind, "err", err)
		return errors.Wrap(err, kind)
	}
	if err := nestrack.CheckInvariants(s.tracks); err != nil {
		s.log.Error("invariant violated", "op", kind, "err", err)
		return err
	}
	s.changedSinceSave = true
	s.changedSinceRecovery = true
	s.publish()
	s.Collect()
	s.log.Debug("applied", "op", kind)
	return nil
}

func (s *Session) publish() {
	s.epoch++
	s.exchange.Publish(render.NewSnapshot(s.tracks, s.epoch))
}

// retire queues the plugin instances of a node removed from the tree. They
// are released once the render goroutine is past the next snapshot.
func (s *Session) retire(n *nestrack.Node) {
	for _, h := range nestrack.PluginHandles(n) {
		s.retireHandle(h)
	}
}

// keepSource leaves the instances of a copy source alone. The source is
// either still in the tree, where the render goroutine keeps processing it,
// or it is detached right after the copy and retired with its node.
func (s *Session) keepSource(nestrack.PluginHandle) {
}

func (s *Session) notifyEditors(handles ...nestrack.PluginHandle) {
	if s.editors == nil {
		return
	}
	for _, h := range handles {
		s.editors.PluginEditorClosing(h)
	}
}

func (s *Session) retireHandle(h nestrack.PluginHandle) {
	s.retired = append(s.retired, retiredHandle{handle: h, epoch: s.epoch + 1})
}

// Collect releases the retired plugin instances that no snapshot in use
// references anymore.
func (s *Session) Collect() {
	kept := s.retired[:0]
	for _, r := range s.retired {
		if r.epoch <= s.epoch && s.exchange.Released(r.epoch) {
			if s.host != nil {
				s.host.Release(r.handle)
			}
			continue
		}
		kept = append(kept, r)
	}
	clear(s.retired[len(kept):])
	s.retired = kept
}

// Close detaches and releases everything: the tree, the clipboard and all
// retired instances. The render goroutine must be stopped before.
func (s *Session) Close() {
	for _, t := range s.tracks {
		s.notifyEditors(nestrack.PluginHandles(t)...)
		nestrack.ReleasePlugins(s.host, t)
	}
	s.tracks = nil
	s.setClipboard(nil)
	for _, r := range s.retired {
		if s.host != nil {
			s.host.Release(r.handle)
		}
	}
	s.retired = nil
	s.publish()
}
