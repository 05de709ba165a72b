package version

import "runtime/debug"

// You can set the version at build time using something like:
// go build -ldflags "-X github.com/nestrack/nestrack/version.Version=$(git describe --dirty)"

var Version string

// Hash is the short VCS revision the binary was built from, suffixed with
// -dirty for modified trees, or empty if unknown.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var revision string
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && modified {
		return revision + "-dirty"
	}
	return revision
}()

// VersionOrHash is Version if set at build time, otherwise Hash.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()
