package version

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// You can set the version at build time using something like:
// go build -ldflags "-X github.com/mlemrecords/mlem/version.Version=$(git describe --dirty)"

var Version string

var Hash = func() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		modified := false
		for _, setting := range info.Settings {
			if setting.Key == "vcs.modified" && setting.Value == "true" {
				modified = true
				break
			}
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				shortHash := setting.Value[:7]
				if modified {
					return shortHash + "-dirty"
				}
				return shortHash
			}
		}
	}
	return ""
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	if Hash != "" {
		return Hash
	}
	return "dev"
}()

// Banner is the first line a plugin logs, e.g. `Mlem Meter v1.2.0 release (1a2b3c4)`.
func Banner(name string) string {
	title := cases.Title(language.English).String("mlem " + name)
	if Hash == "" || Hash == Version {
		return fmt.Sprintf("%s v%s %s", title, VersionOrHash, BuildType)
	}
	return fmt.Sprintf("%s v%s %s (%s)", title, VersionOrHash, BuildType, Hash)
}
