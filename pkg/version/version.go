package version

import (
	"fmt"
	"runtime/debug"
)

const Name = "exploitgpt"

// Set through -ldflags at release time.
var (
	Version  string
	Revision string
)

// String is recorded as created_by in db and dataset metadata.
func String() string {
	if Version != "" && Revision != "" {
		return fmt.Sprintf("%s %s %s", Name, Version, Revision)
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Sprintf("%s (unknown)", Name)
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return fmt.Sprintf("%s %s %s", Name, info.Main.Version, s.Value)
		}
	}
	return fmt.Sprintf("%s %s", Name, info.Main.Version)
}
