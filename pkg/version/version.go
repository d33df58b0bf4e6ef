package version

import "runtime/debug"

// Release is the version reported at startup.
const Release = "1.7.2"

// String returns the release, suffixed with the VCS revision when the
// binary was built from a repository checkout.
func String() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 8 {
				return Release + "+" + setting.Value[:8]
			}
		}
	}
	return Release
}
