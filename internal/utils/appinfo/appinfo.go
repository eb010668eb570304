// Package appinfo reports deployment environment and build version.
package appinfo

import (
	"os"
	"runtime/debug"
	"strings"
)

// GetEnvironment resolves the deployment environment from ENVIRONMENT or
// GO_ENV, normalizing the usual short forms. Defaults to "development".
func GetEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	if env == "" {
		return "development"
	}

	switch strings.ToLower(env) {
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	case "dev", "development":
		return "development"
	default:
		return env
	}
}

// GetVersion resolves the running version from VERSION, the module build
// info, or the VCS revision stamped at build time.
func GetVersion() string {
	if version := os.Getenv("VERSION"); version != "" {
		return version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return setting.Value
			}
		}
	}
	return "0.0.0-unknown"
}
