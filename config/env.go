package config

import (
	"os"
	"strings"
)

// EnvModeKey selects which layered config files are loaded.
const EnvModeKey = "PYRACMS_ENV"

// EnvMode is the deployment mode of the host process.
type EnvMode string

const (
	DevMode  EnvMode = "development"
	ProdMode EnvMode = "production"
	TestMode EnvMode = "test"
)

// ParseEnv normalises a mode name; unknown values fall back to DevMode.
func ParseEnv(env string) EnvMode {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProdMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// Mode reads the current mode from the environment.
func Mode() EnvMode {
	return ParseEnv(os.Getenv(EnvModeKey))
}

// aliases lists the file-name suffixes accepted for a mode.
func (m EnvMode) aliases() []string {
	switch m {
	case ProdMode:
		return []string{"prod", "production"}
	case TestMode:
		return []string{"test"}
	default:
		return []string{"dev", "development"}
	}
}
