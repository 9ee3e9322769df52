package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/leeforge/pyracms/logging"
	"github.com/leeforge/pyracms/redis_client"
)

// HostConfig is the configuration of the pyracms host process.
type HostConfig struct {
	Server  ServerConfig            `mapstructure:"server"`
	Logging logging.Config          `mapstructure:"logging"`
	Redis   redis_client.Config     `mapstructure:"redis"`
	Authz   AuthzConfig             `mapstructure:"authz"`
	Plugins map[string]PluginConfig `mapstructure:"plugins"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" default:":8080"`
	APIPrefix       string        `mapstructure:"api-prefix" default:"/api"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout" default:"15s"`
}

// AuthzConfig seeds the casbin enforcer. Policies are [subject, permission]
// pairs; Roles are [subject, role] pairs.
type AuthzConfig struct {
	Policies [][]string `mapstructure:"policies"`
	Roles    [][]string `mapstructure:"roles"`
}

// PluginConfig is the host's view of one plugin. Settings overrides are
// keyed by setting name; viper lower-cases keys, so lookups must not depend
// on case.
type PluginConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Optional bool `mapstructure:"optional"`
	// Version is a semver constraint the plugin must satisfy to be
	// activated, e.g. ">= 1.0, < 2".
	Version  string         `mapstructure:"version"`
	Settings map[string]any `mapstructure:"settings"`
}

// DefaultHostConfig returns the configuration used when a key is absent.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		Logging: logging.DefaultConfig(),
		Plugins: map[string]PluginConfig{},
	}
}

// Validate checks the parts of the configuration the host cannot run without.
func (c *HostConfig) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if !strings.HasPrefix(c.Server.APIPrefix, "/") {
		return fmt.Errorf("server.api-prefix must start with '/', got %q", c.Server.APIPrefix)
	}
	for i, p := range c.Authz.Policies {
		if len(p) != 2 {
			return fmt.Errorf("authz.policies[%d] must be [subject, permission]", i)
		}
	}
	for i, r := range c.Authz.Roles {
		if len(r) != 2 {
			return fmt.Errorf("authz.roles[%d] must be [subject, role]", i)
		}
	}
	return nil
}

// Load reads, defaults and validates the host configuration.
func Load(opts Options) (*Config, *HostConfig, error) {
	cfg, err := New(opts)
	if err != nil {
		return nil, nil, err
	}

	host := DefaultHostConfig()
	if err := cfg.BindWithDefaults(&host); err != nil {
		return nil, nil, err
	}
	if err := host.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, &host, nil
}
