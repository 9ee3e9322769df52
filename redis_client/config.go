package redis_client

import "fmt"

type Config struct {
	Enabled  bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	Host     string `mapstructure:"host" json:"host" yaml:"host" toml:"host" default:"localhost"`
	Port     string `mapstructure:"port" json:"port" yaml:"port" toml:"port" default:"6379"`
	Password string `mapstructure:"password" json:"password" yaml:"password" toml:"password"`
	DB       int    `mapstructure:"db" json:"db" yaml:"db" toml:"db"`
	// ChannelPrefix prefixes the channels lifecycle events are published on.
	ChannelPrefix string `mapstructure:"channel-prefix" json:"channelPrefix" yaml:"channel-prefix" toml:"channel-prefix" default:"pyracms"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
