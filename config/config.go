// Package config loads the host configuration with viper. Files are layered
// as config.yaml, config.local.yaml, config.<mode>.yaml and
// config.<mode>.local.yaml; environment variables override file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Options controls where configuration is read from.
type Options struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	Mode      EnvMode
	WatchAble bool
	// OnChange runs after a watched file change has been re-bound.
	OnChange func(e fsnotify.Event)
}

func DefaultOptions() Options {
	basePath := os.Getenv("CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}

	return Options{
		BasePath:  basePath,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: "PYRACMS",
		Mode:      Mode(),
	}
}

// Config wraps a viper instance built from layered files.
type Config struct {
	instance   *viper.Viper
	opts       Options
	watchOnce  sync.Once
	watchMutex sync.RWMutex
}

func New(opts Options) (*Config, error) {
	if opts.Mode == "" {
		opts.Mode = Mode()
	}
	instance, err := load(opts)
	if err != nil {
		return nil, err
	}
	return &Config{instance: instance, opts: opts}, nil
}

// Bind unmarshals the configuration into target. With WatchAble set, target
// is re-bound whenever a config file changes.
func (c *Config) Bind(target any) error {
	if c == nil || c.instance == nil {
		return fmt.Errorf("config instance is nil")
	}
	if target == nil {
		return fmt.Errorf("bind target is nil")
	}

	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	if err := c.instance.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config (path: %s, file: %s.%s): %w",
			c.opts.BasePath, c.opts.FileName, c.opts.FileType, err)
	}

	if c.opts.WatchAble {
		c.watchOnce.Do(func() {
			watched := c.instance
			watched.OnConfigChange(func(e fsnotify.Event) {
				// viper only re-reads the watched file; reload every layer.
				fresh, err := load(c.opts)
				if err != nil {
					return
				}
				c.watchMutex.Lock()
				c.instance = fresh
				err = fresh.Unmarshal(target)
				c.watchMutex.Unlock()
				if err != nil {
					return
				}
				if c.opts.OnChange != nil {
					c.opts.OnChange(e)
				}
			})
			watched.WatchConfig()
		})
	}

	return nil
}

// BindWithDefaults fills `default` tags, binds, then fills defaults again so
// values cleared by the files fall back to their defaults.
func (c *Config) BindWithDefaults(target any) error {
	if err := defaults.Set(target); err != nil {
		return fmt.Errorf("failed to set defaults: %w", err)
	}
	if err := c.Bind(target); err != nil {
		return err
	}
	if err := defaults.Set(target); err != nil {
		return fmt.Errorf("failed to set defaults after unmarshal: %w", err)
	}
	return nil
}

func (c *Config) Get(key string) any {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()
	return c.instance.Get(key)
}

func (c *Config) Set(key string, value any) {
	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()
	c.instance.Set(key, value)
}

// Files returns the config files that were merged, in load order.
func (c *Config) Files() []string {
	return configFilePaths(c.opts)
}

func load(opts Options) (*viper.Viper, error) {
	paths := configFilePaths(opts)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no configuration files found in path: %s", opts.BasePath)
	}

	v := viper.New()
	v.SetConfigType(opts.FileType)
	for i, path := range paths {
		v.SetConfigFile(path)
		var err error
		if i == 0 {
			err = v.ReadInConfig()
		} else {
			err = v.MergeInConfig()
		}
		if err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}
	// Watch the most specific file.
	v.SetConfigFile(paths[len(paths)-1])

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()
	applyEnvOverrides(v, opts.EnvPrefix)

	return v, nil
}

// applyEnvOverrides makes environment variables win over file values for
// every known key, e.g. server.addr -> PYRACMS_SERVER_ADDR.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(replacer.Replace(key))
		if envPrefix != "" {
			envKey = envPrefix + "_" + envKey
		}
		if value := os.Getenv(envKey); value != "" {
			v.Set(key, value)
		}
	}
}

func configFilePaths(opts Options) []string {
	names := []string{opts.FileName, opts.FileName + ".local"}
	for _, alias := range opts.Mode.aliases() {
		names = append(names,
			fmt.Sprintf("%s.%s", opts.FileName, alias),
			fmt.Sprintf("%s.%s.local", opts.FileName, alias),
		)
	}

	var files []string
	for _, name := range names {
		file := filepath.Join(opts.BasePath, name+"."+opts.FileType)
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			files = append(files, file)
		}
	}
	return files
}
