package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config represents the logger configuration.
type Config struct {
	// Director is the directory where per-level log files are written.
	Director string `mapstructure:"director" json:"director" yaml:"director"`

	// Level is the minimum log level (debug, info, warn, error, dpanic, panic, fatal).
	Level string `mapstructure:"level" json:"level" yaml:"level"`

	// EncodeLevel is the level encoder (LowercaseLevelEncoder, LowercaseColorLevelEncoder,
	// CapitalLevelEncoder, CapitalColorLevelEncoder).
	EncodeLevel string `mapstructure:"encode-level" json:"encodeLevel" yaml:"encode-level"`

	// Prefix is prepended to every timestamp.
	Prefix string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`

	TimeFormat string `mapstructure:"time-format" json:"timeFormat" yaml:"time-format"`

	// Format is json or console.
	Format string `mapstructure:"format" json:"format" yaml:"format"`

	LogInTerminal bool `mapstructure:"log-in-terminal" json:"logInTerminal" yaml:"log-in-terminal"`

	// LogInFile enables the rotated per-level files under Director.
	LogInFile bool `mapstructure:"log-in-file" json:"logInFile" yaml:"log-in-file"`

	MaxAge     int  `mapstructure:"max-age" json:"maxAge" yaml:"max-age"`
	MaxSize    int  `mapstructure:"max-size" json:"maxSize" yaml:"max-size"`
	MaxBackups int  `mapstructure:"max-backups" json:"maxBackups" yaml:"max-backups"`
	Compress   bool `mapstructure:"compress" json:"compress" yaml:"compress"`

	ShowLineNumber bool `mapstructure:"show-line-number" json:"showLineNumber" yaml:"show-line-number"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Director:       "logs",
		Level:          "info",
		EncodeLevel:    "LowercaseLevelEncoder",
		TimeFormat:     "2006/01/02 - 15:04:05",
		Format:         "json",
		LogInTerminal:  true,
		LogInFile:      false,
		MaxAge:         7,
		MaxSize:        100,
		MaxBackups:     10,
		Compress:       true,
		ShowLineNumber: true,
	}
}

// TransportLevel converts the string level to zapcore.Level.
func (c Config) TransportLevel() zapcore.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.DebugLevel
	}
}

// ZapEncodeLevel returns the zapcore.LevelEncoder based on EncodeLevel.
func (c Config) ZapEncodeLevel() zapcore.LevelEncoder {
	switch c.EncodeLevel {
	case "LowercaseColorLevelEncoder":
		return zapcore.LowercaseColorLevelEncoder
	case "CapitalLevelEncoder":
		return zapcore.CapitalLevelEncoder
	case "CapitalColorLevelEncoder":
		return zapcore.CapitalColorLevelEncoder
	default:
		return zapcore.LowercaseLevelEncoder
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Director == "" {
		c.Director = d.Director
	}
	if c.TimeFormat == "" {
		c.TimeFormat = d.TimeFormat
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.MaxAge == 0 {
		c.MaxAge = d.MaxAge
	}
	if c.MaxSize == 0 {
		c.MaxSize = d.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = d.MaxBackups
	}
}
