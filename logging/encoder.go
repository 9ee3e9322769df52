package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func timeEncoder(config Config) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(config.Prefix + t.Format(config.TimeFormat))
	}
}

// GetEncoder returns a zapcore.Encoder based on the config format.
func GetEncoder(config Config) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    config.ZapEncodeLevel(),
		EncodeTime:     timeEncoder(config),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if config.Format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// exactLevel enables a single level so each level lands in its own file.
func exactLevel(level zapcore.Level) zap.LevelEnablerFunc {
	return func(l zapcore.Level) bool {
		return l == level
	}
}

// buildCores returns one core per level from config.Level up to Fatal.
func buildCores(config Config) []zapcore.Core {
	enc := GetEncoder(config)
	cores := make([]zapcore.Core, 0, 7)
	for level := config.TransportLevel(); level <= zapcore.FatalLevel; level++ {
		ws := writeSyncerFor(config, level.String())
		if ws == nil {
			continue
		}
		cores = append(cores, zapcore.NewCore(enc, ws, exactLevel(level)))
	}
	return cores
}
