package logging

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	fileWriters   = map[string]*lumberjack.Logger{}
	fileWritersMu sync.Mutex
)

// fileWriter returns the shared rotating writer for one level file.
// Loggers built from the same config share files instead of racing on them.
func fileWriter(config Config, level string) *lumberjack.Logger {
	name := filepath.Join(config.Director, level+".log")

	fileWritersMu.Lock()
	defer fileWritersMu.Unlock()

	if w, ok := fileWriters[name]; ok {
		return w
	}
	_ = os.MkdirAll(config.Director, 0o755)
	w := &lumberjack.Logger{
		Filename:   name,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
		LocalTime:  true,
	}
	fileWriters[name] = w
	return w
}

func writeSyncerFor(config Config, level string) zapcore.WriteSyncer {
	var syncers []zapcore.WriteSyncer
	if config.LogInTerminal {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}
	if config.LogInFile {
		syncers = append(syncers, zapcore.AddSync(fileWriter(config, level)))
	}
	switch len(syncers) {
	case 0:
		return nil
	case 1:
		return syncers[0]
	default:
		return zapcore.NewMultiWriteSyncer(syncers...)
	}
}

// CloseFiles closes every rotating log file opened by this package.
func CloseFiles() error {
	fileWritersMu.Lock()
	defer fileWritersMu.Unlock()

	var lastErr error
	for name, w := range fileWriters {
		if err := w.Close(); err != nil {
			lastErr = err
		}
		delete(fileWriters, name)
	}
	return lastErr
}
