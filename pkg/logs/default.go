package logs

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Output Output `json:"output" yaml:"output" mapstructure:"output"`
	Path   string `json:"path" yaml:"path" mapstructure:"path"`
	File   string `json:"file" yaml:"file" mapstructure:"file"`
}

func (cfg *LogConfig) Prepare() {
	if cfg.Output == "" {
		cfg.Output = Stdout
	}
	if cfg.Path == "" {
		cfg.Path = "logs"
	}
}

// CreateFileWriter 构建日志文件写入器
func CreateFileWriter(path, name string) (io.Writer, error) {
	os.MkdirAll(path, 0755)
	file := filepath.Join(path, name)
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件错误, err: %v", err)
	}
	return f, nil
}

func InitLogger(cfg LogConfig, defaultLogFile string) error {
	cfg.Prepare()
	if cfg.File == "" {
		cfg.File = defaultLogFile
	}
	SetLevel(GetLevel(cfg.Level))
	switch cfg.Output {
	case Stdout:
		SetOutput(os.Stdout)
	case Stderr:
		SetOutput(os.Stderr)
	case File:
		writer, err := CreateFileWriter(cfg.Path, cfg.File)
		if err != nil {
			return err
		}
		SetOutput(writer)
	}
	return nil
}

var logger FullLogger = &ILog{
	level:  LevelInfo,
	stdLog: log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile|log.Lmicroseconds),
}

// SetOutput sets the output of default logs. By default, it is stderr.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetLevel sets the level of logs below which logs will not be output.
// Note that this method is not concurrent-safe.
func SetLevel(lv Level) {
	logger.SetLevel(lv)
}

// DefaultLogger returns the default logger.
func DefaultLogger() FullLogger {
	return logger
}

// SetLogger sets the default logs.
// Note that this method is not concurrent-safe and must not be called
// after the use of DefaultLogger and global functions in this package.
func SetLogger(v FullLogger) {
	logger = v
}

func Fatal(v ...interface{}) { logger.Fatal(v...) }

func Error(v ...interface{}) { logger.Error(v...) }

func Warn(v ...interface{}) { logger.Warn(v...) }

func Notice(v ...interface{}) { logger.Notice(v...) }

func Info(v ...interface{}) { logger.Info(v...) }

func Debug(v ...interface{}) { logger.Debug(v...) }

func Trace(v ...interface{}) { logger.Trace(v...) }

func Fatalf(format string, v ...interface{}) { logger.Fatalf(format, v...) }

func Errorf(format string, v ...interface{}) { logger.Errorf(format, v...) }

func Warnf(format string, v ...interface{}) { logger.Warnf(format, v...) }

func Noticef(format string, v ...interface{}) { logger.Noticef(format, v...) }

func Infof(format string, v ...interface{}) { logger.Infof(format, v...) }

func Debugf(format string, v ...interface{}) { logger.Debugf(format, v...) }

func Tracef(format string, v ...interface{}) { logger.Tracef(format, v...) }

func CtxFatalf(ctx context.Context, format string, v ...interface{}) {
	logger.CtxFatalf(ctx, format, v...)
}

func CtxErrorf(ctx context.Context, format string, v ...interface{}) {
	logger.CtxErrorf(ctx, format, v...)
}

func CtxWarnf(ctx context.Context, format string, v ...interface{}) {
	logger.CtxWarnf(ctx, format, v...)
}

func CtxNoticef(ctx context.Context, format string, v ...interface{}) {
	logger.CtxNoticef(ctx, format, v...)
}

func CtxInfof(ctx context.Context, format string, v ...interface{}) {
	logger.CtxInfof(ctx, format, v...)
}

func CtxDebugf(ctx context.Context, format string, v ...interface{}) {
	logger.CtxDebugf(ctx, format, v...)
}

func CtxTracef(ctx context.Context, format string, v ...interface{}) {
	logger.CtxTracef(ctx, format, v...)
}
