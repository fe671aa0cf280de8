package utils

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger *zap.Logger

// InitLogger builds the process-wide logger. It is called twice on
// startup: once with defaults so config loading can log, and again once
// the configured level is known.
func InitLogger(dev bool, level string) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if dev {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		lvl = zapcore.DebugLevel
	}

	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   "f2l.log",
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	})

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), lvl),
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileSink, lvl),
	)

	Logger = zap.New(core)
}

// TimeFormat renders an uptime in seconds as "1d 2h 3m 4s".
func TimeFormat(seconds uint64) string {
	const (
		minute = 60
		hour   = 60 * minute
		day    = 24 * hour
	)
	var out string
	if d := seconds / day; d > 0 {
		out += fmt.Sprintf("%dd ", d)
	}
	if h := (seconds % day) / hour; h > 0 {
		out += fmt.Sprintf("%dh ", h)
	}
	if m := (seconds % hour) / minute; m > 0 {
		out += fmt.Sprintf("%dm ", m)
	}
	return out + fmt.Sprintf("%ds", seconds%minute)
}
