// Package logger builds the service's zap logger from the log section of the
// configuration.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options mirrors config.Config.Log plus the service name.
type Options struct {
	Level   string // debug / info / warn / error，大小写不敏感，默认 info
	Format  string // json（默认）或 console
	Output  string // stdout（默认）、stderr 或文件路径
	Service string // 作为 service_name 字段附加到每条日志
}

func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(opts.Level))
	cfg.OutputPaths = []string{outputPath(opts.Output)}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{}
	if opts.Service != "" {
		fields = append(fields, zap.String("service_name", opts.Service))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		fields = append(fields, zap.String("hostname", hostname))
	}
	return l.With(fields...), nil
}

func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func outputPath(out string) string {
	if out == "" {
		return "stdout"
	}
	return out
}
