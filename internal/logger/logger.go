// Package logger builds the application logger: logrus writing to stderr and
// to a size-rotated file, plus an adapter so GORM logs through it.
package logger

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/diewo77/go-garage/internal/config"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// Setup returns a logger configured from cfg. The returned closer flushes
// and closes the rotating file.
func Setup(cfg config.LoggingConfig, console io.Writer) (*logrus.Logger, io.Closer, error) {
	level, err := cfg.LogrusLevel()
	if err != nil {
		return nil, nil, err
	}
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	if cfg.File == "" {
		if console == nil {
			console = os.Stderr
		}
		l.SetOutput(console)
		return l, nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
	}
	if console == nil {
		l.SetOutput(rotator)
	} else {
		l.SetOutput(io.MultiWriter(console, rotator))
	}
	return l, rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Gorm adapts a logrus entry to gorm's logger interface.
type Gorm struct {
	entry         *logrus.Entry
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// GormLogger returns an adapter that logs SQL at debug level when debug is
// set and only errors and slow queries otherwise.
func GormLogger(l *logrus.Logger, debug bool) *Gorm {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return &Gorm{
		entry:         l.WithField("component", "gorm"),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
	}
}

func (g *Gorm) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *Gorm) Info(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.entry.Infof(msg, args...)
	}
}

func (g *Gorm) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.entry.Warnf(msg, args...)
	}
}

func (g *Gorm) Error(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.entry.Errorf(msg, args...)
	}
}

func (g *Gorm) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		sql, rows := fc()
		g.entry.WithFields(logrus.Fields{"elapsed": elapsed, "rows": rows}).WithError(err).Error(sql)
	case elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.entry.WithFields(logrus.Fields{"elapsed": elapsed, "rows": rows}).Warn("slow query: " + sql)
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.entry.WithFields(logrus.Fields{"elapsed": elapsed, "rows": rows}).Debug(sql)
	}
}
