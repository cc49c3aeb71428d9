package logger

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// Setup configures the global logrus logger.
func Setup(level, format string) {
	log.SetOutput(os.Stdout)
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// Gorm routes gorm's query log through logrus.
type Gorm struct {
	SlowThreshold time.Duration
	level         gormlogger.LogLevel
}

func NewGorm() *Gorm {
	level := gormlogger.Warn
	if log.IsLevelEnabled(log.DebugLevel) {
		level = gormlogger.Info
	}
	return &Gorm{SlowThreshold: 200 * time.Millisecond, level: level}
}

func (g *Gorm) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *Gorm) Info(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		log.WithField("component", "gorm").Infof(msg, args...)
	}
}

func (g *Gorm) Warn(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		log.WithField("component", "gorm").Warnf(msg, args...)
	}
}

func (g *Gorm) Error(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		log.WithField("component", "gorm").Errorf(msg, args...)
	}
}

func (g *Gorm) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := log.WithFields(log.Fields{
		"component": "gorm",
		"elapsed":   elapsed.String(),
		"rows":      rows,
	})
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && g.level >= gormlogger.Error:
		entry.WithError(err).Error(sql)
	case g.SlowThreshold > 0 && elapsed > g.SlowThreshold && g.level >= gormlogger.Warn:
		entry.Warn("slow query: " + sql)
	case g.level >= gormlogger.Info:
		entry.Debug(sql)
	}
}
