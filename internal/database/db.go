package database

import (
	"time"

	"go-pos-terminal/internal/config"
	"go-pos-terminal/internal/logger"
	"go-pos-terminal/internal/storage"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	connectAttempts = 5
	retryDelay      = 2 * time.Second
)

// Open connects to the configured database and makes sure the storage
// tables exist. The local SQLite file is the default; MySQL is there for
// terminals that keep their data on a shared server.
func Open(cfg config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{Logger: logger.NewGorm()})
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", i+1).Warn("failed to connect to database, retrying")
		time.Sleep(retryDelay)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "connect after %d attempts", connectAttempts)
	}
	log.WithField("driver", cfg.DBDriver).Info("connected to database")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the storage tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(storage.Models()...); err != nil {
		return errors.Wrap(err, "auto-migrate")
	}
	log.Debug("database schema synced")
	return nil
}

func dialectorFor(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite, "":
		return sqlite.Open(cfg.DBDSN), nil
	case config.DriverMySQL:
		return mysql.Open(cfg.DBDSN), nil
	}
	return nil, errors.Errorf("unsupported database driver %q", cfg.DBDriver)
}
