package repositories

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Shofyan/ecommerce-app/pkg/config"
)

// gormWriter routes GORM's own log lines into zerolog.
type gormWriter struct {
	zl zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.zl.Warn().Msgf(format, args...)
}

// NewGORMLogger returns a GORM logger that only reports slow queries and errors.
func NewGORMLogger(zl zerolog.Logger) gormlogger.Interface {
	return gormlogger.New(gormWriter{zl: zl.With().Str("component", "gorm").Logger()}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// OpenDatabase opens a GORM connection for the configured driver.
func OpenDatabase(cfg config.DBConfig, zl zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("driver %q has no SQL dialector", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewGORMLogger(zl)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if cfg.Driver == config.DriverSQLite {
		// SQLite allows a single writer, and an in-memory database lives only as long as its connection.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
