// Package store holds the gorm-backed device, parameter, task, pending-request and
// session stores the protocol core depends on through small interfaces.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dexter939/EvoAcs-sub001/pkg/config"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("store: record not found")

// Database represents the database connection and operations
type Database struct {
	DB  *gorm.DB
	log zerolog.Logger
}

// NewDatabase opens the database named by cfg (postgres or sqlite).
func NewDatabase(cfg *config.Config, log zerolog.Logger) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	case "postgres", "":
		dialector = postgres.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	maxOpen, maxIdle := cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 100
	}
	if maxIdle <= 0 {
		maxIdle = 10
	}
	if cfg.Database.Driver == "sqlite" {
		// sqlite serializes writers; one connection also keeps ":memory:" databases shared.
		maxOpen, maxIdle = 1, 1
	}
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info().Str("driver", dialector.Name()).Msg("✅ Database connected")
	return &Database{DB: db, log: log}, nil
}

// OpenSQLite opens a sqlite database at path, ":memory:" included, and migrates it.
func OpenSQLite(path string, log zerolog.Logger) (*Database, error) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "sqlite", Path: path}}
	d, err := NewDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping tests the database connection
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate runs database migrations
func (d *Database) Migrate() error {
	d.log.Debug().Msg("Running database migrations")

	err := d.DB.AutoMigrate(
		&Device{},
		&Parameter{},
		&ProvisioningTask{},
		&PendingRequest{},
		&SessionRecord{},
		&ConnectionEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	d.log.Debug().Msg("Database migration completed")
	return nil
}

// GetStats returns database statistics
func (d *Database) GetStats() map[string]interface{} {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	stats := sqlDB.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
	}
}

// Repositories aggregates all repository instances
type Repositories struct {
	Devices     *DeviceRepository
	Parameters  *ParameterRepository
	Tasks       *TaskRepository
	Pending     *PendingRequestRepository
	Sessions    *SessionRepository
	Connections *ConnectionEventRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Devices:     NewDeviceRepository(db),
		Parameters:  NewParameterRepository(db),
		Tasks:       NewTaskRepository(db),
		Pending:     NewPendingRequestRepository(db),
		Sessions:    NewSessionRepository(db),
		Connections: NewConnectionEventRepository(db),
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
