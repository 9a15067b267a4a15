// ABOUTME: Database connection and lifecycle management over GORM
// ABOUTME: Opens Postgres (with pgvector) or SQLite from a DSN and migrates the schema
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// DB wraps a GORM handle; inside Transaction it wraps the transaction
type DB struct {
	gorm    *gorm.DB
	dialect string
	log     *logger.Logger
}

// Open connects using dsn. postgres:// and postgresql:// select Postgres;
// sqlite://path or a bare file path select SQLite.
func Open(dsn string, log *logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	}

	var (
		dialector gorm.Dialector
		dialect   string
	)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialector, dialect = postgres.Open(dsn), "postgres"
	default:
		path := strings.TrimPrefix(dsn, "sqlite://")
		if !strings.HasPrefix(path, "file:") {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
			path += "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
		}
		dialector, dialect = sqlite.Open(path), "sqlite"
	}

	gdb, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	db := &DB{gorm: gdb, dialect: dialect, log: log.With("component", "storage", "dialect", dialect)}
	if err := db.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// OpenInMemory creates a private in-memory SQLite database (for testing)
func OpenInMemory() (*DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := Open(dsn, nil)
	if err != nil {
		return nil, err
	}
	// One connection keeps the shared in-memory database alive and serializes writers
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func (db *DB) migrate() error {
	if db.dialect == "postgres" {
		if err := db.gorm.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
			return fmt.Errorf("failed to enable pgvector extension: %w", err)
		}
	}
	return db.gorm.AutoMigrate(
		&models.User{},
		&models.Topic{},
		&models.Session{},
		&models.NotePoint{},
		&models.Comparison{},
		&models.SoloMetric{},
		&models.Notification{},
	)
}

// Close closes the underlying connection pool
func (db *DB) Close() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Dialect reports "postgres" or "sqlite"
func (db *DB) Dialect() string {
	return db.dialect
}

// Ping checks the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction runs fn inside a database transaction, rolling back on error
func (db *DB) Transaction(ctx context.Context, fn func(tx *DB) error) error {
	return db.gorm.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&DB{gorm: gtx, dialect: db.dialect, log: db.log})
	})
}

func (db *DB) ctx(ctx context.Context) *gorm.DB {
	return db.gorm.WithContext(ctx)
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
