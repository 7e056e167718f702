package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/abisalde/student-portal/internal/configs"
	"github.com/abisalde/student-portal/pkg/logger"
)

type Database struct {
	DB     *sqlx.DB
	driver string
}

// Connect opens the configured database and, when database.migrate is set, applies pending migrations.
func Connect(cfg *configs.Config) (*Database, error) {
	db, err := Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.DB.Migrate {
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("🛠️ Database migration failed: %w", err)
		}
	}

	return db, nil
}

func Open(driver, dsn string) (*Database, error) {
	switch driver {
	case "sqlite3", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("❌ Failed to open database connection: %w", err)
	}

	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(10)
		db.SetMaxOpenConns(100)
		db.SetConnMaxLifetime(time.Hour)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("⚙️ Database ping failed: %w", err)
	}

	logger.Info("database connected", zap.String("driver", driver))
	return &Database{DB: db, driver: driver}, nil
}

func (db *Database) Driver() string {
	return db.driver
}

func (db *Database) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

func (db *Database) HealthCheck(ctx context.Context) error {
	if db.DB == nil {
		return fmt.Errorf("sql.DB is not initialized")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
	}
	return db.DB.PingContext(ctx)
}
