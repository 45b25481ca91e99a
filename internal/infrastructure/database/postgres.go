package database

import (
	"embed"
	"fmt"
	"log"
	"time"

	migrate "github.com/rubenv/sql-migrate"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/complexchaos/pkg/config"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// GormLogLevel picks the ORM log level for a runtime mode
func GormLogLevel(environment string) logger.LogLevel {
	if environment == config.EnvProduction {
		return logger.Error
	}
	return logger.Warn
}

// NewPostgresDB creates the shared connection pool. The pool size comes from
// the connection_limit parameter of DATABASE_URL.
func NewPostgresDB(cfg *config.Config) (*gorm.DB, error) {
	dsn, limit, err := config.ParseDatabaseURL(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(GormLogLevel(cfg.Server.Environment)),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get generic database object to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	sqlDB.SetMaxOpenConns(limit)
	sqlDB.SetMaxIdleConns(max(1, limit/2))
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("✅ Database connected successfully (pool size %d)", limit)

	return db, nil
}

// MigrationSource returns the embedded SQL migrations
func MigrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFS,
		Root:       "migrations",
	}
}

// Migrate applies every pending migration in the given direction and returns how many ran
func Migrate(db *gorm.DB, direction migrate.MigrationDirection) (int, error) {
	return MigrateMax(db, direction, 0)
}

// MigrateMax applies at most limit migrations in the given direction; 0 means no limit
func MigrateMax(db *gorm.DB, direction migrate.MigrationDirection, limit int) (int, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection during migrate, error: %w", err)
	}

	n, err := migrate.ExecMax(sqlDB, "postgres", MigrationSource(), direction, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migration, error: %w", err)
	}

	log.Printf("✅ Applied %d migrations!\n", n)
	return n, nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("✅ Database connection closed")
	return nil
}
