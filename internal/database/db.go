package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"schemakit/internal/config"
)

var Pool *pgxpool.Pool

// EnsureDatabaseExists creates the definition-store database when it is
// missing, using the admin credentials against the maintenance database.
func EnsureDatabaseExists(cfg *config.Config) error {
	adminUser := os.Getenv("DB_ADMIN_USER")
	if adminUser == "" {
		return fmt.Errorf("DB_ADMIN_USER environment variable is required")
	}
	adminPassword := os.Getenv("DB_ADMIN_PASSWORD")
	if adminPassword == "" {
		return fmt.Errorf("DB_ADMIN_PASSWORD environment variable is required")
	}

	userInfo := url.UserPassword(adminUser, adminPassword)
	dsn := fmt.Sprintf(
		"postgres://%s@%s:%s/postgres?sslmode=disable",
		userInfo.String(),
		cfg.DBHost,
		cfg.DBPort,
	)

	log.Printf("Checking if database '%s' exists...", cfg.DBDatabase)

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var exists bool
	err = pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", cfg.DBDatabase).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if exists {
		log.Printf("Database '%s' already exists", cfg.DBDatabase)
		return nil
	}

	log.Printf("Database '%s' does not exist. Creating it...", cfg.DBDatabase)

	// CREATE DATABASE cannot run inside a transaction and cannot take
	// placeholders, so the name is identifier-quoted instead.
	quoted := pgx.Identifier{cfg.DBDatabase}.Sanitize()
	if _, err := pool.Exec(ctx, "CREATE DATABASE "+quoted); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	log.Printf("Database '%s' created successfully", cfg.DBDatabase)
	return nil
}

// Connect opens the pgx pool against the definition store.
func Connect(cfg *config.Config) (*pgxpool.Pool, error) {
	userInfo := url.UserPassword(cfg.DBUsername, cfg.DBPassword)
	dsn := fmt.Sprintf(
		"postgres://%s@%s:%s/%s?sslmode=disable",
		userInfo.String(),
		cfg.DBHost,
		cfg.DBPort,
		url.PathEscape(cfg.DBDatabase),
	)

	log.Printf("Connecting to database: postgres://%s:***@%s:%s/%s",
		cfg.DBUsername, cfg.DBHost, cfg.DBPort, cfg.DBDatabase)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string (check your .env file): %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Pool = pool
	log.Println("Database connection pool established successfully")
	return pool, nil
}

// OpenSQL opens the database/sql handle the sync engine issues DDL through.
// The registered drivers are pgx, sqlite and mysql.
func OpenSQL(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}
	return db, nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
		log.Println("Database connection pool closed")
	}
}
