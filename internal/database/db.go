package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with pooling and prepared statements.
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}

// NewDB opens (or creates) the record store under dataDir.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "roadrank.db")

	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(); err != nil {
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Record store initialized",
		"path", dbPath,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		// Append-only trip records. Task completions append fresh rows; no
		// row is ever updated in place.
		`CREATE TABLE IF NOT EXISTS trip_records (
			id TEXT PRIMARY KEY,
			driver_id TEXT NOT NULL,
			avg_speed REAL NOT NULL,
			max_speed REAL NOT NULL,
			speeding_percentage REAL NOT NULL,
			harsh_brakes_count INTEGER NOT NULL,
			harsh_accels_count INTEGER NOT NULL,
			lane_changes_count INTEGER NOT NULL,
			violation_count INTEGER NOT NULL,
			avg_congestion REAL NOT NULL,
			avg_visibility REAL NOT NULL,
			road_type TEXT NOT NULL,
			time_of_day TEXT NOT NULL,
			weather TEXT NOT NULL,
			raw_score REAL NOT NULL,
			safe_driving_index INTEGER NOT NULL,
			category TEXT NOT NULL,
			recommendation TEXT NOT NULL,
			task_completed TEXT NOT NULL DEFAULT '',
			points_earned INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS task_completions (
			id TEXT PRIMARY KEY,
			driver_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			points_earned INTEGER NOT NULL,
			completed_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_trip_records_driver ON trip_records(driver_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_records_created ON trip_records(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_task_completions_driver_task ON task_completions(driver_id, task_id, completed_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_task_completions_driver ON task_completions(driver_id, completed_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// initPreparedStatements initializes frequently used prepared statements
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"insert_trip": insertTripQuery,

		"insert_completion": `INSERT INTO task_completions (id, driver_id, task_id, points_earned, completed_at)
			VALUES (?, ?, ?, ?, ?)`,

		"latest_trip_by_driver": selectTripColumns + `
			FROM trip_records WHERE driver_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,

		"latest_completion": `SELECT id, driver_id, task_id, points_earned, completed_at
			FROM task_completions WHERE driver_id = ? AND task_id = ?
			ORDER BY completed_at DESC LIMIT 1`,

		"completions_by_driver": `SELECT id, driver_id, task_id, points_earned, completed_at
			FROM task_completions WHERE driver_id = ? ORDER BY completed_at DESC`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the database connection and prepared statements
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}

	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
