package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoRecord is returned when a driver or completion lookup finds nothing.
var ErrNoRecord = errors.New("no matching record")

const insertTripQuery = `INSERT INTO trip_records (
	id, driver_id, avg_speed, max_speed, speeding_percentage,
	harsh_brakes_count, harsh_accels_count, lane_changes_count, violation_count,
	avg_congestion, avg_visibility, road_type, time_of_day, weather,
	raw_score, safe_driving_index, category, recommendation,
	task_completed, points_earned, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectTripColumns = `SELECT id, driver_id, avg_speed, max_speed, speeding_percentage,
	harsh_brakes_count, harsh_accels_count, lane_changes_count, violation_count,
	avg_congestion, avg_visibility, road_type, time_of_day, weather,
	raw_score, safe_driving_index, category, recommendation,
	task_completed, points_earned, created_at`

// Repository handles record store operations.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// execer abstracts *sql.DB and *sql.Tx so appends can run standalone or
// inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func tripArgs(rec *TripRecord) []interface{} {
	p := rec.Profile
	return []interface{}{
		rec.ID, p.DriverID, p.AvgSpeed, p.MaxSpeed, p.SpeedingPercentage,
		p.HarshBrakes, p.HarshAccels, p.LaneChanges, p.Violations,
		p.AvgCongestion, p.AvgVisibility, p.RoadType, p.TimeOfDay, p.Weather,
		rec.RawScore, rec.Index, rec.Category, rec.Recommendation,
		rec.TaskCompleted, rec.PointsEarned, rec.CreatedAt,
	}
}

// AppendTrip appends one trip record.
func (r *Repository) AppendTrip(ctx context.Context, rec *TripRecord) error {
	return r.appendTrip(ctx, r.db, rec)
}

func (r *Repository) appendTrip(ctx context.Context, ex execer, rec *TripRecord) error {
	if _, err := ex.ExecContext(ctx, insertTripQuery, tripArgs(rec)...); err != nil {
		return fmt.Errorf("failed to append trip record: %w", err)
	}
	return nil
}

func (r *Repository) appendCompletion(ctx context.Context, ex execer, c *TaskCompletion) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO task_completions (id, driver_id, task_id, points_earned, completed_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.DriverID, c.TaskID, c.PointsEarned, c.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to append task completion: %w", err)
	}
	return nil
}

// AppendCompletionWithTrip appends the completion entry and the re-scored
// trip row in one transaction. Either both rows land or neither does.
func (r *Repository) AppendCompletionWithTrip(ctx context.Context, c *TaskCompletion, rec *TripRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.appendCompletion(ctx, tx, c); err != nil {
		return err
	}
	if err := r.appendTrip(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}
	return nil
}

func scanTrip(row *sql.Row) (*TripRecord, error) {
	var rec TripRecord
	p := &rec.Profile
	err := row.Scan(
		&rec.ID, &p.DriverID, &p.AvgSpeed, &p.MaxSpeed, &p.SpeedingPercentage,
		&p.HarshBrakes, &p.HarshAccels, &p.LaneChanges, &p.Violations,
		&p.AvgCongestion, &p.AvgVisibility, &p.RoadType, &p.TimeOfDay, &p.Weather,
		&rec.RawScore, &rec.Index, &rec.Category, &rec.Recommendation,
		&rec.TaskCompleted, &rec.PointsEarned, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("failed to scan trip record: %w", err)
	}
	rec.Profile.Category = rec.Category
	return &rec, nil
}

// LatestByDriver returns the most recent trip record for a driver, or
// ErrNoRecord when the driver has no rows.
func (r *Repository) LatestByDriver(ctx context.Context, driverID string) (*TripRecord, error) {
	row := r.db.QueryRowContext(ctx, selectTripColumns+`
		FROM trip_records WHERE driver_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		driverID)
	return scanTrip(row)
}

// ListDrivers returns one summary per driver, most recently updated first.
func (r *Repository) ListDrivers(ctx context.Context, limit int) ([]DriverSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.driver_id, t.safe_driving_index, t.category, c.trip_count, t.created_at
		FROM trip_records t
		JOIN (
			SELECT driver_id, COUNT(*) AS trip_count, MAX(created_at) AS latest
			FROM trip_records GROUP BY driver_id
		) c ON c.driver_id = t.driver_id AND c.latest = t.created_at
		GROUP BY t.driver_id
		ORDER BY t.created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	defer rows.Close()

	var summaries []DriverSummary
	for rows.Next() {
		var s DriverSummary
		if err := rows.Scan(&s.DriverID, &s.Index, &s.Category, &s.TripCount, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan driver summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// LatestCompletion returns the most recent completion of a task by a driver,
// or ErrNoRecord when the driver never completed it.
func (r *Repository) LatestCompletion(ctx context.Context, driverID, taskID string) (*TaskCompletion, error) {
	var c TaskCompletion
	err := r.db.QueryRowContext(ctx, `
		SELECT id, driver_id, task_id, points_earned, completed_at
		FROM task_completions WHERE driver_id = ? AND task_id = ?
		ORDER BY completed_at DESC LIMIT 1`,
		driverID, taskID).Scan(&c.ID, &c.DriverID, &c.TaskID, &c.PointsEarned, &c.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("failed to query latest completion: %w", err)
	}
	return &c, nil
}

// CompletionsByDriver returns all completions for a driver, newest first.
func (r *Repository) CompletionsByDriver(ctx context.Context, driverID string) ([]TaskCompletion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, driver_id, task_id, points_earned, completed_at
		FROM task_completions WHERE driver_id = ? ORDER BY completed_at DESC`,
		driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	var completions []TaskCompletion
	for rows.Next() {
		var c TaskCompletion
		if err := rows.Scan(&c.ID, &c.DriverID, &c.TaskID, &c.PointsEarned, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

// TripCountByDriver returns the number of stored rows for one driver.
func (r *Repository) TripCountByDriver(ctx context.Context, driverID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trip_records WHERE driver_id = ?`, driverID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trips: %w", err)
	}
	return count, nil
}
