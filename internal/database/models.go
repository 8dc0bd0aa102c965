package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/roadrank/roadrank/internal/types"
)

// TripRecord is one append-only row of the record store: a driver snapshot
// plus the score computed for it. Rows are never updated in place; task
// completions append a fresh row with the improved snapshot.
type TripRecord struct {
	ID             string              `json:"id" db:"id"`
	Profile        types.DriverProfile `json:"profile"`
	RawScore       float64             `json:"raw_score" db:"raw_score"`
	Index          int                 `json:"safe_driving_index" db:"safe_driving_index"`
	Category       string              `json:"category" db:"category"`
	Recommendation string              `json:"recommendation" db:"recommendation"`
	TaskCompleted  string              `json:"task_completed,omitempty" db:"task_completed"`
	PointsEarned   int                 `json:"points_earned" db:"points_earned"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
}

// TaskCompletion records one accepted task completion, used to enforce the
// cool-down window.
type TaskCompletion struct {
	ID           string    `json:"id" db:"id"`
	DriverID     string    `json:"driver_id" db:"driver_id"`
	TaskID       string    `json:"task_id" db:"task_id"`
	PointsEarned int       `json:"points_earned" db:"points_earned"`
	CompletedAt  time.Time `json:"completed_at" db:"completed_at"`
}

// DriverSummary is one row of the driver listing.
type DriverSummary struct {
	DriverID  string    `json:"driver_id"`
	Index     int       `json:"safe_driving_index"`
	Category  string    `json:"category"`
	TripCount int       `json:"trip_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTripRecord creates a trip record with a generated ID.
func NewTripRecord(profile types.DriverProfile, rawScore float64, index int, category, recommendation string) *TripRecord {
	return &TripRecord{
		ID:             uuid.New().String(),
		Profile:        profile,
		RawScore:       rawScore,
		Index:          index,
		Category:       category,
		Recommendation: recommendation,
		CreatedAt:      time.Now(),
	}
}

// NewTaskCompletion creates a completion entry with a generated ID.
func NewTaskCompletion(driverID, taskID string, points int) *TaskCompletion {
	return &TaskCompletion{
		ID:           uuid.New().String(),
		DriverID:     driverID,
		TaskID:       taskID,
		PointsEarned: points,
		CompletedAt:  time.Now(),
	}
}
