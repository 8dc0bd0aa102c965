package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/roadrank/roadrank/internal/database"
	apperrors "github.com/roadrank/roadrank/internal/errors"
	"github.com/roadrank/roadrank/internal/scoring"
	"github.com/roadrank/roadrank/internal/types"
)

// CompletionResult is the outcome of one accepted task completion.
type CompletionResult struct {
	Message          string `json:"message"`
	DriverID         string `json:"driver_id"`
	TaskID           string `json:"task_id"`
	PointsEarned     int    `json:"points_earned"`
	PreviousIndex    int    `json:"previous_index"`
	NewIndex         int    `json:"new_index"`
	ScoreImprovement int    `json:"score_improvement"`
	Category         string `json:"category"`
	Recommendation   string `json:"recommendation"`
}

// TaskStatus is one entry of the per-driver task listing.
type TaskStatus struct {
	Task
	Status string `json:"status"`
}

// Engine applies task completions: it re-scores the driver's improved
// snapshot and appends the result to the record store. Completions for the
// same driver serialize on a per-driver lock, so two concurrent requests
// cannot both pass the cool-down check.
type Engine struct {
	catalog  *Catalog
	repo     *database.Repository
	pipeline *scoring.Pipeline
	cooldown time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine builds a completion engine.
func NewEngine(catalog *Catalog, repo *database.Repository, pipeline *scoring.Pipeline, cooldown time.Duration) *Engine {
	return &Engine{
		catalog:  catalog,
		repo:     repo,
		pipeline: pipeline,
		cooldown: cooldown,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (e *Engine) driverLock(driverID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[driverID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[driverID] = lock
	}
	return lock
}

// CompleteTask marks a task as completed for a driver: it loads the latest
// snapshot, applies the task's improvements, re-scores, and appends both the
// completion entry and the new trip row atomically.
func (e *Engine) CompleteTask(ctx context.Context, driverID, taskID string) (*CompletionResult, error) {
	task, ok := e.catalog.Get(taskID)
	if !ok {
		return nil, apperrors.NewTaskNotFoundError(taskID)
	}

	lock := e.driverLock(driverID)
	lock.Lock()
	defer lock.Unlock()

	latest, err := e.repo.LatestByDriver(ctx, driverID)
	if err != nil {
		if err == database.ErrNoRecord {
			return nil, apperrors.NewDriverNotFoundError(driverID)
		}
		return nil, apperrors.NewInternalError("failed to load driver record", err)
	}

	if e.cooldown > 0 {
		prev, err := e.repo.LatestCompletion(ctx, driverID, taskID)
		if err != nil && err != database.ErrNoRecord {
			return nil, apperrors.NewInternalError("failed to check completion history", err)
		}
		if prev != nil {
			until := prev.CompletedAt.Add(e.cooldown)
			if time.Now().Before(until) {
				return nil, apperrors.NewTaskCooldownError(taskID, until)
			}
		}
	}

	improved := applyImprovements(latest.Profile, task.Improvements)

	result, _, err := e.pipeline.Score(ctx, improved, nil)
	if err != nil {
		return nil, err
	}

	rec := database.NewTripRecord(improved, result.RawScore, result.HDI, result.Category, result.Recommendation)
	rec.TaskCompleted = task.ID
	rec.PointsEarned = task.Points

	completion := database.NewTaskCompletion(driverID, task.ID, task.Points)

	if err := e.repo.AppendCompletionWithTrip(ctx, completion, rec); err != nil {
		return nil, apperrors.NewStoreWriteError(err)
	}

	slog.Info("Task completed",
		"driver_id", driverID,
		"task_id", task.ID,
		"previous_index", latest.Index,
		"new_index", result.HDI,
		"points", task.Points)

	return &CompletionResult{
		Message:          fmt.Sprintf("Task %q completed successfully", task.Title),
		DriverID:         driverID,
		TaskID:           task.ID,
		PointsEarned:     task.Points,
		PreviousIndex:    latest.Index,
		NewIndex:         result.HDI,
		ScoreImprovement: result.HDI - latest.Index,
		Category:         result.Category,
		Recommendation:   result.Recommendation,
	}, nil
}

// ListForDriver returns the catalog with per-driver status: tasks completed
// within the cool-down window show as completed, the rest as pending.
func (e *Engine) ListForDriver(ctx context.Context, driverID string) ([]TaskStatus, int, error) {
	if _, err := e.repo.LatestByDriver(ctx, driverID); err != nil {
		if err == database.ErrNoRecord {
			return nil, 0, apperrors.NewDriverNotFoundError(driverID)
		}
		return nil, 0, apperrors.NewInternalError("failed to load driver record", err)
	}

	completions, err := e.repo.CompletionsByDriver(ctx, driverID)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to load completions", err)
	}

	onCooldown := make(map[string]bool)
	now := time.Now()
	for _, c := range completions {
		if e.cooldown <= 0 || now.Before(c.CompletedAt.Add(e.cooldown)) {
			onCooldown[c.TaskID] = true
		}
	}

	var statuses []TaskStatus
	available := 0
	for _, task := range e.catalog.All() {
		status := "pending"
		if onCooldown[task.ID] {
			status = "completed"
		} else {
			available += task.Points
		}
		statuses = append(statuses, TaskStatus{Task: task, Status: status})
	}
	return statuses, available, nil
}

// applyImprovements returns a copy of the profile with the task deltas
// applied. Counts and speeds clamp at zero; the snapshot never gets worse
// from completing a task.
func applyImprovements(profile types.DriverProfile, improvements map[string]float64) types.DriverProfile {
	improved := profile
	for metric, delta := range improvements {
		switch metric {
		case MetricAvgSpeed:
			improved.AvgSpeed = math.Max(0, improved.AvgSpeed+delta)
		case MetricMaxSpeed:
			improved.MaxSpeed = math.Max(0, improved.MaxSpeed+delta)
		case MetricHarshBrakes:
			improved.HarshBrakes = clampCount(improved.HarshBrakes, delta)
		case MetricHarshAccels:
			improved.HarshAccels = clampCount(improved.HarshAccels, delta)
		case MetricViolations:
			improved.Violations = clampCount(improved.Violations, delta)
		}
	}
	return improved
}

func clampCount(current int, delta float64) int {
	next := current + int(delta)
	if next < 0 {
		return 0
	}
	return next
}
