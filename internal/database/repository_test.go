package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadrank/roadrank/internal/types"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db)
}

func testProfile(driverID string) types.DriverProfile {
	return types.DriverProfile{
		DriverID:           driverID,
		AvgSpeed:           72,
		MaxSpeed:           95,
		SpeedingPercentage: 35,
		HarshBrakes:        8,
		HarshAccels:        3,
		LaneChanges:        5,
		AvgCongestion:      0.4,
		AvgVisibility:      80,
		RoadType:           "main_road",
		TimeOfDay:          "midday",
		Weather:            "clear",
	}
}

func TestRepository_AppendAndLatest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("latest of unknown driver is ErrNoRecord", func(t *testing.T) {
		_, err := repo.LatestByDriver(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNoRecord)
	})

	t.Run("append then read back", func(t *testing.T) {
		rec := NewTripRecord(testProfile("d-1"), 55.0, 58, "moderate", "slow down")
		require.NoError(t, repo.AppendTrip(ctx, rec))

		got, err := repo.LatestByDriver(ctx, "d-1")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, 58, got.Index)
		assert.Equal(t, "moderate", got.Category)
		assert.Equal(t, 8, got.Profile.HarshBrakes)
	})

	t.Run("latest returns the newest row", func(t *testing.T) {
		older := NewTripRecord(testProfile("d-2"), 50, 54, "moderate", "a")
		older.CreatedAt = time.Now().Add(-time.Hour)
		require.NoError(t, repo.AppendTrip(ctx, older))

		newer := NewTripRecord(testProfile("d-2"), 70, 69, "moderate", "b")
		require.NoError(t, repo.AppendTrip(ctx, newer))

		got, err := repo.LatestByDriver(ctx, "d-2")
		require.NoError(t, err)
		assert.Equal(t, newer.ID, got.ID)
	})
}

func TestRepository_Completions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("no completion yet", func(t *testing.T) {
		_, err := repo.LatestCompletion(ctx, "d-1", "awareness_video")
		assert.ErrorIs(t, err, ErrNoRecord)
	})

	t.Run("atomic append of completion plus trip", func(t *testing.T) {
		base := NewTripRecord(testProfile("d-1"), 55, 58, "moderate", "slow down")
		require.NoError(t, repo.AppendTrip(ctx, base))

		improved := testProfile("d-1")
		improved.HarshBrakes = 7
		rec := NewTripRecord(improved, 58.7, 61, "moderate", "better")
		rec.TaskCompleted = "awareness_video"
		rec.PointsEarned = 5

		completion := NewTaskCompletion("d-1", "awareness_video", 5)
		require.NoError(t, repo.AppendCompletionWithTrip(ctx, completion, rec))

		got, err := repo.LatestCompletion(ctx, "d-1", "awareness_video")
		require.NoError(t, err)
		assert.Equal(t, completion.ID, got.ID)
		assert.Equal(t, 5, got.PointsEarned)

		latest, err := repo.LatestByDriver(ctx, "d-1")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, latest.ID)
		assert.Equal(t, "awareness_video", latest.TaskCompleted)

		count, err := repo.TripCountByDriver(ctx, "d-1")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("completions listed newest first", func(t *testing.T) {
		first := NewTaskCompletion("d-9", "vehicle_update", 3)
		first.CompletedAt = time.Now().Add(-time.Hour)
		require.NoError(t, repo.appendCompletion(ctx, repo.db, first))

		second := NewTaskCompletion("d-9", "awareness_video", 5)
		require.NoError(t, repo.appendCompletion(ctx, repo.db, second))

		list, err := repo.CompletionsByDriver(ctx, "d-9")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "awareness_video", list[0].TaskID)
		assert.Equal(t, "vehicle_update", list[1].TaskID)
	})
}

func TestRepository_ListDrivers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, id := range []string{"d-a", "d-b", "d-c"} {
		rec := NewTripRecord(testProfile(id), 55, 58, "moderate", "x")
		rec.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.AppendTrip(ctx, rec))
	}
	// Second row for d-a, newest overall.
	rec := NewTripRecord(testProfile("d-a"), 80, 77, "moderate", "y")
	rec.CreatedAt = time.Now().Add(time.Hour)
	require.NoError(t, repo.AppendTrip(ctx, rec))

	t.Run("one summary per driver, newest first", func(t *testing.T) {
		list, err := repo.ListDrivers(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "d-a", list[0].DriverID)
		assert.Equal(t, 77, list[0].Index)
		assert.Equal(t, 2, list[0].TripCount)
	})

	t.Run("limit is honored", func(t *testing.T) {
		list, err := repo.ListDrivers(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}
