// Command seed fills the record store with synthetic scored trips so the API
// has drivers to serve before any real telemetry arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/roadrank/roadrank/internal/config"
	"github.com/roadrank/roadrank/internal/database"
	"github.com/roadrank/roadrank/internal/monitoring"
	"github.com/roadrank/roadrank/internal/scoring"
	"github.com/roadrank/roadrank/internal/telemetry"
)

var behaviors = []string{"safe", "moderate", "aggressive", "distracted"}

func main() {
	cfg := config.New()

	drivers := flag.Int("drivers", 20, "number of drivers to seed")
	trips := flag.Int("trips", 3, "trips per driver")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	dataDir := flag.String("data", cfg.DataDir, "data directory of the record store")
	flag.Parse()

	logger := monitoring.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger.Logger)

	if err := run(*drivers, *trips, *seed, *dataDir, cfg); err != nil {
		slog.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(drivers, trips int, seed int64, dataDir string, cfg *config.Config) error {
	db, err := database.NewDB(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	model := scoring.NewBaselineModel()
	pipeline := scoring.NewPipeline(
		scoring.NewDeriver(scoring.NewEncoderTable()),
		model,
		scoring.NewNormalizer(model, cfg.SafeThreshold, cfg.ModerateThreshold),
		scoring.NewRecommender(),
	)

	gen := telemetry.NewGenerator(seed)
	ctx := context.Background()

	appended := 0
	for d := 0; d < drivers; d++ {
		driverID := fmt.Sprintf("driver-%03d", d+1)
		behavior := behaviors[d%len(behaviors)]

		for i := 0; i < trips; i++ {
			trip, err := gen.Generate(telemetry.TripOptions{
				DriverID: driverID,
				Behavior: behavior,
			})
			if err != nil {
				return fmt.Errorf("failed to generate trip for %s: %w", driverID, err)
			}

			result, _, err := pipeline.Score(ctx, trip.Profile, nil)
			if err != nil {
				return fmt.Errorf("failed to score trip for %s: %w", driverID, err)
			}

			stored := trip.Profile
			stored.Category = result.Category
			rec := database.NewTripRecord(stored, result.RawScore, result.HDI, result.Category, result.Recommendation)
			if err := repo.AppendTrip(ctx, rec); err != nil {
				return fmt.Errorf("failed to append trip for %s: %w", driverID, err)
			}
			appended++
		}

		slog.Info("Driver seeded",
			"driver_id", driverID,
			"behavior", behavior,
			"trips", trips)
	}

	slog.Info("Seeding complete",
		"drivers", drivers,
		"trips_appended", appended,
		"model_version", model.Version(),
		"seed", seed)
	return nil
}
