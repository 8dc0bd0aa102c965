package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadrank/roadrank/internal/types"
)

func deriveOrFail(t *testing.T, p types.DriverProfile) FeatureVector {
	t.Helper()
	v, err := NewDeriver(NewEncoderTable()).Derive(p, nil)
	require.NoError(t, err)
	return v
}

func TestRecommender_Select(t *testing.T) {
	r := NewRecommender()

	t.Run("speeding dominates", func(t *testing.T) {
		p := validProfile() // speeding 35%, brakes 8
		v := deriveOrFail(t, p)

		text := r.Select(v, ScoreResult{HDI: 58, Category: CategoryModerate})
		assert.Contains(t, text, "speed limit")
	})

	t.Run("braking at the reference level is anomalous on its own", func(t *testing.T) {
		// The same brake count wins once speeding drops to normal, so the
		// case above exercises dominance between two anomalous factors.
		p := validProfile()
		p.SpeedingPercentage = 4
		v := deriveOrFail(t, p)

		text := r.Select(v, ScoreResult{HDI: 60, Category: CategoryModerate})
		assert.Contains(t, text, "Brake earlier")
	})

	t.Run("harsh braking dominates when speeding is normal", func(t *testing.T) {
		p := validProfile()
		p.SpeedingPercentage = 4
		p.HarshBrakes = 14
		v := deriveOrFail(t, p)

		text := r.Select(v, ScoreResult{HDI: 60, Category: CategoryModerate})
		assert.Contains(t, text, "Brake earlier")
	})

	t.Run("lane weaving dominates", func(t *testing.T) {
		p := validProfile()
		p.SpeedingPercentage = 4
		p.HarshBrakes = 1
		p.HarshAccels = 1
		p.LaneChanges = 40
		v := deriveOrFail(t, p)

		text := r.Select(v, ScoreResult{HDI: 70, Category: CategoryModerate})
		assert.Contains(t, text, "lanes")
	})

	t.Run("safe driver gets positive text", func(t *testing.T) {
		p := validProfile()
		p.SpeedingPercentage = 4
		p.HarshBrakes = 1
		p.HarshAccels = 1
		p.LaneChanges = 3
		v := deriveOrFail(t, p)

		text := r.Select(v, ScoreResult{HDI: 92, Category: CategorySafe})
		assert.Contains(t, text, "Great driving")
	})

	t.Run("identical inputs give identical output", func(t *testing.T) {
		v := deriveOrFail(t, validProfile())
		res := ScoreResult{HDI: 58, Category: CategoryModerate}
		assert.Equal(t, r.Select(v, res), r.Select(v, res))
	})
}

func TestRecommender_Detailed(t *testing.T) {
	r := NewRecommender()

	t.Run("collects all triggered rules sorted by priority", func(t *testing.T) {
		p := validProfile()
		p.SpeedingPercentage = 45
		p.HarshBrakes = 12
		p.LaneChanges = 18
		p.TimeOfDay = "night"
		v := deriveOrFail(t, p)

		recs := r.Detailed(v, ScoreResult{HDI: 30, Category: CategoryRisky})
		require.Len(t, recs, 4)

		categories := make([]string, len(recs))
		for i, rec := range recs {
			categories[i] = rec.Category
		}
		assert.ElementsMatch(t, []string{"speeding", "braking", "night_driving", "lane_changes"}, categories)

		// Critical entries lead, medium trails.
		assert.Equal(t, PriorityCritical, recs[0].Priority)
		assert.Equal(t, PriorityMedium, recs[len(recs)-1].Priority)
	})

	t.Run("residential overspeed rule", func(t *testing.T) {
		p := validProfile()
		p.SpeedingPercentage = 5
		p.HarshBrakes = 0
		p.AvgSpeed = 65
		p.RoadType = "residential"
		v := deriveOrFail(t, p)

		recs := r.Detailed(v, ScoreResult{HDI: 55, Category: CategoryModerate})
		require.NotEmpty(t, recs)

		found := false
		for _, rec := range recs {
			if rec.Category == "residential" {
				found = true
				assert.Equal(t, PriorityHigh, rec.Priority)
			}
		}
		assert.True(t, found)
	})

	t.Run("clean high scorer gets the achievement entry", func(t *testing.T) {
		p := validProfile()
		p.SpeedingPercentage = 2
		p.HarshBrakes = 1
		p.HarshAccels = 1
		p.LaneChanges = 2
		v := deriveOrFail(t, p)

		recs := r.Detailed(v, ScoreResult{HDI: 90, Category: CategorySafe})
		require.Len(t, recs, 1)
		assert.Equal(t, "achievement", recs[0].Category)
		assert.Equal(t, PriorityPositive, recs[0].Priority)
	})

	t.Run("nothing triggered yields empty list", func(t *testing.T) {
		p := validProfile()
		p.SpeedingPercentage = 2
		p.HarshBrakes = 1
		p.HarshAccels = 1
		p.LaneChanges = 2
		v := deriveOrFail(t, p)

		recs := r.Detailed(v, ScoreResult{HDI: 70, Category: CategoryModerate})
		assert.Empty(t, recs)
	})
}
