package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaselineModel_Infer(t *testing.T) {
	model := NewBaselineModel()
	deriver := NewDeriver(NewEncoderTable())

	t.Run("perfect profile scores at the intercept plus congestion bonus", func(t *testing.T) {
		p := validProfile()
		p.SpeedingPercentage = 0
		p.HarshBrakes = 0
		p.HarshAccels = 0
		p.LaneChanges = 0
		p.AvgCongestion = 0

		v, err := deriver.Derive(p, nil)
		require.NoError(t, err)

		raw, err := model.Infer(v)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, raw, 1e-9)
	})

	t.Run("risk features lower the raw score", func(t *testing.T) {
		v, err := deriver.Derive(validProfile(), nil)
		require.NoError(t, err)

		// 100 - 2.5*8 - 1.2*3 - 0.4*5 - 0.6*35 + 4*0.4 = 55.0
		raw, err := model.Infer(v)
		require.NoError(t, err)
		assert.InDelta(t, 55.0, raw, 1e-9)
	})

	t.Run("monotone in harsh brakes", func(t *testing.T) {
		base := validProfile()
		worse := base
		worse.HarshBrakes = base.HarshBrakes + 4

		vBase, err := deriver.Derive(base, nil)
		require.NoError(t, err)
		vWorse, err := deriver.Derive(worse, nil)
		require.NoError(t, err)

		rawBase, err := model.Infer(vBase)
		require.NoError(t, err)
		rawWorse, err := model.Infer(vWorse)
		require.NoError(t, err)
		assert.Less(t, rawWorse, rawBase)
	})

	t.Run("rejects malformed vector", func(t *testing.T) {
		_, err := model.Infer(FeatureVector{Values: []float64{1, 2, 3}})
		assert.Error(t, err)
	})
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()

	writeArtifact := func(t *testing.T, name, payload string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))
		return path
	}

	validFeatures := `["avg_speed","max_speed","speed_excess","speeding_percentage",` +
		`"harsh_brakes_count","harsh_accels_count","lane_changes_count","violation_count",` +
		`"avg_congestion","avg_visibility","road_type","time_of_day","weather"]`

	t.Run("loads valid artifact", func(t *testing.T) {
		path := writeArtifact(t, "model.json", `{
			"version": "v2",
			"features": `+validFeatures+`,
			"intercept": 90,
			"weights": {"harsh_brakes_count": -3},
			"range": {"min": -10, "max": 100}
		}`)

		model, err := LoadModel(path)
		require.NoError(t, err)
		assert.Equal(t, "v2", model.Version())

		min, max := model.TrainingRange()
		assert.Equal(t, -10.0, min)
		assert.Equal(t, 100.0, max)
	})

	t.Run("rejects reordered features", func(t *testing.T) {
		path := writeArtifact(t, "reordered.json", `{
			"version": "v2",
			"features": ["max_speed","avg_speed","speed_excess","speeding_percentage",
				"harsh_brakes_count","harsh_accels_count","lane_changes_count","violation_count",
				"avg_congestion","avg_visibility","road_type","time_of_day","weather"],
			"intercept": 90,
			"weights": {},
			"range": {"min": 0, "max": 100}
		}`)

		_, err := LoadModel(path)
		assert.Error(t, err)
	})

	t.Run("rejects missing features", func(t *testing.T) {
		path := writeArtifact(t, "short.json", `{
			"version": "v2",
			"features": ["avg_speed"],
			"intercept": 90,
			"weights": {},
			"range": {"min": 0, "max": 100}
		}`)

		_, err := LoadModel(path)
		assert.Error(t, err)
	})

	t.Run("rejects empty range", func(t *testing.T) {
		path := writeArtifact(t, "range.json", `{
			"version": "v2",
			"features": `+validFeatures+`,
			"intercept": 90,
			"weights": {},
			"range": {"min": 100, "max": 100}
		}`)

		_, err := LoadModel(path)
		assert.Error(t, err)
	})

	t.Run("rejects missing version", func(t *testing.T) {
		path := writeArtifact(t, "noversion.json", `{
			"features": `+validFeatures+`,
			"intercept": 90,
			"weights": {},
			"range": {"min": 0, "max": 100}
		}`)

		_, err := LoadModel(path)
		assert.Error(t, err)
	})
}

func TestNormalizer(t *testing.T) {
	model := NewBaselineModel()
	n := NewNormalizer(model, 80, 50)

	t.Run("index stays within bounds", func(t *testing.T) {
		tests := []struct {
			name     string
			raw      float64
			expected int
		}{
			{name: "far below range clamps to zero", raw: -500, expected: 0},
			{name: "range minimum", raw: -20, expected: 0},
			{name: "range maximum", raw: 110, expected: 100},
			{name: "far above range clamps to hundred", raw: 500, expected: 100},
			{name: "midrange raw score", raw: 55, expected: 58},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.expected, n.Index(tt.raw))
			})
		}
	})

	t.Run("category cut points", func(t *testing.T) {
		assert.Equal(t, CategorySafe, n.Category(100))
		assert.Equal(t, CategorySafe, n.Category(80))
		assert.Equal(t, CategoryModerate, n.Category(79))
		assert.Equal(t, CategoryModerate, n.Category(50))
		assert.Equal(t, CategoryRisky, n.Category(49))
		assert.Equal(t, CategoryRisky, n.Category(0))
	})
}

func TestRobustZ(t *testing.T) {
	sample := []float64{0, 2, 3, 5, 5, 6, 8, 10, 12, 15}

	assert.InDelta(t, 0, robustZ(5.5, sample), 1e-9)
	assert.Greater(t, robustZ(35, sample), 2.0)
	assert.Less(t, robustZ(-10, sample), -1.0)

	// MAD of a constant sample falls back to 1, keeping z finite.
	flat := []float64{3, 3, 3, 3}
	assert.InDelta(t, 1.11, robustZ(5, flat), 0.01)
}
