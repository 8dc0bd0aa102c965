package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadrank/roadrank/internal/types"
)

func validProfile() types.DriverProfile {
	return types.DriverProfile{
		DriverID:           "driver-1",
		AvgSpeed:           72,
		MaxSpeed:           95,
		SpeedingPercentage: 35,
		HarshBrakes:        8,
		HarshAccels:        3,
		LaneChanges:        5,
		Violations:         0,
		AvgCongestion:      0.4,
		AvgVisibility:      80,
		RoadType:           "main_road",
		TimeOfDay:          "midday",
		Weather:            "clear",
	}
}

func TestDeriver_Derive(t *testing.T) {
	deriver := NewDeriver(NewEncoderTable())

	t.Run("emits features in trained order", func(t *testing.T) {
		v, err := deriver.Derive(validProfile(), nil)
		require.NoError(t, err)
		require.Len(t, v.Values, len(FeatureOrder))

		avgSpeed, ok := v.Get("avg_speed")
		require.True(t, ok)
		assert.Equal(t, 72.0, avgSpeed)

		roadCode, ok := v.Get(FieldRoadType)
		require.True(t, ok)
		assert.Equal(t, 1.0, roadCode)

		weatherCode, ok := v.Get(FieldWeather)
		require.True(t, ok)
		assert.Equal(t, 0.0, weatherCode)
	})

	t.Run("speed excess is zero below the limit", func(t *testing.T) {
		p := validProfile()
		p.RoadType = "main_road" // limit 80, avg 72
		v, err := deriver.Derive(p, nil)
		require.NoError(t, err)

		excess, _ := v.Get("speed_excess")
		assert.Equal(t, 0.0, excess)
	})

	t.Run("speed excess above the limit", func(t *testing.T) {
		p := validProfile()
		p.RoadType = "residential" // limit 40
		v, err := deriver.Derive(p, nil)
		require.NoError(t, err)

		excess, _ := v.Get("speed_excess")
		assert.Equal(t, 32.0, excess)
	})

	t.Run("trip context overrides profile tags", func(t *testing.T) {
		road := "residential"
		weather := "fog"
		trip := &types.TripContext{RoadType: &road, Weather: &weather}

		v, err := deriver.Derive(validProfile(), trip)
		require.NoError(t, err)

		roadCode, _ := v.Get(FieldRoadType)
		assert.Equal(t, 3.0, roadCode)
		weatherCode, _ := v.Get(FieldWeather)
		assert.Equal(t, 4.0, weatherCode)
		// Untouched field keeps the profile value.
		timeCode, _ := v.Get(FieldTimeOfDay)
		assert.Equal(t, 1.0, timeCode)
	})

	t.Run("derivation is deterministic", func(t *testing.T) {
		a, err := deriver.Derive(validProfile(), nil)
		require.NoError(t, err)
		b, err := deriver.Derive(validProfile(), nil)
		require.NoError(t, err)
		assert.Equal(t, a.Values, b.Values)
	})
}

func TestDeriver_Derive_Rejections(t *testing.T) {
	deriver := NewDeriver(NewEncoderTable())

	tests := []struct {
		name   string
		mutate func(*types.DriverProfile)
	}{
		{name: "negative harsh brakes", mutate: func(p *types.DriverProfile) { p.HarshBrakes = -1 }},
		{name: "speeding percentage above 100", mutate: func(p *types.DriverProfile) { p.SpeedingPercentage = 120 }},
		{name: "congestion above 1", mutate: func(p *types.DriverProfile) { p.AvgCongestion = 1.5 }},
		{name: "empty driver id", mutate: func(p *types.DriverProfile) { p.DriverID = "" }},
		{name: "unseen road type", mutate: func(p *types.DriverProfile) { p.RoadType = "dirt_track" }},
		{name: "unseen weather", mutate: func(p *types.DriverProfile) { p.Weather = "hail" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			_, err := deriver.Derive(p, nil)
			assert.Error(t, err)
		})
	}
}

func TestSpeedLimitFor(t *testing.T) {
	assert.Equal(t, 120.0, SpeedLimitFor("highway"))
	assert.Equal(t, 80.0, SpeedLimitFor("main_road"))
	assert.Equal(t, 60.0, SpeedLimitFor("city_street"))
	assert.Equal(t, 40.0, SpeedLimitFor("residential"))
	assert.Equal(t, 0.0, SpeedLimitFor("unknown"))
}
