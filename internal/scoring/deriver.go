package scoring

import (
	"math"

	"github.com/roadrank/roadrank/internal/errors"
	"github.com/roadrank/roadrank/internal/types"
)

// Deriver turns a validated driver profile into the fixed-order feature
// vector the model consumes. Categorical fields go through the encoder
// table; speed excess is derived from the road class limit.
type Deriver struct {
	encoder *EncoderTable
}

// NewDeriver builds a Deriver on top of an encoder table.
func NewDeriver(encoder *EncoderTable) *Deriver {
	return &Deriver{encoder: encoder}
}

// Derive validates the profile, applies any per-trip context overrides, and
// emits the feature vector in FeatureOrder. Unknown categorical values abort
// the derivation.
func (d *Deriver) Derive(profile types.DriverProfile, trip *types.TripContext) (FeatureVector, error) {
	if err := profile.Validate(); err != nil {
		return FeatureVector{}, errors.NewValidationError(err.Error())
	}

	roadType := profile.RoadType
	timeOfDay := profile.TimeOfDay
	weather := profile.Weather
	if trip != nil {
		if trip.RoadType != nil {
			roadType = *trip.RoadType
		}
		if trip.TimeOfDay != nil {
			timeOfDay = *trip.TimeOfDay
		}
		if trip.Weather != nil {
			weather = *trip.Weather
		}
	}

	roadCode, err := d.encoder.Encode(FieldRoadType, roadType)
	if err != nil {
		return FeatureVector{}, err
	}
	timeCode, err := d.encoder.Encode(FieldTimeOfDay, timeOfDay)
	if err != nil {
		return FeatureVector{}, err
	}
	weatherCode, err := d.encoder.Encode(FieldWeather, weather)
	if err != nil {
		return FeatureVector{}, err
	}

	excess := math.Max(0, profile.AvgSpeed-SpeedLimitFor(roadType))

	return FeatureVector{Values: []float64{
		profile.AvgSpeed,
		profile.MaxSpeed,
		excess,
		profile.SpeedingPercentage,
		float64(profile.HarshBrakes),
		float64(profile.HarshAccels),
		float64(profile.LaneChanges),
		float64(profile.Violations),
		profile.AvgCongestion,
		profile.AvgVisibility,
		roadCode,
		timeCode,
		weatherCode,
	}}, nil
}
