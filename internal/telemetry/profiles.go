// Package telemetry generates synthetic driving trips for seeding and
// testing. Behaviour profiles, road classes and context factors mirror the
// distributions the scoring model was trained on.
package telemetry

// BehaviorProfile parameterizes one driver archetype.
type BehaviorProfile struct {
	Name                 string
	SpeedVariance        float64
	HarshBrakeProb       float64
	HarshAccelProb       float64
	LaneChangeProb       float64
	SpeedLimitAdherence  float64
	CongestionPatience   float64
	ViolationProbability float64
}

// Profiles holds the driver archetypes used for generation.
var Profiles = map[string]BehaviorProfile{
	"safe": {
		Name:                 "safe",
		SpeedVariance:        2,
		HarshBrakeProb:       0.005,
		HarshAccelProb:       0.004,
		LaneChangeProb:       0.001,
		SpeedLimitAdherence:  0.95,
		CongestionPatience:   0.9,
		ViolationProbability: 0.02,
	},
	"moderate": {
		Name:                 "moderate",
		SpeedVariance:        5,
		HarshBrakeProb:       0.02,
		HarshAccelProb:       0.015,
		LaneChangeProb:       0.003,
		SpeedLimitAdherence:  0.80,
		CongestionPatience:   0.7,
		ViolationProbability: 0.1,
	},
	"aggressive": {
		Name:                 "aggressive",
		SpeedVariance:        8,
		HarshBrakeProb:       0.08,
		HarshAccelProb:       0.06,
		LaneChangeProb:       0.008,
		SpeedLimitAdherence:  0.60,
		CongestionPatience:   0.4,
		ViolationProbability: 0.3,
	},
	"distracted": {
		Name:                 "distracted",
		SpeedVariance:        10,
		HarshBrakeProb:       0.06,
		HarshAccelProb:       0.04,
		LaneChangeProb:       0.012,
		SpeedLimitAdherence:  0.70,
		CongestionPatience:   0.5,
		ViolationProbability: 0.2,
	},
}

// RoadContext parameterizes one road class.
type RoadContext struct {
	SpeedLimit     float64
	BaseCongestion float64
}

// Roads holds the road classes used for generation.
var Roads = map[string]RoadContext{
	"highway":     {SpeedLimit: 120, BaseCongestion: 0.2},
	"main_road":   {SpeedLimit: 80, BaseCongestion: 0.4},
	"city_street": {SpeedLimit: 60, BaseCongestion: 0.6},
	"residential": {SpeedLimit: 40, BaseCongestion: 0.3},
}

// TimeFactors multiply base congestion per daypart.
var TimeFactors = map[string]float64{
	"morning_rush": 1.8,
	"midday":       1.0,
	"evening_rush": 2.0,
	"night":        0.5,
	"late_night":   0.3,
}

// WeatherVisibility maps weather to visibility percentage.
var WeatherVisibility = map[string]float64{
	"clear":      100,
	"light_rain": 70,
	"heavy_rain": 40,
	"sandstorm":  20,
	"fog":        30,
}
