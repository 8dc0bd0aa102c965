package types

import "fmt"

// DriverProfile is the rolling behavioural snapshot for one driver, as stored
// in the record store and consumed by the scoring pipeline.
type DriverProfile struct {
	DriverID           string  `json:"driver_id"`
	Category           string  `json:"driver_category"`
	AvgSpeed           float64 `json:"avg_speed"`
	MaxSpeed           float64 `json:"max_speed"`
	SpeedingPercentage float64 `json:"speeding_percentage"`
	HarshBrakes        int     `json:"harsh_brakes_count"`
	HarshAccels        int     `json:"harsh_accels_count"`
	LaneChanges        int     `json:"lane_changes_count"`
	Violations         int     `json:"violation_count"`
	AvgCongestion      float64 `json:"avg_congestion"`
	AvgVisibility      float64 `json:"avg_visibility"`
	RoadType           string  `json:"road_type"`
	TimeOfDay          string  `json:"time_of_day"`
	Weather            string  `json:"weather"`
}

// Validate enforces the profile invariants: counts are non-negative and
// percentage fields stay within [0,100].
func (p *DriverProfile) Validate() error {
	if p.DriverID == "" {
		return fmt.Errorf("driver_id must not be empty")
	}
	counts := map[string]int{
		"harsh_brakes_count": p.HarshBrakes,
		"harsh_accels_count": p.HarshAccels,
		"lane_changes_count": p.LaneChanges,
		"violation_count":    p.Violations,
	}
	for name, v := range counts {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, v)
		}
	}
	if p.AvgSpeed < 0 || p.MaxSpeed < 0 {
		return fmt.Errorf("speeds must be non-negative")
	}
	if p.SpeedingPercentage < 0 || p.SpeedingPercentage > 100 {
		return fmt.Errorf("speeding_percentage must be within [0,100], got %g", p.SpeedingPercentage)
	}
	if p.AvgCongestion < 0 || p.AvgCongestion > 1 {
		return fmt.Errorf("avg_congestion must be within [0,1], got %g", p.AvgCongestion)
	}
	if p.AvgVisibility < 0 || p.AvgVisibility > 100 {
		return fmt.Errorf("avg_visibility must be within [0,100], got %g", p.AvgVisibility)
	}
	return nil
}

// TripContext carries optional per-trip overrides for the contextual tags.
// Nil fields leave the profile values untouched.
type TripContext struct {
	RoadType  *string `json:"road_type,omitempty"`
	TimeOfDay *string `json:"time_of_day,omitempty"`
	Weather   *string `json:"weather,omitempty"`
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	DriverID           string  `json:"driver_id" binding:"required"`
	AvgSpeed           float64 `json:"avg_speed"`
	MaxSpeed           float64 `json:"max_speed"`
	SpeedingPercentage float64 `json:"speeding_percentage"`
	HarshBrakes        int     `json:"harsh_brakes_count"`
	HarshAccels        int     `json:"harsh_accels_count"`
	LaneChanges        int     `json:"lane_changes_count"`
	Violations         int     `json:"violation_count"`
	AvgCongestion      float64 `json:"avg_congestion"`
	AvgVisibility      float64 `json:"avg_visibility"`
	RoadType           string  `json:"road_type"`
	TimeOfDay          string  `json:"time_of_day"`
	Weather            string  `json:"weather"`
}

// Profile converts the request into a DriverProfile for the pipeline.
func (r *PredictRequest) Profile() DriverProfile {
	return DriverProfile{
		DriverID:           r.DriverID,
		AvgSpeed:           r.AvgSpeed,
		MaxSpeed:           r.MaxSpeed,
		SpeedingPercentage: r.SpeedingPercentage,
		HarshBrakes:        r.HarshBrakes,
		HarshAccels:        r.HarshAccels,
		LaneChanges:        r.LaneChanges,
		Violations:         r.Violations,
		AvgCongestion:      r.AvgCongestion,
		AvgVisibility:      r.AvgVisibility,
		RoadType:           r.RoadType,
		TimeOfDay:          r.TimeOfDay,
		Weather:            r.Weather,
	}
}

// CompleteTaskRequest is the body of POST /complete-task.
type CompleteTaskRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
	TaskID   string `json:"task_id" binding:"required"`
}
