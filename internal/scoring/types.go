package scoring

// Categorical field names shared by the encoder table and the deriver.
const (
	FieldRoadType  = "road_type"
	FieldTimeOfDay = "time_of_day"
	FieldWeather   = "weather"
)

// Driver categories derived from the normalized index.
const (
	CategorySafe     = "safe"
	CategoryModerate = "moderate"
	CategoryRisky    = "risky"
)

// FeatureOrder is the exact fixed order the model was trained with. The
// deriver emits values in this order and the model artifact is validated
// against it at load time.
var FeatureOrder = []string{
	"avg_speed",
	"max_speed",
	"speed_excess",
	"speeding_percentage",
	"harsh_brakes_count",
	"harsh_accels_count",
	"lane_changes_count",
	"violation_count",
	"avg_congestion",
	"avg_visibility",
	FieldRoadType,
	FieldTimeOfDay,
	FieldWeather,
}

// FeatureVector is the fixed-order numeric encoding of one driver snapshot.
// Request-scoped; never persisted.
type FeatureVector struct {
	Values []float64
}

// Get returns the value of a named feature. Panics on unknown names are
// avoided; unknown names return 0 and false.
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range FeatureOrder {
		if n == name && i < len(v.Values) {
			return v.Values[i], true
		}
	}
	return 0, false
}

// ScoreResult is the outcome of one pipeline run.
type ScoreResult struct {
	RawScore       float64 `json:"raw_score"`
	HDI            int     `json:"safe_driving_index"`
	Category       string  `json:"category"`
	Recommendation string  `json:"recommendation"`
}

// speedLimits holds the posted limit per road class, used to derive the
// speed excess feature.
var speedLimits = map[string]float64{
	"highway":     120,
	"main_road":   80,
	"city_street": 60,
	"residential": 40,
}

// SpeedLimitFor returns the posted speed limit of a road class, or 0 when
// the class is unknown.
func SpeedLimitFor(roadType string) float64 {
	return speedLimits[roadType]
}
