package telemetry

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/roadrank/roadrank/internal/types"
)

// TripOptions pins down the context of one generated trip. Zero values are
// filled in randomly.
type TripOptions struct {
	DriverID        string
	Behavior        string
	RoadType        string
	TimeOfDay       string
	Weather         string
	DurationSeconds int
}

// TripSummary is one generated trip, aggregated to the profile the scoring
// pipeline consumes, plus the rule-based label score used during training.
type TripSummary struct {
	TripID    string
	Behavior  string
	Profile   types.DriverProfile
	RuleScore float64
	Category  string
}

// Generator produces synthetic trips. Seeded generators are deterministic.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator from a seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

var (
	behaviorNames = []string{"safe", "moderate", "aggressive", "distracted"}
	roadNames     = []string{"highway", "main_road", "city_street", "residential"}
	dayparts      = []string{"morning_rush", "midday", "evening_rush", "night", "late_night"}
	weathers      = []string{"clear", "light_rain", "heavy_rain", "sandstorm", "fog"}
)

func (g *Generator) pick(options []string) string {
	return options[g.rng.Intn(len(options))]
}

// Generate simulates one trip second by second and aggregates it.
func (g *Generator) Generate(opts TripOptions) (*TripSummary, error) {
	if opts.DriverID == "" {
		opts.DriverID = uuid.New().String()[:8]
	}
	if opts.Behavior == "" {
		opts.Behavior = g.pick(behaviorNames)
	}
	if opts.RoadType == "" {
		opts.RoadType = g.pick(roadNames)
	}
	if opts.TimeOfDay == "" {
		opts.TimeOfDay = g.pick(dayparts)
	}
	if opts.Weather == "" {
		opts.Weather = g.pick(weathers)
	}
	if opts.DurationSeconds == 0 {
		opts.DurationSeconds = (5 + g.rng.Intn(56)) * 60
	}

	behavior, ok := Profiles[opts.Behavior]
	if !ok {
		return nil, fmt.Errorf("unknown behavior profile %q", opts.Behavior)
	}
	road, ok := Roads[opts.RoadType]
	if !ok {
		return nil, fmt.Errorf("unknown road type %q", opts.RoadType)
	}
	timeFactor, ok := TimeFactors[opts.TimeOfDay]
	if !ok {
		return nil, fmt.Errorf("unknown time of day %q", opts.TimeOfDay)
	}
	visibility, ok := WeatherVisibility[opts.Weather]
	if !ok {
		return nil, fmt.Errorf("unknown weather %q", opts.Weather)
	}

	speeds := g.speedSequence(behavior, road, timeFactor, opts.DurationSeconds)

	harshBrakes, harshAccels := g.harshEvents(behavior, speeds)
	laneChanges := g.countEvents(behavior.LaneChangeProb, len(speeds))
	violations := g.countEvents(behavior.ViolationProbability/60, len(speeds))

	var sum, max float64
	speedingSeconds := 0
	for _, s := range speeds {
		sum += s
		if s > max {
			max = s
		}
		if s > road.SpeedLimit {
			speedingSeconds++
		}
	}
	avgSpeed := sum / float64(len(speeds))
	speedingPct := 100 * float64(speedingSeconds) / float64(len(speeds))

	avgCongestion := clamp(road.BaseCongestion*timeFactor*(0.8+0.4*g.rng.Float64()), 0, 1)

	profile := types.DriverProfile{
		DriverID:           opts.DriverID,
		AvgSpeed:           round2(avgSpeed),
		MaxSpeed:           round2(max),
		SpeedingPercentage: round2(speedingPct),
		HarshBrakes:        harshBrakes,
		HarshAccels:        harshAccels,
		LaneChanges:        laneChanges,
		Violations:         violations,
		AvgCongestion:      round3(avgCongestion),
		AvgVisibility:      visibility,
		RoadType:           opts.RoadType,
		TimeOfDay:          opts.TimeOfDay,
		Weather:            opts.Weather,
	}

	score, category := ruleScore(profile, road.SpeedLimit)
	profile.Category = category

	return &TripSummary{
		TripID:    uuid.New().String()[:8],
		Behavior:  opts.Behavior,
		Profile:   profile,
		RuleScore: score,
		Category:  category,
	}, nil
}

// speedSequence models acceleration, cruising under congestion, and final
// deceleration.
func (g *Generator) speedSequence(behavior BehaviorProfile, road RoadContext, timeFactor float64, seconds int) []float64 {
	if seconds < 60 {
		seconds = 60
	}

	target := road.SpeedLimit*behavior.SpeedLimitAdherence + (g.rng.Float64()*25 - 10)
	target = clamp(target, 10, road.SpeedLimit*1.3)

	speeds := make([]float64, seconds)

	accelPhase := seconds / 4
	if accelPhase > 30 {
		accelPhase = 30
	}
	for i := 1; i < accelPhase; i++ {
		accel := 2 + 6*g.rng.Float64()
		speeds[i] = math.Min(speeds[i-1]+accel, target)
	}

	for i := accelPhase; i < seconds-20; i++ {
		congestion := clamp(road.BaseCongestion*timeFactor*(0.8+0.4*g.rng.Float64()), 0, 1)
		penalty := congestion * 30 * (1 - behavior.CongestionPatience)
		adjusted := math.Max(target-penalty, 20)

		noise := g.rng.NormFloat64() * behavior.SpeedVariance
		drift := (adjusted - speeds[i-1]) * 0.1
		speeds[i] = clamp(speeds[i-1]+noise+drift, 0, road.SpeedLimit*1.3)
	}

	for i := seconds - 20; i < seconds; i++ {
		if i < 1 {
			continue
		}
		decel := 1 + 3*g.rng.Float64()
		speeds[i] = math.Max(speeds[i-1]-decel, 0)
	}

	return speeds
}

// harshEvents detects decelerations and accelerations above 10 km/h per
// second, plus probabilistic events from the behaviour profile.
func (g *Generator) harshEvents(behavior BehaviorProfile, speeds []float64) (brakes, accels int) {
	for i := 1; i < len(speeds); i++ {
		delta := speeds[i] - speeds[i-1]
		if delta < -10 {
			brakes++
		} else if delta > 10 {
			accels++
		}
	}
	brakes += g.countEvents(behavior.HarshBrakeProb/10, len(speeds))
	accels += g.countEvents(behavior.HarshAccelProb/10, len(speeds))
	return brakes, accels
}

func (g *Generator) countEvents(prob float64, seconds int) int {
	count := 0
	for i := 0; i < seconds; i++ {
		if g.rng.Float64() < prob {
			count++
		}
	}
	return count
}

// ruleScore applies the labelling formula the training data was built with.
func ruleScore(p types.DriverProfile, speedLimit float64) (float64, string) {
	score := 100.0
	score -= float64(p.HarshBrakes) * 3.0
	score -= float64(p.HarshAccels) * 1.5
	score -= float64(p.LaneChanges) * 0.5
	score -= p.SpeedingPercentage * 0.8
	if p.MaxSpeed > speedLimit {
		score -= (p.MaxSpeed - speedLimit) * 0.3
	}

	score += p.AvgCongestion * 5
	if p.AvgVisibility < 70 {
		score += 3
	}

	score = clamp(score, 0, 100)

	switch {
	case score >= 80:
		return score, "safe"
	case score >= 50:
		return score, "moderate"
	default:
		return score, "risky"
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
