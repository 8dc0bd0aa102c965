package scoring

import (
	"fmt"
	"sort"
)

// Recommendation priorities, most urgent first.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityPositive = "positive"
)

var priorityRank = map[string]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityPositive: 3,
}

// Recommendation is one entry of the detailed advice list.
type Recommendation struct {
	Priority string   `json:"priority"`
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Tips     []string `json:"tips"`
}

// riskFactor ties a feature to its safe-driver baseline sample and the
// headline text shown when it dominates. Order encodes the tie-break
// priority.
type riskFactor struct {
	feature  string
	baseline []float64
	text     string
}

// Recommender selects the headline recommendation from whichever risk
// feature is most anomalous against a safe-driver baseline, and produces the
// detailed advice list. Deterministic for identical inputs.
type Recommender struct {
	factors []riskFactor
}

// NewRecommender returns a Recommender with the built-in safe baselines.
// The samples summarize the safe cohort of the training data.
func NewRecommender() *Recommender {
	return &Recommender{
		factors: []riskFactor{
			{
				feature:  "speeding_percentage",
				baseline: []float64{0, 2, 3, 5, 5, 6, 8, 10, 12, 15},
				text:     "Reduce time above the speed limit; use cruise control and watch posted limits.",
			},
			{
				feature:  "harsh_brakes_count",
				baseline: []float64{0, 1, 1, 2, 2, 2, 3, 3, 4, 6},
				text:     "Brake earlier and keep a three second gap to the vehicle ahead.",
			},
			{
				feature:  "harsh_accels_count",
				baseline: []float64{0, 0, 1, 1, 2, 2, 3, 3, 4, 5},
				text:     "Accelerate gradually, especially when pulling into traffic.",
			},
			{
				feature:  "lane_changes_count",
				baseline: []float64{1, 2, 3, 4, 5, 6, 7, 8, 10, 12},
				text:     "Plan the route ahead and avoid weaving between lanes.",
			},
		},
	}
}

// anomalyThreshold is the robust z-score above which a factor counts as
// anomalous relative to the safe baseline.
const anomalyThreshold = 1.0

// Select picks the headline recommendation text. The most anomalous risk
// factor wins; ties and near-ties fall back to the fixed factor order, so
// identical inputs always produce identical output.
func (r *Recommender) Select(v FeatureVector, res ScoreResult) string {
	best := -1
	bestZ := anomalyThreshold
	for i, f := range r.factors {
		x, ok := v.Get(f.feature)
		if !ok {
			continue
		}
		z := robustZ(x, f.baseline)
		if z > bestZ {
			best = i
			bestZ = z
		}
	}
	if best >= 0 {
		return r.factors[best].text
	}
	if res.Category == CategorySafe {
		return "Great driving. Keep maintaining smooth, steady habits."
	}
	return "Drive attentively and review your recent trips for risky patterns."
}

// Detailed produces the full advice list from the rule table. Entries sort
// by priority, most urgent first.
func (r *Recommender) Detailed(v FeatureVector, res ScoreResult) []Recommendation {
	recs := []Recommendation{}

	speeding, _ := v.Get("speeding_percentage")
	if speeding > 20 {
		priority := PriorityHigh
		if speeding > 40 {
			priority = PriorityCritical
		}
		recs = append(recs, Recommendation{
			Priority: priority,
			Category: "speeding",
			Title:    "Warning: excessive speeding",
			Message:  fmt.Sprintf("You exceeded the speed limit for %.0f%% of the trip. Speeding is among the most common accident causes.", speeding),
			Tips: []string{
				"Use cruise control",
				"Stay within the posted limit",
				"Watch for speed limit signs",
			},
		})
	}

	brakes, _ := v.Get("harsh_brakes_count")
	if brakes > 5 {
		priority := PriorityHigh
		if brakes > 10 {
			priority = PriorityCritical
		}
		recs = append(recs, Recommendation{
			Priority: priority,
			Category: "braking",
			Title:    "Frequent harsh braking",
			Message:  fmt.Sprintf("Recorded %.0f harsh brakes. This raises the chance of a rear-end collision.", brakes),
			Tips: []string{
				"Keep a three second gap to the car ahead",
				"Scan traffic further ahead",
				"Avoid speeding in congestion",
			},
		})
	}

	// Codes 3 and 4 are night and late_night in the time-of-day vocabulary.
	timeCode, _ := v.Get(FieldTimeOfDay)
	if timeCode == 3 || timeCode == 4 {
		recs = append(recs, Recommendation{
			Priority: PriorityHigh,
			Category: "night_driving",
			Title:    "Night driving alert",
			Message:  "You are driving at night. A large share of accidents happen after dark despite lighter traffic.",
			Tips: []string{
				"Check windshield and headlights are clean",
				"Reduce speed by 10-15%",
				"Take a break every two hours",
			},
		})
	}

	lanes, _ := v.Get("lane_changes_count")
	if lanes > 15 {
		recs = append(recs, Recommendation{
			Priority: PriorityMedium,
			Category: "lane_changes",
			Title:    "Frequent lane changes",
			Message:  fmt.Sprintf("You changed lanes %.0f times during the trip. Frequent weaving increases accident risk.", lanes),
			Tips: []string{
				"Plan your route in advance",
				"Check the blind spot",
				"Signal three seconds before moving",
			},
		})
	}

	// Code 3 is residential in the road-type vocabulary.
	roadCode, _ := v.Get(FieldRoadType)
	avgSpeed, _ := v.Get("avg_speed")
	if roadCode == 3 && avgSpeed > 50 {
		recs = append(recs, Recommendation{
			Priority: PriorityHigh,
			Category: "residential",
			Title:    "Residential area, slow down",
			Message:  fmt.Sprintf("Your speed was %.0f km/h in a residential area. The ideal range is 40-50 km/h.", avgSpeed),
			Tips: []string{
				"Watch for children and pedestrians",
				"Mind parked cars",
				"Slow down immediately",
			},
		})
	}

	if res.HDI >= 80 && brakes < 3 {
		recs = append(recs, Recommendation{
			Priority: PriorityPositive,
			Category: "achievement",
			Title:    "Excellent performance",
			Message:  fmt.Sprintf("A safe trip with an index of %d/100. Keep it up.", res.HDI),
			Tips: []string{
				"You set an example for others",
				"You may qualify for an insurance discount",
			},
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
	})
	return recs
}
