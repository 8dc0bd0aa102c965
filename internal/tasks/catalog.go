package tasks

// Metric names a task improvement can target.
const (
	MetricAvgSpeed    = "avg_speed"
	MetricMaxSpeed    = "max_speed"
	MetricHarshBrakes = "harsh_brakes_count"
	MetricHarshAccels = "harsh_accels_count"
	MetricViolations  = "violation_count"
)

// Task is one catalog entry. Improvements are additive deltas applied to the
// driver's latest snapshot on completion; results clamp at zero.
type Task struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Subtitle     string             `json:"subtitle"`
	Duration     string             `json:"duration"`
	Points       int                `json:"points"`
	Improvements map[string]float64 `json:"-"`
}

// Catalog is the fixed task list served to every driver.
type Catalog struct {
	tasks []Task
	byID  map[string]Task
}

// NewCatalog returns the built-in task catalog.
func NewCatalog() *Catalog {
	tasks := []Task{
		{
			ID:       "awareness_video",
			Title:    "Watch mandatory awareness video",
			Subtitle: "Based on driving behavior: risks of speeding",
			Duration: "5 minutes",
			Points:   5,
			Improvements: map[string]float64{
				MetricHarshBrakes: -1,
				MetricHarshAccels: -1,
			},
		},
		{
			ID:       "safety_guidelines",
			Title:    "Review safety guidelines",
			Subtitle: "Defensive driving refresher",
			Duration: "10 minutes",
			Points:   5,
			Improvements: map[string]float64{
				MetricHarshBrakes: -2,
				MetricViolations:  -1,
			},
		},
		{
			ID:       "license_renewal",
			Title:    "Renew driving license",
			Subtitle: "Expires in 45 days",
			Duration: "soon",
			Points:   10,
			Improvements: map[string]float64{
				MetricAvgSpeed: -5,
			},
		},
		{
			ID:       "vehicle_inspection",
			Title:    "Periodic vehicle inspection",
			Subtitle: "Required within 15 days",
			Duration: "soon",
			Points:   8,
			Improvements: map[string]float64{
				MetricMaxSpeed: -10,
			},
		},
		{
			ID:       "insurance_renewal",
			Title:    "Renew insurance",
			Subtitle: "Keep coverage active",
			Duration: "soon",
			Points:   5,
			Improvements: map[string]float64{
				MetricViolations: -1,
			},
		},
		{
			ID:       "vehicle_update",
			Title:    "Update vehicle records",
			Subtitle: "Refresh ownership details",
			Duration: "required",
			Points:   3,
			Improvements: map[string]float64{
				MetricAvgSpeed: -3,
			},
		},
	}

	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	return &Catalog{tasks: tasks, byID: byID}
}

// Get looks up a task by ID.
func (c *Catalog) Get(id string) (Task, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// All returns the catalog in its fixed order.
func (c *Catalog) All() []Task {
	out := make([]Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}
