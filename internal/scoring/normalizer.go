package scoring

import "math"

// Normalizer maps raw model output onto the 0-100 index and assigns the
// driver category from the configured cut points.
type Normalizer struct {
	rangeMin          float64
	rangeMax          float64
	safeThreshold     int
	moderateThreshold int
}

// NewNormalizer builds a Normalizer for a model's training range. Raw values
// outside the range clamp to its edges, so the index stays in [0,100] even
// for inputs far beyond anything seen during training.
func NewNormalizer(model Model, safeThreshold, moderateThreshold int) *Normalizer {
	min, max := model.TrainingRange()
	return &Normalizer{
		rangeMin:          min,
		rangeMax:          max,
		safeThreshold:     safeThreshold,
		moderateThreshold: moderateThreshold,
	}
}

// Index converts a raw score into the integer safe driving index.
func (n *Normalizer) Index(raw float64) int {
	clamped := clip(raw, n.rangeMin, n.rangeMax)
	scaled := 100 * (clamped - n.rangeMin) / (n.rangeMax - n.rangeMin)
	return int(math.Round(scaled))
}

// Category maps an index value onto safe, moderate or risky.
func (n *Normalizer) Category(index int) string {
	switch {
	case index >= n.safeThreshold:
		return CategorySafe
	case index >= n.moderateThreshold:
		return CategoryModerate
	default:
		return CategoryRisky
	}
}
