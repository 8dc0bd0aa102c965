package scoring

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/roadrank/roadrank/internal/errors"
)

// Model scores a feature vector into a raw, unbounded value.
type Model interface {
	Infer(v FeatureVector) (float64, error)
	Version() string
	TrainingRange() (min, max float64)
}

// modelArtifact is the on-disk shape of a trained linear model.
type modelArtifact struct {
	Version   string             `json:"version"`
	Features  []string           `json:"features"`
	Intercept float64            `json:"intercept"`
	Weights   map[string]float64 `json:"weights"`
	Range     struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"range"`
}

// LinearModel applies intercept + sum(weight_i * feature_i) over the fixed
// feature order. Immutable after construction.
type LinearModel struct {
	version   string
	intercept float64
	weights   []float64
	rangeMin  float64
	rangeMax  float64
}

// NewBaselineModel returns the built-in model shipped with the service. The
// weights mirror the most recent training run; a file artifact, when
// configured, takes precedence.
func NewBaselineModel() *LinearModel {
	weights := map[string]float64{
		"harsh_brakes_count":  -2.5,
		"harsh_accels_count":  -1.2,
		"lane_changes_count":  -0.4,
		"speeding_percentage": -0.6,
		"speed_excess":        -0.3,
		"violation_count":     -1.5,
		"avg_congestion":      4.0,
	}
	m, err := newLinearModel(modelArtifact{
		Version:   "baseline-2025.08",
		Features:  FeatureOrder,
		Intercept: 100,
		Weights:   weights,
		Range: struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		}{Min: -20, Max: 110},
	})
	if err != nil {
		// The built-in artifact is constructed from FeatureOrder itself.
		panic(err)
	}
	return m
}

// LoadModel reads a model artifact from a JSON file and validates it against
// the expected feature order.
func LoadModel(path string) (*LinearModel, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model artifact: %w", err)
	}
	defer file.Close()

	var artifact modelArtifact
	if err := json.NewDecoder(file).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	return newLinearModel(artifact)
}

func newLinearModel(artifact modelArtifact) (*LinearModel, error) {
	if artifact.Version == "" {
		return nil, fmt.Errorf("model artifact missing version")
	}
	if len(artifact.Features) != len(FeatureOrder) {
		return nil, fmt.Errorf("model artifact lists %d features, expected %d",
			len(artifact.Features), len(FeatureOrder))
	}
	for i, name := range artifact.Features {
		if name != FeatureOrder[i] {
			return nil, fmt.Errorf("model artifact feature %d is %q, expected %q",
				i, name, FeatureOrder[i])
		}
	}
	if artifact.Range.Min >= artifact.Range.Max {
		return nil, fmt.Errorf("model artifact range [%g, %g] is empty",
			artifact.Range.Min, artifact.Range.Max)
	}

	weights := make([]float64, len(FeatureOrder))
	for i, name := range FeatureOrder {
		weights[i] = artifact.Weights[name]
	}

	return &LinearModel{
		version:   artifact.Version,
		intercept: artifact.Intercept,
		weights:   weights,
		rangeMin:  artifact.Range.Min,
		rangeMax:  artifact.Range.Max,
	}, nil
}

// Infer computes the raw score for one feature vector.
func (m *LinearModel) Infer(v FeatureVector) (float64, error) {
	if len(v.Values) != len(m.weights) {
		return 0, errors.NewModelUnavailableError(
			fmt.Errorf("feature vector holds %d values, model expects %d",
				len(v.Values), len(m.weights)))
	}
	score := m.intercept
	for i, w := range m.weights {
		score += w * v.Values[i]
	}
	return score, nil
}

// Version returns the artifact version string.
func (m *LinearModel) Version() string { return m.version }

// TrainingRange returns the raw score range observed during training.
func (m *LinearModel) TrainingRange() (float64, float64) {
	return m.rangeMin, m.rangeMax
}
