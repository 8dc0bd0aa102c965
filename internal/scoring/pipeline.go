package scoring

import (
	"context"

	"github.com/roadrank/roadrank/internal/errors"
	"github.com/roadrank/roadrank/internal/types"
)

// Pipeline runs the full scoring chain: feature derivation, model
// inference, index normalization and recommendation selection. Stateless
// between calls; safe for concurrent use.
type Pipeline struct {
	deriver     *Deriver
	model       Model
	normalizer  *Normalizer
	recommender *Recommender
}

// NewPipeline assembles the pipeline from its stages.
func NewPipeline(deriver *Deriver, model Model, normalizer *Normalizer, recommender *Recommender) *Pipeline {
	return &Pipeline{
		deriver:     deriver,
		model:       model,
		normalizer:  normalizer,
		recommender: recommender,
	}
}

// Score produces the result for one driver snapshot. The context bounds the
// whole run; a cancelled context aborts before inference.
func (p *Pipeline) Score(ctx context.Context, profile types.DriverProfile, trip *types.TripContext) (ScoreResult, FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return ScoreResult{}, FeatureVector{}, err
	}

	vector, err := p.deriver.Derive(profile, trip)
	if err != nil {
		return ScoreResult{}, FeatureVector{}, err
	}

	raw, err := p.model.Infer(vector)
	if err != nil {
		return ScoreResult{}, FeatureVector{}, errors.WrapError(err, "model inference failed for driver %s", profile.DriverID)
	}

	index := p.normalizer.Index(raw)
	result := ScoreResult{
		RawScore: raw,
		HDI:      index,
		Category: p.normalizer.Category(index),
	}
	result.Recommendation = p.recommender.Select(vector, result)

	return result, vector, nil
}

// Detailed returns the full advice list for an already scored snapshot.
func (p *Pipeline) Detailed(vector FeatureVector, result ScoreResult) []Recommendation {
	return p.recommender.Detailed(vector, result)
}

// ModelVersion exposes the active artifact version for health reporting.
func (p *Pipeline) ModelVersion() string {
	return p.model.Version()
}
