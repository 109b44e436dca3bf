package scoring

import (
	"time"

	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
)

// Pipeline is the immutable scoring context built once at startup and shared
// by every request handler.
type Pipeline struct {
	enc     *CropEncoder
	model   Predictor
	version string
	now     func() time.Time
}

// Option customizes a Pipeline at construction.
type Option func(*Pipeline)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// WithVersion tags results with the artifact version.
func WithVersion(v string) Option { return func(p *Pipeline) { p.version = v } }

func NewPipeline(enc *CropEncoder, m Predictor, opts ...Option) *Pipeline {
	p := &Pipeline{enc: enc, model: m, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// FromArtifacts wires a pipeline over loaded artifacts.
func FromArtifacts(a *Artifacts) *Pipeline {
	v := a.Manifest.ModelSHA256
	if len(v) > 12 {
		v = v[:12]
	}
	return NewPipeline(a.Encoder, a.Model, WithVersion(v))
}

// Crops is the enumeration the shell offers in its crop selector.
func (p *Pipeline) Crops() []string { return p.enc.Classes() }

// Version identifies the loaded model.
func (p *Pipeline) Version() string { return p.version }

// Score runs validation, encoding, inference and insight evaluation.
func (p *Pipeline) Score(obs model.FarmObservation) (model.PredictionResult, error) {
	if err := Validate(obs); err != nil {
		return model.PredictionResult{}, err
	}
	vec, err := Encode(p.enc, obs)
	if err != nil {
		return model.PredictionResult{}, err
	}
	score, err := p.model.Predict(vec)
	if err != nil {
		return model.PredictionResult{}, err
	}
	return model.PredictionResult{
		ID:          uuid.NewString(),
		Score:       score,
		Insights:    Insights(score, obs),
		Observation: obs,
		Timestamp:   p.now().UTC(),
	}, nil
}
