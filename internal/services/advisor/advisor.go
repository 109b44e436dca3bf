package advisor

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
	"github.com/LeonardoBeccarini/agri_advisor/internal/scoring"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/logging"
)

// Prediction sources, used as metric and event labels.
const (
	SourceHTTP = "http"
	SourceForm = "form"
	SourceGRPC = "grpc"
	SourceMQTT = "mqtt"
)

// Sink receives every successful prediction. Sink failures never fail the request.
type Sink interface {
	Name() string
	Record(ev model.PredictionEvent) error
}

// Service is the shared request path of every surface: score, count, fan out.
type Service struct {
	pipeline *scoring.Pipeline
	metrics  *Metrics
	sinks    []Sink
	log      zerolog.Logger
}

func NewService(p *scoring.Pipeline, m *Metrics, sinks ...Sink) *Service {
	return &Service{pipeline: p, metrics: m, sinks: sinks, log: logging.Component("advisor")}
}

func (s *Service) Crops() []string { return s.pipeline.Crops() }

func (s *Service) ModelVersion() string { return s.pipeline.Version() }

// Predict scores one observation. fieldID is optional and only travels with the event.
func (s *Service) Predict(source, fieldID string, obs model.FarmObservation) (model.PredictionResult, error) {
	start := time.Now()
	res, err := s.pipeline.Score(obs)
	s.metrics.ObserveLatency(source, time.Since(start))
	if err != nil {
		kind := errorKind(err)
		s.metrics.Failed(source, kind)
		ev := s.log.Warn()
		if kind == "inference" {
			ev = s.log.Error()
		}
		ev.Err(err).Str("source", source).Str("crop", obs.CropType).Msg("advisor: prediction failed")
		return model.PredictionResult{}, err
	}

	tier := scoring.TierOf(res.Score)
	s.metrics.Scored(source, string(tier), res.Score)
	s.log.Debug().
		Str("id", res.ID).
		Str("source", source).
		Str("crop", obs.CropType).
		Float64("score", res.Score).
		Msg("advisor: prediction")

	if len(s.sinks) > 0 {
		ev := NewPredictionEvent(res, source, fieldID)
		for _, sk := range s.sinks {
			if err := sk.Record(ev); err != nil {
				s.metrics.SinkFailed(sk.Name())
				s.log.Warn().Err(err).Str("sink", sk.Name()).Msg("advisor: sink failed")
			}
		}
	}
	return res, nil
}

// NewPredictionEvent flattens a result into the message published downstream.
func NewPredictionEvent(res model.PredictionResult, source, fieldID string) model.PredictionEvent {
	return model.PredictionEvent{
		PredictionID: res.ID,
		FieldID:      fieldID,
		Source:       source,
		Score:        res.Score,
		Tier:         string(scoring.TierOf(res.Score)),
		Insights:     res.Messages(),
		Observation:  res.Observation,
		Timestamp:    res.Timestamp,
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, scoring.ErrUnknownCategory):
		return "unknown_crop"
	case errors.Is(err, scoring.ErrInvalidObservation):
		return "invalid_observation"
	case errors.Is(err, scoring.ErrInference):
		return "inference"
	default:
		return "other"
	}
}
