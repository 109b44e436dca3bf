package advisor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
	"github.com/LeonardoBeccarini/agri_advisor/internal/scoring"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/dedup"
)

type predictorFunc func(scoring.FeatureVector) (float64, error)

func (f predictorFunc) Predict(v scoring.FeatureVector) (float64, error) { return f(v) }

// recordingSink keeps every event; fail makes Record return an error.
type recordingSink struct {
	mu     sync.Mutex
	events []model.PredictionEvent
	fail   bool
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Record(ev model.PredictionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink down")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) Events() []model.PredictionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PredictionEvent(nil), s.events...)
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestService scores every observation as score unless the predictor says otherwise.
func newTestService(t *testing.T, pred scoring.Predictor, sinks ...Sink) (*Service, *Metrics) {
	t.Helper()
	enc, err := scoring.NewCropEncoder([]string{"Corn", "Rice", "Soybean", "Wheat"})
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	p := scoring.NewPipeline(enc, pred,
		scoring.WithVersion("test-model"),
		scoring.WithClock(func() time.Time { return testNow }))
	m := NewMetrics()
	return NewService(p, m, sinks...), m
}

func constant(score float64) scoring.Predictor {
	return predictorFunc(func(scoring.FeatureVector) (float64, error) { return score, nil })
}

func newTestIngestor(svc *Service, m *Metrics) *Ingestor {
	return NewIngestor(svc, dedup.New(time.Minute, 100), m)
}
