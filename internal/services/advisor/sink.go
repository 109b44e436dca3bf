package advisor

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/rabbitmq"
)

// InfluxErrorWindow is how long an asynchronous write error keeps the sink failing.
const InfluxErrorWindow = 30 * time.Second

var ErrInfluxWriteFailing = errors.New("influx: recent write error")

// InfluxSink writes one point per prediction through the non-blocking WriteAPI
// and remembers when the last asynchronous write error happened. Record fails
// while that error is recent so a breaker around the sink can trip.
type InfluxSink struct {
	api         api.WriteAPI
	measurement string
	mu          sync.RWMutex
	lastErr     time.Time
}

func NewInfluxSink(w api.WriteAPI, measurement string) *InfluxSink {
	s := &InfluxSink{
		api:         w,
		measurement: measurement,
		lastErr:     time.Now().Add(-24 * time.Hour),
	}
	errs := w.Errors()
	go func() {
		for err := range errs {
			if err == nil {
				continue
			}
			s.mu.Lock()
			s.lastErr = time.Now()
			s.mu.Unlock()
			log.Warn().Err(err).Msg("influx: write error")
		}
	}()
	return s
}

func (s *InfluxSink) Name() string { return "influx" }

func (s *InfluxSink) Record(ev model.PredictionEvent) error {
	if err := s.Healthy(); err != nil {
		return err
	}
	s.api.WritePoint(PredictionToPoint(s.measurement, ev))
	return nil
}

// Healthy fails while the last write error is inside InfluxErrorWindow.
func (s *InfluxSink) Healthy() error {
	if age := s.LastErrorAge(); age < InfluxErrorWindow {
		return fmt.Errorf("%w %s ago", ErrInfluxWriteFailing, age.Round(time.Second))
	}
	return nil
}

// LastErrorAge is how long ago the last write error was reported.
func (s *InfluxSink) LastErrorAge() time.Duration {
	if s == nil {
		return 99999 * time.Hour
	}
	s.mu.RLock()
	t := s.lastErr
	s.mu.RUnlock()
	return time.Since(t)
}

// PredictionToPoint: tags are the low-cardinality labels, inputs and score are fields.
func PredictionToPoint(measurement string, ev model.PredictionEvent) *write.Point {
	tags := map[string]string{
		"crop_type": ev.Observation.CropType,
		"tier":      ev.Tier,
		"source":    ev.Source,
	}
	if ev.FieldID != "" {
		tags["field_id"] = ev.FieldID
	}
	o := ev.Observation
	fields := map[string]interface{}{
		"score":            ev.Score,
		"soil_ph":          o.SoilPH,
		"soil_moisture":    o.SoilMoisture,
		"temperature_c":    o.TemperatureC,
		"rainfall_mm":      o.RainfallMM,
		"fertilizer_usage": o.FertilizerKg,
		"pesticide_usage":  o.PesticideKg,
		"crop_yield_ton":   o.CropYieldTon,
		"insight_count":    int64(len(ev.Insights)),
		"prediction_id":    ev.PredictionID,
	}
	return influxdb2.NewPoint(measurement, tags, fields, ev.Timestamp)
}

// MQTTSink publishes events on {prefix}/{crop}.
type MQTTSink struct {
	pub    rabbitmq.IPublisher
	prefix string
}

func NewMQTTSink(pub rabbitmq.IPublisher, prefix string) *MQTTSink {
	return &MQTTSink{pub: pub, prefix: strings.TrimSuffix(prefix, "/")}
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Record(ev model.PredictionEvent) error {
	return s.pub.PublishJSON(EventTopic(s.prefix, ev.Observation.CropType), ev)
}

// EventTopic keeps the crop a single topic level.
func EventTopic(prefix, crop string) string {
	c := strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_").Replace(strings.TrimSpace(crop))
	return prefix + "/" + c
}

// breakerSink stops calling a failing sink until the breaker half-opens.
type breakerSink struct {
	inner Sink
	cb    *gobreaker.CircuitBreaker
}

func mkCB(name string, fails uint32, open time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: time.Minute,
		Timeout:  open,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("advisor: breaker state change")
		},
	})
}

// WithBreaker trips after five consecutive failures and retries after open.
func WithBreaker(s Sink, open time.Duration) Sink {
	return &breakerSink{inner: s, cb: mkCB(s.Name()+"-sink", 5, open)}
}

func (b *breakerSink) Name() string { return b.inner.Name() }

func (b *breakerSink) Record(ev model.PredictionEvent) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.Record(ev)
	})
	return err
}

func (b *breakerSink) State() gobreaker.State { return b.cb.State() }
