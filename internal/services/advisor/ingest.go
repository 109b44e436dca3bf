package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/dedup"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/logging"
)

// Ingestor scores observations arriving on farm/observation/{field}.
// QoS1 may redeliver, so identical payloads inside the dedup window are dropped.
type Ingestor struct {
	svc     *Service
	dedup   *dedup.Deduper
	metrics *Metrics
	log     zerolog.Logger
}

func NewIngestor(svc *Service, d *dedup.Deduper, m *Metrics) *Ingestor {
	return &Ingestor{svc: svc, dedup: d, metrics: m, log: logging.Component("ingest")}
}

// Handle satisfies rabbitmq.Handler.
func (in *Ingestor) Handle(_ string, msg mqtt.Message) error {
	return in.HandlePayload(msg.Topic(), msg.Payload())
}

func (in *Ingestor) HandlePayload(topic string, payload []byte) error {
	if !in.dedup.ShouldProcess(dedup.Key(payload)) {
		in.metrics.Ingested("duplicate")
		return nil
	}
	var m model.ObservationMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		in.metrics.Ingested("malformed")
		return fmt.Errorf("decode observation on %s: %w", topic, err)
	}
	fieldID := strings.TrimSpace(m.FieldID)
	if fieldID == "" {
		fieldID = fieldFromTopic(topic)
	}
	res, err := in.svc.Predict(SourceMQTT, fieldID, m.Observation)
	if err != nil {
		in.metrics.Ingested("rejected")
		return err
	}
	in.metrics.Ingested("scored")
	in.log.Info().Str("field", fieldID).Str("id", res.ID).Float64("score", res.Score).Msg("ingest: observation scored")
	return nil
}

// fieldFromTopic takes the level after farm/observation.
func fieldFromTopic(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	if len(parts) >= 3 && parts[0] == "farm" && parts[1] == "observation" {
		return parts[2]
	}
	return ""
}
