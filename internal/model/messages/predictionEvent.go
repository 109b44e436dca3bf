package messages

import (
	"time"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// PredictionEvent is published after every successful scoring.
type PredictionEvent struct {
	PredictionID string                   `json:"prediction_id"`
	FieldID      string                   `json:"field_id,omitempty"`
	Source       string                   `json:"source"` // http | form | grpc | mqtt
	Score        float64                  `json:"score"`
	Tier         string                   `json:"tier"`
	Insights     []string                 `json:"insights"`
	Observation  entities.FarmObservation `json:"observation"`
	Timestamp    time.Time                `json:"timestamp"`
}
