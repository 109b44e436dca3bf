package messages

import (
	"time"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// ObservationMessage arrives on farm/observation/{field} for asynchronous scoring.
type ObservationMessage struct {
	FieldID     string                   `json:"field_id"`
	Observation entities.FarmObservation `json:"observation"`
	Timestamp   time.Time                `json:"timestamp"`
}
