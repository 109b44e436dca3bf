package model

import (
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/messages"
)

// Alias per esporre tipi comuni ai servizi

type (
	FarmObservation    = entities.FarmObservation
	Insight            = entities.Insight
	InsightLevel       = entities.InsightLevel
	PredictionResult   = entities.PredictionResult
	ObservationMessage = messages.ObservationMessage
	PredictionEvent    = messages.PredictionEvent
)

const (
	LevelSuccess = entities.LevelSuccess
	LevelInfo    = entities.LevelInfo
	LevelWarning = entities.LevelWarning
	LevelError   = entities.LevelError
)

// DefaultObservation returns the form defaults for crop.
func DefaultObservation(crop string) FarmObservation { return entities.DefaultObservation(crop) }
