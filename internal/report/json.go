package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
)

type jsonReport struct {
	Title       string                `json:"title"`
	ID          string                `json:"id"`
	Score       float64               `json:"score"`
	ScoreText   string                `json:"score_text"`
	Progress    int                   `json:"progress"`
	Insights    []model.Insight       `json:"insights"`
	Observation model.FarmObservation `json:"observation"`
	Timestamp   time.Time             `json:"timestamp"`
}

type jsonExporter struct{}

func (jsonExporter) Format() string      { return string(FormatJSON) }
func (jsonExporter) ContentType() string { return "application/json" }
func (jsonExporter) Extension() string   { return ".json" }

func (jsonExporter) Write(w io.Writer, r *Report) error {
	doc := jsonReport{
		Title:       Title,
		ID:          r.Result.ID,
		Score:       r.Result.Score,
		ScoreText:   r.ScoreText(),
		Progress:    r.Result.Progress(),
		Insights:    r.Result.Insights,
		Observation: r.Result.Observation,
		Timestamp:   r.Result.Timestamp,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}
