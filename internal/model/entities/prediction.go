package entities

import "time"

// PredictionResult is the outcome of scoring one FarmObservation.
type PredictionResult struct {
	ID          string          `json:"id"`
	Score       float64         `json:"score"`
	Insights    []Insight       `json:"insights"`
	Observation FarmObservation `json:"observation"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Messages returns the insight texts in order.
func (r PredictionResult) Messages() []string {
	out := make([]string, 0, len(r.Insights))
	for _, in := range r.Insights {
		out = append(out, in.Message)
	}
	return out
}

// Progress is the score as a 0..100 integer, the way the form draws its bar.
func (r PredictionResult) Progress() int {
	p := int(r.Score)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}
