// Package report assembles a single prediction into the documents the advisor
// hands back: CSV, PDF, XLSX, JSON and the resource usage chart.
package report

import (
	"strconv"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
)

const Title = "Sustainability Report"

// Input labels in display order.
const (
	LabelSoilPH      = "Soil pH"
	LabelTemperature = "Temperature (°C)"
	LabelMoisture    = "Soil Moisture"
	LabelRainfall    = "Rainfall (mm)"
	LabelCropType    = "Crop Type"
	LabelFertilizer  = "Fertilizer Usage (Kg)"
	LabelPesticide   = "Pesticide Usage (Kg)"
	LabelYield       = "Crop Yield (ton)"
	LabelScore       = "Predicted Score"
)

// Labels is the column order shared by every tabular export.
var Labels = []string{
	LabelSoilPH,
	LabelTemperature,
	LabelMoisture,
	LabelRainfall,
	LabelCropType,
	LabelFertilizer,
	LabelPesticide,
	LabelYield,
	LabelScore,
}

type Row struct {
	Label string
	Value string
}

// Report is the immutable document model built from one PredictionResult.
type Report struct {
	Result model.PredictionResult
}

func New(res model.PredictionResult) *Report {
	return &Report{Result: res}
}

// Inputs echoes the observation with display labels, score excluded.
func (r *Report) Inputs() []Row {
	o := r.Result.Observation
	return []Row{
		{LabelSoilPH, formatFloat(o.SoilPH)},
		{LabelTemperature, formatFloat(o.TemperatureC)},
		{LabelMoisture, formatFloat(o.SoilMoisture)},
		{LabelRainfall, formatFloat(o.RainfallMM)},
		{LabelCropType, o.CropType},
		{LabelFertilizer, formatFloat(o.FertilizerKg)},
		{LabelPesticide, formatFloat(o.PesticideKg)},
		{LabelYield, formatFloat(o.CropYieldTon)},
	}
}

// Rows is Inputs followed by the raw predicted score.
func (r *Report) Rows() []Row {
	return append(r.Inputs(), Row{LabelScore, formatFloat(r.Result.Score)})
}

// ScoreText is the score with two decimals.
func (r *Report) ScoreText() string { return FormatScore(r.Result.Score) }

// FormatScore rounds the exact binary value half to even, like "%.2f".
func FormatScore(score float64) string { return strconv.FormatFloat(score, 'f', 2, 64) }

// Suggestions are the insight messages in evaluation order.
func (r *Report) Suggestions() []string { return r.Result.Messages() }

// formatFloat is the shortest text that parses back to the same float.
func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
