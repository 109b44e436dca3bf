package scoring

import (
	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
)

// Tier is the mutually exclusive score band.
type Tier string

const (
	TierHigh     Tier = "high"
	TierModerate Tier = "moderate"
	TierLow      Tier = "low"
)

// Score tier boundaries (inclusive lower bounds).
const (
	HighTierMin     = 75.0
	ModerateTierMin = 50.0
)

// TierOf places a score in exactly one band.
func TierOf(score float64) Tier {
	switch {
	case score >= HighTierMin:
		return TierHigh
	case score >= ModerateTierMin:
		return TierModerate
	default:
		return TierLow
	}
}

type tierAdvice struct {
	level    model.InsightLevel
	headline string
	tips     []string
}

var tierTable = map[Tier]tierAdvice{
	TierHigh: {
		level:    model.LevelSuccess,
		headline: "Excellent! Your Farming practice is highly sustainable",
		tips: []string{
			"Keep using eco-friendly methods.",
			"Consider organic pest control.",
			"Maintain soil pH between 6.0-7.0",
		},
	},
	TierModerate: {
		level:    model.LevelWarning,
		headline: "Moderate Sustainability. You may want to reduce chemical usage",
		tips: []string{
			"Reduce pesticide usage if possible.",
			"Check irrigation frequency.",
			"Try Crop rotation",
		},
	},
	TierLow: {
		level:    model.LevelError,
		headline: "Low Sustainability. Urgent improvement needed",
		tips: []string{
			"Consider switching to organic fertilizers.",
			"Reduce chemical inputs.",
			"Optimize water usage.",
			"Get soil tested",
		},
	},
}

// FieldRule is one independent threshold check over a raw input.
type FieldRule struct {
	Name    string
	Level   model.InsightLevel
	Message string
	Fires   func(obs model.FarmObservation) bool
}

// FieldRules are evaluated in order, each regardless of the others and of the tier.
var FieldRules = []FieldRule{
	{
		Name:    "fertilizer_high",
		Level:   model.LevelWarning,
		Message: "High fertilizer usage detected. Consider reducing to prevent soil degradation",
		Fires:   func(o model.FarmObservation) bool { return o.FertilizerKg > 80 },
	},
	{
		Name:    "fertilizer_low",
		Level:   model.LevelInfo,
		Message: "Fertilizer usage is within an eco-friendly range",
		Fires:   func(o model.FarmObservation) bool { return o.FertilizerKg < 30 },
	},
	{
		Name:    "pesticide_high",
		Level:   model.LevelWarning,
		Message: "Excessive pesticide use detected. Use biopesticides if possible",
		Fires:   func(o model.FarmObservation) bool { return o.PesticideKg > 20 },
	},
	{
		Name:    "pesticide_low",
		Level:   model.LevelInfo,
		Message: "Minimal pesticide use! Great for long-term soil and crop health",
		Fires:   func(o model.FarmObservation) bool { return o.PesticideKg < 5 },
	},
	{
		Name:    "ph_acidic",
		Level:   model.LevelWarning,
		Message: "Soil is too acidic. Consider using lime to balance pH",
		Fires:   func(o model.FarmObservation) bool { return o.SoilPH < 5.5 },
	},
	{
		Name:    "ph_alkaline",
		Level:   model.LevelWarning,
		Message: "Soil is too alkaline. Add organic compost or sulfur to reduce pH",
		Fires:   func(o model.FarmObservation) bool { return o.SoilPH > 7.5 },
	},
	{
		Name:    "moisture_low",
		Level:   model.LevelWarning,
		Message: "Low soil moisture. Efficient irrigation or mulching might help retain water",
		Fires:   func(o model.FarmObservation) bool { return o.SoilMoisture < 15 },
	},
}

// Insights maps (score, observation) to the ordered advisory list:
// tier headline, tier tips, then every field rule that fires.
func Insights(score float64, obs model.FarmObservation) []model.Insight {
	tier := TierOf(score)
	adv := tierTable[tier]

	out := make([]model.Insight, 0, 1+len(adv.tips)+len(FieldRules))
	out = append(out, model.Insight{Rule: "tier_" + string(tier), Level: adv.level, Message: adv.headline})
	for _, tip := range adv.tips {
		out = append(out, model.Insight{Rule: "tier_" + string(tier) + "_tip", Level: model.LevelInfo, Message: tip})
	}
	for _, r := range FieldRules {
		if r.Fires(obs) {
			out = append(out, model.Insight{Rule: r.Name, Level: r.Level, Message: r.Message})
		}
	}
	return out
}

// TierHeadline returns the headline message for a tier.
func TierHeadline(t Tier) string { return tierTable[t].headline }

// Tips are the general recommendations shown on the advisor's tips page.
var Tips = []string{
	"Use organic fertilizers where possible.",
	"Optimize irrigation to conserve water.",
	"Practice crop rotation to maintain soil health.",
	"Minimize pesticide use and consider biopesticides.",
	"Use weather forecasts to plan farming schedules.",
}
