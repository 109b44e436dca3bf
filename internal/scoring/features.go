package scoring

import (
	"fmt"
	"math"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
)

// FeatureNames is the column order the regressor was fitted on.
var FeatureNames = []string{
	"Soil_pH",
	"Soil_Moisture",
	"Temperature_C",
	"Rainfall_mm",
	"Crop_Type",
	"Fertilizer_Usage_kg",
	"Pesticide_Usage_kg",
	"Crop_Yield_ton",
}

// TargetName is the dataset column the regressor predicts.
const TargetName = "Sustainability_Score"

// NumFeatures is the length of every FeatureVector.
const NumFeatures = 8

// FeatureVector is the encoded model input in FeatureNames order.
type FeatureVector [NumFeatures]float64

// Map keys the vector by feature name.
func (v FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, NumFeatures)
	for i, name := range FeatureNames {
		out[name] = v[i]
	}
	return out
}

// Validate rejects observations the model must never see.
func Validate(obs model.FarmObservation) error {
	nums := []struct {
		name string
		v    float64
	}{
		{"soil pH", obs.SoilPH},
		{"soil moisture", obs.SoilMoisture},
		{"temperature", obs.TemperatureC},
		{"rainfall", obs.RainfallMM},
		{"fertilizer usage", obs.FertilizerKg},
		{"pesticide usage", obs.PesticideKg},
		{"crop yield", obs.CropYieldTon},
	}
	for _, n := range nums {
		if math.IsNaN(n.v) || math.IsInf(n.v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidObservation, n.name)
		}
	}
	switch {
	case obs.SoilPH < 0 || obs.SoilPH > 14:
		return fmt.Errorf("%w: soil pH %.2f outside [0,14]", ErrInvalidObservation, obs.SoilPH)
	case obs.SoilMoisture < 0 || obs.SoilMoisture > 100:
		return fmt.Errorf("%w: soil moisture %.2f outside [0,100]", ErrInvalidObservation, obs.SoilMoisture)
	case obs.RainfallMM < 0:
		return fmt.Errorf("%w: rainfall must be >= 0", ErrInvalidObservation)
	case obs.FertilizerKg < 0:
		return fmt.Errorf("%w: fertilizer usage must be >= 0", ErrInvalidObservation)
	case obs.PesticideKg < 0:
		return fmt.Errorf("%w: pesticide usage must be >= 0", ErrInvalidObservation)
	case obs.CropYieldTon < 0:
		return fmt.Errorf("%w: crop yield must be >= 0", ErrInvalidObservation)
	}
	return nil
}

// Encode turns an observation into the model input. It does not validate ranges.
func Encode(enc *CropEncoder, obs model.FarmObservation) (FeatureVector, error) {
	code, err := enc.Transform(obs.CropType)
	if err != nil {
		return FeatureVector{}, err
	}
	return FeatureVector{
		obs.SoilPH,
		obs.SoilMoisture,
		obs.TemperatureC,
		obs.RainfallMM,
		float64(code),
		obs.FertilizerKg,
		obs.PesticideKg,
		obs.CropYieldTon,
	}, nil
}
