package entities

// FarmObservation is one set of farm measurements submitted for scoring.
type FarmObservation struct {
	SoilPH       float64 `json:"soil_ph"`
	SoilMoisture float64 `json:"soil_moisture"` // %
	TemperatureC float64 `json:"temperature_c"`
	RainfallMM   float64 `json:"rainfall_mm"`
	CropType     string  `json:"crop_type"` // must be one of the encoder classes
	FertilizerKg float64 `json:"fertilizer_usage_kg"`
	PesticideKg  float64 `json:"pesticide_usage_kg"`
	CropYieldTon float64 `json:"crop_yield_ton"`
}

// DefaultObservation mirrors the form defaults of the advisor page.
func DefaultObservation(crop string) FarmObservation {
	return FarmObservation{
		SoilPH:       6.5,
		SoilMoisture: 22,
		TemperatureC: 25,
		RainfallMM:   100,
		CropType:     crop,
		FertilizerKg: 50,
		PesticideKg:  10,
		CropYieldTon: 2.5,
	}
}
