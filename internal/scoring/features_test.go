package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
)

func testEncoder(t *testing.T) *CropEncoder {
	t.Helper()
	enc, err := NewCropEncoder([]string{"Corn", "Rice", "Soybean", "Wheat"})
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	return enc
}

func TestEncodeOrder(t *testing.T) {
	obs := model.FarmObservation{
		SoilPH: 6.5, SoilMoisture: 22, TemperatureC: 25, RainfallMM: 100,
		CropType: "Soybean", FertilizerKg: 50, PesticideKg: 10, CropYieldTon: 2.5,
	}
	vec, err := Encode(testEncoder(t), obs)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := FeatureVector{6.5, 22, 25, 100, 2, 50, 10, 2.5}
	if vec != want {
		t.Fatalf("vec = %v, want %v", vec, want)
	}
	m := vec.Map()
	if m["Crop_Type"] != 2 || m["Rainfall_mm"] != 100 {
		t.Fatalf("map = %v", m)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	enc := testEncoder(t)
	for _, crop := range []string{"Corn", "Rice", "Soybean", "Wheat"} {
		obs := model.DefaultObservation(crop)
		first, err := Encode(enc, obs)
		if err != nil {
			t.Fatalf("%s: %v", crop, err)
		}
		for i := 0; i < 3; i++ {
			again, err := Encode(enc, obs)
			if err != nil {
				t.Fatalf("%s: %v", crop, err)
			}
			if again != first {
				t.Fatalf("%s: encode %d = %v, first = %v", crop, i, again, first)
			}
		}
		other, _ := Encode(testEncoder(t), obs)
		if other != first {
			t.Fatalf("%s: encoder rebuilt from the same classes gives %v, want %v", crop, other, first)
		}
	}
}

func TestEncodeUnknownCrop(t *testing.T) {
	_, err := Encode(testEncoder(t), model.DefaultObservation("Barley"))
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	ok := model.DefaultObservation("Corn")
	if err := Validate(ok); err != nil {
		t.Fatalf("default observation rejected: %v", err)
	}
	bad := []func(o *model.FarmObservation){
		func(o *model.FarmObservation) { o.SoilPH = math.NaN() },
		func(o *model.FarmObservation) { o.TemperatureC = math.Inf(1) },
		func(o *model.FarmObservation) { o.SoilPH = 14.1 },
		func(o *model.FarmObservation) { o.SoilMoisture = -1 },
		func(o *model.FarmObservation) { o.SoilMoisture = 101 },
		func(o *model.FarmObservation) { o.RainfallMM = -0.5 },
		func(o *model.FarmObservation) { o.FertilizerKg = -1 },
		func(o *model.FarmObservation) { o.PesticideKg = -1 },
		func(o *model.FarmObservation) { o.CropYieldTon = -1 },
	}
	for i, mut := range bad {
		o := ok
		mut(&o)
		if err := Validate(o); !errors.Is(err, ErrInvalidObservation) {
			t.Errorf("case %d: expected ErrInvalidObservation, got %v", i, err)
		}
	}
	// negative temperatures are legitimate
	cold := ok
	cold.TemperatureC = -5
	if err := Validate(cold); err != nil {
		t.Fatalf("cold observation rejected: %v", err)
	}
}
