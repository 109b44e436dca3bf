package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = "Farm_ID\tSoil_pH\tSoil_Moisture\tTemperature_C\tRainfall_mm\tCrop_Type\tFertilizer_Usage_kg\tPesticide_Usage_kg\tCrop_Yield_ton\tSustainability_Score\n" +
	"1\t7.07\t49.14\t26.09\t227.4\tWheat\t131.69\t2.96\t1.58\t51.91\n" +
	"2\t6.24\t12.7\t33.11\t244.02\tSoybean\t136.37\t19.2\t3.43\t47.16\n" +
	"3\t5.28\t34.1\t21.3\t100\tCorn\t40\t4\t2\t80.5\n"

func TestRead(t *testing.T) {
	tab, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tab.Records) != 3 {
		t.Fatalf("rows = %d", len(tab.Records))
	}
	r := tab.Records[1]
	if r.Observation.CropType != "Soybean" || r.Observation.SoilMoisture != 12.7 || r.Score != 47.16 {
		t.Fatalf("row 2 = %+v", r)
	}
	crops := tab.Crops()
	if crops[0] != "Wheat" || crops[2] != "Corn" {
		t.Fatalf("crops = %v", crops)
	}
}

func TestReadColumnOrderIndependent(t *testing.T) {
	in := "Crop_Type\tSustainability_Score\tSoil_pH\tSoil_Moisture\tTemperature_C\tRainfall_mm\tFertilizer_Usage_kg\tPesticide_Usage_kg\tCrop_Yield_ton\n" +
		"Rice\t60\t6\t20\t25\t90\t50\t10\t3\n"
	tab, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	o := tab.Records[0].Observation
	if o.CropType != "Rice" || o.SoilPH != 6 || o.CropYieldTon != 3 || tab.Records[0].Score != 60 {
		t.Fatalf("record = %+v", tab.Records[0])
	}
}

func TestReadRejectsNonFinite(t *testing.T) {
	cases := map[string]string{
		"nan moisture":   strings.Replace(sample, "49.14", "NaN", 1),
		"inf fertilizer": strings.Replace(sample, "131.69", "+Inf", 1),
		"inf score":      strings.Replace(sample, "51.91", "-inf", 1),
	}
	for name, in := range cases {
		_, err := Read(strings.NewReader(in))
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !strings.Contains(err.Error(), "line 2") || !strings.Contains(err.Error(), "finite") {
			t.Errorf("%s: error %q should name line 2 and the non-finite value", name, err)
		}
	}
}

func TestReadErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing column": "Soil_pH\tCrop_Type\n6\tCorn\n",
		"no rows":        strings.SplitN(sample, "\n", 2)[0] + "\n",
		"bad number":     strings.Replace(sample, "49.14", "wet", 1),
		"empty crop":     strings.Replace(sample, "\tCorn\t", "\t\t", 1),
	}
	for name, in := range cases {
		if _, err := Read(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farmer_advisor_dataset.csv")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	tab, err := Load(path)
	if err != nil || len(tab.Records) != 3 {
		t.Fatalf("load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
