package trainer

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
	"github.com/LeonardoBeccarini/agri_advisor/internal/scoring"
)

// writeDataset writes n rows where the score falls with fertilizer use.
func writeDataset(t *testing.T, n int) string {
	t.Helper()
	crops := []string{"Wheat", "Corn", "Rice", "Soybean"}
	r := rand.New(rand.NewSource(7))
	var b strings.Builder
	b.WriteString("Farm_ID\tSoil_pH\tSoil_Moisture\tTemperature_C\tRainfall_mm\tCrop_Type\tFertilizer_Usage_kg\tPesticide_Usage_kg\tCrop_Yield_ton\tSustainability_Score\n")
	for i := 0; i < n; i++ {
		fert := r.Float64() * 150
		score := 90 - fert/3 + r.Float64()
		fmt.Fprintf(&b, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%.2f\t%.2f\t%.2f\t%.2f\n",
			i+1, 5+r.Float64()*3, 10+r.Float64()*40, 15+r.Float64()*20, 50+r.Float64()*250,
			crops[i%len(crops)], fert, r.Float64()*25, 1+r.Float64()*4, score)
	}
	path := filepath.Join(t.TempDir(), "dataset.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTrainWritesLoadableArtifacts(t *testing.T) {
	opts := DefaultOptions()
	opts.DatasetPath = writeDataset(t, 200)
	opts.OutDir = filepath.Join(t.TempDir(), "artifacts")
	opts.Params.Trees = 10
	opts.Now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	m, err := Train(context.Background(), opts)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if m.Trees != 10 || m.Metrics.TrainRows != 160 || m.Metrics.TestRows != 40 {
		t.Fatalf("manifest = %+v", m)
	}
	if m.Metrics.R2 < 0.7 {
		t.Fatalf("r2 = %v", m.Metrics.R2)
	}
	if want := []string{"Corn", "Rice", "Soybean", "Wheat"}; strings.Join(m.Classes, ",") != strings.Join(want, ",") {
		t.Fatalf("classes = %v", m.Classes)
	}

	a, err := scoring.LoadArtifacts(opts.OutDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !a.Manifest.TrainedAt.Equal(opts.Now()) {
		t.Fatalf("trained_at = %v", a.Manifest.TrainedAt)
	}
	p := scoring.FromArtifacts(a)

	low := model.DefaultObservation("Wheat")
	low.FertilizerKg = 10
	high := low
	high.FertilizerKg = 140
	rl, err := p.Score(low)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	rh, err := p.Score(high)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if rl.Score <= rh.Score {
		t.Fatalf("score(fert=10)=%v should exceed score(fert=140)=%v", rl.Score, rh.Score)
	}
}

func TestTrainMissingDataset(t *testing.T) {
	opts := DefaultOptions()
	opts.DatasetPath = filepath.Join(t.TempDir(), "nope.csv")
	opts.OutDir = t.TempDir()
	if _, err := Train(context.Background(), opts); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(filepath.Join(opts.OutDir, scoring.ManifestFile)); !os.IsNotExist(err) {
		t.Fatalf("manifest should not exist: %v", err)
	}
}

func TestTrainCancelled(t *testing.T) {
	opts := DefaultOptions()
	opts.DatasetPath = writeDataset(t, 40)
	opts.OutDir = t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Train(ctx, opts); err == nil {
		t.Fatal("expected context error")
	}
}
