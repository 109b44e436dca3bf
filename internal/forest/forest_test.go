package forest

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/LeonardoBeccarini/agri_advisor/internal/scoring"
)

// synthetic rows with eight features; the target depends on two of them.
func synthetic(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		row := make([]float64, scoring.NumFeatures)
		for j := range row {
			row[j] = rng.Float64() * 100
		}
		row[4] = float64(rng.Intn(4))
		X[i] = row
		y[i] = 90 - 0.5*row[5] + 5*row[4] + rng.NormFloat64()
	}
	return X, y
}

func TestFitLearnsSignal(t *testing.T) {
	X, y := synthetic(600, 1)
	train, test := Split(len(X), 0.2, 42)
	if len(test) != 120 || len(train) != 480 {
		t.Fatalf("split = %d/%d", len(train), len(test))
	}

	p := DefaultParams()
	p.Trees = 20
	f, err := Fit(context.Background(), pick(X, train), pickY(y, train), p)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	ev, err := f.Evaluate(pick(X, test), pickY(y, test))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.R2 < 0.8 {
		t.Fatalf("R2 = %.3f, want >= 0.8", ev.R2)
	}
	if ev.MSE <= 0 || math.IsNaN(ev.MSE) {
		t.Fatalf("MSE = %v", ev.MSE)
	}
}

func TestFitDeterministic(t *testing.T) {
	X, y := synthetic(200, 2)
	p := DefaultParams()
	p.Trees = 8
	a, err := Fit(context.Background(), X, y, p)
	if err != nil {
		t.Fatal(err)
	}
	p.Workers = 1
	b, err := Fit(context.Background(), X, y, p)
	if err != nil {
		t.Fatal(err)
	}
	sample := []float64{10, 20, 30, 40, 2, 50, 60, 70}
	if a.Predict(sample) != b.Predict(sample) {
		t.Fatalf("same seed, different forests: %v vs %v", a.Predict(sample), b.Predict(sample))
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	if _, err := Fit(ctx, nil, nil, DefaultParams()); err == nil {
		t.Error("expected error on empty set")
	}
	if _, err := Fit(ctx, [][]float64{{1}, {2}}, []float64{1}, DefaultParams()); err == nil {
		t.Error("expected error on length mismatch")
	}
	if _, err := Fit(ctx, [][]float64{{1, 2}, {2}}, []float64{1, 2}, DefaultParams()); err == nil {
		t.Error("expected error on ragged rows")
	}
	ctx, cancel := context.WithCancel(ctx)
	cancel()
	X, y := synthetic(50, 3)
	if _, err := Fit(ctx, X, y, DefaultParams()); err == nil {
		t.Error("expected error on cancelled context")
	}
}

func TestConstantTargetIsSingleLeaf(t *testing.T) {
	X, _ := synthetic(30, 4)
	y := make([]float64, len(X))
	for i := range y {
		y[i] = 42
	}
	p := DefaultParams()
	p.Trees = 3
	f, err := Fit(context.Background(), X, y, p)
	if err != nil {
		t.Fatal(err)
	}
	for _, tr := range f.trees {
		if tr.Nodes() != 1 {
			t.Fatalf("tree has %d nodes", tr.Nodes())
		}
	}
	if f.Predict(X[0]) != 42 {
		t.Fatalf("predict = %v", f.Predict(X[0]))
	}
}

func TestPMMLRoundTrip(t *testing.T) {
	X, y := synthetic(150, 5)
	p := DefaultParams()
	p.Trees = 5
	f, err := Fit(context.Background(), X, y, p)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	exp := Exporter{
		Features:    scoring.FeatureNames,
		Target:      scoring.TargetName,
		Application: "agri-advisor trainer",
		Now:         func() time.Time { return time.Unix(0, 0) },
	}
	if err := exp.WritePMML(&buf, f); err != nil {
		t.Fatalf("write: %v", err)
	}
	pf, err := scoring.ParsePMML(buf.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pf.Trees() != 5 {
		t.Fatalf("trees = %d", pf.Trees())
	}
	for _, row := range X[:25] {
		got, err := pf.Regress(row)
		if err != nil {
			t.Fatalf("regress: %v", err)
		}
		if want := f.Predict(row); math.Abs(got-want) > 1e-9 {
			t.Fatalf("pmml %v != forest %v", got, want)
		}
	}
}

func TestWritePMMLFeatureCount(t *testing.T) {
	X, y := synthetic(20, 6)
	p := DefaultParams()
	p.Trees = 1
	f, _ := Fit(context.Background(), X, y, p)
	err := Exporter{Features: []string{"a"}, Target: "y"}.WritePMML(&bytes.Buffer{}, f)
	if err == nil {
		t.Fatal("expected feature count error")
	}
}

func pick(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, r := range idx {
		out[i] = X[r]
	}
	return out
}

func pickY(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}
