// Package trainer fits the sustainability model from the farmer advisor
// dataset and writes the versioned artifact set the advisor loads.
package trainer

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/LeonardoBeccarini/agri_advisor/internal/dataset"
	"github.com/LeonardoBeccarini/agri_advisor/internal/forest"
	"github.com/LeonardoBeccarini/agri_advisor/internal/scoring"
)

type Options struct {
	DatasetPath  string
	OutDir       string
	TestFraction float64
	SplitSeed    int64
	Params       forest.Params
	Now          func() time.Time
}

func DefaultOptions() Options {
	return Options{
		DatasetPath:  "farmer_advisor_dataset.csv",
		OutDir:       "artifacts",
		TestFraction: 0.2,
		SplitSeed:    42,
		Params:       forest.DefaultParams(),
		Now:          time.Now,
	}
}

// Train runs the whole pipeline: read, encode, split, fit, evaluate, export,
// then reloads the artifacts to make sure the advisor will accept them.
func Train(ctx context.Context, opts Options) (scoring.Manifest, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	tab, err := dataset.Load(opts.DatasetPath)
	if err != nil {
		return scoring.Manifest{}, err
	}
	enc, err := scoring.FitCropEncoder(tab.Crops())
	if err != nil {
		return scoring.Manifest{}, fmt.Errorf("fit encoder: %w", err)
	}

	X := make([][]float64, len(tab.Records))
	y := make([]float64, len(tab.Records))
	for i, rec := range tab.Records {
		vec, err := scoring.Encode(enc, rec.Observation)
		if err != nil {
			return scoring.Manifest{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		X[i] = vec[:]
		y[i] = rec.Score
	}

	trainIdx, testIdx := forest.Split(len(X), opts.TestFraction, opts.SplitSeed)
	log.Info().
		Int("rows", len(X)).
		Int("train", len(trainIdx)).
		Int("test", len(testIdx)).
		Strs("crops", enc.Classes()).
		Msg("trainer: dataset loaded")

	start := time.Now()
	f, err := forest.Fit(ctx, subset(X, trainIdx), subsetY(y, trainIdx), opts.Params)
	if err != nil {
		return scoring.Manifest{}, err
	}
	log.Info().Int("trees", f.Len()).Dur("elapsed", time.Since(start)).Msg("trainer: forest fitted")

	metrics := scoring.Metrics{TrainRows: len(trainIdx), TestRows: len(testIdx)}
	if len(testIdx) > 0 {
		ev, err := f.Evaluate(subset(X, testIdx), subsetY(y, testIdx))
		if err != nil {
			return scoring.Manifest{}, err
		}
		metrics.R2, metrics.MSE = ev.R2, ev.MSE
		log.Info().Float64("r2", ev.R2).Float64("mse", ev.MSE).Msg("trainer: held-out evaluation")
	}

	trainedAt := opts.Now().UTC()
	var pmml bytes.Buffer
	exp := forest.Exporter{
		Features:    scoring.FeatureNames,
		Target:      scoring.TargetName,
		Application: "agri-advisor trainer",
		Now:         func() time.Time { return trainedAt },
	}
	if err := exp.WritePMML(&pmml, f); err != nil {
		return scoring.Manifest{}, err
	}

	m, err := scoring.SaveArtifacts(opts.OutDir, pmml.Bytes(), enc, scoring.Manifest{
		Trees:     f.Len(),
		TrainedAt: trainedAt,
		Metrics:   metrics,
	})
	if err != nil {
		return scoring.Manifest{}, err
	}

	if err := verify(opts.OutDir, f, X); err != nil {
		return scoring.Manifest{}, err
	}
	log.Info().Str("dir", opts.OutDir).Str("model_sha256", m.ModelSHA256).Msg("trainer: artifacts written")
	return m, nil
}

// verify reloads the exported model and compares it with the in-memory forest.
func verify(dir string, f *forest.Forest, X [][]float64) error {
	a, err := scoring.LoadArtifacts(dir)
	if err != nil {
		return err
	}
	n := len(X)
	if n > 20 {
		n = 20
	}
	for _, row := range X[:n] {
		var vec scoring.FeatureVector
		copy(vec[:], row)
		got, err := a.Model.Predict(vec)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if want := f.Predict(row); math.Abs(got-want) > 1e-6 {
			return fmt.Errorf("verify: exported model predicts %v, fitted forest %v", got, want)
		}
	}
	return nil
}

func subset(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, r := range idx {
		out[i] = X[r]
	}
	return out
}

func subsetY(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}
