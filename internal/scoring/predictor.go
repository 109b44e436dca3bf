package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/asafschers/goscore"
)

// Regressor is the opaque fitted model: eight features in, one score out.
type Regressor interface {
	Regress(x []float64) (float64, error)
}

// Predictor is the narrow interface the pipeline scores through.
type Predictor interface {
	Predict(vec FeatureVector) (float64, error)
}

// Model guards a Regressor so that no failure of it escapes as a panic.
type Model struct {
	reg Regressor
}

func NewModel(reg Regressor) *Model { return &Model{reg: reg} }

// Predict never panics: every failure becomes an *InferenceError.
func (m *Model) Predict(vec FeatureVector) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			score, err = 0, &InferenceError{Cause: fmt.Errorf("model panic: %v", r)}
		}
	}()
	if m == nil || m.reg == nil {
		return 0, &InferenceError{Cause: errors.New("no model loaded")}
	}
	s, rerr := m.reg.Regress(vec[:])
	if rerr != nil {
		return 0, &InferenceError{Cause: rerr}
	}
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, &InferenceError{Cause: fmt.Errorf("non-finite score %v", s)}
	}
	return s, nil
}

// PMMLForest evaluates a PMML random forest segmentation by averaging its trees.
type PMMLForest struct {
	rf goscore.RandomForest
}

// NewPMMLForest wraps an unmarshalled PMML document.
func NewPMMLForest(rf goscore.RandomForest) (*PMMLForest, error) {
	if len(rf.Trees) == 0 {
		return nil, errors.New("pmml: no TreeModel segments")
	}
	return &PMMLForest{rf: rf}, nil
}

func (p *PMMLForest) Trees() int { return len(p.rf.Trees) }

func (p *PMMLForest) Regress(x []float64) (float64, error) {
	if len(x) != NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", NumFeatures, len(x))
	}
	features := make(map[string]interface{}, NumFeatures)
	for i, name := range FeatureNames {
		features[name] = x[i]
	}
	var sum float64
	for i, tree := range p.rf.Trees {
		s, err := tree.TraverseTree(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += s
	}
	return sum / float64(len(p.rf.Trees)), nil
}
