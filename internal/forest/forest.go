// Package forest fits the random forest regressor behind the sustainability
// score and exports it as PMML.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Params follow the usual random forest regressor defaults.
type Params struct {
	Trees           int
	MaxFeatures     int // 0 = all features
	MaxDepth        int // 0 = unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
	Bootstrap       bool
	Seed            int64
	Workers         int
}

func DefaultParams() Params {
	return Params{
		Trees:           100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		Seed:            42,
	}
}

// Forest averages the predictions of its trees.
type Forest struct {
	trees     []*Tree
	nFeatures int
}

// Fit grows p.Trees trees on bootstrap samples of (X, y).
func Fit(ctx context.Context, X [][]float64, y []float64, p Params) (*Forest, error) {
	if len(X) == 0 {
		return nil, errors.New("forest: empty training set")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("forest: %d rows but %d targets", len(X), len(y))
	}
	nf := len(X[0])
	for i, row := range X {
		if len(row) != nf {
			return nil, fmt.Errorf("forest: row %d has %d features, want %d", i, len(row), nf)
		}
	}
	if p.Trees <= 0 {
		return nil, errors.New("forest: need at least one tree")
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// per-tree seeds drawn up front so results do not depend on scheduling
	seeder := rand.New(rand.NewSource(p.Seed))
	seeds := make([]int64, p.Trees)
	for i := range seeds {
		seeds[i] = seeder.Int63()
	}

	trees := make([]*Tree, p.Trees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trees {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := &builder{X: X, y: y, params: p, rng: rand.New(rand.NewSource(seeds[i]))}
			root := b.grow(b.sample(len(X)), 0)
			trees[i] = &Tree{root: root, nodes: b.nextID}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Forest{trees: trees, nFeatures: nf}, nil
}

func (b *builder) sample(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		if b.params.Bootstrap {
			idx[i] = b.rng.Intn(n)
		} else {
			idx[i] = i
		}
	}
	return idx
}

func (f *Forest) Len() int { return len(f.trees) }

func (f *Forest) Predict(x []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.trees))
}

// Regress lets an in-memory forest stand in for the PMML evaluator.
func (f *Forest) Regress(x []float64) (float64, error) {
	if len(x) != f.nFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", f.nFeatures, len(x))
	}
	return f.Predict(x), nil
}

// Evaluation is the held-out quality of a fitted forest.
type Evaluation struct {
	R2  float64
	MSE float64
}

// Evaluate scores the forest on rows it was not trained on.
func (f *Forest) Evaluate(X [][]float64, y []float64) (Evaluation, error) {
	if len(X) == 0 || len(X) != len(y) {
		return Evaluation{}, errors.New("forest: bad evaluation set")
	}
	pred := make([]float64, len(X))
	sq := make([]float64, len(X))
	for i, row := range X {
		pred[i] = f.Predict(row)
		d := pred[i] - y[i]
		sq[i] = d * d
	}
	return Evaluation{
		R2:  stat.RSquaredFrom(pred, y, nil),
		MSE: stat.Mean(sq, nil),
	}, nil
}

// Split shuffles row indices with seed and holds out testFrac of them.
func Split(n int, testFrac float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(float64(n)*testFrac + 0.999999)
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}
	return perm[nTest:], perm[:nTest]
}
