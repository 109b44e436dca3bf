package forest

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *node // x[feature] <= threshold
	right     *node
	id        int
}

// Tree is a single CART regression tree.
type Tree struct {
	root  *node
	nodes int
}

func (t *Tree) Predict(x []float64) float64 {
	n := t.root
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// Nodes counts every node of the tree, leaves included.
func (t *Tree) Nodes() int { return t.nodes }

type builder struct {
	X      [][]float64
	y      []float64
	params Params
	rng    *rand.Rand
	nextID int
}

func (b *builder) grow(idx []int, depth int) *node {
	n := &node{id: b.nextID}
	b.nextID++

	ys := make([]float64, len(idx))
	for i, r := range idx {
		ys[i] = b.y[r]
	}
	n.value = stat.Mean(ys, nil)

	if len(idx) < b.params.MinSamplesSplit || (b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) || constant(ys) {
		n.leaf = true
		return n
	}

	feat, thr, ok := b.bestSplit(idx)
	if !ok {
		n.leaf = true
		return n
	}
	var left, right []int
	for _, r := range idx {
		if b.X[r][feat] <= thr {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	n.feature, n.threshold = feat, thr
	n.left = b.grow(left, depth+1)
	n.right = b.grow(right, depth+1)
	return n
}

// bestSplit minimizes the summed squared error of the two children over a
// random subset of MaxFeatures features.
func (b *builder) bestSplit(idx []int) (int, float64, bool) {
	nFeat := len(b.X[0])
	candidates := b.rng.Perm(nFeat)
	if m := b.params.MaxFeatures; m > 0 && m < nFeat {
		candidates = candidates[:m]
	}

	var (
		bestFeat  = -1
		bestThr   float64
		bestScore = 0.0
	)
	total, totalSq := 0.0, 0.0
	for _, r := range idx {
		total += b.y[r]
		totalSq += b.y[r] * b.y[r]
	}
	n := float64(len(idx))
	parentSSE := totalSq - total*total/n

	order := make([]int, len(idx))
	minLeaf := b.params.MinSamplesLeaf
	for _, f := range candidates {
		copy(order, idx)
		sort.Slice(order, func(i, j int) bool { return b.X[order[i]][f] < b.X[order[j]][f] })

		leftSum, leftSq := 0.0, 0.0
		for i := 0; i < len(order)-1; i++ {
			v := b.y[order[i]]
			leftSum += v
			leftSq += v * v
			cur, next := b.X[order[i]][f], b.X[order[i+1]][f]
			if cur == next {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			if int(nl) < minLeaf || int(nr) < minLeaf {
				continue
			}
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			gain := parentSSE - sse
			if gain > bestScore {
				bestScore = gain
				bestFeat = f
				bestThr = (cur + next) / 2
			}
		}
	}
	return bestFeat, bestThr, bestFeat >= 0
}

func constant(ys []float64) bool {
	for _, v := range ys[1:] {
		if v != ys[0] {
			return false
		}
	}
	return true
}
