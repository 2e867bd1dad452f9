// Package net provides unit tests for the feed-forward network.
package net

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/cailib/nnlib/internal/opt"
)

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// fixedWeights builds a network and sets every weight to w.
func fixedWeights(t *testing.T, in, out int, hidden []int, w float64) *Network {
	t.Helper()
	n, err := Build(in, out, hidden, WithSeed(1))
	require.NoError(t, err)
	_, err = n.TweakWeights(func(float64) float64 { return w })
	require.NoError(t, err)
	return n
}

func TestBuildShape(t *testing.T) {
	tests := []struct {
		name   string
		in     int
		out    int
		hidden []int
	}{
		{"No hidden layers", 2, 1, nil},
		{"Empty hidden slice", 3, 2, []int{}},
		{"One hidden layer", 2, 1, []int{3}},
		{"Deep", 4, 3, []int{5, 1, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Build(tt.in, tt.out, tt.hidden, WithSeed(42))
			require.NoError(t, err)

			assert.Equal(t, len(tt.hidden)+2, n.LayerCount())
			assert.Equal(t, tt.in, n.inputLayer().Width())
			assert.Equal(t, tt.out, n.outputLayer().Width())
			assert.Equal(t, tt.in, n.InputWidth())
			assert.Equal(t, tt.out, n.OutputWidth())

			widths := n.LayerWidths()
			for li := 0; li < n.LayerCount(); li++ {
				l, err := n.layerAt(li)
				require.NoError(t, err)
				assert.Equal(t, widths[li], l.Width())
				for i := 0; i < l.Width(); i++ {
					v, err := n.Value(li, i)
					require.NoError(t, err)
					assert.Equal(t, 0.0, v)
				}
			}
		})
	}
}

func TestBuildWeightsInUnitInterval(t *testing.T) {
	n, err := Build(8, 4, []int{16, 16}, WithSeed(7))
	require.NoError(t, err)

	for li := 0; li < n.LayerCount()-1; li++ {
		l, err := n.layerAt(li)
		require.NoError(t, err)
		params := l.Params()
		require.NotEmpty(t, params)
		assert.GreaterOrEqual(t, floats.Min(params), 0.0)
		assert.Less(t, floats.Max(params), 1.0)
	}
}

func TestBuildFullyConnected(t *testing.T) {
	n, err := Build(3, 2, []int{4}, WithSeed(3))
	require.NoError(t, err)

	widths := n.LayerWidths()
	for li := 0; li < n.LayerCount(); li++ {
		for i := 0; i < widths[li]; i++ {
			axons, err := n.Axons(li, i)
			require.NoError(t, err)

			if li == n.LayerCount()-1 {
				assert.Empty(t, axons)
				continue
			}
			require.Len(t, axons, widths[li+1])
			for j, a := range axons {
				assert.Equal(t, NeuronRef{Layer: li, Index: i}, a.Source)
				assert.Equal(t, NeuronRef{Layer: li + 1, Index: j}, a.Target)
			}
		}
	}
}

func TestBuildCopiesHiddenWidths(t *testing.T) {
	hidden := []int{3, 4}
	n, err := Build(2, 1, hidden, WithSeed(1))
	require.NoError(t, err)

	hidden[0] = 99
	assert.Equal(t, []int{3, 4}, n.HiddenWidths())

	got := n.HiddenWidths()
	got[1] = 99
	assert.Equal(t, []int{3, 4}, n.HiddenWidths())
}

func TestBuildRejectsBadWidths(t *testing.T) {
	tests := []struct {
		name   string
		in     int
		out    int
		hidden []int
	}{
		{"Zero inputs", 0, 1, nil},
		{"Negative outputs", 2, -1, nil},
		{"Zero hidden", 2, 1, []int{3, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Build(tt.in, tt.out, tt.hidden)
			assert.Nil(t, n)
			assert.ErrorIs(t, err, ErrUsage)
			assert.NotErrorIs(t, err, ErrOutOfMemory)
		})
	}
}

func TestBuildOutOfMemory(t *testing.T) {
	n, err := Build(1000, 1000, nil, WithMaxParams(999_999))
	assert.Nil(t, n)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.NotErrorIs(t, err, ErrUsage)

	n, err = Build(math.MaxInt/2, 3, nil)
	assert.Nil(t, n)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	n, err = Build(1000, 1000, nil, WithMaxParams(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, 1_000_000, n.ParamCount())
}

func makeFloats(n int) []float64 {
	return make([]float64, n)
}

func TestIsAllocPanic(t *testing.T) {
	r := func() (r interface{}) {
		defer func() { r = recover() }()
		makeFloats(-1)
		return nil
	}()
	require.NotNil(t, r)
	assert.True(t, isAllocPanic(r))

	// Only runtime errors count, whatever their text
	assert.False(t, isAllocPanic(errors.New("makeslice: len out of range")))
	assert.False(t, isAllocPanic("out of memory"))
	assert.False(t, isAllocPanic(nil))
}

func TestBuildSeedIsDeterministic(t *testing.T) {
	a, err := Build(3, 2, []int{5}, WithSeed(99))
	require.NoError(t, err)
	b, err := Build(3, 2, []int{5}, WithSeed(99))
	require.NoError(t, err)
	c, err := Build(3, 2, []int{5}, WithSeed(100))
	require.NoError(t, err)

	wa, _ := a.layerAt(0)
	wb, _ := b.layerAt(0)
	wc, _ := c.layerAt(0)
	assert.Equal(t, wa.Params(), wb.Params())
	assert.NotEqual(t, wa.Params(), wc.Params())
}

func TestBuildDefaultSourceDoesNotRepeat(t *testing.T) {
	a, err := Build(4, 4, nil)
	require.NoError(t, err)
	b, err := Build(4, 4, nil)
	require.NoError(t, err)

	wa, _ := a.layerAt(0)
	wb, _ := b.layerAt(0)
	// Back-to-back builds share one advancing generator
	assert.NotEqual(t, wa.Params(), wb.Params())
}

func TestFeedForwardKnownValues(t *testing.T) {
	n := fixedWeights(t, 2, 1, nil, 1.0)

	out, err := n.FeedForward([]float64{0, 0})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 0.5, out[0])

	out, err = n.FeedForward([]float64{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.8808, out[0], 1e-4)
	assert.InDelta(t, sigmoid(2), out[0], 1e-12)
}

func TestFeedForwardHiddenLayer(t *testing.T) {
	n := fixedWeights(t, 2, 2, []int{3}, 0.5)

	out, err := n.FeedForward([]float64{1, -1})
	require.NoError(t, err)

	// Hidden: sigmoid(0.5 - 0.5) = 0.5 for all 3 neurons
	for i := 0; i < 3; i++ {
		v, err := n.Value(1, i)
		require.NoError(t, err)
		assert.Equal(t, 0.5, v)
	}
	// Output: sigmoid(3 * 0.5 * 0.5)
	want := sigmoid(0.75)
	assert.InDeltaSlice(t, []float64{want, want}, out, 1e-12)
}

func TestFeedForwardPositionalEdges(t *testing.T) {
	n := fixedWeights(t, 2, 2, nil, 0)
	// Only the axon from input 1 to output 0 carries signal
	require.NoError(t, n.SetWeight(0, 1, 0, 2.0))

	out, err := n.FeedForward([]float64{3, 1})
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(2), out[0], 1e-12)
	assert.Equal(t, 0.5, out[1])
}

func TestFeedForwardWrongLength(t *testing.T) {
	n := fixedWeights(t, 2, 1, []int{2}, 1.0)
	_, err := n.FeedForward([]float64{0.3, 0.7})
	require.NoError(t, err)
	before := snapshotValues(t, n)

	for _, in := range [][]float64{nil, {1}, {1, 2, 3}} {
		out, err := n.FeedForward(in)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, ErrUsage)
	}
	assert.Equal(t, before, snapshotValues(t, n))
}

func TestFeedForwardDeterministic(t *testing.T) {
	n, err := Build(5, 3, []int{7, 4}, WithSeed(11))
	require.NoError(t, err)
	in := []float64{0.1, -0.4, 2, 0, 1}

	a, err := n.FeedForward(in)
	require.NoError(t, err)
	b, err := n.FeedForward(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Returned slices are fresh
	a[0] = 42
	c, _ := n.FeedForward(in)
	assert.Equal(t, b, c)
}

func TestComputeErrorsOutput(t *testing.T) {
	n := fixedWeights(t, 2, 1, nil, 1.0)
	out, err := n.FeedForward([]float64{0, 0})
	require.NoError(t, err)
	require.Equal(t, 0.5, out[0])

	cost, err := n.ComputeErrors([]float64{1.0})
	require.NoError(t, err)

	e, err := n.Err(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, e)
	assert.Equal(t, 0.125, cost)
}

func TestComputeErrorsHidden(t *testing.T) {
	n := fixedWeights(t, 1, 2, []int{2, 2}, 0)
	// Layer 2 -> 3 weights: [[1 2] [3 4]]
	require.NoError(t, n.SetWeight(2, 0, 0, 1))
	require.NoError(t, n.SetWeight(2, 0, 1, 2))
	require.NoError(t, n.SetWeight(2, 1, 0, 3))
	require.NoError(t, n.SetWeight(2, 1, 1, 4))
	// Layer 1 -> 2 weights: [[1 0] [0 -1]]
	require.NoError(t, n.SetWeight(1, 0, 0, 1))
	require.NoError(t, n.SetWeight(1, 1, 1, -1))

	_, err := n.FeedForward([]float64{7})
	require.NoError(t, err)
	// Layer 1 is sigmoid(0) = 0.5 throughout; outputs depend on the weights set above
	o0, _ := n.Value(3, 0)
	o1, _ := n.Value(3, 1)

	_, err = n.ComputeErrors([]float64{1, 0})
	require.NoError(t, err)

	e0 := 1 - o0
	e1 := 0 - o1
	got, _ := n.Err(3, 0)
	assert.Equal(t, e0, got)
	got, _ = n.Err(3, 1)
	assert.Equal(t, e1, got)

	h20 := 1*e0 + 2*e1
	h21 := 3*e0 + 4*e1
	got, _ = n.Err(2, 0)
	assert.InDelta(t, h20, got, 1e-12)
	got, _ = n.Err(2, 1)
	assert.InDelta(t, h21, got, 1e-12)

	got, _ = n.Err(1, 0)
	assert.InDelta(t, h20, got, 1e-12)
	got, _ = n.Err(1, 1)
	assert.InDelta(t, -h21, got, 1e-12)

	// Input layer errors are never written
	got, _ = n.Err(0, 0)
	assert.Equal(t, 0.0, got)
}

func TestComputeErrorsWrongLength(t *testing.T) {
	n := fixedWeights(t, 2, 2, nil, 1.0)
	_, err := n.FeedForward([]float64{1, 1})
	require.NoError(t, err)

	_, err = n.ComputeErrors([]float64{1})
	assert.ErrorIs(t, err, ErrUsage)

	e, _ := n.Err(1, 0)
	assert.Equal(t, 0.0, e)
}

func TestComputeErrorsLeavesWeights(t *testing.T) {
	n, err := Build(3, 2, []int{4}, WithSeed(5))
	require.NoError(t, err)
	before := snapshotWeights(t, n)

	_, err = n.FeedForward([]float64{1, 0, 1})
	require.NoError(t, err)
	_, err = n.ComputeErrors([]float64{0, 1})
	require.NoError(t, err)

	assert.Equal(t, before, snapshotWeights(t, n))
}

func TestApplyErrorsRequiresComputeErrors(t *testing.T) {
	n := fixedWeights(t, 2, 1, nil, 0.5)
	sgd := opt.SGD{LearningRate: 0.1}

	assert.ErrorIs(t, n.ApplyErrors(sgd), ErrUsage)

	_, err := n.FeedForward([]float64{1, 1})
	require.NoError(t, err)
	assert.ErrorIs(t, n.ApplyErrors(sgd), ErrUsage)

	_, err = n.ComputeErrors([]float64{1})
	require.NoError(t, err)
	require.NoError(t, n.ApplyErrors(sgd))

	// Stale after the update
	assert.ErrorIs(t, n.ApplyErrors(sgd), ErrUsage)
}

func TestApplyErrorsDeltaRule(t *testing.T) {
	n := fixedWeights(t, 2, 1, nil, 1.0)
	_, err := n.FeedForward([]float64{0.5, 0})
	require.NoError(t, err)
	_, err = n.ComputeErrors([]float64{1})
	require.NoError(t, err)
	e, _ := n.Err(1, 0)

	require.NoError(t, n.ApplyErrors(opt.SGD{LearningRate: 0.2}))

	w0, _ := n.Weight(0, 0, 0)
	w1, _ := n.Weight(0, 1, 0)
	assert.InDelta(t, 1.0+0.2*0.5*e, w0, 1e-12)
	// Zero input leaves its weight unchanged
	assert.Equal(t, 1.0, w1)
}

func TestTrainReducesCost(t *testing.T) {
	n, err := Build(2, 1, []int{3}, WithSeed(21))
	require.NoError(t, err)
	sgd := opt.SGD{LearningRate: 0.5}
	in, want := []float64{1, 1}, []float64{0.1}

	first, err := n.Train(in, want, sgd)
	require.NoError(t, err)
	var last float64
	for i := 0; i < 200; i++ {
		last, err = n.Train(in, want, sgd)
		require.NoError(t, err)
	}
	assert.Less(t, last, first)
}

func TestTrainWithMomentum(t *testing.T) {
	n, err := Build(2, 1, nil, WithSeed(3))
	require.NoError(t, err)
	m := opt.NewMomentum(0.5, 0.5)

	first, err := n.Train([]float64{1, 0}, []float64{0.95}, m)
	require.NoError(t, err)
	var last float64
	for i := 0; i < 50; i++ {
		last, err = n.Train([]float64{1, 0}, []float64{0.95}, m)
		require.NoError(t, err)
	}
	assert.Less(t, last, first)
}

func TestTrainPropagatesUsageErrors(t *testing.T) {
	n := fixedWeights(t, 2, 1, nil, 1.0)
	sgd := opt.SGD{LearningRate: 0.1}

	_, err := n.Train([]float64{1}, []float64{1}, sgd)
	assert.ErrorIs(t, err, ErrUsage)
	_, err = n.Train([]float64{1, 1}, []float64{1, 2}, sgd)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestSharedMomentumRejectsOtherSize(t *testing.T) {
	a := fixedWeights(t, 2, 1, nil, 0.5)
	b := fixedWeights(t, 3, 1, nil, 0.5)
	m := opt.NewMomentum(0.1, 0.9)

	_, err := a.Train([]float64{1, 1}, []float64{1}, m)
	require.NoError(t, err)

	before := snapshotWeights(t, b)
	_, err = b.Train([]float64{1, 1, 1}, []float64{1}, m)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Equal(t, before, snapshotWeights(t, b))

	_, err = b.FeedForward([]float64{1, 1, 1})
	require.NoError(t, err)
	_, err = b.ComputeErrors([]float64{1})
	require.NoError(t, err)
	assert.ErrorIs(t, b.ApplyErrors(m), ErrUsage)
	assert.Equal(t, before, snapshotWeights(t, b))

	// Still bound to a
	_, err = a.Train([]float64{1, 1}, []float64{1}, m)
	assert.NoError(t, err)

	m.Reset()
	_, err = b.Train([]float64{1, 1, 1}, []float64{1}, m)
	assert.NoError(t, err)
}

func TestApplyErrorsNilOptimizer(t *testing.T) {
	n := fixedWeights(t, 2, 1, nil, 0.5)
	_, err := n.Train([]float64{1, 1}, []float64{1}, nil)
	assert.ErrorIs(t, err, ErrUsage)
	assert.ErrorIs(t, n.ApplyErrors(nil), ErrUsage)
}

func snapshotValues(t *testing.T, n *Network) [][]float64 {
	t.Helper()
	var out [][]float64
	for li := 0; li < n.LayerCount(); li++ {
		l, err := n.layerAt(li)
		require.NoError(t, err)
		out = append(out, l.Values())
	}
	return out
}

func snapshotWeights(t *testing.T, n *Network) [][]float64 {
	t.Helper()
	var out [][]float64
	for li := 0; li < n.LayerCount()-1; li++ {
		l, err := n.layerAt(li)
		require.NoError(t, err)
		out = append(out, append([]float64(nil), l.Params()...))
	}
	return out
}
