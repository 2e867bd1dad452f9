// Package layer provides the per-layer storage of a feed-forward network.
package layer

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cailib/nnlib/internal/activations"
)

// Layer owns the state of every neuron at one depth of the network and the
// outgoing axons of those neurons.
//
// Outgoing axons are stored as a dense row-major matrix of shape
// [width, fanOut]: row k holds the axons of neuron k, and column j is the
// axon that targets neuron j of the next layer. The output layer has
// fanOut 0 and no matrix.
type Layer struct {
	values []float64
	errs   []float64
	out    *mat.Dense

	// Reusable gradient buffer, same layout as the weights
	gradBuf []float64
}

// New creates a layer of width neurons with value and error zeroed.
// If fanOut > 0 every outgoing weight is drawn from initWeight in row-major
// order.
func New(width, fanOut int, initWeight func() float64) *Layer {
	l := &Layer{
		values: make([]float64, width),
		errs:   make([]float64, width),
	}
	if fanOut == 0 {
		return l
	}

	weights := make([]float64, width*fanOut)
	for i := range weights {
		weights[i] = initWeight()
	}
	l.out = mat.NewDense(width, fanOut, weights)
	return l
}

// Width returns the number of neurons in the layer.
func (l *Layer) Width() int {
	return len(l.values)
}

// FanOut returns the number of outgoing axons per neuron.
func (l *Layer) FanOut() int {
	if l.out == nil {
		return 0
	}
	_, c := l.out.Dims()
	return c
}

// Value returns the activation of neuron i.
func (l *Layer) Value(i int) float64 {
	return l.values[i]
}

// Err returns the error signal of neuron i.
func (l *Layer) Err(i int) float64 {
	return l.errs[i]
}

// Values returns a copy of the neuron activations.
func (l *Layer) Values() []float64 {
	return append([]float64(nil), l.values...)
}

// Errors returns a copy of the neuron error signals.
func (l *Layer) Errors() []float64 {
	return append([]float64(nil), l.errs...)
}

// Weight gets the weight of the edge-th axon of neuron i.
func (l *Layer) Weight(i, edge int) float64 {
	return l.out.At(i, edge)
}

// SetWeight sets the weight of the edge-th axon of neuron i.
func (l *Layer) SetWeight(i, edge int, w float64) {
	l.out.Set(i, edge, w)
}

// Weights returns a copy of the outgoing weight matrix, or nil for the
// output layer.
func (l *Layer) Weights() *mat.Dense {
	if l.out == nil {
		return nil
	}
	return mat.DenseCopyOf(l.out)
}

// Params returns the outgoing weights directly, row-major.
// Writes to the returned slice change the layer.
func (l *Layer) Params() []float64 {
	if l.out == nil {
		return nil
	}
	return l.out.RawMatrix().Data
}

// Load copies x into the neuron values. len(x) must equal Width.
func (l *Layer) Load(x []float64) {
	copy(l.values, x)
}

// Propagate computes the activations of next from the values of l:
// next[j] = act(sum_k l[k] * W[k][j]).
func (l *Layer) Propagate(next *Layer, act activations.Activation) {
	dst := mat.NewVecDense(len(next.values), next.values)
	dst.MulVec(l.out.T(), mat.NewVecDense(len(l.values), l.values))
	activations.ActivateInPlace(act, next.values)
}

// LoadGradient sets err = -grad[i] for every neuron, grad being the
// derivative of the cost with respect to the neuron values.
// len(grad) must equal Width.
func (l *Layer) LoadGradient(grad []float64) {
	floats.ScaleTo(l.errs, -1, grad)
}

// BackPropagate computes the error of every neuron in l from the errors of
// next: err[k] = sum_j W[k][j] * next.err[j]. next must already hold its
// errors.
func (l *Layer) BackPropagate(next *Layer) {
	dst := mat.NewVecDense(len(l.errs), l.errs)
	dst.MulVec(l.out, mat.NewVecDense(len(next.errs), next.errs))
}

// Gradients computes the descent direction of every outgoing weight from
// the current values of l and errors of next: g[k][j] = -l[k] * next.err[j].
// The returned slice is reused between calls.
func (l *Layer) Gradients(next *Layer) []float64 {
	if l.out == nil {
		return nil
	}
	width, fanOut := l.out.Dims()
	if l.gradBuf == nil {
		l.gradBuf = make([]float64, width*fanOut)
	}
	for k := 0; k < width; k++ {
		row := l.gradBuf[k*fanOut : (k+1)*fanOut]
		floats.ScaleTo(row, -l.values[k], next.errs)
	}
	return l.gradBuf
}

// Tweak replaces every outgoing weight w with fn(w), neuron by neuron and
// edge by edge. It returns the number of weights visited.
func (l *Layer) Tweak(fn func(float64) float64) int {
	if l.out == nil {
		return 0
	}
	width, fanOut := l.out.Dims()
	for k := 0; k < width; k++ {
		for j := 0; j < fanOut; j++ {
			l.out.Set(k, j, fn(l.out.At(k, j)))
		}
	}
	return width * fanOut
}

// Reset zeroes every value and error.
func (l *Layer) Reset() {
	for i := range l.values {
		l.values[i] = 0
		l.errs[i] = 0
	}
}

// Clone returns an independent layer with the same width and a copy of the
// outgoing weights. Values and errors of the clone are zero.
func (l *Layer) Clone() *Layer {
	c := &Layer{
		values: make([]float64, len(l.values)),
		errs:   make([]float64, len(l.errs)),
	}
	if l.out != nil {
		c.out = mat.DenseCopyOf(l.out)
	}
	return c
}
