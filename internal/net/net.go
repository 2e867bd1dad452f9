// Package net provides the fully-connected sigmoid feed-forward network.
package net

import (
	"github.com/cailib/nnlib/internal/activations"
	"github.com/cailib/nnlib/internal/layer"
	"github.com/cailib/nnlib/internal/loss"
	"github.com/cailib/nnlib/internal/opt"
)

// Network is a layered graph of neurons with a fixed topology.
//
// A Network has a single owner: it does no internal locking, and calls that
// may run concurrently on the same Network must be synchronised by the
// caller. Distinct Networks, including copies made with Copy, share nothing.
type Network struct {
	inputWidth   int
	outputWidth  int
	hiddenWidths []int
	layerWidths  []int
	layers       []*layer.Layer
	act          activations.Activation
	cost         loss.Loss

	// errorsReady is set by ComputeErrors and cleared by anything that
	// makes the stored errors stale relative to values or weights.
	errorsReady bool
	released    bool
}

// FeedForward loads inputs into the input layer and propagates them layer
// by layer through the network. It returns a new slice holding the output
// layer's values.
//
// len(inputs) must equal the input width; otherwise ErrUsage is returned
// and no neuron is modified.
func (n *Network) FeedForward(inputs []float64) ([]float64, error) {
	if n.released {
		return nil, ErrReleased
	}
	if len(inputs) != n.inputWidth {
		return nil, usagef("got %d inputs, network takes %d", len(inputs), n.inputWidth)
	}

	n.layers[0].Load(inputs)
	for i := 1; i < len(n.layers); i++ {
		n.layers[i-1].Propagate(n.layers[i], n.act)
	}
	n.errorsReady = false

	return n.outputLayer().Values(), nil
}

// ComputeErrors sets the error signal of every non-input neuron from the
// expected output of the last FeedForward call:
//
//	output neuron i:  err = expected[i] - value
//	hidden neuron k:  err = sum over k's axons of weight * target.err
//
// Hidden layers are processed from the last one back to the first; the
// input layer's errors are left unchanged. No weight is modified. The
// returned cost is 0.5 * sum(err^2) over the output layer.
//
// len(expected) must equal the output width; otherwise ErrUsage is returned
// and no neuron is modified.
func (n *Network) ComputeErrors(expected []float64) (float64, error) {
	if n.released {
		return 0, ErrReleased
	}
	if len(expected) != n.outputWidth {
		return 0, usagef("got %d expected values, network has %d outputs", len(expected), n.outputWidth)
	}

	out := n.outputLayer()
	values := out.Values()
	out.LoadGradient(n.cost.Backward(values, expected))
	cost := n.cost.Forward(values, expected)

	for i := len(n.layers) - 2; i > 0; i-- {
		n.layers[i].BackPropagate(n.layers[i+1])
	}
	n.errorsReady = true

	return cost, nil
}

// ApplyErrors updates every weight from the errors of the last
// ComputeErrors call. The gradient handed to o for the axon from neuron s
// to neuron t is -s.value * t.err, so plain gradient descent moves each
// weight by lr * s.value * t.err, toward the expected output.
//
// ComputeErrors must have been called since the last FeedForward or
// ApplyErrors, and o must accept this network's parameter count; otherwise
// ErrUsage is returned and no weight is modified.
func (n *Network) ApplyErrors(o opt.Optimizer) error {
	if n.released {
		return ErrReleased
	}
	if err := n.checkOptimizer(o); err != nil {
		return err
	}
	if !n.errorsReady {
		return usagef("ApplyErrors needs a ComputeErrors call after the last FeedForward")
	}

	params := make([]float64, 0, n.ParamCount())
	grads := make([]float64, 0, n.ParamCount())
	for i := 0; i < len(n.layers)-1; i++ {
		params = append(params, n.layers[i].Params()...)
		grads = append(grads, n.layers[i].Gradients(n.layers[i+1])...)
	}

	o.StepInPlace(params, grads)

	offset := 0
	for i := 0; i < len(n.layers)-1; i++ {
		dst := n.layers[i].Params()
		copy(dst, params[offset:offset+len(dst)])
		offset += len(dst)
	}
	n.errorsReady = false

	return nil
}

// Train runs one FeedForward, ComputeErrors and ApplyErrors step on a single
// sample and returns the cost measured before the update. An optimizer that
// does not fit the network is rejected before the forward pass.
func (n *Network) Train(inputs, expected []float64, o opt.Optimizer) (float64, error) {
	if n.released {
		return 0, ErrReleased
	}
	if err := n.checkOptimizer(o); err != nil {
		return 0, err
	}
	if _, err := n.FeedForward(inputs); err != nil {
		return 0, err
	}
	cost, err := n.ComputeErrors(expected)
	if err != nil {
		return 0, err
	}
	if err := n.ApplyErrors(o); err != nil {
		return 0, err
	}
	return cost, nil
}

func (n *Network) checkOptimizer(o opt.Optimizer) error {
	if o == nil {
		return usagef("nil optimizer")
	}
	if s, ok := o.(opt.Stateful); ok {
		if err := s.Compatible(n.ParamCount()); err != nil {
			return usagef("%v", err)
		}
	}
	return nil
}

// TweakWeights replaces every weight w with fn(w), visiting layers in
// order, then neurons, then edges. It returns the number of weights visited.
func (n *Network) TweakWeights(fn func(float64) float64) (int, error) {
	if n.released {
		return 0, ErrReleased
	}
	total := 0
	for _, l := range n.layers {
		total += l.Tweak(fn)
	}
	n.errorsReady = false
	return total, nil
}

// Copy returns an independent network with the same topology and weights.
// Values and errors of the copy are zero.
func (n *Network) Copy() (*Network, error) {
	if n.released {
		return nil, ErrReleased
	}
	layers := make([]*layer.Layer, len(n.layers))
	for i, l := range n.layers {
		layers[i] = l.Clone()
	}
	return &Network{
		inputWidth:   n.inputWidth,
		outputWidth:  n.outputWidth,
		hiddenWidths: append([]int{}, n.hiddenWidths...),
		layerWidths:  append([]int{}, n.layerWidths...),
		layers:       layers,
		act:          n.act,
		cost:         n.cost,
	}, nil
}

// Reset zeroes every neuron value and error, leaving weights unchanged.
func (n *Network) Reset() error {
	if n.released {
		return ErrReleased
	}
	for _, l := range n.layers {
		l.Reset()
	}
	n.errorsReady = false
	return nil
}

// Release drops the network's graph. Every later call on n returns
// ErrReleased. Calling Release more than once is a no-op.
func (n *Network) Release() {
	if n.released {
		return
	}
	n.layers = nil
	n.hiddenWidths = nil
	n.layerWidths = nil
	n.errorsReady = false
	n.released = true
}

// Released reports whether Release has been called.
func (n *Network) Released() bool {
	return n.released
}
