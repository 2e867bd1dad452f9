package net

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cailib/nnlib/internal/layer"
)

// NeuronRef identifies a neuron by layer index and position in that layer.
type NeuronRef struct {
	Layer int
	Index int
}

// Neuron is a snapshot of one neuron's state.
type Neuron struct {
	Ref       NeuronRef
	Value     float64
	Err       float64
	AxonCount int
}

// Axon is a snapshot of one directed weighted edge.
type Axon struct {
	Source NeuronRef
	Target NeuronRef
	Weight float64
}

// InputWidth returns the number of neurons in the input layer.
func (n *Network) InputWidth() int { return n.inputWidth }

// OutputWidth returns the number of neurons in the output layer.
func (n *Network) OutputWidth() int { return n.outputWidth }

// HiddenWidths returns a copy of the hidden layer widths, in order.
func (n *Network) HiddenWidths() []int {
	return append([]int{}, n.hiddenWidths...)
}

// Dimensions returns the input width, output width and a copy of the hidden
// layer widths.
func (n *Network) Dimensions() (inputs, outputs int, hidden []int) {
	return n.inputWidth, n.outputWidth, n.HiddenWidths()
}

// LayerWidths returns a copy of every layer width, input layer first.
func (n *Network) LayerWidths() []int {
	return append([]int{}, n.layerWidths...)
}

// LayerCount returns the number of layers, hidden layers plus two.
// It is zero after Release.
func (n *Network) LayerCount() int {
	return len(n.layers)
}

// ParamCount returns the total number of axons.
func (n *Network) ParamCount() int {
	total := 0
	for _, l := range n.layers {
		total += len(l.Params())
	}
	return total
}

// inputLayer returns the first layer, or nil after Release.
func (n *Network) inputLayer() *layer.Layer {
	if n.released {
		return nil
	}
	return n.layers[0]
}

// outputLayer returns the last layer, or nil after Release.
func (n *Network) outputLayer() *layer.Layer {
	if n.released {
		return nil
	}
	return n.layers[len(n.layers)-1]
}

// layerAt returns the layer at index i.
func (n *Network) layerAt(i int) (*layer.Layer, error) {
	if n.released {
		return nil, ErrReleased
	}
	if i < 0 || i >= len(n.layers) {
		return nil, rangef("layer %d of %d", i, len(n.layers))
	}
	return n.layers[i], nil
}

func (n *Network) neuronLayer(li, i int) (*layer.Layer, error) {
	l, err := n.layerAt(li)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= l.Width() {
		return nil, rangef("neuron %d of %d in layer %d", i, l.Width(), li)
	}
	return l, nil
}

func (n *Network) axonLayer(li, i, edge int) (*layer.Layer, error) {
	l, err := n.neuronLayer(li, i)
	if err != nil {
		return nil, err
	}
	if edge < 0 || edge >= l.FanOut() {
		return nil, rangef("edge %d of %d on neuron %d in layer %d", edge, l.FanOut(), i, li)
	}
	return l, nil
}

// Neuron returns a snapshot of neuron i in layer li.
func (n *Network) Neuron(li, i int) (Neuron, error) {
	l, err := n.neuronLayer(li, i)
	if err != nil {
		return Neuron{}, err
	}
	return Neuron{
		Ref:       NeuronRef{Layer: li, Index: i},
		Value:     l.Value(i),
		Err:       l.Err(i),
		AxonCount: l.FanOut(),
	}, nil
}

// Value returns the activation of neuron i in layer li.
func (n *Network) Value(li, i int) (float64, error) {
	l, err := n.neuronLayer(li, i)
	if err != nil {
		return 0, err
	}
	return l.Value(i), nil
}

// Err returns the error signal of neuron i in layer li.
func (n *Network) Err(li, i int) (float64, error) {
	l, err := n.neuronLayer(li, i)
	if err != nil {
		return 0, err
	}
	return l.Err(i), nil
}

// Axon returns a snapshot of the edge-th outgoing axon of neuron i in
// layer li. The axon targets neuron edge of layer li+1.
func (n *Network) Axon(li, i, edge int) (Axon, error) {
	l, err := n.axonLayer(li, i, edge)
	if err != nil {
		return Axon{}, err
	}
	return Axon{
		Source: NeuronRef{Layer: li, Index: i},
		Target: NeuronRef{Layer: li + 1, Index: edge},
		Weight: l.Weight(i, edge),
	}, nil
}

// Axons returns snapshots of every outgoing axon of neuron i in layer li,
// in target order. Output neurons have none.
func (n *Network) Axons(li, i int) ([]Axon, error) {
	l, err := n.neuronLayer(li, i)
	if err != nil {
		return nil, err
	}
	axons := make([]Axon, l.FanOut())
	for j := range axons {
		axons[j] = Axon{
			Source: NeuronRef{Layer: li, Index: i},
			Target: NeuronRef{Layer: li + 1, Index: j},
			Weight: l.Weight(i, j),
		}
	}
	return axons, nil
}

// Weight returns the weight of the edge-th outgoing axon of neuron i in
// layer li.
func (n *Network) Weight(li, i, edge int) (float64, error) {
	l, err := n.axonLayer(li, i, edge)
	if err != nil {
		return 0, err
	}
	return l.Weight(i, edge), nil
}

// SetWeight sets the weight of the edge-th outgoing axon of neuron i in
// layer li.
func (n *Network) SetWeight(li, i, edge int, w float64) error {
	l, err := n.axonLayer(li, i, edge)
	if err != nil {
		return err
	}
	l.SetWeight(i, edge, w)
	n.errorsReady = false
	return nil
}

// WeightMatrix returns a copy of the weights leaving layer li as a
// [width(li), width(li+1)] matrix. The output layer has no outgoing
// weights and is out of range.
func (n *Network) WeightMatrix(li int) (mat.Matrix, error) {
	if n.released {
		return nil, ErrReleased
	}
	if li < 0 || li >= len(n.layers)-1 {
		return nil, rangef("weight matrix %d of %d", li, len(n.layers)-1)
	}
	return n.layers[li].Weights(), nil
}
