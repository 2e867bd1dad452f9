// Package nnlib is the public entry point of the feed-forward network engine.
//
// A network is built once from its topology and keeps that shape for its
// whole life:
//
//	n, err := nnlib.New(2, 1, []int{3}, nnlib.WithSeed(42))
//	out, err := n.FeedForward([]float64{0, 1})
//
// Indices taken by the introspection methods are 0-based.
package nnlib

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/cailib/nnlib/internal/net"
	"github.com/cailib/nnlib/internal/opt"
)

// Re-export common types for easier access
type (
	Network   = net.Network
	Neuron    = net.Neuron
	Axon      = net.Axon
	NeuronRef = net.NeuronRef
	Option    = net.Option
	Optimizer = opt.Optimizer
)

// Errors
var (
	ErrUsage           = net.ErrUsage
	ErrIndexOutOfRange = net.ErrIndexOutOfRange
	ErrOutOfMemory     = net.ErrOutOfMemory
	ErrReleased        = net.ErrReleased
)

// DefaultMaxParams is the axon cap applied when WithMaxParams is not given.
const DefaultMaxParams = net.DefaultMaxParams

// Engine is the set of operations a Network exposes to an embedding layer.
type Engine interface {
	FeedForward(inputs []float64) ([]float64, error)
	ComputeErrors(expected []float64) (float64, error)
	ApplyErrors(o opt.Optimizer) error
	Train(inputs, expected []float64, o opt.Optimizer) (float64, error)

	Dimensions() (inputs, outputs int, hidden []int)
	Value(layer, neuron int) (float64, error)
	Err(layer, neuron int) (float64, error)
	Weight(layer, neuron, edge int) (float64, error)
	SetWeight(layer, neuron, edge int, w float64) error
	WeightMatrix(layer int) (mat.Matrix, error)
	TweakWeights(fn func(float64) float64) (int, error)

	Copy() (*net.Network, error)
	Reset() error
	Release()
}

var _ Engine = (*net.Network)(nil)

// New builds a network with the given input width, output width and hidden
// layer widths. See net.Build.
func New(inputs, outputs int, hidden []int, opts ...Option) (*Network, error) {
	return net.Build(inputs, outputs, hidden, opts...)
}

// Options
func WithSeed(seed uint64) Option {
	return net.WithSeed(seed)
}

func WithMaxParams(n int) Option {
	return net.WithMaxParams(n)
}

func WithSource(src rand.Source) Option {
	return net.WithSource(src)
}

// Optimizers
func SGD(lr float64) Optimizer {
	return opt.SGD{LearningRate: lr}
}

func Momentum(lr, mu float64) Optimizer {
	return opt.NewMomentum(lr, mu)
}
