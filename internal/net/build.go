package net

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cailib/nnlib/internal/activations"
	"github.com/cailib/nnlib/internal/layer"
	"github.com/cailib/nnlib/internal/loss"
)

// DefaultMaxParams bounds the number of axons a single Build may allocate
// when no WithMaxParams option is given.
const DefaultMaxParams = 1 << 27

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	src       rand.Source
	maxParams int
}

// WithSource draws the initial weights from src. The source is used only
// during Build and is not retained.
func WithSource(src rand.Source) Option {
	return func(c *buildConfig) {
		c.src = src
	}
}

// WithSeed draws the initial weights from a fresh generator seeded with seed.
// Two networks built with the same seed and topology have identical weights.
func WithSeed(seed uint64) Option {
	return func(c *buildConfig) {
		c.src = rand.NewSource(seed)
	}
}

// WithMaxParams caps the number of axons Build may allocate. Topologies
// over the cap fail with ErrOutOfMemory before anything is allocated.
func WithMaxParams(n int) Option {
	return func(c *buildConfig) {
		c.maxParams = n
	}
}

// Build allocates a fully-connected network with the given input and output
// widths and hidden layer widths, in order. hiddenWidths may be empty and is
// copied, so the caller may reuse it.
//
// Every axon weight is drawn uniformly from [0, 1). Neuron values and
// errors start at zero.
func Build(inputWidth, outputWidth int, hiddenWidths []int, opts ...Option) (n *Network, err error) {
	cfg := buildConfig{maxParams: DefaultMaxParams}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.src == nil {
		cfg.src = defaultSource()
	}

	if inputWidth <= 0 {
		return nil, usagef("input width must be positive, got %d", inputWidth)
	}
	if outputWidth <= 0 {
		return nil, usagef("output width must be positive, got %d", outputWidth)
	}
	for i, w := range hiddenWidths {
		if w <= 0 {
			return nil, usagef("hidden layer %d width must be positive, got %d", i, w)
		}
	}

	widths := make([]int, 0, len(hiddenWidths)+2)
	widths = append(widths, inputWidth)
	widths = append(widths, hiddenWidths...)
	widths = append(widths, outputWidth)

	params, ok := countParams(widths)
	if !ok || params > cfg.maxParams {
		return nil, errors.Wrapf(ErrOutOfMemory, "topology %s needs more than %d axons",
			formatWidths(widths), cfg.maxParams)
	}

	defer func() {
		if r := recover(); r != nil {
			if !isAllocPanic(r) {
				panic(r)
			}
			n, err = nil, errors.Wrapf(ErrOutOfMemory, "building topology %s: %v",
				formatWidths(widths), r)
		}
	}()

	uniform := distuv.Uniform{Min: 0, Max: 1, Src: cfg.src}
	layers := make([]*layer.Layer, len(widths))
	for i, w := range widths {
		fanOut := 0
		if i < len(widths)-1 {
			fanOut = widths[i+1]
		}
		layers[i] = layer.New(w, fanOut, uniform.Rand)
	}

	return &Network{
		inputWidth:   inputWidth,
		outputWidth:  outputWidth,
		hiddenWidths: append([]int{}, hiddenWidths...),
		layerWidths:  widths,
		layers:       layers,
		act:          activations.Sigmoid{},
		cost:         loss.HalfSquaredError{},
	}, nil
}

// countParams returns the total number of axons for the given layer widths
// and false if the count overflows int.
func countParams(widths []int) (int, bool) {
	total := 0
	for i := 0; i < len(widths)-1; i++ {
		a, b := widths[i], widths[i+1]
		if b > math.MaxInt/a {
			return 0, false
		}
		edges := a * b
		if total > math.MaxInt-edges {
			return 0, false
		}
		total += edges
	}
	return total, true
}

// isAllocPanic reports whether r is a runtime error raised by a failed
// allocation, such as makeslice with an unrepresentable length. Genuine heap
// exhaustion is a fatal runtime error that no recover can intercept; the
// axon cap checked before allocation is what guards against it.
func isAllocPanic(r interface{}) bool {
	err, ok := r.(runtime.Error)
	if !ok {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "makeslice") || strings.Contains(msg, "out of memory")
}

func formatWidths(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = fmt.Sprint(w)
	}
	return strings.Join(parts, "-")
}
