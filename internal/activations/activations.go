// Package activations provides the neuron activation functions.
package activations

import "math"

// Activation maps a neuron's weighted input sum to its value.
type Activation interface {
	Activate(x float64) float64
}

// Sigmoid is the logistic function 1 / (1 + e^-x), which squashes any
// weighted sum into (0, 1).
type Sigmoid struct{}

// Activate computes sigmoid(x)
func (Sigmoid) Activate(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// ActivateInPlace overwrites every element of x with f(x).
func ActivateInPlace(act Activation, x []float64) {
	for i, v := range x {
		x[i] = act.Activate(v)
	}
}
