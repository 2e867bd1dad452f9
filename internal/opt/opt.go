// Package opt provides the weight update rules applied after an error pass.
package opt

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Optimizer updates network parameters based on gradients.
type Optimizer interface {
	// StepInPlace applies the update directly to params. It panics if
	// params and gradients differ in length.
	StepInPlace(params, gradients []float64)
}

// Stateful is implemented by optimizers that keep per-parameter state
// between steps and so only fit parameter vectors of one length.
type Stateful interface {
	// Compatible reports whether a vector of n parameters can be stepped.
	Compatible(n int) error
}

// SGD is plain gradient descent: params -= lr * gradients.
type SGD struct {
	LearningRate float64
}

// StepInPlace updates params in-place: params = params - lr * gradients
func (s SGD) StepInPlace(params, gradients []float64) {
	floats.AddScaled(params, -s.LearningRate, gradients)
}

// Momentum is gradient descent with a velocity term:
// v = mu*v - lr*g; params += v.
//
// The velocity buffer is sized on first use. A Momentum belongs to the
// parameter vector it first stepped; Reset detaches it.
type Momentum struct {
	LearningRate float64
	Mu           float64

	velocity []float64
}

// NewMomentum creates a Momentum optimizer.
func NewMomentum(learningRate, mu float64) *Momentum {
	return &Momentum{LearningRate: learningRate, Mu: mu}
}

// Compatible returns an error if the velocity already tracks a parameter
// vector whose length is not n.
func (m *Momentum) Compatible(n int) error {
	if m.velocity != nil && len(m.velocity) != n {
		return errors.Errorf("momentum velocity tracks %d parameters, got %d", len(m.velocity), n)
	}
	return nil
}

// StepInPlace updates params and the internal velocity. It panics if the
// parameter length differs from that of earlier steps.
func (m *Momentum) StepInPlace(params, gradients []float64) {
	if err := m.Compatible(len(params)); err != nil {
		panic(err)
	}
	if m.velocity == nil {
		m.velocity = make([]float64, len(params))
	}
	floats.Scale(m.Mu, m.velocity)
	floats.AddScaled(m.velocity, -m.LearningRate, gradients)
	floats.Add(params, m.velocity)
}

// Reset clears the accumulated velocity.
func (m *Momentum) Reset() {
	m.velocity = nil
}
