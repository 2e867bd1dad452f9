// Package loss provides the cost functions used to score network output.
package loss

import "gonum.org/v1/gonum/floats"

// Loss is a cost function with derivative.
type Loss interface {
	// Forward computes the cost between predicted and true values.
	Forward(yPred, yTrue []float64) float64

	// Backward computes the gradient of the cost w.r.t. prediction.
	Backward(yPred, yTrue []float64) []float64
}

// HalfSquaredError is the summed squared error scaled by one half:
// 0.5 * sum((y_true - y_pred)^2). Its gradient w.r.t. the prediction is
// the negated error signal, y_pred - y_true.
type HalfSquaredError struct{}

// Forward computes 0.5 * sum((y_true - y_pred)^2). It panics if the
// lengths differ.
func (HalfSquaredError) Forward(yPred, yTrue []float64) float64 {
	d := diff(yPred, yTrue)
	return 0.5 * floats.Dot(d, d)
}

// Backward returns y_pred - y_true as a new slice.
func (HalfSquaredError) Backward(yPred, yTrue []float64) []float64 {
	return diff(yPred, yTrue)
}

// MSE is the mean squared error, used to score a whole data set.
// It is a metric only and has no gradient.
type MSE struct{}

// Forward computes (1/n) * sum((y_pred - y_true)^2), or 0 when empty.
func (MSE) Forward(yPred, yTrue []float64) float64 {
	d := diff(yPred, yTrue)
	if len(d) == 0 {
		return 0
	}
	return floats.Dot(d, d) / float64(len(d))
}

func diff(yPred, yTrue []float64) []float64 {
	d := make([]float64, len(yPred))
	floats.SubTo(d, yPred, yTrue)
	return d
}
