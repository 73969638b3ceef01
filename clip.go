package main

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Parameter exposes the gradient buffer of one trainable tensor. Writes
// into the returned slice must reach the optimizer.
type Parameter interface {
	Grad() []float64
}

// GlobalGradNorm is the L2 norm over the gradients of all parameters.
func GlobalGradNorm(params []Parameter) float64 {
	var sq float64
	for _, p := range params {
		n := floats.Norm(p.Grad(), 2)
		sq += n * n
	}
	return math.Sqrt(sq)
}

// ClipGradNorm rescales all gradients together so their global L2 norm is
// at most maxNorm. It returns the norm measured before clipping.
func ClipGradNorm(params []Parameter, maxNorm float64) float64 {
	norm := GlobalGradNorm(params)
	if norm <= maxNorm || norm == 0 {
		return norm
	}
	scale := maxNorm / norm
	for _, p := range params {
		floats.Scale(scale, p.Grad())
	}
	return norm
}
