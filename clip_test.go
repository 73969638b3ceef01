package main

import (
	"math"
	"testing"
)

type sliceParam []float64

func (p sliceParam) Grad() []float64 { return p }

func TestClipGradNormScalesGlobally(t *testing.T) {
	a := sliceParam{3, 4}  // norm 5
	b := sliceParam{0, 12} // norm 12
	params := []Parameter{a, b}

	pre := ClipGradNorm(params, 0.5)
	if math.Abs(pre-13) > 1e-9 {
		t.Errorf("expected pre-clip norm 13, got %v", pre)
	}
	post := GlobalGradNorm(params)
	if post > 0.5+1e-9 {
		t.Errorf("expected norm <= 0.5, got %v", post)
	}
	// direction is kept: ratio between parameters unchanged
	if math.Abs(a[1]/b[1]-4.0/12.0) > 1e-9 {
		t.Errorf("clipping changed gradient direction: %v %v", a, b)
	}
}

func TestClipGradNormLeavesSmallGradients(t *testing.T) {
	a := sliceParam{0.1, 0.2}
	ClipGradNorm([]Parameter{a}, 0.5)
	if a[0] != 0.1 || a[1] != 0.2 {
		t.Errorf("expected unchanged gradients, got %v", a)
	}
}

func TestClipGradNormZeroAndEmpty(t *testing.T) {
	if n := ClipGradNorm(nil, 0.5); n != 0 {
		t.Errorf("expected 0 for no params, got %v", n)
	}
	z := sliceParam{0, 0}
	if n := ClipGradNorm([]Parameter{z, sliceParam{}}, 0.5); n != 0 {
		t.Errorf("expected 0, got %v", n)
	}
}

func TestClipGradNormManyParams(t *testing.T) {
	var params []Parameter
	for i := 0; i < 20; i++ {
		p := make(sliceParam, 50)
		for j := range p {
			p[j] = float64((i*50+j)%7) - 3
		}
		params = append(params, p)
	}
	ClipGradNorm(params, 0.5)
	if n := GlobalGradNorm(params); n > 0.5+1e-9 {
		t.Errorf("expected norm <= 0.5, got %v", n)
	}
}
