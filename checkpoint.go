package main

import (
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"

	"gorgonia.org/tensor"
)

// Params is the serialized form of a WindowLM.
type Params struct {
	Config ModelConfig
	W1     []float64
	W2     []float64
}

// Snapshot copies the current weights.
func (m *WindowLM) Snapshot() *Params {
	return &Params{
		Config: m.cfg,
		W1:     append([]float64(nil), m.train.w1.Value().Data().([]float64)...),
		W2:     append([]float64(nil), m.train.w2.Value().Data().([]float64)...),
	}
}

func SaveParams(path string, p *Params) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(p)
}

func LoadParams(path string) (*Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var p Params
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// NewWindowLMFromParams rebuilds a model around saved weights.
func NewWindowLMFromParams(p *Params, batchSize int, rng *rand.Rand) (*WindowLM, error) {
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	in := cfg.Context * cfg.NumTokens
	if len(p.W1) != in*cfg.Dim || len(p.W2) != cfg.Dim*cfg.NumTokens {
		return nil, fmt.Errorf("checkpoint weights do not match config: w1 %d, w2 %d", len(p.W1), len(p.W2))
	}
	w1 := tensor.New(tensor.WithShape(in, cfg.Dim), tensor.WithBacking(append([]float64(nil), p.W1...)))
	w2 := tensor.New(tensor.WithShape(cfg.Dim, cfg.NumTokens), tensor.WithBacking(append([]float64(nil), p.W2...)))
	return newWindowLM(cfg, batchSize, rng, w1, w2)
}
