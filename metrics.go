package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
)

// LossPoint is one reported loss value.
type LossPoint struct {
	Iteration int     `json:"iteration"`
	Loss      float64 `json:"loss"`
}

// Metrics records the loss history of a run.
type Metrics struct {
	Train []LossPoint `json:"train"`
	Valid []LossPoint `json:"valid"`
}

func (m *Metrics) AddTrain(iter int, loss float64) {
	m.Train = append(m.Train, LossPoint{Iteration: iter, Loss: loss})
}

func (m *Metrics) AddValid(iter int, loss float64) {
	m.Valid = append(m.Valid, LossPoint{Iteration: iter, Loss: loss})
}

// RecentTrainLoss averages the last n training losses.
func (m *Metrics) RecentTrainLoss(n int) float64 {
	if len(m.Train) == 0 || n <= 0 {
		return math.NaN()
	}
	if n > len(m.Train) {
		n = len(m.Train)
	}
	vals := make([]float64, n)
	for i, p := range m.Train[len(m.Train)-n:] {
		vals[i] = p.Loss
	}
	return floats.Sum(vals) / float64(n)
}

// BestValid returns the lowest validation loss seen, ok is false if none.
func (m *Metrics) BestValid() (LossPoint, bool) {
	if len(m.Valid) == 0 {
		return LossPoint{}, false
	}
	best := m.Valid[0]
	for _, p := range m.Valid[1:] {
		if p.Loss < best.Loss {
			best = p
		}
	}
	return best, true
}

func saveJSON(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

func loadJSON(path string, data interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(data); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
