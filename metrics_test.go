package main

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMetricsHistory(t *testing.T) {
	m := &Metrics{}
	if !math.IsNaN(m.RecentTrainLoss(3)) {
		t.Error("expected NaN for empty history")
	}
	if _, ok := m.BestValid(); ok {
		t.Error("expected no best validation loss yet")
	}

	for i, l := range []float64{5, 4, 3, 2} {
		m.AddTrain(i, l)
	}
	m.AddValid(0, 4.5)
	m.AddValid(2, 2.5)
	m.AddValid(3, 2.7)

	if got := m.RecentTrainLoss(2); math.Abs(got-2.5) > 1e-12 {
		t.Errorf("expected 2.5, got %v", got)
	}
	if got := m.RecentTrainLoss(10); math.Abs(got-3.5) > 1e-12 {
		t.Errorf("expected 3.5, got %v", got)
	}
	best, ok := m.BestValid()
	if !ok || best.Iteration != 2 || best.Loss != 2.5 {
		t.Errorf("expected best at iteration 2, got %+v", best)
	}
}

func TestMetricsJSON(t *testing.T) {
	m := &Metrics{}
	m.AddTrain(0, 1.25)
	m.AddValid(0, 1.5)

	path := filepath.Join(t.TempDir(), "metrics.json")
	if err := saveJSON(path, m); err != nil {
		t.Fatal(err)
	}
	var got Metrics
	if err := loadJSON(path, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Train) != 1 || got.Train[0].Loss != 1.25 || got.Valid[0].Loss != 1.5 {
		t.Errorf("unexpected metrics %+v", got)
	}
}

func TestMetricsJSONErrors(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.json")
	var got Metrics
	err := loadJSON(missing, &got)
	if !errors.Is(err, os.ErrNotExist) || !strings.Contains(err.Error(), missing) {
		t.Errorf("expected wrapped not-exist error naming the file, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := loadJSON(bad, &got); err == nil || !strings.Contains(err.Error(), "decoding") {
		t.Errorf("expected decode error, got %v", err)
	}

	if err := saveJSON(filepath.Join(dir, "nope", "m.json"), &got); err == nil {
		t.Error("expected an error writing into a missing directory")
	}
	if err := saveJSON(filepath.Join(dir, "nan.json"), math.NaN()); err == nil || !strings.Contains(err.Error(), "encoding") {
		t.Errorf("expected encode error, got %v", err)
	}
}
