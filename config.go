package main

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// Training defaults
const (
	NumBatches          = 100000
	BatchSize           = 4
	GradAccumulateEvery = 4
	LearningRate        = 1e-4
	ValidateEvery       = 100
	PrimeLength         = 128
	GenerateEvery       = 250
	GenerateLength      = 2048
	SeqLen              = 2048
	ClipNorm            = 0.5

	CorpusPath  = "./data/enwik8.gz"
	CorpusBytes = 95000000
	TrainBytes  = 90000000
)

var ErrBadConfig = errors.New("invalid configuration")

// ModelConfig is the construction record handed to the model backend.
type ModelConfig struct {
	NumTokens       int  `json:"num_tokens"`
	Dim             int  `json:"dim"`
	Depth           int  `json:"depth"`
	DimHead         int  `json:"dim_head"`
	Heads           int  `json:"heads"`
	SeqLen          int  `json:"seq_len"`
	UseFlashAttn    bool `json:"use_flash_attn"`
	NumMemoryTokens int  `json:"num_memory_tokens"`
	UseXLMemories   bool `json:"use_xl_memories"`
	XLMemLen        int  `json:"xl_mem_len"`

	// Context is the byte lookback of the built-in windowlm backend.
	Context int `json:"context"`
}

func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		NumTokens:       256,
		Dim:             512,
		Depth:           6,
		DimHead:         64,
		Heads:           8,
		SeqLen:          512,
		UseFlashAttn:    true,
		NumMemoryTokens: 128,
		UseXLMemories:   true,
		XLMemLen:        256,
		Context:         8,
	}
}

func (c ModelConfig) Validate() error {
	vocab := NewByteTokenizer().GetVocabSize()
	switch {
	case c.NumTokens <= 0 || c.NumTokens > vocab:
		return fmt.Errorf("%w: num_tokens must be in (0, %d], got %d", ErrBadConfig, vocab, c.NumTokens)
	case c.Dim <= 0, c.Depth <= 0, c.DimHead <= 0, c.Heads <= 0:
		return fmt.Errorf("%w: dim, depth, dim_head and heads must be positive", ErrBadConfig)
	case c.SeqLen <= 0:
		return fmt.Errorf("%w: seq_len must be positive, got %d", ErrBadConfig, c.SeqLen)
	case c.NumMemoryTokens < 0:
		return fmt.Errorf("%w: num_memory_tokens must not be negative", ErrBadConfig)
	case c.UseXLMemories && c.XLMemLen <= 0:
		return fmt.Errorf("%w: xl_mem_len must be positive when xl memories are on", ErrBadConfig)
	case c.Context <= 0:
		return fmt.Errorf("%w: context must be positive, got %d", ErrBadConfig, c.Context)
	}
	return nil
}

// TrainConfig holds every tunable of a training run
type TrainConfig struct {
	Corpus      string
	S3Region    string
	CorpusBytes int
	TrainBytes  int
	Out         string

	NumBatches          int
	BatchSize           int
	GradAccumulateEvery int
	LearningRate        float64
	ClipNorm            float64
	SeqLen              int

	ValidateEvery  int
	GenerateEvery  int
	PrimeLength    int
	GenerateLength int

	Seed  int64
	Model ModelConfig
}

func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Corpus:              CorpusPath,
		S3Region:            "us-west-2",
		CorpusBytes:         CorpusBytes,
		TrainBytes:          TrainBytes,
		NumBatches:          NumBatches,
		BatchSize:           BatchSize,
		GradAccumulateEvery: GradAccumulateEvery,
		LearningRate:        LearningRate,
		ClipNorm:            ClipNorm,
		SeqLen:              SeqLen,
		ValidateEvery:       ValidateEvery,
		GenerateEvery:       GenerateEvery,
		PrimeLength:         PrimeLength,
		GenerateLength:      GenerateLength,
		Model:               DefaultModelConfig(),
	}
}

func (c TrainConfig) Validate() error {
	if c.Corpus == "" {
		return fmt.Errorf("%w: corpus path is required", ErrBadConfig)
	}
	if c.TrainBytes <= 0 || c.TrainBytes >= c.CorpusBytes {
		return fmt.Errorf("%w: train bytes %d must lie inside corpus bytes %d", ErrBadConfig, c.TrainBytes, c.CorpusBytes)
	}
	positive := []struct {
		name string
		v    int
	}{
		{"num-batches", c.NumBatches},
		{"batch", c.BatchSize},
		{"accumulate", c.GradAccumulateEvery},
		{"seq-len", c.SeqLen},
		{"validate-every", c.ValidateEvery},
		{"generate-every", c.GenerateEvery},
		{"prime", c.PrimeLength},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrBadConfig, p.name, p.v)
		}
	}
	if c.GenerateLength < 0 {
		return fmt.Errorf("%w: generate length must not be negative", ErrBadConfig)
	}
	if c.PrimeLength > c.SeqLen+1 {
		return fmt.Errorf("%w: prime %d longer than a sample window %d", ErrBadConfig, c.PrimeLength, c.SeqLen+1)
	}
	if c.LearningRate <= 0 || c.ClipNorm <= 0 {
		return fmt.Errorf("%w: lr and clip must be positive", ErrBadConfig)
	}
	return c.Model.Validate()
}

// ResolveSeed returns the configured seed, or a time based one when unset.
func (c TrainConfig) ResolveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return time.Now().UnixNano()
}

// Manifest describes a finished run next to its checkpoint.
type Manifest struct {
	CorpusPath   string      `json:"corpus_path"`
	CorpusHash   string      `json:"corpus_hash"`
	CorpusBytes  int         `json:"corpus_bytes"`
	TrainBytes   int         `json:"train_bytes"`
	SeqLen       int         `json:"seq_len"`
	Batch        int         `json:"batch"`
	Accumulate   int         `json:"accumulate"`
	Iterations   int         `json:"iterations"`
	LR           float64     `json:"lr"`
	Clip         float64     `json:"clip"`
	Seed         int64       `json:"seed"`
	Model        ModelConfig `json:"model"`
	TrainedAt    time.Time   `json:"trained_at"`
	BuildVersion string      `json:"build_version"`

	FinalTrainLoss float64 `json:"final_train_loss,omitempty"`
	BestValidLoss  float64 `json:"best_valid_loss,omitempty"`
	BestValidIter  int     `json:"best_valid_iter,omitempty"`
}

// buildVersion reports the main module version recorded by the Go
// toolchain, "devel" when there is none.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "devel"
	}
	return info.Main.Version
}
