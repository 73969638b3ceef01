package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// GenerateConfig holds the flags of the generate command
type GenerateConfig struct {
	Model  string
	Prime  string
	Length int
	Temp   float64
	TopK   int
	Seed   int64
}

func newGenerateCmd() *cobra.Command {
	cfg := GenerateConfig{Length: 512, Temp: 1.0}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate text from a saved checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cfg, os.Stdout)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&cfg.Model, "model", "", "Path to model.gob (required)")
	fs.StringVar(&cfg.Prime, "prime", "the ", "Prime text")
	fs.IntVar(&cfg.Length, "length", cfg.Length, "Tokens to generate")
	fs.Float64Var(&cfg.Temp, "temperature", cfg.Temp, "Sampling temperature")
	fs.IntVar(&cfg.TopK, "top-k", 0, "Top-k sampling (0 keeps all)")
	fs.Int64Var(&cfg.Seed, "seed", 0, "Random seed (0 for time based)")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func runGenerate(cfg GenerateConfig, stdout io.Writer) error {
	if cfg.Length < 0 {
		return fmt.Errorf("%w: length must not be negative", ErrBadConfig)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	params, err := LoadParams(cfg.Model)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	var manifest Manifest
	if err := loadJSON(filepath.Join(filepath.Dir(cfg.Model), "manifest.json"), &manifest); err == nil {
		klog.V(1).Infof("checkpoint trained on %s (%s), best valid loss %.4f",
			manifest.CorpusPath, manifest.CorpusHash, manifest.BestValidLoss)
	}
	model, err := NewWindowLMFromParams(params, 1, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}
	defer model.Close()
	model.Temperature = cfg.Temp
	model.TopK = cfg.TopK
	model.Eval()

	tok := NewByteTokenizer()
	prime := tok.Encode(cfg.Prime)
	klog.V(1).Infof("generating %d tokens after %d prime bytes", cfg.Length, len(prime))
	sample, err := model.Generate(prime, cfg.Length)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, tok.Decode(append(prime, sample...)))
	return nil
}
