package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newTrainCmd() *cobra.Command {
	cfg := DefaultTrainConfig()
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model from a gzip corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd.Context(), cfg, os.Stdout)
		},
	}
	bindTrainFlags(cmd, &cfg)
	return cmd
}

func bindTrainFlags(cmd *cobra.Command, cfg *TrainConfig) {
	fs := cmd.Flags()
	fs.StringVar(&cfg.Corpus, "corpus", cfg.Corpus, "Path or s3://bucket/key of the gzip corpus")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "Region for s3:// corpora")
	fs.IntVar(&cfg.CorpusBytes, "corpus-bytes", cfg.CorpusBytes, "Decompressed bytes to read")
	fs.IntVar(&cfg.TrainBytes, "train-bytes", cfg.TrainBytes, "Bytes in the training split, the rest validates")
	fs.StringVar(&cfg.Out, "out", cfg.Out, "Directory for metrics, manifest and checkpoint (empty keeps nothing)")

	fs.IntVar(&cfg.NumBatches, "num-batches", cfg.NumBatches, "Training iterations")
	fs.IntVar(&cfg.BatchSize, "batch", cfg.BatchSize, "Windows per batch")
	fs.IntVar(&cfg.GradAccumulateEvery, "accumulate", cfg.GradAccumulateEvery, "Micro batches per optimizer step")
	fs.Float64Var(&cfg.LearningRate, "lr", cfg.LearningRate, "Learning rate")
	fs.Float64Var(&cfg.ClipNorm, "clip", cfg.ClipNorm, "Global gradient norm ceiling")
	fs.IntVar(&cfg.SeqLen, "seq-len", cfg.SeqLen, "Tokens per training window")

	fs.IntVar(&cfg.ValidateEvery, "validate-every", cfg.ValidateEvery, "Validate every N iterations")
	fs.IntVar(&cfg.GenerateEvery, "generate-every", cfg.GenerateEvery, "Generate every N iterations")
	fs.IntVar(&cfg.PrimeLength, "prime", cfg.PrimeLength, "Prime length for generation")
	fs.IntVar(&cfg.GenerateLength, "generate-length", cfg.GenerateLength, "Tokens to generate")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed (0 for time based)")

	fs.IntVar(&cfg.Model.Dim, "dim", cfg.Model.Dim, "Model width")
	fs.IntVar(&cfg.Model.Depth, "depth", cfg.Model.Depth, "Model depth")
	fs.IntVar(&cfg.Model.Heads, "heads", cfg.Model.Heads, "Attention heads")
	fs.IntVar(&cfg.Model.DimHead, "dim-head", cfg.Model.DimHead, "Attention head width")
	fs.IntVar(&cfg.Model.SeqLen, "segment-len", cfg.Model.SeqLen, "Tokens per model segment")
	fs.BoolVar(&cfg.Model.UseFlashAttn, "flash-attn", cfg.Model.UseFlashAttn, "Use accelerated attention")
	fs.IntVar(&cfg.Model.NumMemoryTokens, "memory-tokens", cfg.Model.NumMemoryTokens, "Memory tokens")
	fs.BoolVar(&cfg.Model.UseXLMemories, "xl-memories", cfg.Model.UseXLMemories, "Carry XL memories")
	fs.IntVar(&cfg.Model.XLMemLen, "xl-mem-len", cfg.Model.XLMemLen, "XL memory length")
	fs.IntVar(&cfg.Model.Context, "context", cfg.Model.Context, "Byte lookback of the window model")
}

// runTrain loads the corpus, builds the model and runs the loop.
func runTrain(ctx context.Context, cfg TrainConfig, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	seed := cfg.ResolveSeed()
	rng := rand.New(rand.NewSource(seed))
	klog.Infof("🤖 rmtrain, seed %d", seed)

	klog.Infof("📚 Loading corpus from %s...", cfg.Corpus)
	corpus, err := LoadCorpus(ctx, cfg.Corpus, cfg.S3Region, cfg.CorpusBytes, cfg.TrainBytes)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	klog.Infof("   train %d bytes, valid %d bytes, hash %s", len(corpus.Train), len(corpus.Valid), corpus.Hash())

	trainDS, err := NewTextSampler(corpus.Train, cfg.SeqLen, rng)
	if err != nil {
		return fmt.Errorf("training sampler: %w", err)
	}
	validDS, err := NewTextSampler(corpus.Valid, cfg.SeqLen, rng)
	if err != nil {
		return fmt.Errorf("validation sampler: %w", err)
	}
	trainLoader, err := NewDataLoader(trainDS, cfg.BatchSize)
	if err != nil {
		return err
	}
	validLoader, err := NewDataLoader(validDS, cfg.BatchSize)
	if err != nil {
		return err
	}
	klog.Infof("   %d training / %d validation batches per pass", trainLoader.NumBatches(), validLoader.NumBatches())

	model, err := NewWindowLM(cfg.Model, cfg.BatchSize, rng)
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}
	defer model.Close()
	klog.Infof("🧠 Model: %d params, context %d, width %d, segment %d",
		countParams(model.Parameters()), cfg.Model.Context, cfg.Model.Dim, cfg.Model.SeqLen)
	klog.V(1).Infof("   model config %+v", cfg.Model)

	metrics := &Metrics{}
	trainer := &Trainer{
		Model:        model,
		Optimizer:    NewAdamOptimizer(model, cfg.LearningRate),
		TrainBatches: NewCycle[Batch](trainLoader),
		ValidBatches: NewCycle[Batch](validLoader),
		Valid:        validDS,
		Reporter:     NewConsoleReporter(stdout),
		Metrics:      metrics,
		Config:       cfg.Loop(),
	}

	start := time.Now()
	state, err := trainer.Run()
	if err != nil {
		return err
	}
	klog.Infof("✅ Training complete: %d iterations in %s, last valid loss %.4f",
		state.Iteration+1, time.Since(start).Round(time.Second), state.LastValid)
	if best, ok := metrics.BestValid(); ok {
		klog.Infof("   best valid loss %.4f at iteration %d, recent train loss %.4f",
			best.Loss, best.Iteration, metrics.RecentTrainLoss(cfg.ValidateEvery))
	}

	if cfg.Out == "" {
		return nil
	}
	return saveRun(cfg, seed, corpus, model, metrics, state)
}

func saveRun(cfg TrainConfig, seed int64, corpus *Corpus, model *WindowLM, metrics *Metrics, state *TrainState) error {
	if err := os.MkdirAll(cfg.Out, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	metricsPath := filepath.Join(cfg.Out, "metrics.json")
	if err := saveJSON(metricsPath, metrics); err != nil {
		return fmt.Errorf("saving metrics: %w", err)
	}
	klog.Infof("📊 Metrics saved to: %s", metricsPath)

	modelPath := filepath.Join(cfg.Out, "model.gob")
	if err := SaveParams(modelPath, model.Snapshot()); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	klog.Infof("💾 Model saved to: %s", modelPath)

	manifest := Manifest{
		CorpusPath:   cfg.Corpus,
		CorpusHash:   corpus.Hash(),
		CorpusBytes:  cfg.CorpusBytes,
		TrainBytes:   cfg.TrainBytes,
		SeqLen:       cfg.SeqLen,
		Batch:        cfg.BatchSize,
		Accumulate:   cfg.GradAccumulateEvery,
		Iterations:   state.Iteration + 1,
		LR:           cfg.LearningRate,
		Clip:         cfg.ClipNorm,
		Seed:         seed,
		Model:        cfg.Model,
		TrainedAt:    time.Now(),
		BuildVersion: buildVersion(),
	}
	if loss := metrics.RecentTrainLoss(cfg.ValidateEvery); !math.IsNaN(loss) {
		manifest.FinalTrainLoss = loss
	}
	if best, ok := metrics.BestValid(); ok {
		manifest.BestValidLoss = best.Loss
		manifest.BestValidIter = best.Iteration
	}
	manifestPath := filepath.Join(cfg.Out, "manifest.json")
	if err := saveJSON(manifestPath, manifest); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	klog.Infof("📋 Manifest saved to: %s", manifestPath)
	return nil
}

func countParams(params []Parameter) int {
	n := 0
	for _, p := range params {
		n += len(p.Grad())
	}
	return n
}
