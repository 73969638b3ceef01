package main

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	if err := newRootCmd().Execute(); err != nil {
		klog.Fatalf("❌ Error: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	cfg := DefaultTrainConfig()

	root := &cobra.Command{
		Use:          "rmtrain",
		Short:        "Train a byte-level recurrent memory language model on a gzip corpus",
		Long:         "Without a subcommand rmtrain trains on ./data/enwik8.gz with the default hyperparameters.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd.Context(), cfg, os.Stdout)
		},
	}
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	bindTrainFlags(root, &cfg)

	root.AddCommand(newTrainCmd(), newGenerateCmd())
	return root
}
