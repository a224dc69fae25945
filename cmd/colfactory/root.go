package main

import (
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libfactory-go/config"
)

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:          "colfactory",
		Short:        "Deterministic collection factory and splitter registry",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("datadir", config.DefaultDataDir(), "data directory holding config and database")

	root.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newPredictCmd(),
		newKeygenCmd(),
		newTypesCmd(),
	)
	return root
}
