package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goblincore/norah"
)

var importCmd = &cobra.Command{
	Use:   "import [fixtures.yaml]",
	Short: "Seed the store with agent profiles and clues from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	fixtures, err := norah.LoadFixtures(f)
	if err != nil {
		return err
	}

	store, err := norah.NewStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ImportFixtures(cmd.Context(), fixtures)
	if err != nil {
		return err
	}
	logger.Info("fixtures imported",
		zap.String("file", args[0]),
		zap.Int("agents", len(fixtures.Agents)),
		zap.Int("clues", n),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d clues for %d agents\n", n, len(fixtures.Agents))
	return nil
}
