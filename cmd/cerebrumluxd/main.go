// Command cerebrumluxd runs the CerebrumLux cognition pipeline: the tick
// loop, chat/feedback/ingest entry points, and maintenance subcommands
// over its durable store. Grounded on intelligencedev-manifold's
// cmd/orchestrator layout (config load -> logger init -> component
// wiring -> run loop) and its cmd/migrateprojects-s3 for the one-shot
// maintenance-subcommand
// shape, adapted here to cobra (the CLI framework already in the
// module's dependency stack) instead of a bare flag.Parse main.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes (spec.md §6).
const (
	exitOK            = 0
	exitConfigError   = 1
	exitStoreOpenFail = 2
	exitIngestFailure = 3
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "cerebrumluxd",
		Short: "CerebrumLux personal cognition pipeline daemon",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (defaults embedded when omitted)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newIngestFileCmd())
	root.AddCommand(newIngestDirCmd())
	root.AddCommand(newCompactStoreCmd())
	root.AddCommand(newDumpQCmd())
	root.AddCommand(newVerifyConsensusCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitConfigError)
	}
}
