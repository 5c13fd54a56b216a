package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCompactStoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact-store",
		Short: "Re-persist the autoencoder, prediction graph, and Q-table, pruning any reconciliation drift",
		RunE:  runCompactStore,
	}
}

func runCompactStore(cmd *cobra.Command, args []string) error {
	c, err := loadComponents()
	if err != nil {
		os.Exit(exitStoreOpenFail)
		return nil
	}
	defer c.close()

	if err := c.persist(); err != nil {
		c.log.Error().Err(err).Msg("compact-store: persist failed")
		os.Exit(exitStoreOpenFail)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), "compacted store:", c.cfg.Store.Dir)
	return nil
}
