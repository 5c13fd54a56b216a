package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newVerifyConsensusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-consensus <root>",
		Short: "Verify that recomputing the audit ledger's root matches the given hex root",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerifyConsensus,
	}
}

func runVerifyConsensus(cmd *cobra.Command, args []string) error {
	c, err := loadComponents()
	if err != nil {
		os.Exit(exitStoreOpenFail)
		return nil
	}
	defer c.close()

	ok := c.orch.VerifyConsensus(args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "root: %s\nmatches: %t\n", c.orch.ConsensusRoot(), ok)
	if !ok {
		os.Exit(exitIngestFailure)
	}
	return nil
}
