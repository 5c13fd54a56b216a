package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDumpQCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-q",
		Short: "Print C9's sparse Q-table as JSON",
		RunE:  runDumpQ,
	}
}

func runDumpQ(cmd *cobra.Command, args []string) error {
	c, err := loadComponents()
	if err != nil {
		os.Exit(exitStoreOpenFail)
		return nil
	}
	defer c.close()

	out, err := json.MarshalIndent(c.orch.QTableSnapshot(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
