package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cerebrumlux/cognition/internal/knowledge"
	"github.com/cerebrumlux/cognition/internal/model"
)

func newIngestFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest-file <path>",
		Short: "Ingest a single JSON-encoded capsule envelope and print the IngestReport",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngestFile,
	}
}

func newIngestDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest-dir <dir>",
		Short: "Ingest every *.json capsule envelope in dir on C10's bounded worker pool",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngestDir,
	}
}

func runIngestFile(cmd *cobra.Command, args []string) error {
	c, err := loadComponents()
	if err != nil {
		os.Exit(exitStoreOpenFail)
		return nil
	}
	defer c.close()

	b, err := os.ReadFile(args[0])
	if err != nil {
		os.Exit(exitIngestFailure)
		return nil
	}

	var env knowledge.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		os.Exit(exitIngestFailure)
		return nil
	}

	report := c.orch.IngestEnvelope(env)
	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if err := c.persist(); err != nil {
		c.log.Error().Err(err).Msg("persist after ingest failed")
	}

	if report.Result != model.IngestSuccess {
		os.Exit(exitIngestFailure)
	}
	return nil
}

func runIngestDir(cmd *cobra.Command, args []string) error {
	c, err := loadComponents()
	if err != nil {
		os.Exit(exitStoreOpenFail)
		return nil
	}
	defer c.close()

	matches, err := filepath.Glob(filepath.Join(args[0], "*.json"))
	if err != nil {
		os.Exit(exitIngestFailure)
		return nil
	}

	envs := make([]knowledge.Envelope, 0, len(matches))
	for _, path := range matches {
		b, err := os.ReadFile(path)
		if err != nil {
			c.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable envelope file")
			continue
		}
		var env knowledge.Envelope
		if err := json.Unmarshal(b, &env); err != nil {
			c.log.Warn().Err(err).Str("path", path).Msg("skipping malformed envelope file")
			continue
		}
		envs = append(envs, env)
	}

	reports := c.orch.IngestBatch(cmd.Context(), envs)
	out, _ := json.MarshalIndent(reports, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if err := c.persist(); err != nil {
		c.log.Error().Err(err).Msg("persist after ingest-dir failed")
	}

	for _, report := range reports {
		if report.Result != model.IngestSuccess {
			os.Exit(exitIngestFailure)
		}
	}
	return nil
}
