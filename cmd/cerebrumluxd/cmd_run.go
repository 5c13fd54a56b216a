package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the cognition pipeline tick loop until interrupted",
		RunE:  runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	c, err := loadComponents()
	if err != nil {
		os.Exit(exitStoreOpenFail)
		return nil
	}
	defer c.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tickInterval := 500 * time.Millisecond
	go c.orch.TickLoop(ctx, tickInterval)

	autosave := time.Duration(c.cfg.QLearn.AutosaveSeconds) * time.Second
	if autosave <= 0 {
		autosave = 30 * time.Second
	}
	ticker := time.NewTicker(autosave)
	defer ticker.Stop()

	c.log.Info().Dur("tick_interval", tickInterval).Dur("autosave_interval", autosave).Msg("cerebrumluxd running")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("shutting down; flushing persisted state")
			if err := c.persist(); err != nil {
				c.log.Error().Err(err).Msg("final persist failed")
			}
			return nil
		case <-ticker.C:
			if err := c.persist(); err != nil {
				c.log.Error().Err(err).Msg("autosave persist failed")
			}
		}
	}
}
