package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var every time.Duration

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Rebuild the index periodically until interrupted",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().DurationVar(&every, "every", 0, "rebuild interval (default REINDEX_INTERVAL)")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	c, err := initContext(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()

	interval := c.cfg.Indexer.Schedule
	if every > 0 {
		interval = every
	}
	c.log.Infof("scheduled rebuild every %s", interval)

	err = c.indexer.UC.RunEvery(cmd.Context(), interval)
	if errors.Is(err, context.Canceled) {
		c.log.Infof("scheduler stopped")
		return nil
	}
	return err
}
