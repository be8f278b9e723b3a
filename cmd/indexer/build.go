package main

import (
	"github.com/spf13/cobra"
)

var noProgress bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build and publish a new index generation",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	c, err := initContext(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()

	if !noProgress {
		bar := newProgressBar("indexing images")
		c.indexer.UC.WithProgress(bar.Update)
		defer bar.Finish()
	}

	report, err := c.indexer.UC.Build(cmd.Context())
	printReport(report)
	return err
}
