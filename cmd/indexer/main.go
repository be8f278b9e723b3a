package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/DRSN-tech/visual-search/internal/app"
	config "github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/spf13/cobra"
)

// cmdContext: общие ресурсы команд.
type cmdContext struct {
	cfg     *config.Config
	log     logger.Logger
	indexer *app.Indexer
}

func (c *cmdContext) Close() {
	if c.indexer == nil {
		return
	}
	if err := c.indexer.Close(context.Background()); err != nil {
		c.log.Warnf("%v", err)
	}
}

func initContext(ctx context.Context) (*cmdContext, error) {
	log := logger.NewSlogLogger().With("component", "indexer")

	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	indexer, err := app.NewIndexer(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &cmdContext{cfg: cfg, log: log, indexer: indexer}, nil
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Builds and verifies visual search index generations",
	Long: `indexer downloads catalog images, computes perceptual hashes and embeddings
and publishes a new immutable index generation for the search service.`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(buildCmd, verifyCmd, scheduleCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
}
