package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify checksums and alignment of the current generation",
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, _ []string) error {
	c, err := initContext(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()

	manifest, err := c.indexer.UC.Verify(cmd.Context())
	if err != nil {
		return err
	}

	color.Green("generation %s is consistent", manifest.Generation)
	fmt.Printf("  built at:  %s\n", manifest.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  images:    %d\n", manifest.Images)
	fmt.Printf("  products:  %d\n", manifest.Products)
	fmt.Printf("  dimension: %d\n", manifest.Dimension)
	fmt.Printf("  model:     %s\n", manifest.ModelVersion)
	return nil
}
