package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/pipeline"
)

var bmfWorkers int

var bmfCmd = &cobra.Command{
	Use:   "bmf",
	Short: "Build the 501(c)(3) organization registry from the EO BMF",
	Long: `Download the 52 state and territory Exempt Organizations Business
Master File extracts, keep the 501(c)(3) records, and write
organizations.jsonl. The registry narrows later index filtering and is
join material for downstream consumers.

Example:
  irs990 bmf
  irs990 bmf --workers 20`,
	RunE: runBMF,
}

func init() {
	rootCmd.AddCommand(bmfCmd)
	bmfCmd.Flags().IntVar(&bmfWorkers, "workers", 10, "concurrent downloads")
}

func runBMF(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if bmfWorkers > 0 {
		cfg.Concurrency.DownloadWorkers = bmfWorkers
	}

	banner("EO Business Master File")

	ctx := context.Background()
	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	count, err := p.BuildRegistry(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Registry build failed: %v\n", err)
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Wrote %d 501(c)(3) organizations (%s)\n", count, elapsed(start))
	return nil
}
