package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/pipeline"
)

var (
	extractXMLDir      string
	extractOutDir      string
	extractWorkers     int
	extractDocTimeout  time.Duration
	extractDupPolicy   string
	extractConcordance string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract filing and Schedule M records from downloaded XML",
	Long: `Run concordance-driven extraction over every XML document in the
input directory. Writes filings.jsonl, schedule_m.jsonl, warnings.jsonl
and failures.jsonl; every input document is accounted for in exactly
one of filings or failures.

Example:
  irs990 extract
  irs990 extract --xml-dir ./data/xml --out-dir ./data/parsed
  irs990 extract --workers 8 --doc-timeout 1m`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractXMLDir, "xml-dir", "", "XML input directory (default: <data>/xml)")
	extractCmd.Flags().StringVar(&extractOutDir, "out-dir", "", "output directory (default: <data>/parsed)")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", runtime.NumCPU(), "extraction workers")
	extractCmd.Flags().DurationVar(&extractDocTimeout, "doc-timeout", 0, "per-document time budget (default from config)")
	extractCmd.Flags().StringVar(&extractDupPolicy, "duplicate-policy", "", "which match wins for duplicated fields: first or last")
	extractCmd.Flags().StringVar(&extractConcordance, "concordance-csv", "",
		"master concordance CSV overlay, path or URL (e.g. "+pipeline.ConcordanceCSVURL+")")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if extractWorkers > 0 {
		cfg.Concurrency.Workers = extractWorkers
	}
	if extractDocTimeout > 0 {
		cfg.Extract.DocTimeout = extractDocTimeout
	}
	if extractConcordance != "" {
		cfg.Extract.ConcordanceCSV = extractConcordance
	}
	switch extractDupPolicy {
	case "":
	case string(model.DuplicateFirst), string(model.DuplicateLast):
		cfg.Extract.DuplicatePolicy = model.DuplicatePolicy(extractDupPolicy)
	default:
		return fmt.Errorf("unknown duplicate policy %q (want first or last)", extractDupPolicy)
	}

	banner("Extraction")
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Doc timeout:  %v\n", cfg.Extract.DocTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	ctx := context.Background()
	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	summary, err := p.Extract(ctx, extractXMLDir, extractOutDir)
	if err != nil && summary == nil {
		fmt.Fprintf(os.Stderr, "✗ Extraction failed: %v\n", err)
		return err
	}

	title := "Extraction Complete"
	if err != nil {
		// Interrupted runs still flush everything that finished.
		fmt.Fprintf(os.Stderr, "✗ Extraction interrupted: %v\n", err)
		title = "Extraction Interrupted (partial output written)"
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Documents:  %d\n", summary.Documents)
	fmt.Fprintf(os.Stderr, "  Filings:    %d\n", summary.Filings)
	fmt.Fprintf(os.Stderr, "  Schedules:  %d\n", summary.Schedules)
	fmt.Fprintf(os.Stderr, "  Warnings:   %d\n", summary.Warnings)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", summary.Failures)
	fmt.Fprintf(os.Stderr, "  Elapsed:    %s\n", elapsed(start))
	fmt.Fprintf(os.Stderr, "\n")
	return err
}
