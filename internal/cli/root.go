// Package cli implements the irs990 command tree: fetch (index, xml),
// bmf, and extract, with layered configuration (flags over IRS990_* env
// over ~/.irs990/config.yaml over defaults).
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "irs990",
	Short: "Extract structured 501(c)(3) data from IRS Form 990 e-file XML",
	Long: `irs990 turns the public IRS e-file corpus into analysis-ready records.

It downloads the yearly filing indexes and the Exempt Organizations
Business Master File, fetches the Form 990 return XML, and extracts a
filing summary record plus the Schedule M in-kind donation schedule for
every document, tolerating a decade of schema drift through a
declarative field map.

Typical flow:
  irs990 bmf            # build the 501(c)(3) organization registry
  irs990 fetch index    # download + filter the yearly filing indexes
  irs990 fetch xml      # download the return XML
  irs990 extract        # extract filings.jsonl and schedule_m.jsonl`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("irs990 v0.3.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.irs990/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig loads .env, the config file, and IRS990_* env variables.
func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.irs990")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("IRS990")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration: defaults overlaid with
// whatever the config file and environment provide. Command flags apply
// on top in each command.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("data.dir"); v != "" {
		cfg.Data.Dir = v
	}
	if v := viper.GetString("cache.dir"); v != "" {
		cfg.Cache.Dir = v
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if v := viper.GetDuration("cache.ttl"); v > 0 {
		cfg.Cache.TTL = v
	}
	if v := viper.GetDuration("http.timeout"); v > 0 {
		cfg.HTTP.Timeout = v
	}
	if v := viper.GetString("http.user_agent"); v != "" {
		cfg.HTTP.UserAgent = v
	}
	if v := viper.GetInt64("http.max_body_bytes"); v > 0 {
		cfg.HTTP.MaxBodyBytes = v
	}
	if v := viper.GetIntSlice("fetch.tax_years"); len(v) > 0 {
		cfg.Fetch.TaxYears = v
	}
	if v := viper.GetFloat64("fetch.requests_per_second"); v > 0 {
		cfg.Fetch.RequestsPerSecond = v
	}
	if v := viper.GetInt("fetch.burst"); v > 0 {
		cfg.Fetch.Burst = v
	}
	if v := viper.GetDuration("extract.doc_timeout"); v > 0 {
		cfg.Extract.DocTimeout = v
	}
	if v := viper.GetString("extract.duplicate_policy"); v != "" {
		cfg.Extract.DuplicatePolicy = model.DuplicatePolicy(v)
	}
	if v := viper.GetString("extract.concordance_csv"); v != "" {
		cfg.Extract.ConcordanceCSV = v
	}
	if v := viper.GetInt("concurrency.workers"); v > 0 {
		cfg.Concurrency.Workers = v
	}
	if v := viper.GetInt("concurrency.download_workers"); v > 0 {
		cfg.Concurrency.DownloadWorkers = v
	}
	cfg.Output.Verbose = viper.GetBool("output.verbose")

	return cfg
}

// banner prints the standard section header used by the long-running
// commands.
func banner(title string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
}

// elapsed formats a duration for the summary blocks.
func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
