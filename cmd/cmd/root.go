/*
Copyright © 2026 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"radar/internal/alert"
	"radar/internal/classify"
	"radar/internal/config"
	"radar/internal/core"
	"radar/internal/index"
	"radar/internal/logger"
	"radar/internal/pipeline"
	"radar/internal/roster"
	"radar/internal/sources"
	"radar/internal/store"
	"radar/internal/verify"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Radar scans public news for alert-worthy events about a company roster.",
	Long: `Radar loads a company roster from CSV, queries news sources over a
lookback window, classifies each mention into a business-event category,
scores it, suppresses duplicates against a durable store, and posts the
remaining alerts to a Slack webhook.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.radar.yaml)")
}

// initConfig loads configuration before any command runs. Configuration
// errors are fatal here, before any network activity.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.App.LogLevel)
	if cfg.App.Debug {
		logger.SetLevel("debug")
	}
}

var (
	scanCSVPath       string
	scanLocationsPath string
	scanSinceDays     int
	scanDryRun        bool
	scanParallel      int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one batch scan over the roster and deliver alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		if !scanDryRun {
			if err := cfg.ValidateForDelivery(); err != nil {
				return err
			}
		}

		result, err := roster.Load(scanCSVPath, scanLocationsPath)
		if err != nil {
			return fmt.Errorf("failed to load roster: %w", err)
		}
		logger.Info("roster loaded", map[string]interface{}{
			"companies": len(result.Companies),
			"skipped":   len(result.Skipped),
		})
		if len(result.Companies) == 0 {
			return fmt.Errorf("roster %s produced no usable companies", scanCSVPath)
		}

		dedupStore, err := store.NewSQLiteStore(cfg.App.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open dedup store: %w", err)
		}
		defer func() { _ = dedupStore.Close() }()

		var sink alert.Sink
		if scanDryRun {
			sink = &alert.ConsoleSink{Out: os.Stdout}
		} else {
			sink = alert.NewSlackSink(cfg.Alerting.SlackWebhookURL, cfg.AlertTimeout())
		}

		sinceDays := cfg.Thresholds.SinceDays
		if scanSinceDays > 0 {
			sinceDays = scanSinceDays
		}
		parallel := cfg.Scan.MaxParallelCompanies
		if scanParallel > 0 {
			parallel = scanParallel
		}

		p := pipeline.New(
			index.Build(result.Companies),
			classify.New(),
			dedupStore,
			buildSources(cfg),
			sink,
			verify.NewVerifier(cfg.SourceTimeout()),
			pipeline.Options{
				MinConfidence: cfg.Thresholds.MinConfidence,
				MinSeverity:   cfg.Thresholds.MinSeverity,
				Lookback:      time.Duration(sinceDays) * 24 * time.Hour,
				MaxParallel:   parallel,
				DryRun:        scanDryRun,
			},
		)

		stats, err := p.Run(context.Background(), result.Companies)
		if err != nil {
			return err
		}
		printRunStats(stats)
		return nil
	},
}

// buildSources assembles the configured news fetchers.
func buildSources(cfg *config.Config) []sources.Source {
	var srcs []sources.Source
	if cfg.Sources.GoogleNews.Enabled {
		srcs = append(srcs, sources.NewGoogleNewsSource(
			cfg.Sources.GoogleNews.Endpoint,
			cfg.Sources.GoogleNews.Language,
			cfg.SourceTimeout(),
		))
	}
	if cfg.Sources.NewsAPI.APIKey != "" {
		srcs = append(srcs, sources.NewNewsAPISource(
			cfg.Sources.NewsAPI.APIKey,
			cfg.Sources.NewsAPI.Endpoint,
			cfg.Sources.NewsAPI.PageSize,
			cfg.SourceTimeout(),
		))
	}
	return srcs
}

var (
	statLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	statValue = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

func printRunStats(stats pipeline.RunStats) {
	row := func(label string, value int) {
		fmt.Printf("%s %s\n", statLabel.Render(fmt.Sprintf("%-22s", label)), statValue.Render(fmt.Sprintf("%d", value)))
	}
	fmt.Println()
	row("Companies scanned", stats.Companies)
	row("Articles considered", stats.Articles)
	row("Signals classified", stats.Signals)
	row("Alerts delivered", stats.Accepted)
	row("Below thresholds", stats.RejectedThreshold)
	row("Duplicates suppressed", stats.RejectedDuplicate)
	row("Fetch failures", stats.FetchFailures)
	row("Delivery failures", stats.DeliveryFailures)
	row("Store failures", stats.StoreFailures)
}

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "Roster inspection commands",
}

var (
	validateCSVPath       string
	validateLocationsPath string
)

var companiesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load a roster CSV and report kept and dropped rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := roster.Load(validateCSVPath, validateLocationsPath)
		if err != nil {
			return fmt.Errorf("failed to load roster: %w", err)
		}

		fmt.Printf("Detected columns: %v\n", result.Columns)
		fmt.Printf("Companies kept:   %d\n", len(result.Companies))
		fmt.Printf("Rows skipped:     %d\n", len(result.Skipped))
		for _, skipped := range result.Skipped {
			name := skipped.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("  line %d: %s (%s)\n", skipped.Line, name, skipped.Reason)
		}
		return nil
	},
}

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Dedup store inspection commands",
}

var dedupStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dedup store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dedupStore, err := store.NewSQLiteStore(config.Get().App.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open dedup store: %w", err)
		}
		defer func() { _ = dedupStore.Close() }()

		stats, err := dedupStore.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("Alerted events: %d\n", stats.Total)
		for _, category := range core.Categories {
			if count := stats.ByCategory[string(category)]; count > 0 {
				fmt.Printf("  %-18s %d\n", category, count)
			}
		}
		return nil
	},
}

var dedupListLimit int

var dedupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently alerted events",
	RunE: func(cmd *cobra.Command, args []string) error {
		dedupStore, err := store.NewSQLiteStore(config.Get().App.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open dedup store: %w", err)
		}
		defer func() { _ = dedupStore.Close() }()

		records, err := dedupStore.List(dedupListLimit)
		if err != nil {
			return err
		}
		for _, record := range records {
			when := "-"
			if record.AlertedAt != nil {
				when = record.AlertedAt.UTC().Format("2006-01-02 15:04")
			}
			fmt.Printf("%s  %-18s %-24s %s\n", when, record.Category, record.CompanyName, record.SourceURL)
		}
		return nil
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Alert sink commands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Post a synthetic test alert to the configured webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if err := cfg.ValidateForDelivery(); err != nil {
			return err
		}

		event := core.AlertEvent{
			CompanyName:      "Company XYZ",
			Category:         core.CategoryFunding,
			Confidence:       0.95,
			Severity:         0.9,
			PrimaryLocation:  "Midtown on 50th",
			SourceURL:        "https://example.com/test",
			Headline:         "Synthetic test: Company XYZ raises $10M Series B",
			MatchedTerms:     []string{"series b", "$10m"},
			FlairText:        alert.Flair(core.CategoryFunding),
			PublishedAt:      time.Now().UTC(),
			Verified:         true,
			VerifyConfidence: 0.95,
			VerifyNote:       "synthetic test alert",
			Tone:             string(verify.TonePositive),
			ToneConfidence:   0.9,
		}

		sink := alert.NewSlackSink(cfg.Alerting.SlackWebhookURL, cfg.AlertTimeout())
		if err := sink.Deliver(context.Background(), alert.Format(event)); err != nil {
			return fmt.Errorf("test delivery failed: %w", err)
		}
		fmt.Println("Sent a test alert. Check your channel.")
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanCSVPath, "csv", "", "Path to companies.csv (or enriched_companies.csv)")
	scanCmd.Flags().StringVar(&scanLocationsPath, "locations-csv", "", "Optional CSV to merge locations by domain")
	scanCmd.Flags().IntVar(&scanSinceDays, "since-days", 0, "Override the lookback window in days")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "Preview alerts in the terminal without delivering or recording them")
	scanCmd.Flags().IntVar(&scanParallel, "parallel", 0, "Override company-level fetch parallelism")
	_ = scanCmd.MarkFlagRequired("csv")

	companiesValidateCmd.Flags().StringVar(&validateCSVPath, "csv", "", "Path to the roster CSV")
	companiesValidateCmd.Flags().StringVar(&validateLocationsPath, "locations-csv", "", "Optional CSV to merge locations by domain")
	_ = companiesValidateCmd.MarkFlagRequired("csv")

	dedupListCmd.Flags().IntVar(&dedupListLimit, "limit", 20, "Maximum records to list")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(companiesCmd)
	companiesCmd.AddCommand(companiesValidateCmd)
	rootCmd.AddCommand(dedupCmd)
	dedupCmd.AddCommand(dedupStatsCmd)
	dedupCmd.AddCommand(dedupListCmd)
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}
