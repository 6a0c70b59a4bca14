package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contextcli/context-cli/internal/audit"
	"github.com/contextcli/context-cli/internal/config"
	"github.com/contextcli/context-cli/internal/fetcher"
	"github.com/contextcli/context-cli/internal/history"
	"github.com/contextcli/context-cli/internal/recommend"
	"github.com/contextcli/context-cli/internal/regression"
	"github.com/contextcli/context-cli/internal/types"
)

var (
	cfgFile string
	verbose bool

	timeout             string
	maxPages            int
	concurrency         int
	bots                []string
	single              bool
	save                bool
	format              string
	useBrowser          bool
	failUnder           float64
	failOnBlockedBots   bool
	regressionThreshold float64

	historyLimit int
	historyURL   string
)

// exitError carries a specific process exit code through cobra.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	rootCmd := &cobra.Command{
		Use:   "contextcli",
		Short: "ContextCLI — LLM readiness auditor for websites",
		Long: `ContextCLI audits websites for how accessible, parseable, and citable
their content is to AI crawlers and retrieval-augmented agents.

It scores four pillars out of 100:
  • robots.txt access for AI crawlers (25)
  • llms.txt presence (10)
  • Schema.org JSON-LD coverage (25)
  • content density and structure (40)`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.msg != "" {
				fmt.Fprintln(os.Stderr, exit.msg)
			}
			os.Exit(exit.code)
		}
		os.Exit(1)
	}
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url]",
		Short: "Audit a site's LLM readiness",
		Long: `Audit a website: check robots.txt AI-bot access, llms.txt, Schema.org
JSON-LD coverage, and content density, then report a 0-100 score.

By default the whole site is sampled via its sitemap (or spidered links);
--single audits only the given page.`,
		Args: cobra.ExactArgs(1),
		RunE: runAudit,
	}

	cmd.Flags().StringVarP(&timeout, "timeout", "t", "", "per-request HTTP timeout (15s, or bare seconds)")
	cmd.Flags().IntVarP(&maxPages, "max-pages", "p", 0, "page sample size for site audits")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "concurrent page fetches")
	cmd.Flags().StringSliceVar(&bots, "bots", nil, "override the AI bot list (comma-separated)")
	cmd.Flags().BoolVarP(&single, "single", "s", false, "audit only the given page")
	cmd.Flags().BoolVar(&save, "save", false, "save the result to audit history")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: text, json")
	cmd.Flags().BoolVar(&useBrowser, "browser", false, "render pages in headless Chromium")
	cmd.Flags().Float64Var(&failUnder, "fail-under", 0, "exit 1 when the overall score is below this")
	cmd.Flags().BoolVar(&failOnBlockedBots, "fail-on-blocked-bots", false, "exit 2 when any AI bot is blocked")
	cmd.Flags().Float64Var(&regressionThreshold, "regression-threshold", -1, "overall-score drop that counts as a regression")

	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyCLIOverrides(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := audit.Options{
		Timeout:     cfg.Timeout,
		MaxPages:    cfg.MaxPages,
		Concurrency: cfg.Concurrency,
		Bots:        cfg.Bots,
	}
	if cfg.Format == "text" {
		opts.Progress = func(msg string) { fmt.Fprintf(os.Stderr, "… %s\n", msg) }
	}

	auditor := audit.New(opts, logger)
	defer auditor.Close()

	if cfg.Browser {
		browser, err := fetcher.NewBrowserPageFetcher(logger)
		if err != nil {
			return fmt.Errorf("start browser: %w", err)
		}
		auditor.SetPageFetcher(browser)
	}

	seedURL := args[0]
	var flat *types.AuditReport
	var site *types.SiteAuditReport

	if cfg.Single {
		flat, err = auditor.AuditURL(ctx, seedURL)
	} else {
		site, err = auditor.AuditSite(ctx, seedURL)
		if err == nil {
			flat = site.Flatten()
		}
	}
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	recs := recommend.Recommend(flat)

	var regReport *types.RegressionReport
	if cfg.Save {
		regReport, err = saveAndDetect(ctx, cfg, logger, flat)
		if err != nil {
			// History trouble must not invalidate an otherwise good audit.
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	if cfg.Format == "json" {
		err = renderJSON(os.Stdout, flat, site, recs, regReport)
	} else {
		err = renderText(os.Stdout, flat, site, recs, regReport)
	}
	if err != nil {
		return err
	}

	return exitPolicy(cfg, flat)
}

// saveAndDetect reads the previous entry for the URL, saves the new report,
// and diffs the two. Detection must read before saving or it would compare
// the report against itself.
func saveAndDetect(ctx context.Context, cfg *config.Config, logger *slog.Logger, report *types.AuditReport) (*types.RegressionReport, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	previous, err := store.GetLatest(ctx, report.URL)
	if err != nil && !errors.Is(err, types.ErrNoHistory) {
		return nil, err
	}

	if _, err := store.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("save audit: %w", err)
	}

	if previous == nil {
		return nil, nil
	}
	return regression.Detect(report.URL, report.Scores(), previous.Scores(), cfg.RegressionThreshold), nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (history.Store, error) {
	if cfg.History.Backend == "mongo" {
		return history.NewMongoStore(ctx, cfg.History.URI, cfg.History.Database, logger)
	}
	path := cfg.History.Path
	if path == "" {
		var err error
		path, err = history.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve history path: %w", err)
		}
	}
	return history.NewSQLiteStore(path, logger)
}

// exitPolicy maps CI gate flags to exit codes. A blocked bot (exit 2)
// outranks a low score (exit 1).
func exitPolicy(cfg *config.Config, report *types.AuditReport) error {
	if failOnBlockedBots && report.Robots != nil {
		for _, b := range report.Robots.Bots {
			if !b.Allowed {
				return &exitError{code: 2, msg: fmt.Sprintf("AI bot blocked: %s", b.Bot)}
			}
		}
	}
	if failUnder > 0 && report.OverallScore < failUnder {
		return &exitError{code: 1, msg: fmt.Sprintf("score %.1f below threshold %.1f", report.OverallScore, failUnder)}
	}
	return nil
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved audit results",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved audits, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store history.Store) error {
				entries, err := store.ListEntries(ctx, historyURL, historyLimit)
				if err != nil {
					return err
				}
				renderHistoryList(os.Stdout, entries)
				return nil
			})
		},
	}
	list.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum entries to show")
	list.Flags().StringVarP(&historyURL, "url", "u", "", "filter by URL")

	show := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one saved audit in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return withStore(func(ctx context.Context, store history.Store) error {
				report, err := store.GetReport(ctx, id)
				if err != nil {
					return err
				}
				return renderJSON(os.Stdout, report, nil, nil, nil)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete [url]",
		Short: "Delete all saved audits for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store history.Store) error {
				n, err := store.DeleteURL(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Deleted %d entr%s for %s\n", n, plural(n, "y", "ies"), args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func withStore(fn func(context.Context, history.Store) error) error {
	logger := setupLogger()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ContextCLI %s\n", config.Version)
		},
	}
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// applyCLIOverrides layers explicitly set flags over the file config.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("timeout") {
		d, err := config.ParseTimeout(timeout)
		if err != nil {
			return err
		}
		cfg.Timeout = d
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.MaxPages = maxPages
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = concurrency
	}
	if cmd.Flags().Changed("bots") {
		cfg.Bots = bots
	}
	if cmd.Flags().Changed("single") {
		cfg.Single = single
	}
	if cmd.Flags().Changed("save") {
		cfg.Save = save
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = format
	}
	if cmd.Flags().Changed("browser") {
		cfg.Browser = useBrowser
	}
	if cmd.Flags().Changed("regression-threshold") {
		cfg.RegressionThreshold = regressionThreshold
	}
	if verbose {
		cfg.Verbose = true
	}
	return nil
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
