package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yorumly/reviewstalk/internal/api"
	"github.com/yorumly/reviewstalk/internal/browser"
	"github.com/yorumly/reviewstalk/internal/config"
	"github.com/yorumly/reviewstalk/internal/export"
	"github.com/yorumly/reviewstalk/internal/fetch"
	"github.com/yorumly/reviewstalk/internal/harvest"
	"github.com/yorumly/reviewstalk/internal/source"
	"github.com/yorumly/reviewstalk/internal/storage"
	"github.com/yorumly/reviewstalk/internal/types"
)

var (
	cfgFile     string
	verbose     bool
	platform    string
	maxPages    int
	maxProducts int
	timeBudget  time.Duration
	outputDir   string
	exportFiles bool
	dryRun      bool
	headful     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reviewstalk",
		Short: "ReviewStalk — e-commerce review harvester",
		Long: `ReviewStalk harvests customer reviews from e-commerce storefronts
into MongoDB, one collection per product or search term.

Supported platforms: hepsiburada, trendyol, n11, amazon, aliexpress

Every run prints a JSON result object to stdout; logs go to stderr.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(productCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// productCmd creates the "product" subcommand.
func productCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product [url]",
		Short: "Harvest all reviews of one product",
		Long: `Harvest every review page of the given product URL into its own
collection. The collection is cleared first, so a rerun replaces stale data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(func(ctx context.Context, r *runner) (*types.RunResult, error) {
				return r.RunProduct(ctx, platform, args[0])
			})
		},
	}
	addHarvestFlags(cmd)
	return cmd
}

// searchCmd creates the "search" subcommand.
func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Harvest reviews for the top products of a search term",
		Long: `Search the platform for a term and harvest the reviews of its top
products into one shared collection. Successive searches append.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if platform == "" {
				return fmt.Errorf("--platform is required for search runs")
			}
			return runHarvest(func(ctx context.Context, r *runner) (*types.RunResult, error) {
				return r.RunSearch(ctx, platform, args[0])
			})
		},
	}
	addHarvestFlags(cmd)
	cmd.Flags().IntVarP(&maxProducts, "max-products", "n", 0, "products to harvest per search (0 = config default)")
	return cmd
}

func addHarvestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "source platform (detected from URL when omitted)")
	cmd.Flags().IntVarP(&maxPages, "max-pages", "m", 0, "review pages per product (0 = config default)")
	cmd.Flags().DurationVarP(&timeBudget, "time-budget", "t", 0, "wall-clock budget for the whole run (0 = config default)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for CSV/JSON mirrors")
	cmd.Flags().BoolVarP(&exportFiles, "export", "e", false, "also write a CSV mirror and result file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "harvest without MongoDB; records stay in memory")
	cmd.Flags().BoolVar(&headful, "headful", false, "run the browser with a visible window")
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP harvest API",
		RunE:  runServe,
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "harvest without MongoDB; records stay in memory")
	return cmd
}

// runHarvest is the shared scaffolding of the product and search commands:
// config, signals, the run itself, and the final JSON result on stdout.
// The result object is always emitted, success or not.
func runHarvest(run func(context.Context, *runner) (*types.RunResult, error)) error {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return emitResult(&types.RunResult{Success: false, Error: err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := &runner{cfg: cfg, logger: logger}
	result, err := run(ctx, r)
	if err != nil {
		logger.Error("harvest failed", "error", err)
		return emitResult(&types.RunResult{Success: false, Error: err.Error()})
	}
	return emitResult(result)
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := &runner{cfg: cfg, logger: logger}
	srv := api.NewServer(&cfg.API, r, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ReviewStalk %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Harvest:\n")
			fmt.Printf("  Max Pages:        %d\n", cfg.Harvest.MaxPages)
			fmt.Printf("  Max Products:     %d\n", cfg.Harvest.MaxProducts)
			fmt.Printf("  Time Budget:      %s\n", cfg.Harvest.TimeBudget)
			fmt.Printf("  Budget Margin:    %s\n", cfg.Harvest.BudgetMargin)
			fmt.Printf("  Min Comment Len:  %d\n", cfg.Harvest.MinCommentLen)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Headless:         %v\n", cfg.Browser.Headless)
			fmt.Printf("  Stealth:          %v\n", cfg.Browser.Stealth)
			fmt.Printf("  Page Load Timeout: %s\n", cfg.Browser.PageLoadTimeout)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  URI:              %s\n", cfg.Storage.URI)
			fmt.Printf("  Database:         %s\n", cfg.Storage.Database)
			fmt.Printf("  Fan-Out:          %v\n", cfg.Storage.FanOut)
			fmt.Printf("\nExport:\n")
			fmt.Printf("  Enabled:          %v\n", cfg.Export.Enabled)
			fmt.Printf("  Output Dir:       %s\n", cfg.Export.OutputDir)
			fmt.Printf("\nAPI:\n")
			fmt.Printf("  Port:             %d\n", cfg.API.Port)
			return nil
		},
	}
}

// loadConfig loads, overrides, and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if maxPages > 0 {
		cfg.Harvest.MaxPages = maxPages
	}
	if maxProducts > 0 {
		cfg.Harvest.MaxProducts = maxProducts
	}
	if timeBudget > 0 {
		cfg.Harvest.TimeBudget = timeBudget
	}
	if outputDir != "" {
		cfg.Export.OutputDir = outputDir
	}
	if exportFiles {
		cfg.Export.Enabled = true
	}
	if headful {
		cfg.Browser.Headless = false
	}
}

// emitResult writes the run result object to stdout. This is the process
// boundary: callers parse exactly one JSON object.
func emitResult(result *types.RunResult) error {
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("harvest failed: %s", result.Error)
	}
	return nil
}

// setupLogger creates a structured logger on stderr, keeping stdout clean
// for the JSON result.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// runner wires one harvest run end to end. Browser, storage, and fetcher
// live exactly as long as the run; every exit path releases them.
type runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (r *runner) RunProduct(ctx context.Context, platformTag, productURL string) (*types.RunResult, error) {
	if err := config.ValidateURL(productURL); err != nil {
		return nil, err
	}
	p, err := resolveProfile(platformTag, productURL)
	if err != nil {
		return nil, err
	}

	h, cleanup, err := r.build(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result, err := h.HarvestProduct(ctx, p, productURL)
	if err != nil {
		return nil, err
	}
	r.export(result)
	return result, nil
}

func (r *runner) RunSearch(ctx context.Context, platformTag, searchTerm string) (*types.RunResult, error) {
	p, err := source.Lookup(platformTag)
	if err != nil {
		return nil, err
	}

	h, cleanup, err := r.build(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result, err := h.HarvestSearch(ctx, p, searchTerm)
	if err != nil {
		return nil, err
	}
	r.export(result)
	return result, nil
}

// build assembles storage, browser, and fetcher into a Harvester. The
// returned cleanup releases everything acquired so far; build itself
// releases on its own failure paths.
func (r *runner) build(ctx context.Context) (*harvest.Harvester, func(), error) {
	store, err := r.newStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	session, err := browser.NewSession(&r.cfg.Browser, r.logger)
	if err != nil {
		_ = store.Close(context.Background())
		return nil, nil, err
	}
	src := harvest.NewBrowserSource(session, &r.cfg.Harvest, r.logger)

	var listing harvest.ListingFetcher
	client, err := fetch.NewClient(&r.cfg.Fetcher, r.logger)
	if err != nil {
		r.logger.Warn("listing fetcher unavailable, falling back to browser", "error", err)
	} else {
		listing = client
	}

	cleanup := func() {
		if client != nil {
			_ = client.Close()
		}
		if err := src.Close(); err != nil {
			r.logger.Warn("browser close failed", "error", err)
		}
		if err := store.Close(context.Background()); err != nil {
			r.logger.Warn("storage close failed", "error", err)
		}
	}

	return harvest.New(store, src, listing, r.cfg, r.logger), cleanup, nil
}

func (r *runner) newStore(ctx context.Context) (storage.ReviewStore, error) {
	if dryRun {
		r.logger.Info("dry run: records will not be persisted")
		return storage.NewMemoryStore(r.logger), nil
	}
	return storage.NewMongoStore(ctx, &r.cfg.Storage, r.logger)
}

// export writes the optional CSV and result mirrors.
func (r *runner) export(result *types.RunResult) {
	if !r.cfg.Export.Enabled || result.CollectionName == "" {
		return
	}
	e := export.New(r.cfg.Export.OutputDir, r.logger)
	if _, err := e.WriteCSV(result.CollectionName, result.Results); err != nil {
		r.logger.Warn("csv export failed", "error", err)
	}
	if _, err := e.WriteResult(result.CollectionName, result); err != nil {
		r.logger.Warn("result export failed", "error", err)
	}
}

// resolveProfile picks the platform profile: an explicit tag wins, else
// the product URL's host decides.
func resolveProfile(platformTag, productURL string) (*source.Profile, error) {
	if platformTag != "" {
		return source.Lookup(platformTag)
	}
	return source.Detect(productURL)
}
