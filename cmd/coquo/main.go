package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/coquo/internal/app"
	"github.com/ternarybob/coquo/internal/common"
	"github.com/ternarybob/coquo/internal/services/scheduler"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	catalogURL   = flag.String("catalog", "", "Catalog URL (overrides config)")
	outputDir    = flag.String("output", "", "Output directory (overrides config)")
	showHistory  = flag.Int("history", 0, "Print the N most recent runs and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Coquo version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover a config file next to the working directory
	if len(configFiles) == 0 {
		if _, err := os.Stat("coquo.toml"); err == nil {
			configFiles = append(configFiles, "coquo.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *catalogURL, *outputDir)

	if err := config.Validate(); err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}

	exitCode := 0
	switch {
	case *showHistory > 0:
		exitCode = printHistory(ctx, application, *showHistory)
	case config.Scheduler.Enabled:
		exitCode = runScheduled(ctx, application)
	default:
		if _, err := application.RunCrawl(ctx); err != nil {
			exitCode = 1
		}
	}

	if err := application.Close(); err != nil {
		logger.Warn().Err(err).Msg("Shutdown cleanup failed")
	}
	os.Exit(exitCode)
}

// runScheduled repeats the crawl on the configured cron schedule until the
// process receives an interrupt.
func runScheduled(ctx context.Context, application *app.App) int {
	sched := scheduler.New(logger)
	err := sched.Start(config.Scheduler.Schedule, func() {
		if _, err := application.RunCrawl(ctx); err != nil {
			logger.Error().Err(err).Msg("Scheduled crawl failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start scheduler")
		return 1
	}

	<-ctx.Done()
	sched.Stop()
	return 0
}

func printHistory(ctx context.Context, application *app.App, limit int) int {
	history := application.History()
	if history == nil {
		logger.Error().Msg("Run history is disabled in configuration")
		return 1
	}

	runs, err := history.ListRuns(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read run history")
		return 1
	}

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed: " + run.Error
		}
		fmt.Printf("%s  %s  categories=%d recipes=%d skipped=%d duration=%s  %s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"), run.ID,
			run.Categories, run.Recipes, run.Skipped, run.Duration, status)
	}
	return 0
}
