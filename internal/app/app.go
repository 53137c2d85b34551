package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/coquo/internal/common"
	"github.com/ternarybob/coquo/internal/httpclient"
	"github.com/ternarybob/coquo/internal/interfaces"
	"github.com/ternarybob/coquo/internal/models"
	"github.com/ternarybob/coquo/internal/services/catalog"
	"github.com/ternarybob/coquo/internal/services/crawler"
	"github.com/ternarybob/coquo/internal/services/identifiers"
	badgerstore "github.com/ternarybob/coquo/internal/storage/badger"
	"github.com/ternarybob/coquo/internal/storage/csvsink"
)

// App wires the configuration into the fetcher, sink, storage and crawl
// services, and owns their lifecycles.
type App struct {
	config  *common.Config
	logger  arbor.ILogger
	fetcher interfaces.DocumentFetcher
	sink    interfaces.RecordSink
	store   *badgerstore.Store
	history interfaces.RunHistory
}

// New builds the application from configuration
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		config: config,
		logger: logger,
	}

	if config.Cache.Enabled || config.History.Enabled {
		store, err := badgerstore.NewStore(config.Storage.Path, logger)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	var cache interfaces.PageCache
	if config.Cache.Enabled {
		cache = badgerstore.NewPageCache(a.store, config.Cache.TTL.Std(), logger)
	}
	a.fetcher = httpclient.New(config.Fetcher, cache, logger)

	if config.History.Enabled {
		a.history = badgerstore.NewRunHistoryStorage(a.store, logger)
	}

	sink, err := csvsink.New(config.Output.Dir, logger)
	if err != nil {
		a.closeStore()
		return nil, err
	}
	a.sink = sink

	return a, nil
}

// History returns the run history store, or nil when disabled
func (a *App) History() interfaces.RunHistory {
	return a.history
}

// RunCrawl executes one full crawl: category discovery, the category stream,
// then the browser-driven walk of every category. The returned summary is
// populated even when the run fails partway.
func (a *App) RunCrawl(ctx context.Context) (*models.RunSummary, error) {
	summary := &models.RunSummary{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	a.logger.Info().Str("run_id", summary.ID).Str("catalog", a.config.Catalog.URL).Msg("Crawl run starting")

	discoverer := catalog.NewDiscoverer(a.fetcher, a.logger)
	categories, err := discoverer.Discover(ctx, a.config.Catalog.URL)
	if err != nil {
		return a.finishRun(ctx, summary, fmt.Errorf("category discovery failed: %w", err))
	}
	summary.Categories = len(categories)

	if err := a.sink.WriteCategories(categories); err != nil {
		return a.finishRun(ctx, summary, err)
	}

	session, err := crawler.NewSession(a.config.Browser, a.logger)
	if err != nil {
		return a.finishRun(ctx, summary, err)
	}
	defer session.Close()

	coordinator := crawler.New(session, a.fetcher, identifiers.NewAllocator(), a.sink, crawler.OptionsFromConfig(a.config), a.logger)
	counts, err := coordinator.Run(ctx, categories)

	summary.PerCategory = counts
	for _, count := range counts {
		summary.Recipes += count.Saved
		summary.Skipped += count.Skipped
	}
	return a.finishRun(ctx, summary, err)
}

func (a *App) finishRun(ctx context.Context, summary *models.RunSummary, runErr error) (*models.RunSummary, error) {
	summary.Duration = time.Since(summary.StartedAt)
	if runErr != nil {
		summary.Error = runErr.Error()
	}

	if a.history != nil {
		// History must not mask the run outcome; saving rides on a fresh
		// context so a cancelled run still gets recorded.
		if err := a.history.SaveRun(context.WithoutCancel(ctx), summary); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to persist run summary")
		}
	}

	event := a.logger.Info()
	if runErr != nil {
		event = a.logger.Error().Err(runErr)
	}
	event.
		Str("run_id", summary.ID).
		Int("categories", summary.Categories).
		Int("recipes", summary.Recipes).
		Int("skipped", summary.Skipped).
		Str("duration", summary.Duration.String()).
		Msg("Crawl run finished")

	return summary, runErr
}

// Close releases the sink and storage
func (a *App) Close() error {
	var firstErr error
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.closeStore(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (a *App) closeStore() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
