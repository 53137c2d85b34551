// -----------------------------------------------------------------------
// Crawl coordinator
// Drives one category at a time through an explicit state machine:
// SelectingFilter -> ExpandingResults -> CollectingLinks -> Done.
// -----------------------------------------------------------------------

package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/coquo/internal/common"
	"github.com/ternarybob/coquo/internal/interfaces"
	"github.com/ternarybob/coquo/internal/models"
	"github.com/ternarybob/coquo/internal/services/extractor"
	"github.com/ternarybob/coquo/internal/services/identifiers"
)

// The filter labels live at fixed positions inside the profile form, indexed
// by the category's 1-based id.
const categoryLabelXPath = `//*[@id="profile_form"]/div[3]/div/div[%d]/div/label`

const (
	resultItemClass  = "recipes__item"
	resultsContainer = "div.recipes"
)

type categoryState int

const (
	stateSelectingFilter categoryState = iota
	stateExpandingResults
	stateCollectingLinks
	stateDone
)

// Options carries the crawl knobs the coordinator needs
type Options struct {
	CatalogURL          string
	RecipeLinkPrefix    string
	LoadMoreText        string
	FilterNavPath       []string
	WaitTimeout         time.Duration
	SettleDelay         time.Duration
	MaxTransientRetries int
}

// OptionsFromConfig builds coordinator options from the app configuration
func OptionsFromConfig(config *common.Config) Options {
	return Options{
		CatalogURL:          config.Catalog.URL,
		RecipeLinkPrefix:    config.Catalog.RecipeLinkPrefix,
		LoadMoreText:        config.Catalog.LoadMoreText,
		FilterNavPath:       config.Catalog.FilterNavPath,
		WaitTimeout:         config.Browser.WaitTimeout.Std(),
		SettleDelay:         config.Browser.SettleDelay.Std(),
		MaxTransientRetries: config.Browser.MaxTransientRetries,
	}
}

// Coordinator walks the categories strictly in order, expands each result
// list to exhaustion and hands every discovered recipe through extraction,
// identifier stamping and the sink.
type Coordinator struct {
	session interfaces.BrowserSession
	fetcher interfaces.DocumentFetcher
	alloc   *identifiers.Allocator
	sink    interfaces.RecordSink
	opts    Options
	logger  arbor.ILogger
}

// New creates a crawl coordinator
func New(session interfaces.BrowserSession, fetcher interfaces.DocumentFetcher, alloc *identifiers.Allocator, sink interfaces.RecordSink, opts Options, logger arbor.ILogger) *Coordinator {
	return &Coordinator{
		session: session,
		fetcher: fetcher,
		alloc:   alloc,
		sink:    sink,
		opts:    opts,
		logger:  logger,
	}
}

// Run crawls every category in order. On a fatal error the counts collected
// so far are returned alongside it; everything already appended stays valid.
func (c *Coordinator) Run(ctx context.Context, categories []models.Category) ([]models.CategoryCount, error) {
	if err := c.session.Navigate(ctx, c.opts.CatalogURL); err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	var counts []models.CategoryCount
	for i, category := range categories {
		count, err := c.crawlCategory(ctx, category, i == 0)
		if count != nil {
			counts = append(counts, *count)
		}
		if err != nil {
			return counts, err
		}
		c.alloc.CompleteCategory(count.Links)
	}
	return counts, nil
}

func (c *Coordinator) crawlCategory(ctx context.Context, category models.Category, first bool) (*models.CategoryCount, error) {
	c.logger.Info().Int("category_id", category.ID).Str("category", category.Name).Msg("Crawling category")

	var links []string
	state := stateSelectingFilter
	for state != stateDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch state {
		case stateSelectingFilter:
			if err := c.selectFilter(ctx, category, first); err != nil {
				return nil, err
			}
			state = stateExpandingResults
		case stateExpandingResults:
			if err := c.expandResults(ctx, category); err != nil {
				return nil, err
			}
			state = stateCollectingLinks
		case stateCollectingLinks:
			var err error
			if links, err = c.collectLinks(ctx); err != nil {
				return nil, err
			}
			state = stateDone
		}
	}

	count := &models.CategoryCount{CategoryID: category.ID, Name: category.Name, Links: len(links)}
	for i, link := range links {
		cookingID := c.alloc.Stamp(i + 1)
		if err := c.saveRecipe(ctx, link, cookingID, category.ID); err != nil {
			if models.IsFetchError(err) {
				// The identifier stays consumed so later categories keep
				// their bases; the skipped id simply has no rows.
				c.logger.Warn().Err(err).Int("cooking_id", cookingID).Str("url", link).Msg("Recipe fetch failed, skipping")
				count.Skipped++
				continue
			}
			return count, err
		}
		count.Saved++
	}

	c.logger.Info().
		Str("category", category.Name).
		Int("links", count.Links).
		Int("saved", count.Saved).
		Int("skipped", count.Skipped).
		Msg("Category complete")
	return count, nil
}

// selectFilter activates the category's filter control. On the first
// category it first walks the configured navigation links to open the
// filter panel; on every later one it also deactivates the previous
// category's control so exactly one filter stays active.
func (c *Coordinator) selectFilter(ctx context.Context, category models.Category, first bool) error {
	if first {
		for _, text := range c.opts.FilterNavPath {
			if err := c.session.WaitClickableLinkText(ctx, text, c.opts.WaitTimeout); err != nil {
				return &models.UIError{Category: category.Name, Err: fmt.Errorf("filter panel link %q: %w", text, err)}
			}
			if err := c.session.ClickLinkText(ctx, text); err != nil {
				return &models.UIError{Category: category.Name, Err: fmt.Errorf("filter panel link %q: %w", text, err)}
			}
		}
	}

	c.settle(ctx)

	if err := c.session.ClickXPath(ctx, fmt.Sprintf(categoryLabelXPath, category.ID)); err != nil {
		return &models.UIError{Category: category.Name, Err: fmt.Errorf("category filter control: %w", err)}
	}
	if !first {
		if err := c.session.ClickXPath(ctx, fmt.Sprintf(categoryLabelXPath, category.ID-1)); err != nil {
			return &models.UIError{Category: category.Name, Err: fmt.Errorf("previous filter control: %w", err)}
		}
	}

	c.settle(ctx)

	if err := c.session.WaitVisibleClass(ctx, resultItemClass, c.opts.WaitTimeout); err != nil {
		return &models.UIError{Category: category.Name, Err: fmt.Errorf("result list never rendered: %w", err)}
	}
	return nil
}

// expandResults clicks the load-more control until it stops appearing.
// Absence within the wait window is the termination signal; an error raised
// while driving the control is transient and retried after a settle delay,
// up to the retry ceiling.
func (c *Coordinator) expandResults(ctx context.Context, category models.Category) error {
	transientFailures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.loadMoreOnce(ctx)
		if err == nil {
			transientFailures = 0
			continue
		}

		if errors.Is(err, interfaces.ErrTargetNotFound) {
			// No more pages.
			if scrollErr := c.session.ScrollTop(ctx); scrollErr != nil {
				c.logger.Debug().Err(scrollErr).Msg("Scroll to top failed after pagination")
			}
			c.settle(ctx)
			return nil
		}

		transientFailures++
		if transientFailures >= c.opts.MaxTransientRetries {
			return &models.UIError{
				Category: category.Name,
				Err:      fmt.Errorf("pagination abandoned after %d transient failures: %w", transientFailures, err),
			}
		}
		c.logger.Warn().
			Err(err).
			Int("failures", transientFailures).
			Str("category", category.Name).
			Msg("Transient driver error during pagination, backing off")
		c.settle(ctx)
	}
}

func (c *Coordinator) loadMoreOnce(ctx context.Context) error {
	if err := c.session.WaitClickableLinkText(ctx, c.opts.LoadMoreText, c.opts.WaitTimeout); err != nil {
		if errors.Is(err, interfaces.ErrTargetNotFound) || errors.Is(err, context.Canceled) {
			return err
		}
		return &models.TransientDriverError{Op: "wait for load-more control", Err: err}
	}
	if err := c.session.ClickLinkText(ctx, c.opts.LoadMoreText); err != nil {
		return &models.TransientDriverError{Op: "click load-more control", Err: err}
	}
	return nil
}

// collectLinks parses the fully expanded result list and returns every
// recipe-detail link in document order.
func (c *Coordinator) collectLinks(ctx context.Context) ([]string, error) {
	pageSource, err := c.session.CurrentDocument(ctx)
	if err != nil {
		return nil, &models.UIError{Err: fmt.Errorf("read expanded result list: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageSource))
	if err != nil {
		return nil, fmt.Errorf("failed to parse result list: %w", err)
	}

	container := doc.Find(resultsContainer).First()
	if container.Length() == 0 {
		return nil, &models.StructureError{Selector: resultsContainer}
	}

	var links []string
	container.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		if strings.HasPrefix(href, c.opts.RecipeLinkPrefix) {
			links = append(links, href)
		}
	})

	c.logger.Debug().Int("links", len(links)).Msg("Recipe links collected")
	return links, nil
}

func (c *Coordinator) saveRecipe(ctx context.Context, url string, cookingID, categoryID int) error {
	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}

	result, err := extractor.Extract(body, url)
	if err != nil {
		return err
	}
	result.Stamp(cookingID, categoryID)

	// The recipe row goes first; downstream joins rely on append order.
	if err := c.sink.AppendRecipe(result.Recipe); err != nil {
		return err
	}
	if err := c.sink.AppendIngredients(result.Ingredients); err != nil {
		return err
	}
	if err := c.sink.AppendNutrition(result.Nutrition); err != nil {
		return err
	}

	c.logger.Info().
		Int("cooking_id", cookingID).
		Str("name", result.Recipe.CookingName).
		Int("ingredients", len(result.Ingredients)).
		Int("nutrition", len(result.Nutrition)).
		Msg("Recipe saved")
	return nil
}

func (c *Coordinator) settle(ctx context.Context) {
	if c.opts.SettleDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.opts.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
