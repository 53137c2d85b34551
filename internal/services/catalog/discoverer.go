package catalog

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/coquo/internal/interfaces"
	"github.com/ternarybob/coquo/internal/models"
)

const cuisineSelector = `div[data-type="cuisines"]`

// Discoverer extracts the ordered category list from the catalog landing
// page. A fetch failure here is fatal to the whole run, so no retries.
type Discoverer struct {
	fetcher interfaces.DocumentFetcher
	logger  arbor.ILogger
}

// NewDiscoverer creates a category discoverer
func NewDiscoverer(fetcher interfaces.DocumentFetcher, logger arbor.ILogger) *Discoverer {
	return &Discoverer{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Discover fetches the catalog document once and returns every selectable
// category in UI order, ids assigned from the 1-based control position.
func (d *Discoverer) Discover(ctx context.Context, catalogURL string) ([]models.Category, error) {
	body, err := d.fetcher.Fetch(ctx, catalogURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog document: %w", err)
	}

	container := doc.Find(cuisineSelector).First()
	if container.Length() == 0 {
		return nil, &models.StructureError{Selector: cuisineSelector, URL: catalogURL}
	}

	var categories []models.Category
	container.Find("label").Each(func(i int, label *goquery.Selection) {
		name := strings.TrimSpace(label.Find("span").First().Text())
		categories = append(categories, models.Category{ID: i + 1, Name: name})
	})

	d.logger.Info().Int("categories", len(categories)).Str("url", catalogURL).Msg("Categories discovered")
	return categories, nil
}
