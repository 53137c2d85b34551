package interfaces

import (
	"context"

	"github.com/ternarybob/coquo/internal/models"
)

// RunHistory persists crawl run summaries for later inspection.
type RunHistory interface {
	SaveRun(ctx context.Context, summary *models.RunSummary) error
	ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
}
