package badger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/coquo/internal/interfaces"
	"github.com/ternarybob/coquo/internal/models"
)

// RunHistoryStorage implements the RunHistory interface on badgerhold
type RunHistoryStorage struct {
	db     *Store
	logger arbor.ILogger
}

// NewRunHistoryStorage creates a new run history store
func NewRunHistoryStorage(db *Store, logger arbor.ILogger) interfaces.RunHistory {
	return &RunHistoryStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRun persists a run summary, assigning it an id if it has none
func (s *RunHistoryStorage) SaveRun(ctx context.Context, summary *models.RunSummary) error {
	if summary.ID == "" {
		summary.ID = uuid.NewString()
	}
	if err := s.db.Hold().Upsert(summary.ID, summary); err != nil {
		return fmt.Errorf("failed to save run summary: %w", err)
	}
	s.logger.Debug().Str("run_id", summary.ID).Int("recipes", summary.Recipes).Msg("Run summary saved")
	return nil
}

// ListRuns returns the most recent run summaries, newest first
func (s *RunHistoryStorage) ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	var runs []models.RunSummary
	query := badgerhold.Where("ID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Hold().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
