package csvsink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/coquo/internal/interfaces"
	"github.com/ternarybob/coquo/internal/models"
)

const (
	categoryFile   = "category_master.csv"
	recipeFile     = "cooking_info.csv"
	ingredientFile = "ingredients.csv"
	nutritionFile  = "nutrition.csv"
)

// Sink writes the record streams as CSV files under one directory. The
// category stream is written whole with a header; the three record streams
// are opened in append mode and carry no header so re-runs into the same
// directory keep their rows parseable as one stream. Every append is flushed
// before returning, so rows written before a fatal abort survive it.
type Sink struct {
	mu          sync.Mutex
	dir         string
	recipes     *stream
	ingredients *stream
	nutrition   *stream
	logger      arbor.ILogger
}

type stream struct {
	file   *os.File
	writer *csv.Writer
}

func openStream(path string) (*stream, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream %s: %w", path, err)
	}
	return &stream{file: file, writer: csv.NewWriter(file)}, nil
}

func (s *stream) append(rows [][]string) error {
	for _, row := range rows {
		if err := s.writer.Write(row); err != nil {
			return err
		}
	}
	s.writer.Flush()
	return s.writer.Error()
}

func (s *stream) close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// New creates the output directory and opens the three append streams
func New(dir string, logger arbor.ILogger) (interfaces.RecordSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	sink := &Sink{dir: dir, logger: logger}

	var err error
	if sink.recipes, err = openStream(filepath.Join(dir, recipeFile)); err != nil {
		return nil, err
	}
	if sink.ingredients, err = openStream(filepath.Join(dir, ingredientFile)); err != nil {
		sink.recipes.close()
		return nil, err
	}
	if sink.nutrition, err = openStream(filepath.Join(dir, nutritionFile)); err != nil {
		sink.recipes.close()
		sink.ingredients.close()
		return nil, err
	}

	logger.Debug().Str("dir", dir).Msg("CSV sink opened")
	return sink, nil
}

// WriteCategories writes the full category stream, header included,
// replacing any previous file.
func (s *Sink) WriteCategories(categories []models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Create(filepath.Join(s.dir, categoryFile))
	if err != nil {
		return fmt.Errorf("failed to create category stream: %w", err)
	}

	writer := csv.NewWriter(file)
	rows := [][]string{{"id", "name"}}
	for _, category := range categories {
		rows = append(rows, []string{strconv.Itoa(category.ID), category.Name})
	}
	if err := writer.WriteAll(rows); err != nil {
		file.Close()
		return fmt.Errorf("failed to write category stream: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write category stream: %w", err)
	}

	s.logger.Info().Int("categories", len(categories)).Msg("Category stream written")
	return nil
}

// AppendRecipe appends one recipe row
func (s *Sink) AppendRecipe(recipe models.RecipeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		strconv.Itoa(recipe.CookingID),
		recipe.CookingName,
		recipe.Description,
		recipe.ForHowManyPeople,
		recipe.ServingSize,
		strconv.Itoa(recipe.RootCategoryID),
	}
	if err := s.recipes.append([][]string{row}); err != nil {
		return fmt.Errorf("failed to append recipe row: %w", err)
	}
	return nil
}

// AppendIngredients appends the ingredient rows of one recipe
func (s *Sink) AppendIngredients(ingredients []models.IngredientRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([][]string, 0, len(ingredients))
	for _, ingredient := range ingredients {
		rows = append(rows, []string{
			ingredient.IngredientsName,
			ingredient.QuantityUS,
			ingredient.QuantityMetric,
			strconv.Itoa(ingredient.CookingID),
		})
	}
	if err := s.ingredients.append(rows); err != nil {
		return fmt.Errorf("failed to append ingredient rows: %w", err)
	}
	return nil
}

// AppendNutrition appends the nutrition rows of one recipe
func (s *Sink) AppendNutrition(nutrition []models.NutritionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([][]string, 0, len(nutrition))
	for _, fact := range nutrition {
		rows = append(rows, []string{
			fact.NutritionName,
			fact.Quantity,
			strconv.Itoa(fact.CookingID),
		})
	}
	if err := s.nutrition.append(rows); err != nil {
		return fmt.Errorf("failed to append nutrition rows: %w", err)
	}
	return nil
}

// Close flushes and closes every stream
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, st := range []*stream{s.recipes, s.ingredients, s.nutrition} {
		if st == nil {
			continue
		}
		if err := st.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
