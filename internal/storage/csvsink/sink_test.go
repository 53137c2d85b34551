package csvsink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/coquo/internal/common"
	"github.com/ternarybob/coquo/internal/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSink_CategoryStreamHasHeader(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, common.GetLogger())
	require.NoError(t, err)
	defer sink.Close()

	err = sink.WriteCategories([]models.Category{
		{ID: 1, Name: "Italian"},
		{ID: 2, Name: "Mexican"},
	})
	require.NoError(t, err)

	rows := readCSV(t, filepath.Join(dir, "category_master.csv"))
	assert.Equal(t, [][]string{
		{"id", "name"},
		{"1", "Italian"},
		{"2", "Mexican"},
	}, rows)
}

func TestSink_CategoryStreamErrorSurfaces(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, common.GetLogger())
	require.NoError(t, err)
	defer sink.Close()

	// A directory squatting on the target path makes every write step fail;
	// none of them may pass silently.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "category_master.csv"), 0755))

	err = sink.WriteCategories([]models.Category{{ID: 1, Name: "Italian"}})
	assert.Error(t, err)
}

func TestSink_AppendStreamsAndColumnOrder(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, common.GetLogger())
	require.NoError(t, err)

	require.NoError(t, sink.AppendRecipe(models.RecipeRecord{
		CookingID:        1,
		CookingName:      "Grilled Salmon",
		Description:      "Quick, easy",
		ForHowManyPeople: "Serves 4",
		ServingSize:      "1 fillet",
		RootCategoryID:   2,
	}))
	require.NoError(t, sink.AppendIngredients([]models.IngredientRecord{
		{CookingID: 1, IngredientsName: "Salmon", QuantityUS: "1 lb", QuantityMetric: "450 g"},
	}))
	require.NoError(t, sink.AppendNutrition([]models.NutritionRecord{
		{CookingID: 1, NutritionName: "Calories", Quantity: "320"},
		{CookingID: 1, NutritionName: "Total Fat", Quantity: "18g"},
	}))
	require.NoError(t, sink.Close())

	// No header rows on the append streams; fixed column orders.
	recipes := readCSV(t, filepath.Join(dir, "cooking_info.csv"))
	assert.Equal(t, [][]string{{"1", "Grilled Salmon", "Quick, easy", "Serves 4", "1 fillet", "2"}}, recipes)

	ingredients := readCSV(t, filepath.Join(dir, "ingredients.csv"))
	assert.Equal(t, [][]string{{"Salmon", "1 lb", "450 g", "1"}}, ingredients)

	nutrition := readCSV(t, filepath.Join(dir, "nutrition.csv"))
	assert.Equal(t, [][]string{
		{"Calories", "320", "1"},
		{"Total Fat", "18g", "1"},
	}, nutrition)
}

func TestSink_ReopenAppends(t *testing.T) {
	dir := t.TempDir()

	sink, err := New(dir, common.GetLogger())
	require.NoError(t, err)
	require.NoError(t, sink.AppendRecipe(models.RecipeRecord{CookingID: 1, CookingName: "A"}))
	require.NoError(t, sink.Close())

	sink, err = New(dir, common.GetLogger())
	require.NoError(t, err)
	require.NoError(t, sink.AppendRecipe(models.RecipeRecord{CookingID: 2, CookingName: "B"}))
	require.NoError(t, sink.Close())

	rows := readCSV(t, filepath.Join(dir, "cooking_info.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0][0])
	assert.Equal(t, "2", rows[1][0])
}

func TestSink_EmptyAppendsWriteNothing(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, common.GetLogger())
	require.NoError(t, err)

	require.NoError(t, sink.AppendIngredients(nil))
	require.NoError(t, sink.AppendNutrition(nil))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(filepath.Join(dir, "ingredients.csv"))
	require.NoError(t, err)
	assert.Empty(t, data)
}
