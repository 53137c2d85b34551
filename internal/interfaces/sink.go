package interfaces

import "github.com/ternarybob/coquo/internal/models"

// RecordSink is the append-only output contract. The category stream is
// written once in full before the crawl; the other streams grow row by row
// and no row is ever mutated or removed. Callers append a recipe's child
// records only after its RecipeRecord, since downstream joins rely on
// append order.
type RecordSink interface {
	WriteCategories(categories []models.Category) error
	AppendRecipe(recipe models.RecipeRecord) error
	AppendIngredients(ingredients []models.IngredientRecord) error
	AppendNutrition(nutrition []models.NutritionRecord) error
	Close() error
}
