package models

import "time"

// Category is a selectable cuisine filter exposed by the catalog UI.
// The ID matches the 1-based position of the filter control on the page
// and never changes after discovery.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RecipeRecord is the metadata row extracted from one recipe document.
// CookingID is unique and monotonically increasing across a run.
type RecipeRecord struct {
	CookingID        int    `json:"cooking_id"`
	CookingName      string `json:"cooking_name"`
	Description      string `json:"description"`
	ForHowManyPeople string `json:"for_how_many_people"`
	ServingSize      string `json:"serving_size"`
	RootCategoryID   int    `json:"root_category_id"`
}

// IngredientRecord is one ingredient line of a recipe. Entries missing a
// name, a US quantity, or a metric quantity are never constructed.
type IngredientRecord struct {
	CookingID       int    `json:"cooking_id"`
	IngredientsName string `json:"ingredients_name"`
	QuantityUS      string `json:"quantity_us"`
	QuantityMetric  string `json:"quantity_metric"`
}

// NutritionRecord is one nutrition fact of a recipe. The first record for
// every recipe is the calories entry.
type NutritionRecord struct {
	CookingID     int    `json:"cooking_id"`
	NutritionName string `json:"nutrition_name"`
	Quantity      string `json:"quantity"`
}

// CategoryCount summarizes the crawl outcome for one category.
type CategoryCount struct {
	CategoryID int    `json:"category_id"`
	Name       string `json:"name"`
	Links      int    `json:"links"`
	Saved      int    `json:"saved"`
	Skipped    int    `json:"skipped"`
}

// RunSummary captures the outcome of one crawl run for the history store.
type RunSummary struct {
	ID          string          `json:"id" badgerhold:"key"`
	StartedAt   time.Time       `json:"started_at"`
	Duration    time.Duration   `json:"duration"`
	Categories  int             `json:"categories"`
	Recipes     int             `json:"recipes"`
	Skipped     int             `json:"skipped"`
	PerCategory []CategoryCount `json:"per_category"`
	Error       string          `json:"error,omitempty"`
}
