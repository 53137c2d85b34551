package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ternarybob/coquo/internal/models"
)

const (
	nameSelector         = `span[itemprop="name"]`
	descriptionSelector  = "div.recipe__description"
	servingsSelector     = "div.nutrition__content p"
	servingSizeSelector  = `ul.nutrition__servings div[itemprop="servingSize"] b`
	ingredientSelector   = `li[itemprop="recipeIngredient"]`
	nutritionTopSelector = "div.nutrition__top ul"
	caloriesNameSelector = "span.h3 b"
	caloriesQtySelector  = `span[itemprop="calories"]`
)

// Result bundles the three record sets extracted from one recipe document.
// Identifiers are zero until stamped.
type Result struct {
	Recipe      models.RecipeRecord
	Ingredients []models.IngredientRecord
	Nutrition   []models.NutritionRecord
}

// Stamp assigns the allocated identifier and owning category to every record
func (r *Result) Stamp(cookingID, categoryID int) {
	r.Recipe.CookingID = cookingID
	r.Recipe.RootCategoryID = categoryID
	for i := range r.Ingredients {
		r.Ingredients[i].CookingID = cookingID
	}
	for i := range r.Nutrition {
		r.Nutrition[i].CookingID = cookingID
	}
}

// Extract parses a recipe document and runs the three extraction routines.
// Pure: no I/O, no shared state. sourceURL is only used in error reporting.
func Extract(rawHTML []byte, sourceURL string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipe document: %w", err)
	}

	recipe, err := extractRecipe(doc, sourceURL)
	if err != nil {
		return nil, err
	}

	nutrition, err := extractNutrition(doc, sourceURL)
	if err != nil {
		return nil, err
	}

	return &Result{
		Recipe:      *recipe,
		Ingredients: extractIngredients(doc),
		Nutrition:   nutrition,
	}, nil
}

func extractRecipe(doc *goquery.Document, sourceURL string) (*models.RecipeRecord, error) {
	name := doc.Find(nameSelector).First()
	if name.Length() == 0 {
		return nil, &models.StructureError{Selector: nameSelector, URL: sourceURL}
	}

	servings := doc.Find(servingsSelector).First()
	if servings.Length() == 0 {
		return nil, &models.StructureError{Selector: servingsSelector, URL: sourceURL}
	}

	return &models.RecipeRecord{
		CookingName:      strings.TrimSpace(name.Text()),
		Description:      extractDescription(doc),
		ForHowManyPeople: strings.TrimSpace(servings.Text()),
		// Serving size is optional; absence yields the empty string.
		ServingSize: strings.TrimSpace(doc.Find(servingSizeSelector).First().Text()),
	}, nil
}

// extractDescription resolves the three-tier fallback: the first paragraph
// inside the description container, then the container's first text node,
// then empty. Exactly one tier is chosen per input shape.
func extractDescription(doc *goquery.Document) string {
	container := doc.Find(descriptionSelector).First()
	if container.Length() == 0 {
		return ""
	}
	if p := container.Find("p").First(); p.Length() > 0 {
		return stripLayoutChars(p.Text())
	}
	return stripLayoutChars(firstTextNode(container.Nodes[0]))
}

func extractIngredients(doc *goquery.Document) []models.IngredientRecord {
	var ingredients []models.IngredientRecord
	doc.Find(ingredientSelector).Each(func(_ int, item *goquery.Selection) {
		name := item.Find("dl dt b").First()
		us := item.Find(`dl dd[data-unit="us"]`).First()
		metric := item.Find(`dl dd[data-unit="metric"]`).First()

		// An entry missing any of the three fields is dropped whole.
		if name.Length() == 0 || us.Length() == 0 || metric.Length() == 0 {
			return
		}

		ingredients = append(ingredients, models.IngredientRecord{
			IngredientsName: name.Text(),
			QuantityUS:      us.Text(),
			QuantityMetric:  metric.Text(),
		})
	})
	return ingredients
}

func extractNutrition(doc *goquery.Document, sourceURL string) ([]models.NutritionRecord, error) {
	top := doc.Find(nutritionTopSelector).First()
	if top.Length() == 0 {
		return nil, &models.StructureError{Selector: nutritionTopSelector, URL: sourceURL}
	}

	calName := top.Find(caloriesNameSelector).First()
	calQty := top.Find(caloriesQtySelector).First()
	if calName.Length() == 0 {
		return nil, &models.StructureError{Selector: caloriesNameSelector, URL: sourceURL}
	}
	if calQty.Length() == 0 {
		return nil, &models.StructureError{Selector: caloriesQtySelector, URL: sourceURL}
	}

	nutrition := []models.NutritionRecord{{
		NutritionName: strings.TrimSpace(calName.Text()),
		Quantity:      strings.TrimSpace(calQty.Text()),
	}}

	next := nextElement(top.Nodes[0], "ul")
	if next == nil {
		return nutrition, nil
	}

	doc.FindNodes(next).Find("li").Each(func(_ int, item *goquery.Selection) {
		if fact, ok := extractNutritionItem(item); ok {
			nutrition = append(nutrition, fact)
		}
	})

	return nutrition, nil
}

// extractNutritionItem handles the two markup shapes the site uses
// interchangeably. With a bold label the label is the name and the nested
// quantity span wins over the second content node; without one the first
// content node is the name and the nested span holds the quantity. The
// shapes must not be mixed or name and quantity silently swap.
func extractNutritionItem(item *goquery.Selection) (models.NutritionRecord, bool) {
	span := item.Find("span").First()
	if span.Length() == 0 {
		return models.NutritionRecord{}, false
	}

	bold := span.Find("b").First()
	nested := span.Find("span").First()

	if bold.Length() > 0 {
		quantity := ""
		if nested.Length() > 0 {
			quantity = nested.Text()
		} else {
			quantity = childNodeText(span.Nodes[0], 1)
		}
		return models.NutritionRecord{
			NutritionName: strings.TrimSpace(bold.Text()),
			Quantity:      strings.TrimSpace(quantity),
		}, true
	}

	if nested.Length() == 0 {
		return models.NutritionRecord{}, false
	}
	return models.NutritionRecord{
		NutritionName: strings.TrimSpace(childNodeText(span.Nodes[0], 0)),
		Quantity:      strings.TrimSpace(nested.Text()),
	}, true
}

// stripLayoutChars removes newline and tab characters carried over from the
// markup's indentation, then trims surrounding spaces.
func stripLayoutChars(s string) string {
	replacer := strings.NewReplacer("\n", "", "\t", "", "\r", "")
	return strings.TrimSpace(replacer.Replace(s))
}

// firstTextNode returns the first direct text-node child of n
func firstTextNode(n *html.Node) string {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			return child.Data
		}
	}
	return ""
}

// childNodeText returns the text of the index-th direct child of n, counting
// element and text nodes alike (element children contribute their text
// content).
func childNodeText(n *html.Node, index int) string {
	i := 0
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.TextNode && child.Type != html.ElementNode {
			continue
		}
		if i == index {
			if child.Type == html.TextNode {
				return child.Data
			}
			var sb strings.Builder
			collectText(child, &sb)
			return sb.String()
		}
		i++
	}
	return ""
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, sb)
	}
}

// nextElement returns the next element with the given tag in document order
// after n's opening tag, descendants included, mirroring how the source
// markup interleaves its nutrition lists.
func nextElement(n *html.Node, tag string) *html.Node {
	for cur := nextNode(n); cur != nil; cur = nextNode(cur) {
		if cur.Type == html.ElementNode && cur.Data == tag {
			return cur
		}
	}
	return nil
}

func nextNode(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}
