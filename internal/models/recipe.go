package models

import "time"

// Recipe represents a recipe document in a tenant's recipes collection.
type Recipe struct {
	ID          string       `bson:"_id" json:"id"`
	Name        string       `bson:"name" json:"name"`
	Category    string       `bson:"category" json:"category"`
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
	Servings    int          `bson:"servings" json:"servings"`
	PrepMinutes int          `bson:"prepMinutes" json:"prepMinutes"`
	CookMinutes int          `bson:"cookMinutes" json:"cookMinutes"`
	Ingredients []Ingredient `bson:"ingredients" json:"ingredients"`
	Steps       []string     `bson:"steps" json:"steps"`
	Tags        []string     `bson:"tags,omitempty" json:"tags,omitempty"`
	PhotoFileID string       `bson:"photoFileId,omitempty" json:"photoFileId,omitempty"`
	Archived    bool         `bson:"archived" json:"archived"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// Ingredient is a single line of a recipe's ingredient list.
type Ingredient struct {
	Name     string  `bson:"name" json:"name"`
	Quantity float64 `bson:"quantity" json:"quantity"`
	Unit     string  `bson:"unit" json:"unit"`
	Note     string  `bson:"note,omitempty" json:"note,omitempty"`
}

// RecipeCategory represents the menu section a recipe belongs to.
type RecipeCategory string

const (
	CategoryStarter RecipeCategory = "starter"
	CategoryMain    RecipeCategory = "main"
	CategorySide    RecipeCategory = "side"
	CategoryDessert RecipeCategory = "dessert"
	CategorySauce   RecipeCategory = "sauce"
	CategoryPrep    RecipeCategory = "prep"
)

// ScaledIngredients returns the ingredient list with quantities scaled to
// the requested servings count. The recipe itself is not modified.
func (r *Recipe) ScaledIngredients(servings int) []Ingredient {
	if r.Servings <= 0 || servings <= 0 {
		return r.Ingredients
	}
	factor := float64(servings) / float64(r.Servings)
	scaled := make([]Ingredient, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ing.Quantity *= factor
		scaled[i] = ing
	}
	return scaled
}

// HasTag reports whether the recipe carries the given tag.
func (r *Recipe) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
