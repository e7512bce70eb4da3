package models

// Recipe is one generated recipe idea. Ingredients are kept in display order and
// Instructions in execution order. PrepTime and CookTime are free text such as
// "15 minutes" and are never parsed. A recipe needs a name and both lists
// present; empty text and empty lists are rendered as they are.
type Recipe struct {
	RecipeName   string   `json:"recipeName" validate:"required"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients" validate:"required"`
	Instructions []string `json:"instructions" validate:"required"`
	PrepTime     string   `json:"prepTime"`
	CookTime     string   `json:"cookTime"`
}

// Clone returns a deep copy so callers can hand a recipe to a renderer
// without sharing the backing slices.
func (r Recipe) Clone() Recipe {
	out := r
	out.Ingredients = append([]string(nil), r.Ingredients...)
	out.Instructions = append([]string(nil), r.Instructions...)
	return out
}

// CloneRecipes deep-copies a result set, preserving order.
func CloneRecipes(recipes []Recipe) []Recipe {
	if recipes == nil {
		return nil
	}
	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = r.Clone()
	}
	return out
}
