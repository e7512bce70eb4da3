package generation

import (
	"fmt"

	"recipegen/internal/models/providers"
)

const promptTemplate = `You are a creative chef. Based on the following ingredients, generate 3 unique and delicious recipe ideas.
The ingredients I have are: %s.

For each recipe, provide a name, a brief description, a list of all required ingredients (including the ones provided and any others needed), step-by-step instructions, preparation time, and cooking time.
Ensure the output is a valid JSON array matching the provided schema, where each object has the fields recipeName, description, ingredients (array of strings), instructions (array of strings), prepTime and cookTime.`

// BuildPrompt renders the instruction sent with every request.
func BuildPrompt(ingredients string) string {
	return fmt.Sprintf(promptTemplate, ingredients)
}

var recipeFields = []string{"recipeName", "description", "ingredients", "instructions", "prepTime", "cookTime"}

// RecipeSchema describes the expected response: an array of recipe objects
// with every field required.
func RecipeSchema() *providers.Schema {
	str := func(desc string) *providers.Schema {
		return &providers.Schema{Type: providers.TypeString, Description: desc}
	}
	list := func(desc string) *providers.Schema {
		return &providers.Schema{
			Type:        providers.TypeArray,
			Description: desc,
			Items:       &providers.Schema{Type: providers.TypeString},
		}
	}

	return &providers.Schema{
		Type: providers.TypeArray,
		Items: &providers.Schema{
			Type: providers.TypeObject,
			Properties: map[string]*providers.Schema{
				"recipeName":   str("The name of the recipe."),
				"description":  str("A short, enticing description of the dish."),
				"ingredients":  list("A list of all ingredients required for the recipe."),
				"instructions": list("Step-by-step instructions to prepare the dish."),
				"prepTime":     str("Estimated preparation time (e.g., '15 minutes')."),
				"cookTime":     str("Estimated cooking time (e.g., '30 minutes')."),
			},
			PropertyOrdering: append([]string(nil), recipeFields...),
			Required:         append([]string(nil), recipeFields...),
		},
	}
}
