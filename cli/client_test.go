package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *ApiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewApiClient()
	c.BaseURL = srv.URL
	return c
}

func TestGenerateRecipes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/recipes", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "eggs", req.Ingredients)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recipes":[{"recipeName":"Omelette","ingredients":["eggs"],"instructions":["Whisk","Cook"]}],"count":1}`))
	})

	recipes, err := client.GenerateRecipes(context.Background(), "eggs")
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Omelette", recipes[0].RecipeName)
	assert.Equal(t, []string{"Whisk", "Cook"}, recipes[0].Instructions)
}

func TestGenerateRecipesError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"API quota exceeded. Please check your Gemini API plan and billing.","kind":"quota_exceeded"}`))
	})

	_, err := client.GenerateRecipes(context.Background(), "eggs")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "quota_exceeded", apiErr.Kind)
	assert.Equal(t, "API quota exceeded. Please check your Gemini API plan and billing.", err.Error())
}

func TestGenerateRecipesNonJSONError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := client.GenerateRecipes(context.Background(), "eggs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCheckHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	ok, err := client.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecipeDetailViewKeepsOrder(t *testing.T) {
	view := recipeDetailView(Recipe{
		RecipeName:   "Fried Rice",
		Ingredients:  []string{"rice", "egg"},
		Instructions: []string{"Heat wok", "Add rice", "Serve"},
	})

	assert.Contains(t, view, "1. Heat wok")
	assert.Contains(t, view, "3. Serve")
	assert.Less(t, strings.Index(view, "• rice"), strings.Index(view, "• egg"))
}

func TestUpdateHandlesResults(t *testing.T) {
	m := initialModel(&ApiClient{BaseURL: "http://example.invalid"})
	m.loading = true

	next, _ := m.Update(recipesMsg{recipes: []Recipe{{RecipeName: "A"}, {RecipeName: "B"}}})
	model := next.(Model)
	assert.False(t, model.loading)
	assert.Equal(t, viewRecipes, model.currentView)
	assert.Len(t, model.recipeList.Items(), 2)

	next, _ = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, viewInput, next.(Model).currentView)

	next, _ = next.(Model).Update(errorMsg{err: "boom"})
	assert.Equal(t, "boom", next.(Model).error)
}
