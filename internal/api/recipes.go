package api

import (
	"context"
	"net/http"

	"recipegen/internal/generation"
	"recipegen/internal/models"
	"recipegen/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Generator produces recipes for an ingredient list
type Generator interface {
	Generate(ctx context.Context, ingredients string) ([]models.Recipe, error)
}

// RecipeAPI serves the stateless JSON endpoints
type RecipeAPI struct {
	generator Generator
	monitor   *monitoring.Monitor
	log       zerolog.Logger
}

// GenerateRequest is the body of POST /api/v1/recipes
type GenerateRequest struct {
	Ingredients string `json:"ingredients"`
}

// GenerateResponse is the success body of POST /api/v1/recipes
type GenerateResponse struct {
	Recipes []models.Recipe `json:"recipes"`
	Count   int             `json:"count"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error string          `json:"error"`
	Kind  generation.Kind `json:"kind,omitempty"`
}

// NewRecipeAPI creates a new recipe API instance
func NewRecipeAPI(generator Generator, monitor *monitoring.Monitor, log zerolog.Logger) *RecipeAPI {
	return &RecipeAPI{
		generator: generator,
		monitor:   monitor,
		log:       log,
	}
}

// RegisterRoutes mounts the health check and the /api/v1 group on r
func (a *RecipeAPI) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "recipegen is running"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/recipes", a.GenerateRecipes)
		v1.GET("/metrics", a.GetMetrics)
	}
}

// GenerateRecipes runs one synchronous generation. Each request stands alone;
// it does not touch any browser session.
func (a *RecipeAPI) GenerateRecipes(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	recipes, err := a.generator.Generate(c.Request.Context(), req.Ingredients)
	if err != nil {
		kind := generation.KindOf(err)
		a.log.Warn().Str("kind", string(kind)).Msg("api generation failed")
		c.JSON(StatusFor(kind), ErrorResponse{Error: kind.Message(), Kind: kind})
		return
	}

	if recipes == nil {
		recipes = []models.Recipe{}
	}
	c.JSON(http.StatusOK, GenerateResponse{Recipes: recipes, Count: len(recipes)})
}

// GetMetrics returns the in-memory monitor snapshot
func (a *RecipeAPI) GetMetrics(c *gin.Context) {
	if a.monitor == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, a.monitor.GetMetrics())
}

// StatusFor maps a failure kind to an HTTP status code
func StatusFor(kind generation.Kind) int {
	switch kind {
	case generation.KindEmptyInput:
		return http.StatusBadRequest
	case generation.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case generation.KindInvalidCredential:
		return http.StatusBadGateway
	case generation.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusServiceUnavailable
	}
}
