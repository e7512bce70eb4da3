// Package generation turns an ingredient list into recipes by calling an
// external model provider with a prompt and a response schema, and maps every
// failure onto a small set of user-facing kinds.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipegen/internal/models"
	"recipegen/internal/models/providers"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// DefaultModel is the model identifier used unless overridden.
const DefaultModel = models.DefaultGeminiModel

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 60 * time.Second

// KindOK is the outcome label recorded for successful attempts.
const KindOK = "ok"

// ErrNoProvider is returned by New when no provider is supplied.
var ErrNoProvider = errors.New("generation: provider is required")

// Recorder receives one event per finished attempt.
type Recorder interface {
	RecordGeneration(kind string, d time.Duration)
}

// inFlightTracker is implemented by recorders that also count attempts
// currently waiting on the provider.
type inFlightTracker interface {
	GenerationStarted()
	GenerationFinished()
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRecorder reports attempt outcomes, e.g. to a monitoring.Monitor.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// Client generates recipes through a provider.
type Client struct {
	provider providers.Provider
	model    string
	timeout  time.Duration
	log      zerolog.Logger
	recorder Recorder
	validate *validator.Validate
}

// New creates a Client. The provider must already hold its credential.
func New(provider providers.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	c := &Client{
		provider: provider,
		model:    DefaultModel,
		timeout:  DefaultTimeout,
		log:      zerolog.Nop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Model returns the model identifier sent with each request.
func (c *Client) Model() string {
	return c.model
}

// Generate asks the provider for recipes built from ingredients. Any failure is
// returned as *Error.
func (c *Client) Generate(ctx context.Context, ingredients string) ([]models.Recipe, error) {
	if strings.TrimSpace(ingredients) == "" {
		return nil, &Error{Kind: KindEmptyInput}
	}

	if t, ok := c.recorder.(inFlightTracker); ok {
		t.GenerationStarted()
		defer t.GenerationFinished()
	}

	start := time.Now()
	recipes, meta, err := c.generate(ctx, ingredients)
	elapsed := time.Since(start)

	if err != nil {
		kind := Classify(err)
		c.log.Error().
			Err(err).
			Str("kind", string(kind)).
			Str("provider", c.provider.Name()).
			Str("model", c.model).
			Dur("elapsed", elapsed).
			Msg("Error generating recipes")
		c.record(string(kind), elapsed)
		return nil, &Error{Kind: kind, Err: err}
	}

	c.log.Debug().
		Int("recipes", len(recipes)).
		Str("model", c.model).
		Interface("finish_reason", meta["finish_reason"]).
		Interface("usage", meta["usage"]).
		Dur("elapsed", elapsed).
		Msg("generated recipes")
	c.record(KindOK, elapsed)
	return recipes, nil
}

func (c *Client) generate(ctx context.Context, ingredients string) ([]models.Recipe, map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.provider.Generate(ctx, providers.Request{
		Model:            c.model,
		Prompt:           BuildPrompt(ingredients),
		ResponseMIMEType: providers.MIMETypeJSON,
		Schema:           RecipeSchema(),
	})
	if err != nil {
		return nil, nil, err
	}

	recipes, err := c.decode(resp.Text)
	if err != nil {
		return nil, nil, err
	}
	return recipes, resp.Metadata, nil
}

// decode parses the provider text and keeps the recipes that pass the rules on
// models.Recipe. A reply where every recipe fails is an error.
func (c *Client) decode(text string) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &recipes); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	if recipes == nil {
		return nil, fmt.Errorf("parse model response: expected a JSON array")
	}

	valid := recipes[:0]
	var lastErr error
	for i := range recipes {
		if err := c.validate.Struct(recipes[i]); err != nil {
			c.log.Warn().Int("index", i).Err(err).Msg("dropping invalid recipe")
			lastErr = fmt.Errorf("recipe %d failed validation: %w", i, err)
			continue
		}
		valid = append(valid, recipes[i])
	}
	if len(valid) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return valid, nil
}

func (c *Client) record(kind string, d time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordGeneration(kind, d)
	}
}
