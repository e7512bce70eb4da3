package providers

import (
	"context"
	"errors"
)

// MIMETypeJSON asks a provider to return bare JSON with no prose around it.
const MIMETypeJSON = "application/json"

// ErrMissingAPIKey is returned by provider constructors when no credential is given.
var ErrMissingAPIKey = errors.New("provider API key is not set")

// ErrEmptyResponse is returned when the service answers without any text.
var ErrEmptyResponse = errors.New("provider returned an empty response")

// SchemaType is the type tag used in a response schema.
type SchemaType string

const (
	TypeArray  SchemaType = "ARRAY"
	TypeObject SchemaType = "OBJECT"
	TypeString SchemaType = "STRING"
)

// Schema describes the shape a provider should enforce on its output.
// It serializes to the responseSchema dialect of the Gemini API.
type Schema struct {
	Type             SchemaType         `json:"type"`
	Description      string             `json:"description,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
	Required         []string           `json:"required,omitempty"`
}

// Request is a single generate-content call.
type Request struct {
	Model            string
	Prompt           string
	ResponseMIMEType string
	Schema           *Schema
}

// Response carries the raw text returned by the service.
type Response struct {
	Text     string
	Metadata map[string]interface{}
}

// Provider is an external generative model endpoint.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}
