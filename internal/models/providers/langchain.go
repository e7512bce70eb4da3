package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// LangChainProvider adapts any langchaingo model (OpenAI, Google AI, ...) to the
// Provider interface. langchaingo has no response-schema option, so the schema is
// appended to the prompt and JSON mode is requested instead.
type LangChainProvider struct {
	name   string
	client llms.Model
}

// NewLangChainProvider wraps a langchaingo model under the given provider name.
func NewLangChainProvider(name string, client llms.Model) *LangChainProvider {
	return &LangChainProvider{name: name, client: client}
}

// Name returns the provider name
func (p *LangChainProvider) Name() string {
	return p.name
}

// Generate implements the Provider interface
func (p *LangChainProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	prompt, wrapped, err := schemaPrompt(req)
	if err != nil {
		return nil, err
	}

	opts := []llms.CallOption{}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.ResponseMIMEType == MIMETypeJSON {
		opts = append(opts, llms.WithJSONMode())
	}

	response, err := p.client.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: generate content: %w", p.name, err)
	}

	if response == nil || len(response.Choices) == 0 || response.Choices[0].Content == "" {
		return nil, ErrEmptyResponse
	}

	text := response.Choices[0].Content
	if wrapped {
		text = unwrapItems(text)
	}

	return &Response{
		Text: text,
		Metadata: map[string]interface{}{
			"model":         req.Model,
			"finish_reason": response.Choices[0].StopReason,
		},
	}, nil
}

// JSON mode on several backends only allows an object at the top level, so an
// array schema is requested as {"items": [...]} and unwrapped afterwards.
func schemaPrompt(req Request) (string, bool, error) {
	if req.Schema == nil {
		return req.Prompt, false, nil
	}

	schema := req.Schema
	wrapped := req.ResponseMIMEType == MIMETypeJSON && schema.Type == TypeArray
	if wrapped {
		schema = &Schema{
			Type:       TypeObject,
			Properties: map[string]*Schema{"items": req.Schema},
			Required:   []string{"items"},
		}
	}

	encoded, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", false, fmt.Errorf("marshal response schema: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Prompt))
	b.WriteString("\n\nRespond only with JSON that matches this schema, without markdown fences:\n")
	b.Write(encoded)
	return b.String(), wrapped, nil
}

func unwrapItems(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return text
	}
	var envelope struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil || len(envelope.Items) == 0 {
		return text
	}
	return string(envelope.Items)
}
