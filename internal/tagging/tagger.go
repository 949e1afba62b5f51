// Package tagging generates short descriptive tags from free-text trade
// notes via a schema-constrained completion.
package tagging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tradelm/tradelm-ai/internal/llm"
)

// Request is the auto-tagging payload from the main backend.
type Request struct {
	Notes string `json:"notes" validate:"required"`
}

// Response is the structured shape the model is mandated to return.
type Response struct {
	Tags []string `json:"tags" jsonschema_description:"A list of generated tags (e.g., 'FOMO', 'Breakout')."`
}

const promptTemplate = `Analyze the following trading journal notes and generate a list of
relevant tags. The tags should be short (e.g., 'FOMO', 'Breakout',
'Poor Exit', 'Reversal', 'Good R:R').
Only return the JSON object.

NOTES: %s`

// Tagger runs the single-shot structured tagging request.
type Tagger struct {
	gateway llm.Gateway
	schema  map[string]any
}

// New creates a Tagger. The response schema is reflected once at
// construction.
func New(gateway llm.Gateway) (*Tagger, error) {
	schema, err := llm.SchemaFor(&Response{})
	if err != nil {
		return nil, fmt.Errorf("reflecting tagging schema: %w", err)
	}
	return &Tagger{gateway: gateway, schema: schema}, nil
}

// Tag analyzes trade notes and returns the generated tags in model order.
// Output that does not validate against the response schema is a
// provider-kind error, never coerced.
func (t *Tagger) Tag(ctx context.Context, notes string) ([]string, error) {
	raw, err := t.gateway.CompleteStructured(ctx, fmt.Sprintf(promptTemplate, notes), "tagging_response", t.schema)
	if err != nil {
		return nil, err
	}

	var resp Response
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&resp); err != nil {
		return nil, &llm.Error{Kind: llm.KindProvider, Message: "malformed structured output", Err: err}
	}
	if resp.Tags == nil {
		return nil, &llm.Error{Kind: llm.KindProvider, Message: "structured output missing tags"}
	}
	return resp.Tags, nil
}
