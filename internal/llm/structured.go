package llm

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// SchemaFor reflects a JSON schema for the given struct, inlined and closed
// to additional properties so it can be handed to the provider's
// structured-output response format verbatim.
func SchemaFor(v any) (map[string]any, error) {
	reflector := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(v)
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteStructured performs a single-shot completion whose output the
// provider constrains to the given JSON schema. The raw JSON is returned
// unparsed; strict validation belongs to the caller.
func (c *OpenAICompatClient) CompleteStructured(ctx context.Context, prompt, schemaName string, schema map[string]any) (json.RawMessage, error) {
	if c.client == nil {
		return nil, newError(KindUnavailable, "provider client is not initialized", nil)
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Strict: param.NewOpt(true),
					Schema: schema,
				},
			},
		},
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(completion.Choices) == 0 {
		return nil, newError(KindUnexpected, "no choices returned", nil)
	}
	return json.RawMessage(completion.Choices[0].Message.Content), nil
}
