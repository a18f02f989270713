package acl

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"

	"github.com/jsamuelsen/neuroboss/internal/ports"
)

// completion is the part of a Responses API result the application sees.
type completion struct {
	ID           string
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// toResponseParams builds a Responses API request from a prompt.
// The input is a single user message and the output format is the prompt's JSON schema.
func toResponseParams(prompt ports.Prompt) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: prompt.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(prompt.Input, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   prompt.SchemaName,
					Schema: prompt.Schema,
					Strict: openai.Bool(prompt.Strict),
				},
			},
		},
	}

	if prompt.Instruction != "" {
		params.Instructions = openai.String(prompt.Instruction)
	}

	return params
}

// fromResponse extracts the concatenated output text and token usage.
func fromResponse(resp *responses.Response) completion {
	if resp == nil {
		return completion{}
	}

	return completion{
		ID:           resp.ID,
		Text:         resp.OutputText(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}
}
