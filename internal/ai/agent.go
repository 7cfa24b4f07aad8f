package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// AssistantReply is the structured answer the model must produce.
type AssistantReply struct {
	Answer     string   `json:"answer" jsonschema_description:"Direct answer to the question, in the language the question was asked in"`
	Figures    []Figure `json:"figures" jsonschema_description:"Concrete numbers the answer is based on, taken from the snapshot"`
	Confidence float64  `json:"confidence" jsonschema_description:"Confidence in the answer, 0.0 to 1.0"`
}

// Figure is one named number cited by the assistant.
type Figure struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type AgentService interface {
	AnswerQuestion(ctx context.Context, question string, snapshot string) (*AssistantReply, error)
}

// Agent answers pipeline and ledger questions against a read-only data
// snapshot the caller assembles. It never writes anything.
type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

func (a *Agent) AnswerQuestion(ctx context.Context, question string, snapshot string) (*AssistantReply, error) {
	prompt := fmt.Sprintf(`You are the operations assistant of a sales agency.
You answer questions about the sales pipeline and the financial ledger.
Rules:
1. Use ONLY the data in the snapshot below. Never invent figures.
2. Amounts in the snapshot are exact decimal strings; quote them as-is.
3. If the snapshot cannot answer the question, say so and set confidence below 0.3.
4. Answer in the language the question was asked in.

Data snapshot (JSON):
%s

Question: %s`, snapshot, question)

	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "assistant_reply",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A grounded answer about the pipeline or ledger"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var reply AssistantReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	return &reply, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v AssistantReply
	return reflector.Reflect(v)
}
