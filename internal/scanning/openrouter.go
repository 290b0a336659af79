package scanning

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultOpenRouterBase = "https://openrouter.ai/api/v1"

// receiptJSONSchema is the JSON-schema rendition of the Receipt shape, for
// providers speaking the OpenAI response_format dialect.
const receiptJSONSchema = `{
  "type": "object",
  "properties": {
    "date": {"type": "string", "description": "Purchase date in YYYY-MM-DD format"},
    "total_amount": {"type": "number", "description": "Receipt grand total as printed"},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "quantity": {"type": "integer"},
          "unit": {"type": "string"},
          "price": {"type": "number"},
          "stock_id": {"type": "string"},
          "vendor": {"type": "string"},
          "comment": {"type": "string"}
        },
        "required": ["name", "quantity", "unit", "price", "stock_id", "vendor", "comment"],
        "additionalProperties": false
      }
    }
  },
  "required": ["date", "total_amount", "items"],
  "additionalProperties": false
}`

// OpenRouter implements the Extractor interface against any OpenAI-compatible
// chat completions endpoint with structured-output support.
type OpenRouter struct {
	client *resty.Client
	model  string
}

// NewOpenRouter creates a new OpenRouter Extractor instance
func NewOpenRouter(apiKey string, modelName string, baseURL string) (*OpenRouter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter api key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("openrouter model name is required")
	}
	if baseURL == "" {
		baseURL = defaultOpenRouterBase
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(120 * time.Second)

	return &OpenRouter{
		client: client,
		model:  modelName,
	}, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type       string         `json:"type"`
	JSONSchema jsonSchemaSpec `json:"json_schema"`
}

type jsonSchemaSpec struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractReceipt sends one chat completion call carrying the fixed
// instruction and the image as a base64 data URI.
func (o *OpenRouter) ExtractReceipt(img EncodedImage) (*Receipt, error) {
	reqBody := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: receiptPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: img.DataURI()}},
				},
			},
		},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchemaSpec{
				Name:   "receipt",
				Strict: true,
				Schema: json.RawMessage(receiptJSONSchema),
			},
		},
	}

	var respBody chatResponse
	resp, err := o.client.R().
		SetBody(reqBody).
		SetResult(&respBody).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("%w: calling openrouter: %w", ErrExtraction, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: openrouter error (status %d): %s", ErrExtraction, resp.StatusCode(), resp.String())
	}
	if len(respBody.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response from openrouter", ErrExtraction)
	}

	receipt, err := decodeReceipt(respBody.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	return receipt, nil
}

// Close closes the OpenRouter client (no-op for HTTP client)
func (o *OpenRouter) Close() error {
	return nil
}
