package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// receiptSchema constrains Gemini's output to the Receipt shape.
var receiptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"date": {
			Type:        genai.TypeString,
			Description: "Purchase date in YYYY-MM-DD format",
		},
		"total_amount": {
			Type:        genai.TypeNumber,
			Description: "Receipt grand total as printed",
		},
		"items": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":     {Type: genai.TypeString},
					"quantity": {Type: genai.TypeInteger},
					"unit":     {Type: genai.TypeString},
					"price":    {Type: genai.TypeNumber},
					"stock_id": {Type: genai.TypeString},
					"vendor":   {Type: genai.TypeString},
					"comment":  {Type: genai.TypeString},
				},
				Required: []string{"name", "quantity", "unit", "price", "stock_id", "vendor", "comment"},
			},
		},
	},
	Required: []string{"date", "total_amount", "items"},
}

// Gemini implements the Extractor interface using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Extractor instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = receiptSchema

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// ExtractReceipt sends the fixed instruction plus the image to Gemini and
// parses the structured response into a Receipt. Exactly one model call.
func (g *Gemini) ExtractReceipt(img EncodedImage) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// genai.ImageData expects just the format suffix (e.g. "jpeg"), not the
	// full MIME type.
	parts := []genai.Part{
		genai.ImageData(img.Format(), img.Data),
		genai.Text(receiptPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("%w: generating content: %w", ErrExtraction, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no response from gemini", ErrExtraction)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	receipt, err := decodeReceipt(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	return receipt, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
