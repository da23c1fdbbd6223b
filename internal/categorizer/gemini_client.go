package categorizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"taxtally/deductions/internal/logging"
)

// GeminiClient implements AIClient with Google's Gemini models.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger logging.Logger
}

// NewGeminiClient dials the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, modelName string, logger logging.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)
	return &GeminiClient{client: client, model: model, logger: logger}, nil
}

// Classify sends one merchant to the model.
func (g *GeminiClient) Classify(ctx context.Context, req AIRequest) (AIResult, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(buildPrompt(req)))
	if err != nil {
		return AIResult{}, fmt.Errorf("gemini API error: %w", err)
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		break
	}
	if text.Len() == 0 {
		return AIResult{}, fmt.Errorf("no response from Gemini API")
	}

	result, err := parseAIResponse(text.String())
	if err != nil {
		return AIResult{}, err
	}
	g.logger.Debug("Gemini classified merchant",
		logging.F(logging.FieldMerchant, req.MerchantKey),
		logging.F(logging.FieldCategory, result.ATOCategory),
		logging.F(logging.FieldConfidence, result.Confidence))
	return result, nil
}

// Close releases the client.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}
