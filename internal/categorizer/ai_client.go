package categorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// AIRequest is one merchant sent to the AI tier.
type AIRequest struct {
	MerchantKey string   `json:"merchantKey"`
	Description string   `json:"description"`
	Amount      string   `json:"amount,omitempty"`
	Categories  []string `json:"categories"`
}

// AIResult is the model's answer for one merchant.
type AIResult struct {
	MerchantName string `json:"merchantName"`
	ATOCategory  string `json:"atoCategory"`
	IsDeductible bool   `json:"isDeductible"`
	Confidence   int    `json:"confidence"`
	AnzsicCode   string `json:"anzsicCode"`
	Reasoning    string `json:"reasoning,omitempty"`
}

// AIClient classifies merchants the heuristics were unsure about.
type AIClient interface {
	Classify(ctx context.Context, req AIRequest) (AIResult, error)
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// parseAIResponse pulls the JSON object out of a model reply, tolerating
// code fences and surrounding prose.
func parseAIResponse(text string) (AIResult, error) {
	raw := jsonObject.FindString(strings.TrimSpace(text))
	if raw == "" {
		return AIResult{}, fmt.Errorf("no JSON object in AI response")
	}
	var result AIResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return AIResult{}, fmt.Errorf("invalid AI response: %w", err)
	}
	if strings.TrimSpace(result.ATOCategory) == "" {
		return AIResult{}, fmt.Errorf("AI response has no category")
	}
	return result, nil
}

func buildPrompt(req AIRequest) string {
	var b strings.Builder
	b.WriteString("You classify Australian bank transactions for income tax deduction purposes.\n")
	fmt.Fprintf(&b, "Merchant: %s\n", req.MerchantKey)
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	if req.Amount != "" {
		fmt.Fprintf(&b, "Amount (AUD): %s\n", req.Amount)
	}
	b.WriteString("\nChoose exactly one ATO category from this list, or \"Other\" if none applies:\n")
	for _, c := range req.Categories {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString(`
Respond with a single JSON object and nothing else:
{"merchantName": "<clean merchant name>", "atoCategory": "<category>", "isDeductible": <true|false>, "confidence": <0-100>, "anzsicCode": "<4-digit ANZSIC 2006 class>", "reasoning": "<one sentence>"}`)
	return b.String()
}
