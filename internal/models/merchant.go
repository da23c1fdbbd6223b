package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClassificationSource records which tier (or actor) produced a decision.
type ClassificationSource string

const (
	SourceDatabase        ClassificationSource = "database"
	SourceAI              ClassificationSource = "ai"
	SourcePattern         ClassificationSource = "pattern"
	SourceSmartExtraction ClassificationSource = "smart-extraction"
	SourceManual          ClassificationSource = "manual"
	SourceFallback        ClassificationSource = "fallback"
)

// MerchantSource records where a reference merchant came from.
type MerchantSource string

const (
	MerchantSourceSeed    MerchantSource = "seed"
	MerchantSourceLearned MerchantSource = "learned"
	MerchantSourceAI      MerchantSource = "ai"
	MerchantSourceManual  MerchantSource = "manual"
)

// Merchant is a persisted reference merchant used by the database tier.
type Merchant struct {
	MerchantName string         `json:"merchantName" yaml:"merchant_name" firestore:"merchantName"`
	DisplayName  string         `json:"displayName" yaml:"display_name" firestore:"displayName"`
	AnzsicCode   string         `json:"anzsicCode" yaml:"anzsic_code" firestore:"anzsicCode"`
	Keywords     []string       `json:"keywords,omitempty" yaml:"keywords,omitempty" firestore:"keywords"`
	Aliases      []string       `json:"aliases,omitempty" yaml:"aliases,omitempty" firestore:"aliases"`
	Source       MerchantSource `json:"source" yaml:"source" firestore:"source"`
	Confidence   int            `json:"confidence" yaml:"confidence" firestore:"confidence"`
	UsageCount   int            `json:"usageCount" yaml:"usage_count" firestore:"usageCount"`
	IsActive     bool           `json:"isActive" yaml:"is_active" firestore:"isActive"`
	CreatedAt    time.Time      `json:"createdAt" yaml:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt" yaml:"updated_at" firestore:"updatedAt"`
}

// MerchantKey returns the canonical lookup key for a merchant name.
func MerchantKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AnzsicMapping maps a 4-digit ANZSIC industry code to an ATO category.
type AnzsicMapping struct {
	AnzsicCode      string `json:"anzsicCode" yaml:"anzsic_code" firestore:"anzsicCode"`
	Description     string `json:"description" yaml:"description" firestore:"description"`
	ATOCategory     string `json:"atoCategory" yaml:"ato_category" firestore:"atoCategory"`
	IsDeductible    bool   `json:"isDeductible" yaml:"is_deductible" firestore:"isDeductible"`
	ConfidenceLevel int    `json:"confidenceLevel" yaml:"confidence_level" firestore:"confidenceLevel"`
	Source          string `json:"source" yaml:"source" firestore:"source"`
	IsActive        bool   `json:"isActive" yaml:"is_active" firestore:"isActive"`
}

// NormalizeAnzsicCode zero-pads numeric codes to four digits. Non-numeric
// input is returned trimmed and unchanged.
func NormalizeAnzsicCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 0 {
		return code
	}
	return fmt.Sprintf("%04d", n)
}
