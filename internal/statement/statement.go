// Package statement runs the upload pipeline: validate, extract text, parse
// with the selected bank grammar, normalize.
package statement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taxtally/deductions/internal/common"
	"taxtally/deductions/internal/factory"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parser"
	"taxtally/deductions/internal/parsererror"
	"taxtally/deductions/internal/pdfparser"
	"taxtally/deductions/internal/validation"
)

// Upload is one statement file submitted for parsing.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
	Bank        string
}

// Metadata describes how a statement was parsed.
type Metadata struct {
	Bank           models.BankID         `json:"bank"`
	FileName       string                `json:"fileName"`
	FileSize       int                   `json:"fileSize"`
	Parser         string                `json:"parser"`
	ParsedAt       time.Time             `json:"parsedAt"`
	SignConvention parser.SignConvention `json:"signConvention"`
}

// Result is a successful parse.
type Result struct {
	Success          bool                    `json:"success"`
	Transactions     []models.RawTransaction `json:"transactions"`
	TransactionCount int                     `json:"transactionCount"`
	PageCount        int                     `json:"pageCount"`
	Metadata         Metadata                `json:"metadata"`
}

// Service processes uploads.
type Service struct {
	extractor pdfparser.Extractor
	logger    logging.Logger
	maxBytes  int64
	clock     parser.Clock
}

// NewService creates a statement service. maxBytes <= 0 uses
// validation.DefaultMaxUploadBytes; a nil clock uses time.Now.
func NewService(extractor pdfparser.Extractor, logger logging.Logger, maxBytes int64, clock parser.Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	if maxBytes <= 0 {
		maxBytes = validation.DefaultMaxUploadBytes
	}
	return &Service{extractor: extractor, logger: logger, maxBytes: maxBytes, clock: clock}
}

// MaxBytes returns the upload ceiling.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Process validates and parses an upload. Validation failures are returned
// before the extractor is touched. A readable statement that yields no
// transactions is reported as *parsererror.NoTransactionsError.
func (s *Service) Process(ctx context.Context, upload Upload) (*Result, error) {
	if err := validation.ValidateUpload(upload.FileName, upload.ContentType, upload.Data, upload.Bank, s.maxBytes); err != nil {
		s.logger.Warn("Rejected statement upload",
			logging.F(logging.FieldFile, upload.FileName),
			logging.F(logging.FieldReason, err.Error()))
		return nil, err
	}
	bank := models.BankID(strings.ToLower(upload.Bank))

	p, err := factory.GetParserWithLogger(bank, s.logger, s.clock)
	if err != nil {
		return nil, &parsererror.ValidationError{Field: "bank", Reason: err.Error()}
	}

	start := s.clock()
	doc, err := s.extractor.Extract(ctx, upload.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract statement text: %w", err)
	}

	txs := parser.Run(p, doc.Text)
	accountID := common.AccountIDFromFileName(bank, upload.FileName)
	for i := range txs {
		txs[i].AccountID = accountID
	}

	log := s.logger.WithFields(
		logging.F(logging.FieldFile, upload.FileName),
		logging.F(logging.FieldBank, string(bank)),
		logging.F("pages", doc.PageCount))

	if len(txs) == 0 {
		log.Warn("No transactions matched the statement grammar")
		return nil, &parsererror.NoTransactionsError{
			Bank:      string(bank),
			PageCount: doc.PageCount,
			Hint:      noTransactionsHint(bank),
		}
	}

	log.Info("Parsed statement",
		logging.F(logging.FieldCount, len(txs)),
		logging.F(logging.FieldDuration, s.clock().Sub(start).Milliseconds()))

	return &Result{
		Success:          true,
		Transactions:     txs,
		TransactionCount: len(txs),
		PageCount:        doc.PageCount,
		Metadata: Metadata{
			Bank:           bank,
			FileName:       upload.FileName,
			FileSize:       len(upload.Data),
			Parser:         fmt.Sprintf("%sparser", bank),
			ParsedAt:       s.clock().UTC(),
			SignConvention: p.Convention(),
		},
	}, nil
}

func noTransactionsHint(bank models.BankID) string {
	return fmt.Sprintf("The statement was read but no %s transaction lines were recognised. "+
		"Check that the selected bank matches the statement, and that the PDF is a text statement rather than a scan.",
		strings.ToUpper(string(bank)))
}
