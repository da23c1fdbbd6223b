package pdfparser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/parsererror"
)

const defaultMaxTextBytes = 4 << 20

// LibraryExtractor reads PDFs in-process with github.com/ledongthuc/pdf,
// rebuilding lines from the text rows of each page.
type LibraryExtractor struct {
	logger       logging.Logger
	maxTextBytes int
}

// NewLibraryExtractor creates a LibraryExtractor.
func NewLibraryExtractor(logger logging.Logger) *LibraryExtractor {
	return &LibraryExtractor{logger: logger, maxTextBytes: defaultMaxTextBytes}
}

// Extract never panics: the pdf library can panic on malformed input, which
// is reported as an InvalidFormatError.
func (e *LibraryExtractor) Extract(ctx context.Context, data []byte) (doc Document, err error) {
	if len(data) == 0 {
		return Document{}, &parsererror.InvalidFormatError{ExpectedFormat: "PDF", Msg: "empty document"}
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Recovered from panic in PDF library", logging.F(logging.FieldReason, fmt.Sprint(r)))
			doc = Document{}
			err = &parsererror.InvalidFormatError{ExpectedFormat: "PDF", Msg: fmt.Sprintf("unreadable document: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, &parsererror.InvalidFormatError{ExpectedFormat: "PDF", Msg: "cannot open document", Err: err}
	}

	pages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			e.logger.WithError(err).Debug("Skipping unreadable page", logging.F("page", i))
			continue
		}
		for _, row := range rows {
			if line := joinRow(row.Content); line != "" {
				sb.WriteString(line)
				sb.WriteByte('\n')
			}
		}
		sb.WriteByte('\f')
		if sb.Len() > e.maxTextBytes {
			break
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		// Some generators produce no row structure; fall back to the flat text.
		plain, err := reader.GetPlainText()
		if err != nil {
			return Document{}, &parsererror.InvalidFormatError{ExpectedFormat: "PDF", Msg: "cannot extract text", Err: err}
		}
		raw, err := io.ReadAll(io.LimitReader(plain, int64(e.maxTextBytes)))
		if err != nil {
			return Document{}, &parsererror.InvalidFormatError{ExpectedFormat: "PDF", Msg: "cannot read text", Err: err}
		}
		text = string(raw)
	}
	if len(text) > e.maxTextBytes {
		text = text[:e.maxTextBytes]
	}

	if pages < 1 {
		pages = 1
	}
	e.logger.Debug("Extracted PDF text",
		logging.F("pages", pages),
		logging.F("bytes", len(text)))
	return Document{Text: text, PageCount: pages}, nil
}

// joinRow concatenates the text fragments of one row left to right,
// inserting a space where the horizontal gap suggests a word break.
func joinRow(fragments []pdf.Text) string {
	if len(fragments) == 0 {
		return ""
	}
	sorted := make([]pdf.Text, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var sb strings.Builder
	for i, t := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			gap := t.X - (prev.X + prev.W)
			threshold := prev.FontSize * 0.15
			if threshold <= 0 {
				threshold = 1
			}
			if gap > threshold && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
	}
	return strings.TrimSpace(sb.String())
}
