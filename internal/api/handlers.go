package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"taxtally/deductions/internal/categorizer"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parsererror"
	"taxtally/deductions/internal/statement"
)

// multipartOverhead is allowed on top of the file limit for form fields and
// part headers.
const multipartOverhead = 1 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			WriteError(w, log, &parsererror.ValidationError{
				Field:  "file",
				Reason: fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes),
				Status: http.StatusRequestEntityTooLarge,
			})
			return
		}
		WriteError(w, log, &parsererror.ValidationError{Field: "file", Reason: fmt.Sprintf("invalid multipart form: %v", err)})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	upload := statement.Upload{Bank: r.FormValue("bank")}
	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		WriteError(w, log, &parsererror.ValidationError{Field: "file", Reason: err.Error()})
		return
	default:
		defer file.Close()
		upload.FileName = header.Filename
		upload.ContentType = header.Header.Get("Content-Type")
		upload.Data, err = io.ReadAll(io.LimitReader(file, s.opts.MaxUploadBytes+1))
		if err != nil {
			WriteError(w, log, fmt.Errorf("failed to read upload: %w", err))
			return
		}
	}

	result, err := s.deps.Statements.Process(r.Context(), upload)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

type classifyRequest struct {
	Transactions []struct {
		ID          string          `json:"id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
	} `json:"transactions"`
	// EnabledCategories nil means all; an empty list means none.
	EnabledCategories []string `json:"enabledCategories"`
}

type classifyResult struct {
	ID string `json:"id"`
	categorizer.Classification
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)
	var req classifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, log, err)
		return
	}

	inputs := make([]categorizer.BatchInput, len(req.Transactions))
	for i, tx := range req.Transactions {
		inputs[i] = categorizer.BatchInput{Description: tx.Description, Amount: tx.Amount}
	}
	classified := s.deps.Classifier.ClassifyBatch(r.Context(), inputs, categorizer.EnabledCategories(req.EnabledCategories))

	results := make([]classifyResult, len(classified))
	for i, c := range classified {
		results[i] = classifyResult{ID: req.Transactions[i].ID, Classification: c}
	}
	s.flushLearned(r, log)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
		"count":   len(results),
	})
}

// flushLearned persists merchants learned during the request. Failures are
// logged; the response does not depend on them.
func (s *Server) flushLearned(r *http.Request, log logging.Logger) {
	if s.deps.Learner == nil {
		return
	}
	res, err := s.deps.Learner.Flush(r.Context())
	if err != nil {
		log.WithError(err).Warn("Failed to persist learned merchants")
		return
	}
	if res.Inserted > 0 || res.UsageUpdates > 0 {
		log.Debug("Persisted learned merchants",
			logging.F("inserted", res.Inserted),
			logging.F("usage_updates", res.UsageUpdates))
	}
}

type searchRequest struct {
	Descriptions []string `json:"descriptions"`
}

func (s *Server) handleMerchantSearch(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, log, err)
		return
	}
	matches, err := s.deps.Search.Search(r.Context(), req.Descriptions)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "matches": matches})
}

func (s *Server) handleMerchantStats(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)
	stats, err := s.deps.Merchants.MerchantStats(r.Context(), s.opts.TopMerchants)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stats": stats})
}

func (s *Server) handleDeactivateMerchant(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)
	key := models.MerchantKey(r.PathValue("name"))
	if err := s.deps.Merchants.DeactivateMerchant(r.Context(), key); err != nil {
		WriteError(w, log, err)
		return
	}
	if s.deps.Index != nil {
		s.deps.Index.Remove(key)
	}
	log.Info("Deactivated merchant", logging.F(logging.FieldMerchant, key))
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "merchantName": key})
}
