package api

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"taxtally/deductions/internal/dateutils"
	"taxtally/deductions/internal/kvstore"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
	"taxtally/deductions/internal/parsererror"
	"taxtally/deductions/internal/reconcile"
)

type userHandler func(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger)

// withUser validates the {userID} path segment before calling h.
func (s *Server) withUser(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("userID")
		log := s.requestLogger(r).WithField(logging.FieldUserID, userID)
		if err := kvstore.ValidateUserID(userID); err != nil {
			WriteError(w, log, &parsererror.ValidationError{Field: "userID", Reason: err.Error()})
			return
		}
		h(w, r, userID, log)
	}
}

type resolveRequest struct {
	Transactions []models.RawTransaction `json:"transactions"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, log, err)
		return
	}
	for i := range req.Transactions {
		tx := &req.Transactions[i]
		if tx.ID == "" {
			WriteError(w, log, &parsererror.ValidationError{Field: "transactions.id", Reason: "every transaction needs an id"})
			return
		}
		tx.Type = models.TypeForAmount(tx.Amount)
	}

	out, err := s.deps.Resolver.Resolve(r.Context(), userID, req.Transactions)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"transactions":     out,
		"transactionCount": len(out),
	})
}

type summaryRequest struct {
	Transactions  []models.ClassifiedTransaction `json:"transactions"`
	FinancialYear string                         `json:"financialYear"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	var req summaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, log, err)
		return
	}
	if req.FinancialYear != "" {
		fy, err := dateutils.ParseFinancialYear(req.FinancialYear)
		if err != nil {
			WriteError(w, log, &parsererror.ValidationError{Field: "financialYear", Reason: err.Error()})
			return
		}
		req.FinancialYear = fy.String()
	}

	summary, err := s.deps.Summaries.Summary(r.Context(), userID, req.Transactions, req.FinancialYear)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "summary": summary})
}

func (s *Server) handleGetManualOverrides(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	overrides, err := s.deps.Resolver.State().LoadManualOverrides(r.Context(), userID)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "overrides": overrides})
}

type manualOverrideRequest struct {
	TransactionID string `json:"transactionId"`
	IsDeductible  *bool  `json:"isDeductible"`
}

func (s *Server) handlePutManualOverride(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	var req manualOverrideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, log, err)
		return
	}
	if req.IsDeductible == nil {
		WriteError(w, log, &parsererror.ValidationError{Field: "isDeductible", Reason: "is required"})
		return
	}
	if err := s.deps.Resolver.SetManualOverride(r.Context(), userID, req.TransactionID, *req.IsDeductible); err != nil {
		WriteError(w, log, err)
		return
	}
	s.handleGetManualOverrides(w, r, userID, log)
}

func (s *Server) handleGetCategoryOverrides(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	overrides, err := s.deps.Resolver.State().LoadCategoryOverrides(r.Context(), userID)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "overrides": overrides})
}

type categoryOverrideRequest struct {
	TransactionID string `json:"transactionId"`
	Category      string `json:"category"`
}

func (s *Server) handlePutCategoryOverride(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	var req categoryOverrideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, log, err)
		return
	}
	if err := s.deps.Resolver.SetCategoryOverride(r.Context(), userID, req.TransactionID, req.Category); err != nil {
		WriteError(w, log, err)
		return
	}
	s.handleGetCategoryOverrides(w, r, userID, log)
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	txID := r.PathValue("transactionID")
	if err := s.deps.Resolver.ClearOverride(r.Context(), userID, txID); err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "transactionId": txID})
}

func (s *Server) handleGetToggles(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	toggles, ok, err := s.deps.Resolver.State().LoadToggles(r.Context(), userID)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	if !ok {
		for _, c := range models.ATOCategories {
			toggles[c] = true
		}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "toggles": toggles, "initialized": ok})
}

type toggleRequest struct {
	Category string `json:"category"`
	Enabled  *bool  `json:"enabled"`
}

func (s *Server) handlePutToggle(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, log, err)
		return
	}
	if req.Enabled == nil {
		WriteError(w, log, &parsererror.ValidationError{Field: "enabled", Reason: "is required"})
		return
	}
	toggles, err := s.deps.Resolver.SetToggle(r.Context(), userID, req.Category, *req.Enabled)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "toggles": toggles, "initialized": true})
}

type initTogglesRequest struct {
	Selected []string `json:"selected"`
}

func (s *Server) handleInitToggles(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	var req initTogglesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, log, err)
		return
	}
	state := s.deps.Resolver.State()
	toggles, err := state.InitToggles(r.Context(), userID, req.Selected)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	if err := state.PurgeCache(r.Context(), userID); err != nil {
		WriteError(w, log, err)
		return
	}
	log.Info("Initialized deduction toggles", logging.F("selected", strings.Join(req.Selected, ",")))
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "toggles": toggles, "initialized": true})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	profile, ok, err := s.deps.Resolver.State().LoadProfile(r.Context(), userID)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "profile": profile, "exists": ok})
}

type profileRequest struct {
	AnnualIncome *decimal.Decimal `json:"annualIncome"`
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, log, err)
		return
	}
	if req.AnnualIncome == nil || req.AnnualIncome.IsNegative() {
		WriteError(w, log, &parsererror.ValidationError{Field: "annualIncome", Reason: "must be a non-negative amount"})
		return
	}
	profile := reconcile.Profile{AnnualIncome: *req.AnnualIncome}
	if err := s.deps.Resolver.State().SaveProfile(r.Context(), userID, profile); err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "profile": profile, "exists": true})
}
