package api

import (
	"net/http"
	"net/mail"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/openbanking"
	"taxtally/deductions/internal/parsererror"
)

type connectRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleBankConnect(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)
	if s.deps.OpenBanking == nil {
		WriteError(w, log, openbanking.ErrNotConfigured)
		return
	}
	var req connectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, log, err)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		WriteError(w, log, &parsererror.ValidationError{Field: "email", Reason: "must be a valid email address"})
		return
	}
	conn, err := s.deps.OpenBanking.ConnectUser(r.Context(), req.Email)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "userId": conn.UserID, "authUrl": conn.AuthURL})
}

func (s *Server) handleBankAccounts(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	if s.deps.OpenBanking == nil {
		WriteError(w, log, openbanking.ErrNotConfigured)
		return
	}
	accounts, err := s.deps.OpenBanking.GetUserAccounts(r.Context(), userID)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "accounts": accounts})
}

func (s *Server) handleBankTransactions(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	if s.deps.OpenBanking == nil {
		WriteError(w, log, openbanking.ErrNotConfigured)
		return
	}
	txs, err := s.deps.OpenBanking.GetUserTransactions(r.Context(), userID, r.URL.Query()["accountId"]...)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	raw := openbanking.ToRawTransactions(txs)
	if skipped := len(txs) - len(raw); skipped > 0 {
		log.Warn("Skipped open banking transactions with unreadable dates", logging.F(logging.FieldCount, skipped))
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"transactions":     raw,
		"transactionCount": len(raw),
	})
}

func (s *Server) handleBankConsents(w http.ResponseWriter, r *http.Request, userID string, log logging.Logger) {
	if s.deps.OpenBanking == nil {
		WriteError(w, log, openbanking.ErrNotConfigured)
		return
	}
	consents, err := s.deps.OpenBanking.GetUserConsents(r.Context(), userID)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "consents": consents})
}
