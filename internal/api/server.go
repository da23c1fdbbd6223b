// Package api is the JSON HTTP surface: statement upload, classification,
// merchant search and administration, per-user reconciliation state,
// dashboard summaries and the open-banking passthrough.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"taxtally/deductions/internal/aggregation"
	"taxtally/deductions/internal/categorizer"
	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/merchantsearch"
	"taxtally/deductions/internal/openbanking"
	"taxtally/deductions/internal/reconcile"
	"taxtally/deductions/internal/statement"
	"taxtally/deductions/internal/store"
)

// BatchClassifier classifies descriptions in bulk.
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, inputs []categorizer.BatchInput, enabled categorizer.CategoryFilter) []categorizer.Classification
}

// Flusher persists merchants learned during a request.
type Flusher interface {
	Flush(ctx context.Context) (categorizer.FlushResult, error)
}

// MerchantAdmin is the merchant-table surface the API administers.
type MerchantAdmin interface {
	MerchantStats(ctx context.Context, topN int) (store.MerchantStats, error)
	DeactivateMerchant(ctx context.Context, key string) error
}

// MerchantIndex is the classifier's in-memory merchant table.
type MerchantIndex interface {
	Remove(key string) bool
}

// Deps are the services behind the handlers. OpenBanking may be nil, in
// which case the bank routes answer 503.
type Deps struct {
	Statements  *statement.Service
	Classifier  BatchClassifier
	Learner     Flusher
	Search      *merchantsearch.Searcher
	Merchants   MerchantAdmin
	Index       MerchantIndex
	Resolver    *reconcile.Resolver
	Summaries   *aggregation.Service
	OpenBanking openbanking.Client
	Logger      logging.Logger
}

// Options configures the HTTP layer.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	// TopMerchants is the size of the top-merchants list in stats.
	TopMerchants int
}

// Server routes requests to the services in Deps.
type Server struct {
	deps Deps
	opts Options
	log  logging.Logger
}

// NewServer creates a Server.
func NewServer(deps Deps, opts Options) *Server {
	if opts.TopMerchants <= 0 {
		opts.TopMerchants = 10
	}
	if opts.MaxUploadBytes <= 0 && deps.Statements != nil {
		opts.MaxUploadBytes = deps.Statements.MaxBytes()
	}
	return &Server{deps: deps, opts: opts, log: deps.Logger}
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/statements/upload", s.handleUpload)
	mux.HandleFunc("POST /api/classify", s.handleClassify)

	mux.HandleFunc("POST /api/merchants/search", s.handleMerchantSearch)
	mux.HandleFunc("GET /api/merchants/stats", s.handleMerchantStats)
	mux.HandleFunc("DELETE /api/merchants/{name}", s.handleDeactivateMerchant)

	mux.HandleFunc("POST /api/users/{userID}/transactions/resolve", s.withUser(s.handleResolve))
	mux.HandleFunc("POST /api/users/{userID}/summary", s.withUser(s.handleSummary))
	mux.HandleFunc("GET /api/users/{userID}/overrides/manual", s.withUser(s.handleGetManualOverrides))
	mux.HandleFunc("PUT /api/users/{userID}/overrides/manual", s.withUser(s.handlePutManualOverride))
	mux.HandleFunc("GET /api/users/{userID}/overrides/category", s.withUser(s.handleGetCategoryOverrides))
	mux.HandleFunc("PUT /api/users/{userID}/overrides/category", s.withUser(s.handlePutCategoryOverride))
	mux.HandleFunc("DELETE /api/users/{userID}/overrides/{transactionID}", s.withUser(s.handleClearOverride))
	mux.HandleFunc("GET /api/users/{userID}/toggles", s.withUser(s.handleGetToggles))
	mux.HandleFunc("PUT /api/users/{userID}/toggles", s.withUser(s.handlePutToggle))
	mux.HandleFunc("POST /api/users/{userID}/toggles/init", s.withUser(s.handleInitToggles))
	mux.HandleFunc("GET /api/users/{userID}/profile", s.withUser(s.handleGetProfile))
	mux.HandleFunc("PUT /api/users/{userID}/profile", s.withUser(s.handlePutProfile))

	mux.HandleFunc("POST /api/bank/connect", s.handleBankConnect)
	mux.HandleFunc("GET /api/users/{userID}/bank/accounts", s.withUser(s.handleBankAccounts))
	mux.HandleFunc("GET /api/users/{userID}/bank/transactions", s.withUser(s.handleBankTransactions))
	mux.HandleFunc("GET /api/users/{userID}/bank/consents", s.withUser(s.handleBankConsents))
	return mux
}

// Handler is the full middleware stack around Routes.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return Chain(s.Routes(),
		WithRequestID(),
		WithRecovery(s.log),
		WithLogging(s.log),
		c.Handler,
	)
}

// ListenAndServe serves HTTP/1.1 and cleartext HTTP/2 on addr until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", logging.F("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger tags the server logger with the request id.
func (s *Server) requestLogger(r *http.Request) logging.Logger {
	return s.log.WithField(logging.FieldRequestID, RequestID(r.Context()))
}
