package openbanking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"taxtally/deductions/internal/logging"
)

// DefaultScope is requested when Config.Scopes is empty.
const DefaultScope = "SERVER_ACCESS"

// Config configures HTTPClient.
type Config struct {
	BaseURL  string
	TokenURL string
	ClientID string
	// ClientSecret is never logged.
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Timeout      time.Duration
	// HTTPClient is the transport used for token and API calls. Tests point
	// it at an httptest server.
	HTTPClient *http.Client
}

// APIError is a non-2xx aggregator response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("open banking %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// HTTPClient calls the aggregator's REST API with a bearer token obtained by
// client-credentials exchange. The token source caches the token until it
// expires.
type HTTPClient struct {
	baseURL     string
	redirectURL string
	http        *http.Client
	logger      logging.Logger
}

// NewHTTPClient creates an aggregator client.
func NewHTTPClient(cfg Config, logger logging.Logger) (*HTTPClient, error) {
	if cfg.BaseURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = strings.TrimRight(cfg.BaseURL, "/") + "/token"
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{DefaultScope}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: timeout}
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	// The token source outlives any single request, so it is bound to a
	// background context carrying the base transport.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	authed := oauth2.NewClient(tokenCtx, cc.TokenSource(tokenCtx))
	authed.Timeout = timeout

	return &HTTPClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		redirectURL: cfg.RedirectURL,
		http:        authed,
		logger:      logger,
	}, nil
}

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// GetUserAccounts lists the user's connected accounts.
func (c *HTTPClient) GetUserAccounts(ctx context.Context, userID string) ([]Account, error) {
	var env listEnvelope[Account]
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/accounts", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetUserTransactions lists the user's transactions, optionally restricted
// to accountIDs.
func (c *HTTPClient) GetUserTransactions(ctx context.Context, userID string, accountIDs ...string) ([]Transaction, error) {
	path := "/users/" + url.PathEscape(userID) + "/transactions"
	if len(accountIDs) > 0 {
		q := url.Values{}
		for _, id := range accountIDs {
			q.Add("accountId", id)
		}
		path += "?" + q.Encode()
	}
	var env listEnvelope[Transaction]
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetUserConsents lists the user's consents.
func (c *HTTPClient) GetUserConsents(ctx context.Context, userID string) ([]Consent, error) {
	var env listEnvelope[Consent]
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/consents", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ConnectUser creates an aggregator user for email and returns the consent
// URL to redirect them to.
func (c *HTTPClient) ConnectUser(ctx context.Context, email string) (Connection, error) {
	var user struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/users", map[string]string{"email": email}, &user); err != nil {
		return Connection{}, err
	}
	if user.ID == "" {
		return Connection{}, fmt.Errorf("open banking: user creation returned no id")
	}

	var link struct {
		Links struct {
			Public string `json:"public"`
		} `json:"links"`
	}
	body := map[string]string{"redirectUrl": c.redirectURL}
	if err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(user.ID)+"/auth_link", body, &link); err != nil {
		return Connection{}, err
	}

	c.logger.Info("Created open banking connection", logging.F(logging.FieldUserID, user.ID))
	return Connection{UserID: user.ID, AuthURL: link.Links.Public}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("open banking %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Open banking request",
		logging.F(logging.FieldOperation, method+" "+path),
		logging.F(logging.FieldStatus, resp.StatusCode),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
