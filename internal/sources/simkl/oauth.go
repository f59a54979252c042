package simkl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelsync/internal/logging"
)

const (
	authorizeURL = "https://simkl.com/oauth/authorize"
	tokenURL     = "https://api.simkl.com/oauth/token"
)

// ErrAuthorizationTimeout is returned when no callback arrives before the
// attempt deadline.
var ErrAuthorizationTimeout = errors.New("simkl authorization timed out")

// Authenticator drives the Simkl OAuth code flow. Each Authorize call owns its
// callback server and result channel; nothing is shared between attempts.
type Authenticator struct {
	clientID     string
	clientSecret string
	port         int
	store        TokenStore
	httpClient   *http.Client
	tokenURL     string
	logger       *slog.Logger
}

// AuthenticatorOption customises Authenticator construction.
type AuthenticatorOption func(*Authenticator)

// WithTokenURL overrides the token exchange endpoint (used in tests).
func WithTokenURL(u string) AuthenticatorOption {
	return func(a *Authenticator) { a.tokenURL = u }
}

// WithAuthHTTPClient overrides the HTTP client used for the token exchange.
func WithAuthHTTPClient(client *http.Client) AuthenticatorOption {
	return func(a *Authenticator) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// NewAuthenticator constructs an Authenticator persisting tokens to store.
func NewAuthenticator(clientID, clientSecret string, port int, store TokenStore, logger *slog.Logger, opts ...AuthenticatorOption) *Authenticator {
	auth := &Authenticator{
		clientID:     clientID,
		clientSecret: clientSecret,
		port:         port,
		store:        store,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		tokenURL:     tokenURL,
		logger:       logging.NewComponentLogger(logger, "simkl-auth"),
	}
	for _, opt := range opts {
		opt(auth)
	}
	return auth
}

func (a *Authenticator) redirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", a.port)
}

// AuthURL builds the authorization URL the user opens in a browser. The state
// parameter ties the callback to this attempt.
func (a *Authenticator) AuthURL(state string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", a.clientID)
	params.Set("redirect_uri", a.redirectURI())
	params.Set("state", state)
	return authorizeURL + "?" + params.Encode()
}

// Authorize runs one complete authorization attempt: it starts a local
// callback server, waits for the browser redirect, exchanges the code, and
// persists the token. The context bounds the whole attempt.
func (a *Authenticator) Authorize(ctx context.Context, opened func(authURL string)) (Token, error) {
	state := uuid.New().String()

	codes := make(chan string, 1)
	server, err := a.startCallbackServer(state, codes)
	if err != nil {
		return Token{}, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if opened != nil {
		opened(a.AuthURL(state))
	}

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Token{}, ErrAuthorizationTimeout
		}
		return Token{}, ctx.Err()
	case code := <-codes:
		return a.exchange(ctx, code)
	}
}

// startCallbackServer listens on the configured port and delivers the first
// matching authorization code to codes. The channel is buffered so the
// handler never blocks on a caller that already gave up.
func (a *Authenticator) startCallbackServer(state string, codes chan<- string) (*http.Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", a.port))
	if err != nil {
		return nil, fmt.Errorf("listen on callback port %d: %w", a.port, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := query.Get("code")
		if code == "" {
			http.Error(w, "no authorization code received", http.StatusBadRequest)
			return
		}
		select {
		case codes <- code:
		default:
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><h1>Authentication successful</h1><p>You can close this window and return to the terminal.</p></body></html>"))
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("callback server error", logging.Error(err))
		}
	}()
	return server, nil
}

func (a *Authenticator) exchange(ctx context.Context, code string) (Token, error) {
	body, err := json.Marshal(map[string]string{
		"code":          code,
		"client_id":     a.clientID,
		"client_secret": a.clientSecret,
		"redirect_uri":  a.redirectURI(),
		"grant_type":    "authorization_code",
	})
	if err != nil {
		return Token{}, fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, bytes.NewReader(body))
	if err != nil {
		return Token{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		AccessToken string `json:"access_token"`
		Message     string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(payload.AccessToken) == "" {
		return Token{}, fmt.Errorf("token exchange rejected (%d): %s", resp.StatusCode, payload.Message)
	}

	token := Token{AccessToken: payload.AccessToken}
	if a.store != nil {
		if err := a.store.Save(token); err != nil {
			return Token{}, err
		}
	}
	a.logger.Info("simkl authorization complete")
	return token, nil
}
