package sheets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultCallbackAddr is where the consent flow listens for the redirect.
const DefaultCallbackAddr = "localhost:8080"

const (
	consentTimeout = 5 * time.Minute
	callbackPath   = "/callback"
)

var (
	errNoCode        = errors.New("redirect carried no authorization code")
	errStateMismatch = errors.New("redirect state does not match this login")
	errConsentDenied = errors.New("consent was denied")
)

// OAuth2Config describes a delegated consent flow.
type OAuth2Config struct {
	ClientSecretPath string
	TokenFile        string
	CallbackAddr     string
}

// TokenFileFor returns where the delegated token lives for a client secret file.
func TokenFileFor(clientSecretPath, tokenFileName string) string {
	return filepath.Join(filepath.Dir(clientSecretPath), tokenFileName)
}

// consentCallback receives exactly one redirect from the Google consent page.
type consentCallback struct {
	result chan consentResult
	state  string
}

type consentResult struct {
	err  error
	code string
}

func newConsentCallback() (*consentCallback, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	return &consentCallback{state: hex.EncodeToString(buf), result: make(chan consentResult, 1)}, nil
}

func (c *consentCallback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var res consentResult
	switch {
	case q.Get("state") != c.state:
		res.err = errStateMismatch
	case q.Get("error") != "":
		res.err = fmt.Errorf("%w: %s", errConsentDenied, q.Get("error"))
	case q.Get("code") == "":
		res.err = errNoCode
	default:
		res.code = q.Get("code")
	}

	// Only the first redirect counts.
	select {
	case c.result <- res:
	default:
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if res.err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprintf(w, "<html><body><h1>crm: authorization failed</h1><p>%s</p></body></html>", res.err)
		return
	}
	_, _ = fmt.Fprint(w, "<html><body><h1>crm: authorization complete</h1><p>You can close this tab.</p></body></html>")
}

// wait blocks until the redirect arrives, ctx ends or the timeout passes.
func (c *consentCallback) wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-c.result:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", fmt.Errorf("no redirect received within %s", timeout)
	}
}

// AuthenticateOAuth2Interactive runs the consent flow for the delegated identity:
// it prints the consent URL, waits for the redirect on a local listener, exchanges
// the code and saves the token to config.TokenFile.
func AuthenticateOAuth2Interactive(ctx context.Context, config OAuth2Config) (*oauth2.Token, error) {
	secret, err := os.ReadFile(config.ClientSecretPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read client secret: %w", ErrInvalidCredentials, err)
	}
	oauthConfig, err := google.ConfigFromJSON(secret, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse client secret: %w", ErrInvalidCredentials, err)
	}

	addr := config.CallbackAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	oauthConfig.RedirectURL = "http://" + addr + callbackPath

	callback, err := newConsentCallback()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for the redirect on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle(callbackPath, callback)
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serveErr := server.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("Callback server stopped", "error", serveErr)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL(callback.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	slog.Info("Open this URL to authorize crm", "url", authURL, "timeout", consentTimeout)

	code, err := callback.wait(ctx, consentTimeout)
	if err != nil {
		return nil, err
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := SaveToken(config.TokenFile, token); err != nil {
			return nil, err
		}
		slog.Info("Delegated token saved", "file", config.TokenFile)
	}
	return token, nil
}

// LoadToken reads a saved delegated token.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, errors.New("token file holds neither an access nor a refresh token")
	}
	return token, nil
}

// SaveToken writes token as JSON with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// RefreshTokenIfNeeded swaps an expired token for a fresh one and persists it to tokenFile.
// A failed save is logged; the fresh token is still usable for this run.
func RefreshTokenIfNeeded(ctx context.Context, oauthConfig *oauth2.Config, token *oauth2.Token, tokenFile string) (*oauth2.Token, error) {
	if token.Valid() {
		return token, nil
	}

	fresh, err := oauthConfig.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	slog.Debug("Refreshed delegated token", "expiry", fresh.Expiry)

	if tokenFile != "" {
		if err := SaveToken(tokenFile, fresh); err != nil {
			slog.Warn("Failed to save refreshed token", "error", err, "file", tokenFile)
		}
	}
	return fresh, nil
}
