package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// CallbackTimeout is how long Login waits for the browser redirect.
	CallbackTimeout = 5 * time.Minute

	// Token exchange timeout
	tokenExchangeTimeout = 30 * time.Second

	// Starting port for OAuth callback server
	callbackStartPort = 8085

	// Max port attempts
	callbackMaxPortAttempts = 5
)

// LoginOption configures Login.
type LoginOption func(*loginOptions)

type loginOptions struct {
	prompt  io.Writer
	timeout time.Duration
	listen  func() (int, net.Listener, error)
	onURL   func(authURL string)
}

// WithPrompt sets where the authorization URL is printed.
func WithPrompt(w io.Writer) LoginOption {
	return func(o *loginOptions) { o.prompt = w }
}

// WithCallbackTimeout overrides CallbackTimeout.
func WithCallbackTimeout(d time.Duration) LoginOption {
	return func(o *loginOptions) { o.timeout = d }
}

// WithListener replaces the loopback port search.
func WithListener(listen func() (int, net.Listener, error)) LoginOption {
	return func(o *loginOptions) { o.listen = listen }
}

// WithAuthURLHandler is called with the authorization URL after it is printed.
func WithAuthURLHandler(fn func(authURL string)) LoginOption {
	return func(o *loginOptions) { o.onURL = fn }
}

// Login runs the authorization-code flow with PKCE against a loopback
// redirect and returns the exchanged token. Callbacks that do not carry
// the state generated for this login are answered 400 and ignored.
func Login(ctx context.Context, oc *oauth2.Config, opts ...LoginOption) (*oauth2.Token, error) {
	o := loginOptions{
		prompt:  io.Discard,
		timeout: CallbackTimeout,
		listen:  findAvailablePort,
	}
	for _, opt := range opts {
		opt(&o)
	}

	port, listener, err := o.listen()
	if err != nil {
		return nil, errors.New("could not bind to local port for OAuth callback")
	}
	defer listener.Close()

	conf := *oc
	conf.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	fmt.Fprintln(o.prompt, "Open this URL in your browser:")
	fmt.Fprintln(o.prompt, authURL)
	if o.onURL != nil {
		o.onURL(authURL)
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		// Stray callbacks are rejected without ending the login.
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "Authorization denied", http.StatusBadRequest)
			trySend(errCh, fmt.Errorf("authorization denied: %s", e))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			trySend(errCh, errors.New("no code in callback"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You may close this window.</p></body></html>")
		trySend(codeCh, code)
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			trySend(errCh, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-timer.C:
		return nil, errors.New("oauth callback timed out")
	case <-ctx.Done():
		return nil, errors.New("cancelled")
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()

	token, err := conf.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return token, nil
}

func trySend[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// findAvailablePort tries to find an available port starting from callbackStartPort.
func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < callbackMaxPortAttempts; i++ {
		port := callbackStartPort + i
		addr := fmt.Sprintf("localhost:%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, fmt.Errorf("no available port found")
}
