// Package auth runs the OAuth loopback login for Google and stores the
// resulting token next to the rest of the configuration.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"todo/internal/config"
	"todo/internal/service"
)

const (
	// Scope grants read/write access to Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	// tokenCheckTimeout bounds the refresh attempt in TokenValid.
	tokenCheckTimeout = 10 * time.Second
)

// ErrNotLoggedIn is returned by TokenSource when no token is stored.
var ErrNotLoggedIn = service.ConfigError("not logged in (run: todo login)")

// OAuthConfig returns the OAuth client configuration, taken from
// GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET when both are set and from
// oauth_client.json otherwise.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		return &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{Scope},
		}, nil
	}

	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, service.ConfigError(fmt.Sprintf("no OAuth client: set %s and %s or add %s",
			config.KeyClientID, config.KeyClientSecret, cfg.OAuthClientPath()))
	}
	if err != nil {
		return nil, service.ConfigError(fmt.Sprintf("failed to read %s: %v", config.OAuthClientFile, err))
	}

	oc, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, service.ConfigError(fmt.Sprintf("invalid %s: %v", config.OAuthClientFile, err))
	}
	return oc, nil
}

// LoadToken reads a stored token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, service.StorageError(err.Error())
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, service.ConfigError(fmt.Sprintf("invalid %s: %v", config.TokenFile, err))
	}
	return &token, nil
}

// SaveToken saves an OAuth token to a file with mode 0600.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// TokenSource returns a token source that refreshes the stored token.
func TokenSource(ctx context.Context, cfg *config.Config) (oauth2.TokenSource, error) {
	oc, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg.TokenPath())
	if err != nil {
		return nil, err
	}
	return oc.TokenSource(ctx, token), nil
}

// TokenValid reports whether the stored token has a refresh token and can
// produce an access token right now.
func TokenValid(ctx context.Context, cfg *config.Config) bool {
	token, err := LoadToken(cfg.TokenPath())
	if err != nil || token.RefreshToken == "" {
		return false
	}
	oc, err := OAuthConfig(cfg)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, tokenCheckTimeout)
	defer cancel()
	_, err = oc.TokenSource(ctx, token).Token()
	return err == nil
}

// Logout removes the stored token. It reports false when there was none.
func Logout(cfg *config.Config) (bool, error) {
	if !cfg.HasToken() {
		return false, nil
	}
	if err := cfg.RemoveToken(); err != nil {
		return false, service.StorageError(fmt.Sprintf("failed to remove token: %v", err))
	}
	return true, nil
}
