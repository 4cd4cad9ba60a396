package wrike

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/yukikurage/workload-dashboard/internal/credentials"
)

const (
	DefaultHost     = "www.wrike.com"
	DefaultTokenURL = "https://login.wrike.com/oauth2/token"
)

// ErrRefreshUnavailable means no refresh token or client credentials are
// configured.
var ErrRefreshUnavailable = errors.New("token refresh not configured")

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Initial      credentials.Credentials
	// HTTPClient is used for the token endpoint only.
	HTTPClient *http.Client
}

// TokenManager owns the current Wrike credentials. It reloads them from the
// credential store when the store changes underneath it and persists every
// refreshed token pair.
type TokenManager struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	store      credentials.Store
	logger     *slog.Logger

	mu       sync.Mutex
	creds    credentials.Credentials
	snapshot credentials.Credentials
}

func NewTokenManager(cfg TokenConfig, store credentials.Store, logger *slog.Logger) *TokenManager {
	if logger == nil {
		logger = slog.Default()
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	creds := cfg.Initial
	if creds.Host == "" {
		creds.Host = DefaultHost
	}

	m := &TokenManager{
		httpClient: cfg.HTTPClient,
		store:      store,
		logger:     logger,
		creds:      creds,
	}
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		m.oauth = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		}
	}
	return m
}

// Current returns a copy of the credentials in use.
func (m *TokenManager) Current() credentials.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds
}

// Host returns the API host the credentials belong to.
func (m *TokenManager) Host() string {
	return m.Current().Host
}

// CanRefresh reports whether a refresh-token exchange is possible.
func (m *TokenManager) CanRefresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.oauth != nil && m.creds.RefreshToken != ""
}

// Sync applies credentials that changed in the store since the last load.
// Empty stored values never clear what is held in memory.
func (m *TokenManager) Sync(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	loaded, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("sync credentials: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if loaded == m.snapshot {
		return nil
	}
	m.snapshot = loaded
	if loaded.Host != "" {
		m.creds.Host = loaded.Host
	}
	if loaded.AccessToken != "" {
		m.creds.AccessToken = loaded.AccessToken
	}
	if loaded.RefreshToken != "" {
		m.creds.RefreshToken = loaded.RefreshToken
	}
	return nil
}

// AccessToken returns the bearer token, refreshing first when none is held
// but a refresh token is available.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	if token := m.Current().AccessToken; token != "" {
		return token, nil
	}
	if m.CanRefresh() {
		creds, err := m.Refresh(ctx)
		if err == nil {
			return creds.AccessToken, nil
		}
		m.logger.Warn("initial token refresh failed", "error", err)
	}
	return "", ErrMissingAccessToken
}

// Refresh exchanges the refresh token for a new token pair and writes it
// back to the credential store. Concurrent callers may each refresh.
func (m *TokenManager) Refresh(ctx context.Context) (credentials.Credentials, error) {
	m.mu.Lock()
	oauthCfg := m.oauth
	refreshToken := m.creds.RefreshToken
	m.mu.Unlock()

	if oauthCfg == nil || refreshToken == "" {
		return credentials.Credentials{}, ErrRefreshUnavailable
	}

	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}
	token, err := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return credentials.Credentials{}, fmt.Errorf("refresh access token: %w", err)
	}

	m.mu.Lock()
	m.creds.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		m.creds.RefreshToken = token.RefreshToken
	}
	if host, ok := token.Extra("host").(string); ok && strings.TrimSpace(host) != "" {
		m.creds.Host = strings.TrimSpace(host)
	}
	updated := m.creds
	m.mu.Unlock()

	m.logger.Info("wrike access token refreshed", "host", updated.Host)
	m.persist(ctx, updated)
	return updated, nil
}

func (m *TokenManager) persist(ctx context.Context, creds credentials.Credentials) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, creds); err != nil {
		m.logger.Error("failed to persist refreshed credentials", "error", err)
		return
	}
	loaded, err := m.store.Load(ctx)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.snapshot = loaded
	m.mu.Unlock()
}
