// Package credentials persists the Wrike OAuth tokens so that a refreshed
// token pair survives restarts.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

const (
	KeyHost         = "WRIKE_HOST"
	KeyToken        = "WRIKE_TOKEN"
	KeyAccessToken  = "WRIKE_ACCESS_TOKEN"
	KeyRefreshToken = "WRIKE_REFRESH_TOKEN"
)

// Credentials is the token pair plus the API host it belongs to.
type Credentials struct {
	Host         string
	AccessToken  string
	RefreshToken string
}

// Store loads and saves Credentials.
type Store interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, creds Credentials) error
}

// EnvFileStore keeps credentials in a dotenv file next to other settings.
// Unrelated keys in the file are preserved on save.
type EnvFileStore struct {
	path string
	mu   sync.Mutex
}

func NewEnvFileStore(path string) *EnvFileStore {
	return &EnvFileStore{path: path}
}

func (s *EnvFileStore) Path() string {
	return s.path
}

// Load returns empty credentials when the file does not exist.
func (s *EnvFileStore) Load(_ context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return Credentials{}, err
	}
	return FromMap(values), nil
}

func (s *EnvFileStore) Save(_ context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	if creds.Host != "" {
		values[KeyHost] = creds.Host
	}
	values[KeyToken] = creds.AccessToken
	values[KeyAccessToken] = creds.AccessToken
	if creds.RefreshToken != "" {
		values[KeyRefreshToken] = creds.RefreshToken
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create credentials directory: %w", err)
		}
	}
	if err := godotenv.Write(values, s.path); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return nil
}

func (s *EnvFileStore) read() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return values, nil
}

// FromMap picks the credential keys out of a dotenv map. The access token
// prefers WRIKE_ACCESS_TOKEN over the legacy WRIKE_TOKEN.
func FromMap(values map[string]string) Credentials {
	access := values[KeyAccessToken]
	if access == "" {
		access = values[KeyToken]
	}
	return Credentials{
		Host:         values[KeyHost],
		AccessToken:  access,
		RefreshToken: values[KeyRefreshToken],
	}
}

// MemoryStore is a Store for tests and for deployments without a writable
// credentials file.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
	saves int
}

func NewMemoryStore(initial Credentials) *MemoryStore {
	return &MemoryStore{creds: initial}
}

func (s *MemoryStore) Load(context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

func (s *MemoryStore) Save(_ context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.saves++
	return nil
}

// Saves counts successful Save calls.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
