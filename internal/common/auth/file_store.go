package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"nova-client/internal/models"
)

type fileTokens struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// FileStore keeps tokens in a 0600 JSON file under the user config dir.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(context.Context) (models.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStore) Save(_ context.Context, tokens models.TokenPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(tokens)
}

func (f *FileStore) SaveAccess(_ context.Context, access string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		return err
	}
	tokens.Access = access
	return f.write(tokens)
}

func (f *FileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

func (f *FileStore) read() (models.TokenPair, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.TokenPair{}, nil
	}
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to read token file: %w", err)
	}

	var ft fileTokens
	if err := json.Unmarshal(data, &ft); err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to parse token file %s: %w", f.path, err)
	}
	return models.TokenPair{Access: ft.AccessToken, Refresh: ft.RefreshToken}, nil
}

func (f *FileStore) write(tokens models.TokenPair) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	data, err := json.MarshalIndent(fileTokens{AccessToken: tokens.Access, RefreshToken: tokens.Refresh}, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return os.Rename(tmp, f.path)
}
