// Package auth supplies the identity the task store scopes everything
// to. The screen consumes it only as "current user id" and "sign out".
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Provider exposes the signed-in user, if any. When no user is present
// the caller must not establish a task subscription at all.
type Provider interface {
	CurrentUserID() (string, bool)
	SignOut(ctx context.Context) error
}

// FileProvider keeps the session in a plain file holding the user id,
// the same way a cached credential file works. Removing the file signs
// the user out.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// SignIn records the user id as the active session.
func (p *FileProvider) SignIn(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user id is empty")
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return os.WriteFile(p.path, []byte(userID+"\n"), 0o600)
}

func (p *FileProvider) CurrentUserID() (string, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", false
	}
	return id, true
}

// SignOut removes the session file. Signing out when already signed out
// is not an error.
func (p *FileProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
