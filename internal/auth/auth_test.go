package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoSessionMeansNoUser(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "session"))
	id, ok := p.CurrentUserID()
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestSignInThenCurrentUser(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "state", "session"))
	require.NoError(t, p.SignIn("user1"))

	id, ok := p.CurrentUserID()
	assert.True(t, ok)
	assert.Equal(t, "user1", id)
}

func TestSignInRejectsEmptyID(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "session"))
	assert.Error(t, p.SignIn("   "))
}

func TestSignOut(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "session"))
	require.NoError(t, p.SignIn("user1"))

	require.NoError(t, p.SignOut(context.Background()))
	_, ok := p.CurrentUserID()
	assert.False(t, ok)

	// Idempotent.
	assert.NoError(t, p.SignOut(context.Background()))
}
