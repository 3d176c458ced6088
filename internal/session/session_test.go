package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroValueIsIdle(t *testing.T) {
	var s Session
	assert.False(t, s.Editing())
	id, ok := s.Task()
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestStartEntersEditing(t *testing.T) {
	var s Session
	s.Start("t1")
	assert.True(t, s.Editing())
	id, ok := s.Task()
	assert.True(t, ok)
	assert.Equal(t, "t1", id)
}

func TestStartReplacesPreviousTarget(t *testing.T) {
	var s Session
	s.Start("x")
	s.Start("y")
	id, ok := s.Task()
	assert.True(t, ok)
	assert.Equal(t, "y", id, "last start wins, only one task is ever in edit")
}

func TestResetReturnsToIdle(t *testing.T) {
	var s Session
	s.Start("t1")
	s.Reset()
	assert.False(t, s.Editing())
	_, ok := s.Task()
	assert.False(t, ok)

	// Reset when already idle is a no-op.
	s.Reset()
	assert.False(t, s.Editing())
}
