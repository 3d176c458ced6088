// Package session tracks which task, if any, is currently having its
// title revised. The state is local to the screen and never persisted.
package session

// Session is either idle or editing exactly one task. The zero value is
// idle. Starting an edit while one is already in progress replaces the
// previous target.
type Session struct {
	taskID  string
	editing bool
}

// Start enters the editing state for the given task.
func (s *Session) Start(taskID string) {
	s.taskID = taskID
	s.editing = true
}

// Reset returns the session to idle. Safe to call when already idle.
func (s *Session) Reset() {
	*s = Session{}
}

// Editing reports whether an edit is in progress.
func (s Session) Editing() bool {
	return s.editing
}

// Task returns the id of the task being edited, if any.
func (s Session) Task() (string, bool) {
	if !s.editing {
		return "", false
	}
	return s.taskID, true
}
