package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nuri/internal/task"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func nextSnapshot(t *testing.T, sub task.Subscription) []task.Task {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		require.True(t, ok, "subscription closed while waiting for a snapshot")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
		return nil
	}
}

func requireNoSnapshot(t *testing.T, sub task.Subscription) {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		if ok {
			t.Fatalf("unexpected snapshot with %d tasks", len(snap))
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	s := openTestStore(t)
	sub, err := s.Subscribe("user1")
	require.NoError(t, err)
	defer sub.Cancel()

	assert.Empty(t, nextSnapshot(t, sub))
}

func TestCreateUpdateDeleteLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sub, err := s.Subscribe("user1")
	require.NoError(t, err)
	defer sub.Cancel()
	nextSnapshot(t, sub) // initial, empty

	require.NoError(t, s.Create(ctx, "user1", "Buy milk", time.Time{}, task.PriorityMedium))

	snap := nextSnapshot(t, sub)
	require.Len(t, snap, 1)
	created := snap[0]
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.False(t, created.Completed)
	assert.Equal(t, "user1", created.OwnerID)
	assert.Equal(t, task.PriorityMedium, created.Priority)
	assert.False(t, created.HasDue())
	assert.False(t, created.CreatedAt.IsZero())

	completed := true
	require.NoError(t, s.Update(ctx, "user1", created.ID, task.Fields{Completed: &completed}))

	snap = nextSnapshot(t, sub)
	require.Len(t, snap, 1)
	assert.True(t, snap[0].Completed)
	assert.Equal(t, created.ID, snap[0].ID)
	assert.Equal(t, created.Title, snap[0].Title, "untouched fields survive a partial update")
	assert.Equal(t, created.Priority, snap[0].Priority)

	require.NoError(t, s.Delete(ctx, "user1", created.ID))
	assert.Empty(t, nextSnapshot(t, sub))
}

func TestCreateStoresDueDateAndPriority(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sub, err := s.Subscribe("user1")
	require.NoError(t, err)
	defer sub.Cancel()
	nextSnapshot(t, sub)

	due := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, "user1", "File taxes", due, task.PriorityHigh))

	snap := nextSnapshot(t, sub)
	require.Len(t, snap, 1)
	assert.Equal(t, due, snap[0].DueDate)
	assert.Equal(t, task.PriorityHigh, snap[0].Priority)
}

func TestSnapshotsPreserveCreationOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		require.NoError(t, s.Create(ctx, "user1", title, time.Time{}, task.PriorityMedium))
	}

	sub, err := s.Subscribe("user1")
	require.NoError(t, err)
	defer sub.Cancel()

	snap := nextSnapshot(t, sub)
	require.Len(t, snap, 3)
	assert.Equal(t, "first", snap[0].Title)
	assert.Equal(t, "second", snap[1].Title)
	assert.Equal(t, "third", snap[2].Title)
}

func TestUpdateMissingTask(t *testing.T) {
	s := openTestStore(t)
	title := "new title"
	err := s.Update(context.Background(), "user1", "no-such-id", task.Fields{Title: &title})
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestUpdateForeignTask(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "user1", "mine", time.Time{}, task.PriorityMedium))
	sub, err := s.Subscribe("user1")
	require.NoError(t, err)
	defer sub.Cancel()
	snap := nextSnapshot(t, sub)
	require.Len(t, snap, 1)

	completed := true
	err = s.Update(ctx, "user2", snap[0].ID, task.Fields{Completed: &completed})
	assert.ErrorIs(t, err, task.ErrNotFound, "another user's update must not touch the task")
}

func TestUpdateWithNoFieldsIsNoOp(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Update(context.Background(), "user1", "whatever", task.Fields{}))
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sub, err := s.Subscribe("user1")
	require.NoError(t, err)
	defer sub.Cancel()
	nextSnapshot(t, sub)

	assert.NoError(t, s.Delete(ctx, "user1", "never-existed"))
	requireNoSnapshot(t, sub)
}

func TestOwnerIsolation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sub1, err := s.Subscribe("user1")
	require.NoError(t, err)
	defer sub1.Cancel()
	sub2, err := s.Subscribe("user2")
	require.NoError(t, err)
	defer sub2.Cancel()
	nextSnapshot(t, sub1)
	nextSnapshot(t, sub2)

	require.NoError(t, s.Create(ctx, "user1", "secret errand", time.Time{}, task.PriorityMedium))

	snap := nextSnapshot(t, sub1)
	require.Len(t, snap, 1)
	requireNoSnapshot(t, sub2)

	require.NoError(t, s.Create(ctx, "user2", "own errand", time.Time{}, task.PriorityLow))
	snap2 := nextSnapshot(t, sub2)
	require.Len(t, snap2, 1)
	assert.Equal(t, "own errand", snap2[0].Title)
}

func TestCancelStopsDelivery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sub, err := s.Subscribe("user1")
	require.NoError(t, err)
	nextSnapshot(t, sub)

	sub.Cancel()
	require.NoError(t, s.Create(ctx, "user1", "after cancel", time.Time{}, task.PriorityMedium))

	_, ok := <-sub.Snapshots()
	assert.False(t, ok, "channel must be closed and deliver nothing after Cancel")

	// Cancelling again is safe.
	sub.Cancel()
}

func TestNewerSnapshotSupersedesUndelivered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sub, err := s.Subscribe("user1")
	require.NoError(t, err)
	defer sub.Cancel()
	nextSnapshot(t, sub)

	// Two mutations without a read in between: the slow consumer sees
	// the complete latest state, never a stale intermediate.
	require.NoError(t, s.Create(ctx, "user1", "one", time.Time{}, task.PriorityMedium))
	require.NoError(t, s.Create(ctx, "user1", "two", time.Time{}, task.PriorityMedium))

	snap := nextSnapshot(t, sub)
	assert.Len(t, snap, 2)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
