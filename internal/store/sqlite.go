// Package store is the SQLite-backed task store. It owns the
// authoritative collection and pushes complete owner-scoped snapshots
// to live subscriptions; nothing reads its tables directly.
package store

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"nuri/internal/task"
)

// Due dates are stored as bare ISO-8601 dates, not timestamps.
const dueLayout = "2006-01-02"

// createdLayout keeps a fixed-width fraction so that lexicographic
// order of stored timestamps matches chronological order.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB

	mu   sync.Mutex
	subs map[*subscription]struct{}
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, subs: make(map[*subscription]struct{})}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close cancels every open subscription and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	open := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		open = append(open, sub)
	}
	s.mu.Unlock()
	for _, sub := range open {
		sub.Cancel()
	}

	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	owner_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	due_date TEXT DEFAULT NULL,
	priority TEXT NOT NULL DEFAULT 'medium'
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks (owner_id);`
	_, err := s.db.Exec(ddl)
	return err
}

// Subscribe opens a standing query for the owner's tasks. The current
// state is delivered as the first snapshot, then one snapshot per
// mutation that touches this owner.
func (s *Store) Subscribe(ownerID string) (task.Subscription, error) {
	sub := &subscription{
		store:   s,
		ownerID: ownerID,
		ch:      make(chan []task.Task, 1),
	}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	snap, err := s.fetchTasks(ownerID)
	if err != nil {
		sub.Cancel()
		return nil, err
	}
	sub.push(snap)
	return sub, nil
}

func (s *Store) Create(ctx context.Context, ownerID, title string, due time.Time, priority task.Priority) error {
	if priority == "" {
		priority = task.PriorityMedium
	}
	dueStr := sql.NullString{}
	if !due.IsZero() {
		dueStr = sql.NullString{String: due.Format(dueLayout), Valid: true}
	}
	// Nanosecond precision keeps creation order stable in snapshots.
	now := time.Now().UTC().Format(createdLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, completed, owner_id, created_at, due_date, priority) VALUES (?, ?, 0, ?, ?, ?, ?);`,
		uuid.NewString(), title, ownerID, now, dueStr, string(priority))
	if err != nil {
		return err
	}
	s.notify(ownerID)
	return nil
}

// Update applies only the non-nil fields. It returns task.ErrNotFound
// when the task no longer exists or belongs to another owner.
func (s *Store) Update(ctx context.Context, ownerID, taskID string, fields task.Fields) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if fields.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *fields.Title)
	}
	if fields.Completed != nil {
		val := 0
		if *fields.Completed {
			val = 1
		}
		sets = append(sets, "completed = ?")
		args = append(args, val)
	}
	if fields.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, string(*fields.Priority))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, taskID, ownerID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND owner_id = ?;`, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return task.ErrNotFound
	}
	s.notify(ownerID)
	return nil
}

// Delete is idempotent: deleting an id that is already gone is not an
// error and produces no snapshot.
func (s *Store) Delete(ctx context.Context, ownerID, taskID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND owner_id = ?;`, taskID, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		s.notify(ownerID)
	}
	return nil
}

func (s *Store) fetchTasks(ownerID string) ([]task.Task, error) {
	rows, err := s.db.Query(
		`SELECT id, title, completed, owner_id, created_at, due_date, priority FROM tasks WHERE owner_id = ? ORDER BY created_at, id;`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		var t task.Task
		var completed int
		var createdStr, priorityStr string
		var dueStr sql.NullString

		if err := rows.Scan(&t.ID, &t.Title, &completed, &t.OwnerID, &createdStr, &dueStr, &priorityStr); err != nil {
			return nil, err
		}
		t.Completed = completed == 1
		t.Priority = task.ParsePriority(priorityStr)
		if created, err := time.Parse(createdLayout, createdStr); err == nil {
			t.CreatedAt = created
		}
		if dueStr.Valid {
			if due, err := time.Parse(dueLayout, dueStr.String); err == nil {
				t.DueDate = due
			}
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// notify pushes a fresh snapshot to every subscription watching this
// owner. A fetch failure here drops the notification; the state still
// reaches subscribers with the next successful mutation.
func (s *Store) notify(ownerID string) {
	s.mu.Lock()
	watching := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		if sub.ownerID == ownerID {
			watching = append(watching, sub)
		}
	}
	s.mu.Unlock()

	if len(watching) == 0 {
		return
	}
	snap, err := s.fetchTasks(ownerID)
	if err != nil {
		return
	}
	for _, sub := range watching {
		sub.push(snap)
	}
}

type subscription struct {
	store   *Store
	ownerID string

	mu     sync.Mutex
	ch     chan []task.Task
	closed bool
}

func (sub *subscription) Snapshots() <-chan []task.Task {
	return sub.ch
}

// push delivers a snapshot without blocking: an undelivered snapshot is
// replaced, since every snapshot fully supersedes the one before it.
func (sub *subscription) push(snap []task.Task) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- snap
}

// Cancel detaches the subscription and closes the channel. No snapshot
// is delivered after Cancel returns. Safe to call more than once.
func (sub *subscription) Cancel() {
	sub.store.mu.Lock()
	delete(sub.store.subs, sub)
	sub.store.mu.Unlock()

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
