// Package ui is the task screen: a Bubble Tea model that mirrors the
// remote store through a live subscription. The local task list is a
// read-only cache replaced wholesale by each snapshot; every mutation
// goes through the store and becomes visible only when the next
// snapshot arrives.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nuri/internal/auth"
	"nuri/internal/config"
	"nuri/internal/dateinput"
	"nuri/internal/session"
	"nuri/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeEntry
)

type field int

const (
	fieldTitle field = iota
	fieldDue
)

type (
	snapshotMsg    []task.Task
	subClosedMsg   struct{}
	signOutDoneMsg struct{ err error }
)

// opErrMsg reports a failed remote operation. The screen keeps running;
// the subscription is independent of any single failed write.
type opErrMsg struct {
	op  string
	err error
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	highStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	lowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
)

type Model struct {
	store    task.Store
	provider auth.Provider
	cfg      config.Config
	ownerID  string
	sub      task.Subscription
	now      func() time.Time

	tasks    []task.Task
	filter   task.Filter
	cursor   int
	mode     mode
	focus    field
	title    textinput.Model
	due      textinput.Model
	priority task.Priority
	edit     session.Session

	confirmDel bool
	pendingDel *task.Task
	status     string
}

func New(store task.Store, provider auth.Provider, cfg config.Config, ownerID string, sub task.Subscription) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	di := textinput.New()
	di.Placeholder = "YYYY-MM-DD"
	di.CharLimit = 10
	di.Width = 12

	return Model{
		store:    store,
		provider: provider,
		cfg:      cfg,
		ownerID:  ownerID,
		sub:      sub,
		now:      time.Now,
		filter:   task.ParseFilter(cfg.DefaultFilter),
		title:    ti,
		due:      di,
		priority: task.PriorityMedium,
		status:   "Press 'a' to add, space to toggle, 'f' to filter.",
	}
}

func Run(store task.Store, provider auth.Provider, cfg config.Config, ownerID string) error {
	sub, err := store.Subscribe(ownerID)
	if err != nil {
		return err
	}
	m := New(store, provider, cfg, ownerID, sub)
	program := tea.NewProgram(m)
	_, err = program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

// waitForSnapshot blocks on the subscription and is re-armed after each
// delivery, so snapshots reach Update one at a time in arrival order.
func (m Model) waitForSnapshot() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		snap, ok := <-sub.Snapshots()
		if !ok {
			return subClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.tasks = []task.Task(msg)
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		return m, m.waitForSnapshot()
	case subClosedMsg:
		return m, nil
	case opErrMsg:
		m.status = fmt.Sprintf("%s failed: %v", msg.op, msg.err)
		return m, nil
	case signOutDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("sign out failed: %v", msg.err)
			return m, nil
		}
		return m, tea.Quit
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		if m.mode == modeEntry {
			return m.updateEntryMode(msg.String(), msg)
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.title.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		m.sub.Cancel()
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.visible()))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.visible()))
		}
	case m.cfg.Keys.Add:
		m.startEntry("")
		m.status = "New task: type a title, tab for due date, ctrl+p cycles priority"
	case m.cfg.Keys.Edit:
		visible := m.visible()
		if len(visible) == 0 {
			m.status = "No tasks to edit"
			return m, nil
		}
		t := visible[m.cursor]
		m.startEntry(t.Title)
		m.edit.Start(t.ID)
		m.status = fmt.Sprintf("Renaming %q: enter to save, esc to cancel", t.Title)
	case m.cfg.Keys.Toggle:
		visible := m.visible()
		if len(visible) == 0 {
			return m, nil
		}
		return m, m.toggleCmd(visible[m.cursor])
	case m.cfg.Keys.Delete:
		visible := m.visible()
		if len(visible) == 0 {
			return m, nil
		}
		t := visible[m.cursor]
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case m.cfg.Keys.Filter:
		m.filter = m.filter.Next()
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		m.status = "Filter: " + string(m.filter)
	case m.cfg.Keys.SignOut:
		m.sub.Cancel()
		m.status = "Signing out..."
		return m, m.signOutCmd()
	}
	return m, nil
}

func (m Model) updateEntryMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.leaveEntry()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Field:
		if m.edit.Editing() {
			return m, nil
		}
		if m.focus == fieldTitle {
			m.focus = fieldDue
			m.title.Blur()
			m.due.Focus()
		} else {
			m.focus = fieldTitle
			m.due.Blur()
			m.title.Focus()
		}
		return m, nil
	case m.cfg.Keys.Priority:
		if m.edit.Editing() {
			return m, nil
		}
		m.priority = m.priority.Next()
		m.status = "Priority: " + string(m.priority)
		return m, nil
	case m.cfg.Keys.Confirm:
		return m.submitEntry()
	default:
		var cmd tea.Cmd
		if m.focus == fieldDue {
			m.due, cmd = m.due.Update(msg)
			m.due.SetValue(dateinput.Format(m.due.Value()))
			m.due.CursorEnd()
		} else {
			m.title, cmd = m.title.Update(msg)
		}
		return m, cmd
	}
}

// submitEntry dispatches the confirm key: a title save when an edit
// session is active, a create otherwise. Never both.
func (m Model) submitEntry() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.title.Value())
	if title == "" {
		// Stay in entry mode; an active edit session stays active.
		m.status = "Title cannot be empty"
		return m, nil
	}

	if id, editing := m.edit.Task(); editing {
		cmd := m.saveTitleCmd(id, title)
		m.leaveEntry()
		m.status = "Saving title"
		return m, cmd
	}

	due, err := dateinput.Validate(m.due.Value(), m.now())
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	cmd := m.createCmd(title, due, m.priority)
	m.leaveEntry()
	m.status = "Adding task"
	return m, cmd
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		cmd := m.deleteCmd(m.pendingDel.ID)
		m.status = "Deleting task"
		m.confirmDel = false
		m.pendingDel = nil
		return m, cmd
	default:
		return m, nil
	}
}

func (m *Model) startEntry(title string) {
	m.mode = modeEntry
	m.focus = fieldTitle
	m.edit.Reset()
	m.title.SetValue(title)
	m.title.CursorEnd()
	m.title.Focus()
	m.due.SetValue("")
	m.due.Blur()
	m.priority = task.PriorityMedium
}

func (m *Model) leaveEntry() {
	m.mode = modeList
	m.edit.Reset()
	m.title.SetValue("")
	m.title.Blur()
	m.due.SetValue("")
	m.due.Blur()
	m.priority = task.PriorityMedium
}

func (m Model) visible() []task.Task {
	return task.Apply(m.tasks, m.filter)
}

func (m Model) createCmd(title string, due time.Time, priority task.Priority) tea.Cmd {
	store, owner := m.store, m.ownerID
	return func() tea.Msg {
		if err := store.Create(context.Background(), owner, title, due, priority); err != nil {
			return opErrMsg{op: "add", err: err}
		}
		return nil
	}
}

func (m Model) saveTitleCmd(id, title string) tea.Cmd {
	store, owner := m.store, m.ownerID
	return func() tea.Msg {
		if err := store.Update(context.Background(), owner, id, task.Fields{Title: &title}); err != nil {
			return opErrMsg{op: "rename", err: err}
		}
		return nil
	}
}

func (m Model) toggleCmd(t task.Task) tea.Cmd {
	store, owner := m.store, m.ownerID
	completed := !t.Completed
	return func() tea.Msg {
		if err := store.Update(context.Background(), owner, t.ID, task.Fields{Completed: &completed}); err != nil {
			return opErrMsg{op: "toggle", err: err}
		}
		return nil
	}
}

func (m Model) deleteCmd(id string) tea.Cmd {
	store, owner := m.store, m.ownerID
	return func() tea.Msg {
		if err := store.Delete(context.Background(), owner, id); err != nil {
			return opErrMsg{op: "delete", err: err}
		}
		return nil
	}
}

func (m Model) signOutCmd() tea.Cmd {
	provider := m.provider
	return func() tea.Msg {
		return signOutDoneMsg{err: provider.SignOut(context.Background())}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("nuri · " + m.ownerID))
	b.WriteString("\n")
	b.WriteString(m.renderFilterLine())
	b.WriteString("\n\n")

	visible := m.visible()
	switch {
	case len(m.tasks) == 0:
		b.WriteString(mutedStyle.Render("No tasks yet. Press 'a' to add one."))
		b.WriteString("\n")
	case len(visible) == 0:
		b.WriteString(mutedStyle.Render("No tasks match this filter."))
		b.WriteString("\n")
	default:
		for i, t := range visible {
			b.WriteString(m.renderTaskRow(t, i == m.cursor && m.mode == modeList))
			b.WriteString("\n")
		}
	}

	if m.mode == modeEntry {
		b.WriteString("\n")
		b.WriteString(m.renderEntryPanel())
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) renderFilterLine() string {
	parts := make([]string, 0, 4)
	for _, f := range []task.Filter{task.FilterAll, task.FilterActive, task.FilterCompleted, task.FilterPriority} {
		label := string(f)
		if f == m.filter {
			label = activeStyle.Render("[" + label + "]")
		} else {
			label = mutedStyle.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderTaskRow(t task.Task, selected bool) string {
	cursor := " "
	if selected {
		cursor = ">"
	}

	checkbox := "[ ]"
	if t.Completed {
		checkbox = "[x]"
	}

	title := t.Title
	if t.Completed {
		title = doneStyle.Render(title)
	}

	extras := make([]string, 0, 2)
	if t.HasDue() {
		due := "due " + t.DueDate.Format(dateinput.Layout)
		if m.overdue(t) {
			due = overdueStyle.Render(due)
		} else {
			due = mutedStyle.Render(due)
		}
		extras = append(extras, due)
	}
	switch t.Priority {
	case task.PriorityHigh:
		extras = append(extras, highStyle.Render("high"))
	case task.PriorityLow:
		extras = append(extras, lowStyle.Render("low"))
	}

	body := fmt.Sprintf("%s %s %s", cursor, checkbox, title)
	if len(extras) > 0 {
		body += "  " + strings.Join(extras, " ")
	}
	return body
}

func (m Model) overdue(t task.Task) bool {
	if !t.HasDue() || t.Completed {
		return false
	}
	now := m.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return t.DueDate.Before(today)
}

func (m Model) renderEntryPanel() string {
	var b strings.Builder
	if m.edit.Editing() {
		b.WriteString("Rename task\n")
		b.WriteString("Title: " + m.title.View())
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString("New task\n")
	b.WriteString("Title: " + m.title.View())
	b.WriteString("\n")
	b.WriteString("Due:   " + m.due.View())
	b.WriteString("\n")
	b.WriteString("Priority: " + string(m.priority))
	b.WriteString("\n")
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s toggle • %s rename • %s delete • %s filter • %s sign out • %s quit",
		k.Up, k.Down, k.Add, k.Toggle, k.Edit, k.Delete, k.Filter, k.SignOut, k.Quit)
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
