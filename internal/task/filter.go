package task

// Filter selects which subset of the collection is displayed. Filtering
// is a display concern only; the store always delivers the full
// owner-scoped set.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterPriority  Filter = "priority"
)

// ParseFilter maps a config string to a filter mode. Unknown values
// fall back to FilterAll.
func ParseFilter(s string) Filter {
	switch Filter(s) {
	case FilterActive, FilterCompleted, FilterPriority:
		return Filter(s)
	default:
		return FilterAll
	}
}

// Next cycles all -> active -> completed -> priority -> all.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterActive
	case FilterActive:
		return FilterCompleted
	case FilterCompleted:
		return FilterPriority
	default:
		return FilterAll
	}
}

func (f Filter) matches(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterPriority:
		return t.Priority == PriorityHigh
	default:
		return true
	}
}

// Apply returns the tasks matching f in their original relative order.
// The input slice is never modified.
func Apply(tasks []Task, f Filter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.matches(t) {
			out = append(out, t)
		}
	}
	return out
}
