package task

import (
	"strings"
	"time"
)

// Action is a mutation submitted with a request.
type Action string

const (
	ActionNone   Action = ""
	ActionAdd    Action = "add"
	ActionToggle Action = "toggle"
	ActionDelete Action = "delete"
	ActionEdit   Action = "edit"
)

// ParseAction maps a submitted action name to an Action. Anything else is ActionNone.
func ParseAction(s string) Action {
	switch a := Action(strings.TrimSpace(s)); a {
	case ActionAdd, ActionToggle, ActionDelete, ActionEdit:
		return a
	default:
		return ActionNone
	}
}

// Form carries the submitted fields of one mutation. Priority is raw input and is
// parsed by the dispatcher.
type Form struct {
	Action      Action
	TaskID      string
	Title       string
	Description string
	Priority    string
}

// Dispatcher applies Forms to a List. The zero value uses time.Now and NewID.
type Dispatcher struct {
	Now   func() time.Time
	NewID func() string
}

// Apply performs at most one mutation on l and reports whether l changed.
// Invalid input and unknown IDs are silent no-ops.
func (d Dispatcher) Apply(l *List, f Form) bool {
	switch f.Action {
	case ActionAdd:
		title := strings.TrimSpace(f.Title)
		if title == "" {
			return false
		}
		l.Append(Task{
			ID:          d.newID(),
			Title:       title,
			Description: f.Description,
			Priority:    ParsePriority(f.Priority),
			CreatedAt:   d.now(),
		})
		return true

	case ActionToggle:
		return l.Replace(f.TaskID, func(t *Task) {
			t.Completed = !t.Completed
		})

	case ActionDelete:
		return l.Remove(f.TaskID) > 0

	case ActionEdit:
		title := strings.TrimSpace(f.Title)
		if title == "" {
			return false
		}
		return l.Replace(f.TaskID, func(t *Task) {
			t.Title = title
			t.Description = f.Description
			t.Priority = ParsePriority(f.Priority)
		})
	}
	return false
}

func (d Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().Truncate(time.Microsecond)
}

func (d Dispatcher) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return NewID()
}

// Apply runs f against l with the default Dispatcher.
func Apply(l *List, f Form) bool {
	return Dispatcher{}.Apply(l, f)
}
