package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the urgency label of a task.
type Priority string

const (
	Low    Priority = "low"
	Medium Priority = "medium"
	High   Priority = "high"
)

// DefaultPriority is used when a form omits the priority or sends an unknown value.
const DefaultPriority = Medium

// ParsePriority maps form input to a Priority. Unknown values fall back to DefaultPriority.
func ParsePriority(s string) Priority {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case Low, Medium, High:
		return p
	default:
		return DefaultPriority
	}
}

// Rank orders priorities for sorting: high=3, medium=2, low=1.
func (p Priority) Rank() int {
	switch p {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// Label is the capitalised form shown on the priority badge.
func (p Priority) Label() string {
	switch p {
	case High:
		return "High"
	case Medium:
		return "Medium"
	case Low:
		return "Low"
	default:
		return string(p)
	}
}

// Task is one to-do item held in a session.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Status is "completed" or "pending".
func (t Task) Status() string {
	if t.Completed {
		return "completed"
	}
	return "pending"
}

// NewID returns a fresh time-ordered task ID.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
