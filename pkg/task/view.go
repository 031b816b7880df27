package task

import (
	"cmp"
	"slices"
	"strings"
)

// Filter selects which tasks are shown.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// ParseFilter maps a query value to a Filter. Unknown values mean FilterAll.
func ParseFilter(s string) Filter {
	switch f := Filter(s); f {
	case FilterPending, FilterCompleted:
		return f
	default:
		return FilterAll
	}
}

// EmptyMessage is shown when the filtered view has no tasks.
func (f Filter) EmptyMessage() string {
	switch f {
	case FilterCompleted:
		return "No completed tasks yet. Keep working!"
	case FilterPending:
		return "No pending tasks. Great job!"
	default:
		return "No tasks yet. Add your first task above!"
	}
}

// Sort selects the display order.
type Sort string

const (
	SortCreated  Sort = "created"
	SortPriority Sort = "priority"
	SortTitle    Sort = "title"
)

// ParseSort maps a query value to a Sort. Unknown values mean SortCreated.
func ParseSort(s string) Sort {
	switch o := Sort(s); o {
	case SortPriority, SortTitle:
		return o
	default:
		return SortCreated
	}
}

// Counts are computed over the unfiltered list.
type Counts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// Count tallies tasks. Pending is always Total - Completed.
func Count(tasks []Task) Counts {
	c := Counts{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		}
	}
	c.Pending = c.Total - c.Completed
	return c
}

// View is what one request displays.
type View struct {
	Filter Filter `json:"filter"`
	Sort   Sort   `json:"sort"`
	Tasks  []Task `json:"tasks"`
	Counts Counts `json:"counts"`
}

// NewView derives the filtered, sorted view of tasks along with the counters.
func NewView(tasks []Task, f Filter, s Sort) View {
	return View{
		Filter: f,
		Sort:   s,
		Tasks:  Derive(tasks, f, s),
		Counts: Count(tasks),
	}
}

// Derive returns a new slice holding the tasks kept by f, ordered by s.
// Ties keep their relative store order. tasks is never modified.
func Derive(tasks []Task, f Filter, s Sort) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		switch f {
		case FilterPending:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}

	switch s {
	case SortPriority:
		slices.SortStableFunc(out, func(a, b Task) int {
			return cmp.Compare(b.Priority.Rank(), a.Priority.Rank())
		})
	case SortTitle:
		slices.SortStableFunc(out, func(a, b Task) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	default:
		slices.SortStableFunc(out, func(a, b Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}
