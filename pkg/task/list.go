package task

import "slices"

// List is the ordered task collection of a single session.
// It is not safe for concurrent use; each request owns its own List.
type List struct {
	tasks []Task
}

// NewList wraps tasks in a List. The slice is copied.
func NewList(tasks []Task) *List {
	return &List{tasks: slices.Clone(tasks)}
}

// All returns a copy of the tasks in store order.
func (l *List) All() []Task {
	if len(l.tasks) == 0 {
		return []Task{}
	}
	return slices.Clone(l.tasks)
}

// Len returns the number of tasks.
func (l *List) Len() int {
	return len(l.tasks)
}

// Append adds t to the end of the list.
func (l *List) Append(t Task) {
	l.tasks = append(l.tasks, t)
}

// Replace applies fn to the first task whose ID matches. Returns false if none matched.
func (l *List) Replace(id string, fn func(*Task)) bool {
	for i := range l.tasks {
		if l.tasks[i].ID == id {
			fn(&l.tasks[i])
			return true
		}
	}
	return false
}

// Remove drops every task whose ID matches and returns how many were removed.
func (l *List) Remove(id string) int {
	before := len(l.tasks)
	l.tasks = slices.DeleteFunc(l.tasks, func(t Task) bool { return t.ID == id })
	return before - len(l.tasks)
}
