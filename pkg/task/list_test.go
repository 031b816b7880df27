package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListReplaceFirstMatchOnly(t *testing.T) {
	l := NewList([]Task{{ID: "x", Title: "one"}, {ID: "x", Title: "two"}})

	ok := l.Replace("x", func(t *Task) { t.Title = "changed" })

	assert.True(t, ok)
	assert.Equal(t, "changed", l.All()[0].Title)
	assert.Equal(t, "two", l.All()[1].Title)
	assert.False(t, l.Replace("y", func(t *Task) { t.Title = "never" }))
}

func TestListRemoveAllMatches(t *testing.T) {
	l := NewList([]Task{{ID: "x"}, {ID: "y"}, {ID: "x"}})

	assert.Equal(t, 2, l.Remove("x"))
	assert.Equal(t, []Task{{ID: "y"}}, l.All())
	assert.Equal(t, 0, l.Remove("x"))
}

func TestListAllIsACopy(t *testing.T) {
	src := []Task{{ID: "a", Title: "a"}}
	l := NewList(src)

	src[0].Title = "mutated"
	got := l.All()
	got[0].Title = "also mutated"

	assert.Equal(t, "a", l.All()[0].Title)
	assert.NotNil(t, NewList(nil).All())
}
