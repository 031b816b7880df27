package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"taskpad/pkg/task"
)

func view() task.View {
	created := time.Date(2026, 2, 3, 14, 5, 0, 0, time.UTC)
	tasks := []task.Task{
		{ID: "1", Title: "Write report", Description: "Q1, with <numbers>", Priority: task.High, CreatedAt: created},
		{ID: "2", Title: "Café run", Priority: task.Low, Completed: true, CreatedAt: created.Add(time.Hour)},
	}
	return task.NewView(tasks, task.FilterAll, task.SortCreated)
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"csv", "PDF", "xlsx"} {
		f, err := Lookup(name)
		require.NoError(t, err)
		assert.NotEmpty(t, f.ContentType)
	}
	_, err := Lookup("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestCSV(t *testing.T) {
	f, _ := Lookup("csv")
	b, err := f.Bytes(view())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, header, records[0])
	assert.Equal(t, []string{"Café run", "", "Low", "Completed", "Feb 3, 2026 3:05 PM"}, records[1])
	assert.Equal(t, []string{"Write report", "Q1, with <numbers>", "High", "Pending", "Feb 3, 2026 2:05 PM"}, records[2])
}

func TestPDF(t *testing.T) {
	f, _ := Lookup("pdf")
	b, err := f.Bytes(view())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))

	empty, err := f.Bytes(task.NewView(nil, task.FilterCompleted, task.SortTitle))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF-")))
}

func TestXLSX(t *testing.T) {
	f, _ := Lookup("xlsx")
	b, err := f.Bytes(view())
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Tasks")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "Café run", rows[1][0])
	assert.Equal(t, "High", rows[2][2])
	assert.Equal(t, []string{"Tasks"}, book.GetSheetList())

	width, err := book.GetColWidth("Tasks", "B")
	require.NoError(t, err)
	assert.Equal(t, 50.0, width)
	styleID, err := book.GetCellStyle("Tasks", "E1")
	require.NoError(t, err)
	assert.NotZero(t, styleID)
}

func TestFilename(t *testing.T) {
	f, _ := Lookup("xlsx")
	name := f.Filename(time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC))
	assert.Equal(t, "tasks-20261016-093000.xlsx", name)
	assert.True(t, strings.HasSuffix(name, f.Extension))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 20))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 3), 10))
}
