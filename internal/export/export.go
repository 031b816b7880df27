// Package export writes a task view as a downloadable file.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"taskpad/pkg/task"
)

// TimeLayout is how creation times appear in exports and on the page.
const TimeLayout = "Jan 2, 2006 3:04 PM"

// ErrUnknownFormat is returned for formats other than csv, pdf and xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

// Format describes one export format.
type Format struct {
	Name        string
	ContentType string
	Extension   string
	write       func(w io.Writer, v task.View) error
}

var formats = map[string]Format{
	"csv":  {Name: "csv", ContentType: "text/csv; charset=utf-8", Extension: ".csv", write: writeCSV},
	"pdf":  {Name: "pdf", ContentType: "application/pdf", Extension: ".pdf", write: writePDF},
	"xlsx": {Name: "xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Extension: ".xlsx", write: writeXLSX},
}

// Lookup returns the Format called name.
func Lookup(name string) (Format, error) {
	f, ok := formats[strings.ToLower(name)]
	if !ok {
		return Format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// Write renders v in format f.
func (f Format) Write(w io.Writer, v task.View) error {
	if err := f.write(w, v); err != nil {
		return fmt.Errorf("export %s: %w", f.Name, err)
	}
	return nil
}

// Bytes renders v in format f into memory.
func (f Format) Bytes(v task.View) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename is the suggested download name.
func (f Format) Filename(now time.Time) string {
	return "tasks-" + now.Format("20060102-150405") + f.Extension
}

var header = []string{"Title", "Description", "Priority", "Status", "Created"}

func row(t task.Task) []string {
	status := "Pending"
	if t.Completed {
		status = "Completed"
	}
	return []string{t.Title, t.Description, t.Priority.Label(), status, t.CreatedAt.Format(TimeLayout)}
}

func writeCSV(w io.Writer, v task.View) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, t := range v.Tasks {
		if err := cw.Write(row(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writePDF(w io.Writer, v task.View) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Task Manager", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Task Manager")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total: %d   Pending: %d   Completed: %d   Filter: %s   Sort: %s",
		v.Counts.Total, v.Counts.Pending, v.Counts.Completed, v.Filter, v.Sort))
	pdf.Ln(10)

	widths := []float64{70, 110, 22, 25, 40}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 236, 245)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, t := range v.Tasks {
		for i, cell := range row(t) {
			pdf.CellFormat(widths[i], 6, truncate(tr(cell), widths[i]), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(v.Tasks) == 0 {
		pdf.CellFormat(0, 6, "No tasks.", "1", 1, "C", false, 0, "")
	}

	return pdf.Output(w)
}

// truncate keeps table cells on one line: about one character per millimetre at 9pt.
// s is already single-byte encoded by the PDF translator.
func truncate(s string, width float64) string {
	n := int(width)
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func writeXLSX(w io.Writer, v task.View) error {
	const sheet = "Tasks"
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", style); err != nil {
		return err
	}
	for _, c := range []struct {
		col   string
		width float64
	}{{"A", 30}, {"B", 50}, {"E", 22}} {
		if err := f.SetColWidth(sheet, c.col, c.col, c.width); err != nil {
			return err
		}
	}

	for r, t := range v.Tasks {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := row(t)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
