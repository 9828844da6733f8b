// Package report renders the weekly completion report for download.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/task-store/domain/task"
	"github.com/jung-kurt/gofpdf"
)

// Supported export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

// ErrUnknownFormat is returned for formats the exporter cannot render.
type ErrUnknownFormat struct {
	Format string
}

func (e *ErrUnknownFormat) Error() string {
	return fmt.Sprintf("unknown export format %q", e.Format)
}

// Exporter renders weekly completion rows into downloadable documents.
type Exporter struct{}

// NewExporter creates a new Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export renders the rows in the requested format and returns the
// document bytes together with the matching content type.
func (e *Exporter) Export(rows []task.WeeklyCompletion, format string) ([]byte, string, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		b, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to render JSON report: %w", err)
		}
		return b, "application/json", nil

	case FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"year", "week_number", "total_tasks", "completed_tasks", "completion_percentage"})
		for _, row := range rows {
			_ = w.Write([]string{
				strconv.Itoa(row.Year),
				strconv.Itoa(row.WeekNumber),
				strconv.Itoa(row.TotalTasks),
				strconv.Itoa(row.CompletedTasks),
				strconv.FormatFloat(row.CompletionPercentage, 'f', 2, 64),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", fmt.Errorf("failed to render CSV report: %w", err)
		}
		return buf.Bytes(), "text/csv", nil

	case FormatPDF:
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(40, 10, "Weekly Task Completion Report")
		pdf.Ln(12)
		pdf.SetFont("Arial", "", 10)
		if len(rows) == 0 {
			pdf.MultiCell(0, 6, "No tasks created in the reporting window.", "0", "L", false)
		}
		for _, row := range rows {
			line := fmt.Sprintf("Week %d/%d: %d tasks, %d completed (%.2f%%)",
				row.Year, row.WeekNumber, row.TotalTasks, row.CompletedTasks, row.CompletionPercentage)
			pdf.MultiCell(0, 6, line, "0", "L", false)
		}
		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			return nil, "", fmt.Errorf("failed to render PDF report: %w", err)
		}
		return buf.Bytes(), "application/pdf", nil

	default:
		return nil, "", &ErrUnknownFormat{Format: format}
	}
}
