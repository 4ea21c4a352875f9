package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docflow/internal/entity"
)

// SheetName is the worksheet holding exported documents.
const SheetName = "Documents"

// DocumentLister returns documents matching a filter.
type DocumentLister interface {
	List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.Document, error)
}

// Service is a tiny façade over the document listing that produces XLSX bytes.
type Service struct {
	docs   DocumentLister
	logger *slog.Logger
}

func NewService(docs DocumentLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

var headers = []string{
	"Title",
	"Status",
	"Tags",
	"Summary",
	"Created",
	"Signed",
}

// ExportDocumentsXLSX returns an XLSX workbook (as bytes) with one row per
// document matching filter, newest first.
func (s *Service) ExportDocumentsXLSX(ctx context.Context, filter entity.DocumentFilter) ([]byte, error) {
	start := time.Now()

	docs, err := s.docs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// Rename the default sheet rather than leaving an empty "Sheet1".
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, err
		}
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(SheetName, "A1", "F1", bold)
	}

	for i, d := range docs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		write(1, d.Title)
		write(2, string(d.Status))
		write(3, strings.Join(d.Tags, ", "))
		write(4, truncate(d.Summary, 500))
		write(5, d.CreatedAt.UTC().Format("2006-01-02"))
		write(6, d.IsSigned())
	}

	_ = f.SetColWidth(SheetName, "A", "A", 32) // title
	_ = f.SetColWidth(SheetName, "B", "B", 20) // status
	_ = f.SetColWidth(SheetName, "C", "C", 28) // tags
	_ = f.SetColWidth(SheetName, "D", "D", 60) // summary
	_ = f.SetColWidth(SheetName, "E", "F", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"owner_id", filter.OwnerID,
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
