// Package export serializes a ResultSet into an XLSX workbook.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pdf2sheet/internal/common"
	"github.com/joseph-ayodele/pdf2sheet/internal/entity"
)

// UnstructuredKey marks fallback rows in the Structured sheet.
const UnstructuredKey = "__UNSTRUCTURED__"

const (
	SheetStructured = "Structured"
	SheetRawPages   = "Raw_Pages"
	SheetMetrics    = "Metrics"
)

type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// Workbook builds the XLSX file in memory: the Structured sheet (extracted
// rows plus __UNSTRUCTURED__ fallbacks), the Raw_Pages full-coverage backup,
// and a small Metrics sheet with run counts.
func (w *Writer) Workbook(rs *entity.ResultSet) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := w.writeStructured(f, rs); err != nil {
		return nil, err
	}
	if err := w.writeRawPages(f, rs); err != nil {
		return nil, err
	}
	if err := w.writeMetrics(f, rs); err != nil {
		return nil, err
	}

	// Drop the default sheet so the workbook opens on Structured.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex(SheetStructured)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

// WriteFile serializes the ResultSet to path. Failures here are write
// errors: fatal for the run, since there is no partial-output fallback.
func (w *Writer) WriteFile(rs *entity.ResultSet, path string) error {
	start := time.Now()

	f, err := w.Workbook(rs)
	if err != nil {
		return fmt.Errorf("build workbook: %v: %w", err, common.ErrWrite)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write %q: %v: %w", path, err, common.ErrWrite)
	}

	extracted, unstructured := rs.Counts()
	w.logger.Info("export.xlsx.ok",
		"path", path,
		"structured_rows", extracted+unstructured,
		"raw_pages", len(rs.RawPages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (w *Writer) writeStructured(f *excelize.File, rs *entity.ResultSet) error {
	if _, err := f.NewSheet(SheetStructured); err != nil {
		return err
	}
	if err := setHeaders(f, SheetStructured, []string{"Key", "Value", "Comments"}); err != nil {
		return err
	}

	row := 2
	for _, e := range rs.Structured {
		var key, value, comments string
		switch {
		case e.Fallback != nil:
			key = UnstructuredKey
			value = e.Fallback.RawResponse
			comments = e.Fallback.Reason
		case e.Record != nil:
			key = e.Record.Key
			value = e.Record.Value
			comments = e.Record.Comment
		default:
			continue
		}
		if err := setRow(f, SheetStructured, row, key, value, comments); err != nil {
			return err
		}
		row++
	}

	_ = f.SetColWidth(SheetStructured, "A", "A", 28)
	_ = f.SetColWidth(SheetStructured, "B", "B", 60)
	_ = f.SetColWidth(SheetStructured, "C", "C", 48)
	return nil
}

func (w *Writer) writeRawPages(f *excelize.File, rs *entity.ResultSet) error {
	if _, err := f.NewSheet(SheetRawPages); err != nil {
		return err
	}
	if err := setHeaders(f, SheetRawPages, []string{"Page", "Text"}); err != nil {
		return err
	}
	for i, pg := range rs.RawPages {
		if err := setRow(f, SheetRawPages, i+2, pg.Page, pg.Text); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetRawPages, "A", "A", 8)
	_ = f.SetColWidth(SheetRawPages, "B", "B", 100)
	return nil
}

func (w *Writer) writeMetrics(f *excelize.File, rs *entity.ResultSet) error {
	if _, err := f.NewSheet(SheetMetrics); err != nil {
		return err
	}
	if err := setHeaders(f, SheetMetrics, []string{"num_structured_rows", "num_pages"}); err != nil {
		return err
	}
	return setRow(f, SheetMetrics, 2, len(rs.Structured), len(rs.RawPages))
}

func setHeaders(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
