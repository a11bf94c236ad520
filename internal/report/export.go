package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/coworking-reservation/internal/policy"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name in any case.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (use csv, json or xlsx)", raw)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json; charset=utf-8"
}

// Write encodes d to w in format f.
func (d *Daily) Write(w io.Writer, f Format) error {
	switch f {
	case FormatCSV:
		return d.WriteCSV(w)
	case FormatJSON:
		return d.WriteJSON(w)
	case FormatXLSX:
		return d.WriteXLSX(w)
	}
	return fmt.Errorf("unknown export format %q", string(f))
}

// WriteCSV writes a header line followed by one record per row.
func (d *Daily) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return err
	}
	for _, r := range d.Rows {
		if err := cw.Write(r.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the rows as an indented JSON array, [] when empty.
func (d *Daily) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	rows := d.Rows
	if rows == nil {
		rows = []Row{}
	}
	return enc.Encode(rows)
}

const sheetName = "Reservations"

// WriteXLSX writes a single sheet workbook: a merged title row, a bold
// header row with a thick bottom border, then the data, all centred.
func (d *Daily) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(Headers))
	if err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    []excelize.Border{{Type: "bottom", Color: "000000", Style: 5}},
	})
	if err != nil {
		return err
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center"}})
	if err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, "A1", d.Title()); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle); err != nil {
		return err
	}

	header := make([]any, len(Headers))
	widths := make([]int, len(Headers))
	for i, h := range Headers {
		header[i] = h
		widths[i] = len([]rune(h))
	}
	if err := f.SetSheetRow(sheetName, "A2", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle); err != nil {
		return err
	}

	for i, r := range d.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		var capacity any = r.Capacity
		if r.Capacity <= 0 {
			capacity = ""
		}
		values := []any{r.Folio, r.Event, r.Client, r.Room, r.Shift, capacity}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
		for j, s := range r.Strings() {
			if n := len([]rune(s)); n > widths[j] {
				widths[j] = n
			}
		}
	}
	if len(d.Rows) > 0 {
		last := fmt.Sprintf("%s%d", lastCol, len(d.Rows)+2)
		if err := f.SetCellStyle(sheetName, "A3", last, cellStyle); err != nil {
			return err
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, col, col, float64(width+2)); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// FileName is the base name of an exported report, e.g.
// report_10172026.xlsx.
func (d *Daily) FileName(f Format) string {
	stamp := strings.ReplaceAll(d.Date.Format(policy.DisplayLayout), "-", "")
	return "report_" + stamp + "." + string(f)
}

// Export writes d into dir, creating it when needed, and returns the path
// of the new file.
func Export(dir string, d *Daily, f Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, d.FileName(f))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := d.Write(file, f); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return path, nil
}
