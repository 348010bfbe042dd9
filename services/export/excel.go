// Package export renders spreadsheets with excelize.
package export

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/swimschool/core"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultSheet    = "Sheet1"
	minColWidth     = 12
	maxColWidth     = 40
)

type ExcelExporter struct{}

var _ core.SpreadsheetExporter = (*ExcelExporter)(nil)

func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

func (ExcelExporter) ContentType() string { return xlsxContentType }

// Export writes one worksheet per sheet with a bold, filterable header row.
func (ExcelExporter) Export(sheets ...core.Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}

	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err = f.SetSheetName(defaultSheet, name); err != nil {
				return nil, errors.Wrap(err, "renaming sheet")
			}
		} else if _, err = f.NewSheet(name); err != nil {
			return nil, errors.Wrap(err, "adding sheet")
		}
		if err = writeSheet(f, name, s, bold); err != nil {
			return nil, errors.Wrapf(err, "writing sheet %q", name)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, s core.Sheet, headerStyle int) error {
	if len(s.Headings) == 0 {
		return nil
	}
	for c, h := range s.Headings {
		if err := f.SetCellStr(name, cellName(c+1, 1), h); err != nil {
			return err
		}
	}
	for r, row := range s.Rows {
		for c, val := range row {
			if err := f.SetCellStr(name, cellName(c+1, r+2), val); err != nil {
				return err
			}
		}
	}

	lastHeader := cellName(len(s.Headings), 1)
	if err := f.SetCellStyle(name, "A1", lastHeader, headerStyle); err != nil {
		return err
	}
	if err := f.AutoFilter(name, "A1:"+lastHeader, nil); err != nil {
		return err
	}

	for c := range s.Headings {
		width := utf8.RuneCountInString(s.Headings[c])
		for _, row := range s.Rows {
			if c < len(row) {
				if l := utf8.RuneCountInString(row[c]); l > width {
					width = l
				}
			}
		}
		w := float64(width) * 1.1
		if w < minColWidth {
			w = minColWidth
		}
		if w > maxColWidth {
			w = maxColWidth
		}
		col := columnName(c + 1)
		if err := f.SetColWidth(name, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// columnName turns 1 into A and 27 into AA.
func columnName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func cellName(col, row int) string {
	return fmt.Sprintf("%s%d", columnName(col), row)
}

// Read loads the rows of a sheet back, for checks on exported files.
func Read(content []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return f.GetRows(sheet)
}
