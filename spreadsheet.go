package sheetsign

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Extensions of workbooks excelize can open. Other formats (xls, ods, csv)
// are passed to the converter unchecked.
var ooxmlExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// IsOOXMLWorkbook reports whether name has an Office Open XML workbook
// extension.
func IsOOXMLWorkbook(name string) bool {
	return ooxmlExtensions[strings.ToLower(filepath.Ext(name))]
}

// SheetSummary describes one worksheet.
type SheetSummary struct {
	Name   string
	Hidden bool
	Rows   int
	Cols   int
}

// SheetInfo describes a workbook.
type SheetInfo struct {
	Sheets []SheetSummary
}

// Visible returns the number of visible sheets.
func (s *SheetInfo) Visible() int {
	n := 0
	for _, sh := range s.Sheets {
		if !sh.Hidden {
			n++
		}
	}
	return n
}

// InspectSpreadsheet opens an OOXML workbook and summarizes its sheets.
// An unreadable workbook or one without sheets is ErrInvalidSpreadsheet.
func InspectSpreadsheet(data []byte) (*SheetInfo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidSpreadsheet)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	defer func() { _ = f.Close() }()

	sheets, err := readSheets(f)
	if err != nil {
		return nil, err
	}

	info := &SheetInfo{Sheets: make([]SheetSummary, 0, len(sheets))}
	for _, sh := range sheets {
		info.Sheets = append(info.Sheets, SheetSummary{
			Name:   sh.Name,
			Hidden: sh.Hidden,
			Rows:   len(sh.Rows),
			Cols:   sh.Cols,
		})
	}
	return info, nil
}

// sheetRows is the cell text of one worksheet.
type sheetRows struct {
	Name   string
	Hidden bool
	Rows   [][]string
	Cols   int // widest row
}

// readSheets returns every worksheet in workbook order.
func readSheets(f *excelize.File) ([]sheetRows, error) {
	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidSpreadsheet)
	}

	out := make([]sheetRows, 0, len(names))
	for _, name := range names {
		visible, err := f.GetSheetVisible(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrInvalidSpreadsheet, name, err)
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrInvalidSpreadsheet, name, err)
		}

		cols := 0
		for _, row := range rows {
			cols = max(cols, len(row))
		}
		out = append(out, sheetRows{Name: name, Hidden: !visible, Rows: rows, Cols: cols})
	}
	return out, nil
}
