package excel

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/claude/perfutils/internal/spreadsheet"
	"github.com/xuri/excelize/v2"
)

// Compile-time checks.
var (
	_ spreadsheet.Workbook  = (*Workbook)(nil)
	_ spreadsheet.Worksheet = (*Worksheet)(nil)
)

// Workbook is an Excel (.xlsx) workbook backed by excelize.
type Workbook struct {
	name string
	path string
	file *excelize.File
}

// Open loads <name>.xlsx, or creates and saves a new workbook when the file
// does not exist. A name already ending in .xlsx is used as the path as is.
func Open(name string) (*Workbook, error) {
	path := name
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path = name + ".xlsx"
	}
	wb := &Workbook{name: strings.TrimSuffix(name, ".xlsx"), path: path}

	f, err := excelize.OpenFile(path)
	switch {
	case err == nil:
		wb.file = f
	case errors.Is(err, os.ErrNotExist):
		wb.file = excelize.NewFile()
		if err := wb.Save(); err != nil {
			wb.file.Close()
			return nil, err
		}
	default:
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	return wb, nil
}

// Name returns the workbook title.
func (wb *Workbook) Name() string { return wb.name }

// Path returns the file the workbook is stored in.
func (wb *Workbook) Path() string { return wb.path }

// Sheet opens a worksheet by name, creating it at the end of the sheet list
// if needed.
func (wb *Workbook) Sheet(name string) (spreadsheet.Worksheet, error) {
	if wb.file == nil {
		return nil, spreadsheet.ErrClosed
	}
	if !slices.Contains(wb.file.GetSheetList(), name) {
		if _, err := wb.file.NewSheet(name); err != nil {
			return nil, fmt.Errorf("creating sheet %q: %w", name, err)
		}
	}
	return &Worksheet{wb: wb, name: name}, nil
}

// Sheets lists worksheet names in workbook order.
func (wb *Workbook) Sheets() []string {
	if wb.file == nil {
		return nil
	}
	return wb.file.GetSheetList()
}

// Rows returns every non-empty row of a sheet as text.
func (wb *Workbook) Rows(sheet string) ([][]string, error) {
	if wb.file == nil {
		return nil, spreadsheet.ErrClosed
	}
	rows, err := wb.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// Save writes the workbook to its file.
func (wb *Workbook) Save() error {
	if wb.file == nil {
		return spreadsheet.ErrClosed
	}
	if err := wb.file.SaveAs(wb.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", wb.path, err)
	}
	return nil
}

// Delete closes the workbook and removes its file.
func (wb *Workbook) Delete() error {
	if err := wb.Close(); err != nil {
		return err
	}
	if err := os.Remove(wb.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting workbook %s: %w", wb.path, err)
	}
	return nil
}

// Close releases the underlying file without saving.
func (wb *Workbook) Close() error {
	if wb.file == nil {
		return nil
	}
	err := wb.file.Close()
	wb.file = nil
	return err
}

// Worksheet is a sheet inside an Excel workbook.
type Worksheet struct {
	wb   *Workbook
	name string
}

// Name returns the sheet title.
func (ws *Worksheet) Name() string { return ws.name }

// Read returns a cell's formatted text.
func (ws *Worksheet) Read(row, column int) (string, error) {
	if ws.wb.file == nil {
		return "", spreadsheet.ErrClosed
	}
	cell, err := excelize.CoordinatesToCellName(column, row)
	if err != nil {
		return "", err
	}
	return ws.wb.file.GetCellValue(ws.name, cell)
}

// Update sets a cell. Canonical numbers are stored as numeric cells so that
// Excel formulas can use them; everything else is stored as text. Read
// returns data unchanged either way.
func (ws *Worksheet) Update(row, column int, data string) error {
	if ws.wb.file == nil {
		return spreadsheet.ErrClosed
	}
	cell, err := excelize.CoordinatesToCellName(column, row)
	if err != nil {
		return err
	}
	if v, ok := parseNumber(data); ok {
		return ws.wb.file.SetCellFloat(ws.name, cell, v, -1, 64)
	}
	return ws.wb.file.SetCellStr(ws.name, cell, data)
}

// Delete removes the sheet from the workbook. The last remaining sheet of a
// workbook cannot be deleted.
func (ws *Worksheet) Delete() error {
	if ws.wb.file == nil {
		return spreadsheet.ErrClosed
	}
	sheets := ws.wb.file.GetSheetList()
	if !slices.Contains(sheets, ws.name) {
		return fmt.Errorf("sheet %q does not exist", ws.name)
	}
	if len(sheets) == 1 {
		return fmt.Errorf("cannot delete %q: a workbook needs at least one sheet", ws.name)
	}
	return ws.wb.file.DeleteSheet(ws.name)
}
