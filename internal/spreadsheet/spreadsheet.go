package spreadsheet

import "errors"

// ErrClosed is returned by operations on a closed or deleted workbook.
var ErrClosed = errors.New("workbook is closed")

// Worksheet is a single sheet of a workbook. Rows and columns are 1-based.
type Worksheet interface {
	// Name returns the sheet title.
	Name() string
	// Read returns the text of a cell. Empty cells read as "".
	Read(row, column int) (string, error)
	// Update replaces the content of a cell.
	Update(row, column int, data string) error
	// Delete removes the sheet from its workbook.
	Delete() error
}

// Workbook is a spreadsheet document. Implementations create the backing
// document on open if it does not exist yet.
type Workbook interface {
	// Name returns the workbook title.
	Name() string
	// Sheet opens the named worksheet, creating it if it does not exist.
	Sheet(name string) (Worksheet, error)
	// Sheets lists the worksheet names in order.
	Sheets() []string
	// Save writes the workbook to storage.
	Save() error
	// Delete destroys the backing document.
	Delete() error
	// Close releases the workbook without saving.
	Close() error
}
