package core

import (
	"context"
	"io"
)

type (
	// FileStorage stores uploaded files under date partitioned paths (uploads/YYYY/MM/D/<hash><ext>).
	FileStorage interface {
		// Store saves the content of r and returns its relative path. name is only used for its extension.
		Store(ctx context.Context, name string, r io.Reader) (string, error)
		// Delete removes the file at path; false means there was nothing to delete.
		Delete(ctx context.Context, path string) (bool, error)
	}

	// Sheet is a single worksheet: headings on the first row followed by the data rows.
	Sheet struct {
		Title    string
		Headings []string
		Rows     [][]string
	}

	// SpreadsheetExporter renders sheets into a downloadable workbook.
	SpreadsheetExporter interface {
		Export(sheets ...Sheet) ([]byte, error)
		ContentType() string
	}
)
