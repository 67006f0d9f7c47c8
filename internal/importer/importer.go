// Package importer turns uploaded CSV files into transaction create params.
package importer

import (
	"io"

	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
)

// Format names a column profile. FormatAuto picks the first profile whose columns are
// all present in some header row.
type Format string

const (
	FormatAuto      Format = ""
	FormatFintrack  Format = "fintrack"
	FormatSplit     Format = "split"
	FormatStatement Format = "statement"
)

type Importer interface {
	Parse(r io.Reader) (*Result, error)
}

type Result struct {
	Format  Format
	Charset string
	// Rows have CategoryID 0 unless the file carried one.
	Rows []transaction.CreateParams
}
