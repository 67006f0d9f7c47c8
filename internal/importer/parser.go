package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/category"
	enc "github.com/MrJamesThe3rd/fintrack/internal/encoding"
	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
)

var delimiters = []rune{',', ';', '\t'}

var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02-01-2006",
	"02/01/2006",
}

// Parser reads CSV files in any of the known profiles. A fixed format skips detection.
type Parser struct {
	format Format
}

func NewParser(format Format) *Parser {
	return &Parser{format: format}
}

func (p *Parser) Parse(r io.Reader) (*Result, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	candidates := profiles
	if p.format != FormatAuto {
		profile, ok := profileFor(p.format)
		if !ok {
			return nil, errs.Invalid("unknown import format %q", p.format)
		}

		candidates = []Profile{profile}
	}

	for _, delim := range delimiters {
		rows, err := readRows(data, delim)
		if err != nil {
			continue
		}

		profile, cols, headerIdx, ok := detectProfile(candidates, rows)
		if !ok {
			continue
		}

		params, err := parseRows(profile, cols, rows[headerIdx+1:], headerIdx+1)
		if err != nil {
			return nil, err
		}

		return &Result{Format: profile.Format, Charset: charset, Rows: params}, nil
	}

	return nil, errs.Invalid("no known column layout found: expected date, description and amount columns")
}

func readRows(data []byte, delim rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return reader.ReadAll()
}

// colIndex maps lower-cased header names to their index in the row.
type colIndex map[string]int

func (c colIndex) find(names []string) (int, bool) {
	for _, n := range names {
		if i, ok := c[n]; ok {
			return i, true
		}
	}

	return -1, false
}

// detectProfile scans rows for a header that matches one of the candidates.
func detectProfile(candidates []Profile, rows [][]string) (Profile, colIndex, int, bool) {
	for rowIdx, row := range rows {
		cols := make(colIndex, len(row))

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if _, dup := cols[name]; name != "" && !dup {
				cols[name] = i
			}
		}

		for _, p := range candidates {
			if matchesProfile(p, cols) {
				return p, cols, rowIdx, true
			}
		}
	}

	return Profile{}, nil, 0, false
}

func matchesProfile(p Profile, cols colIndex) bool {
	for _, names := range p.required() {
		if _, ok := cols.find(names); !ok {
			return false
		}
	}

	return true
}

// parseRows skips rows without a parseable date, such as blank lines and footers, and
// fails on rows that have a date but a broken amount.
func parseRows(p Profile, cols colIndex, rows [][]string, headerRowNum int) ([]transaction.CreateParams, error) {
	dateIdx, _ := cols.find(p.Date)
	descIdx, _ := cols.find(p.Desc)

	var params []transaction.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 1 // 1-based line number

		date, ok := parseDate(cellValue(row, dateIdx))
		if !ok {
			continue
		}

		amount, typ, ok, err := readAmount(p, cols, row)
		if err != nil {
			return nil, errs.Invalid("row %d: %v", rowNum, err)
		}

		if !ok {
			continue
		}

		cp := transaction.CreateParams{
			Amount: amount,
			Type:   typ,
			Date:   date,
		}

		if desc := cellValue(row, descIdx); desc != "" {
			cp.Description = &desc
		}

		if err := readOptional(p, cols, row, &cp); err != nil {
			return nil, errs.Invalid("row %d: %v", rowNum, err)
		}

		params = append(params, cp)
	}

	return params, nil
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// readAmount returns ok=false for rows that carry no movement.
func readAmount(p Profile, cols colIndex, row []string) (decimal.Decimal, transaction.Type, bool, error) {
	switch p.AmountMode {
	case amountTyped:
		idx, _ := cols.find(p.Amount)
		typeIdx, _ := cols.find(p.Type)

		amount, err := parseAmount(cellValue(row, idx))
		if err != nil {
			return decimal.Zero, "", false, fmt.Errorf("amount %q: %w", cellValue(row, idx), err)
		}

		typ, err := category.ParseType(cellValue(row, typeIdx))
		if err != nil {
			return decimal.Zero, "", false, err
		}

		return amount.Abs(), typ, !amount.IsZero(), nil
	case amountSigned:
		idx, _ := cols.find(p.Amount)

		return signedAmount(cellValue(row, idx))
	case amountSplit:
		debitIdx, _ := cols.find(p.Debit)
		creditIdx, _ := cols.find(p.Credit)

		if s := cellValue(row, debitIdx); s != "" {
			amount, err := parseAmount(s)
			if err != nil {
				return decimal.Zero, "", false, fmt.Errorf("debit %q: %w", s, err)
			}

			if !amount.IsZero() {
				return amount.Abs(), transaction.TypeExpense, true, nil
			}
		}

		if s := cellValue(row, creditIdx); s != "" {
			amount, err := parseAmount(s)
			if err != nil {
				return decimal.Zero, "", false, fmt.Errorf("credit %q: %w", s, err)
			}

			if !amount.IsZero() {
				return amount.Abs(), transaction.TypeIncome, true, nil
			}
		}
	}

	return decimal.Zero, "", false, nil
}

func signedAmount(s string) (decimal.Decimal, transaction.Type, bool, error) {
	if s == "" {
		return decimal.Zero, "", false, nil
	}

	amount, err := parseAmount(s)
	if err != nil {
		return decimal.Zero, "", false, fmt.Errorf("amount %q: %w", s, err)
	}

	switch amount.Sign() {
	case -1:
		return amount.Neg(), transaction.TypeExpense, true, nil
	case 1:
		return amount, transaction.TypeIncome, true, nil
	default:
		return decimal.Zero, "", false, nil
	}
}

func readOptional(p Profile, cols colIndex, row []string, cp *transaction.CreateParams) error {
	if idx, ok := cols.find(p.Category); ok {
		if s := cellValue(row, idx); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("category_id %q is not an integer", s)
			}

			cp.CategoryID = id
		}
	}

	if idx, ok := cols.find(p.Recurring); ok {
		if s := cellValue(row, idx); s != "" {
			recurring, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("is_recurring %q is not a boolean", s)
			}

			cp.IsRecurring = recurring
		}
	}

	if idx, ok := cols.find(p.Pattern); ok {
		if s := cellValue(row, idx); s != "" {
			cp.RecurrencePattern = &s
		}
	}

	return nil
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
