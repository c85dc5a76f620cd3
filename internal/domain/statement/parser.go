// Package statement parses bank-statement files into normalized rows.
//
// Three formats are supported, selected by file extension: comma-separated
// text with a header row, XLSX spreadsheets (first sheet only), and a
// line-oriented tagged bank export. Header names are matched against several
// localized synonyms and decimal commas are normalized before parsing.
package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnsupportedFormat is returned for file extensions no parser handles.
var ErrUnsupportedFormat = errors.New("unsupported statement format")

// Parse dispatches on the filename's extension and returns normalized rows.
// A parseable file with no data rows yields an empty slice, not an error.
func Parse(data []byte, filename string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(data)
	case ".xlsx", ".xls":
		return parseXLSX(data)
	case ".txt", ".ofx":
		return parseTagged(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// Header synonyms across the locales the source statements come in.
var (
	dateHeaders        = []string{"date", "data", "dia", "data mov", "data operacao", "data operação"}
	descriptionHeaders = []string{"description", "descricao", "descrição", "historico", "histórico", "memo", "lancamento", "lançamento"}
	amountHeaders      = []string{"amount", "valor", "value", "montante"}
	balanceHeaders     = []string{"balance", "saldo"}
)

type columnMap struct {
	date, description, amount, balance int
}

func mapHeader(header []string) (columnMap, error) {
	cols := columnMap{date: -1, description: -1, amount: -1, balance: -1}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case cols.date < 0 && matchesAny(name, dateHeaders):
			cols.date = i
		case cols.description < 0 && matchesAny(name, descriptionHeaders):
			cols.description = i
		case cols.amount < 0 && matchesAny(name, amountHeaders):
			cols.amount = i
		case cols.balance < 0 && matchesAny(name, balanceHeaders):
			cols.balance = i
		}
	}
	if cols.date < 0 || cols.amount < 0 {
		return cols, fmt.Errorf("header is missing a recognizable date or amount column: %v", header)
	}
	return cols, nil
}

func matchesAny(name string, candidates []string) bool {
	for _, c := range candidates {
		if name == c {
			return true
		}
	}
	return false
}

func parseCSV(data []byte) ([]Row, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := reader.Read()
	if err == io.EOF {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		row, ok := buildRow(record, cols)
		if !ok {
			continue // tolerate rows with bad dates or amounts, like blank separators
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func buildRow(record []string, cols columnMap) (Row, bool) {
	if cols.date >= len(record) || cols.amount >= len(record) {
		return Row{}, false
	}

	date, ok := parseDate(record[cols.date])
	if !ok {
		return Row{}, false
	}
	amount, err := ParseAmount(record[cols.amount])
	if err != nil {
		return Row{}, false
	}

	row := Row{Date: date, Amount: amount}
	if cols.description >= 0 && cols.description < len(record) {
		row.Description = strings.TrimSpace(record[cols.description])
	}
	if cols.balance >= 0 && cols.balance < len(record) {
		if bal, err := ParseAmount(record[cols.balance]); err == nil {
			row.Balance = &bal
		}
	}
	return row, true
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02/01/06",
	"20060102",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseAmount normalizes a localized decimal string and parses it. Handles
// comma-as-decimal ("1.234,56"), dot-as-decimal ("1,234.56"), and plain
// values, with surrounding quotes or currency noise trimmed.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, "\"")
	cleaned = strings.TrimPrefix(cleaned, "R$")
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Decimal{}, errors.New("empty amount")
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		// 1.234,56 — dot is a thousands separator
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case lastComma >= 0 && lastDot >= 0:
		// 1,234.56 — comma is a thousands separator
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case lastComma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	return decimal.NewFromString(cleaned)
}
