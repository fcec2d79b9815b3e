// Package roster parses and validates the employee roster CSV.
package roster

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/lohnwerk/disburser/internal/domain"
	"github.com/lohnwerk/disburser/internal/iban"
)

// Required header columns, matched case-insensitively.
const (
	colName = "name"
	colIBAN = "iban"
	colDir  = "zielordner"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseResult carries the validated employees plus one human-readable error
// per rejected row. A roster is usable only when Errors is empty and at
// least one employee survived validation.
type ParseResult struct {
	Employees []domain.EmployeeRecord `json:"employees"`
	Errors    []string                `json:"errors,omitempty"`
}

func (r *ParseResult) Valid() bool {
	return len(r.Errors) == 0 && len(r.Employees) > 0
}

// ParseFile reads and parses a roster CSV from disk.
func ParseFile(path string) (*ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(data)
}

// Parse parses roster CSV bytes. The file may be UTF-8 (with or without
// BOM) or latin-1, separated by comma, semicolon or tab.
//
// Expected header:
//
//	name,iban,zielordner
func Parse(data []byte) (*ParseResult, error) {
	result := &ParseResult{}

	text := decode(data)
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	var missing []string
	for _, col := range []string{colName, colIBAN, colDir} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	lineNum := 1
	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
			continue
		}

		name := strings.TrimSpace(field(row, idx[colName]))
		rawIBAN := field(row, idx[colIBAN])
		rawDir := strings.TrimSpace(field(row, idx[colDir]))

		if name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: name is empty", lineNum))
			continue
		}
		validIBAN, err := iban.Validate(rawIBAN)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d (%s): invalid IBAN: %v", lineNum, name, err))
			continue
		}
		if rawDir == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d (%s): target directory is empty", lineNum, name))
			continue
		}
		targetDir, err := filepath.Abs(rawDir)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d (%s): bad target directory: %v", lineNum, name, err))
			continue
		}
		if err := os.MkdirAll(targetDir, 0o755); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d (%s): create target directory: %v", lineNum, name, err))
			continue
		}

		result.Employees = append(result.Employees, domain.EmployeeRecord{
			Name:       name,
			IBAN:       validIBAN,
			IBANMasked: iban.Mask(validIBAN),
			TargetDir:  targetDir,
		})
	}

	if len(result.Employees) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "roster contains no entries")
	}
	return result, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// decode strips a UTF-8 BOM and falls back to latin-1 for rosters exported
// by older spreadsheet tools.
func decode(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// sniffDelimiter picks the most frequent candidate separator in the header
// line.
func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	best := ','
	bestCount := strings.Count(line, ",")
	if c := strings.Count(line, ";"); c > bestCount {
		best, bestCount = ';', c
	}
	if c := strings.Count(line, "\t"); c > bestCount {
		best = '\t'
	}
	return best
}
