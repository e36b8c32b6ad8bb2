package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxParseErrors caps how many malformed rows are collected before parsing
// stops. The upload fails either way; the cap only bounds the report.
var MaxParseErrors = 20

// ParseResult is the outcome of reading a CSV body. Records hold every data
// row keyed by header name, before any dataset validity check.
type ParseResult struct {
	Header  []string
	Records []Fields
	Errors  []string
}

// OK reports whether every row parsed.
func (p *ParseResult) OK() bool {
	return len(p.Errors) == 0
}

// ParseCSV reads a header row and the data rows after it. Each data row maps
// header names to cells by position. Repeated header names get a numeric
// suffix. Blank lines are skipped. Rows with bad
// quoting or a different number of fields than the header are collected in
// Errors rather than returned as an error; the error return is reserved for
// failures of the underlying reader.
func ParseCSV(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	result := &ParseResult{}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, err
			}
			result.Errors = append(result.Errors, describeParseError(perr))
			if len(result.Errors) >= MaxParseErrors {
				break
			}
			continue
		}

		if isEmptyRow(row) && len(row) == 1 {
			continue
		}

		if result.Header == nil {
			result.Header = cleanHeader(row)
			continue
		}

		if len(row) != len(result.Header) {
			line, _ := reader.FieldPos(0)
			result.Errors = append(result.Errors,
				fmt.Sprintf("line %d: expected %d fields, got %d", line, len(result.Header), len(row)))
			if len(result.Errors) >= MaxParseErrors {
				break
			}
			continue
		}

		var f Fields
		for i, name := range result.Header {
			f.SetString(name, row[i])
		}
		result.Records = append(result.Records, f)
	}

	return result, nil
}

func describeParseError(perr *csv.ParseError) string {
	if perr.Column > 0 {
		return fmt.Sprintf("line %d, column %d: %v", perr.Line, perr.Column, perr.Err)
	}
	return fmt.Sprintf("line %d: %v", perr.Line, perr.Err)
}

// cleanHeader trims header names and renames repeats to NAME_1, NAME_2 and
// so on, so every column keeps its own field.
func cleanHeader(row []string) []string {
	header := make([]string, len(row))
	seen := make(map[string]bool, len(row))
	for i, name := range row {
		name = strings.TrimSpace(name)
		base := name
		for n := 1; seen[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = true
		header[i] = name
	}
	return header
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
