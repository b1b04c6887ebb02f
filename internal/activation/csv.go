package activation

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
)

// ParseCSV extracts activation records from CSV content.
//
// The exporter's column order is not stable, so columns are located by
// header name: the URL column contains "url", "link" or "activation", the
// username column contains "username", the email column contains "email"
// (all case-insensitive). A file without a header row is handled by
// locating the column whose cells are http(s) URLs. Records come back in
// file order; duplicates are preserved.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &FormatError{Reason: "malformed CSV: " + err.Error()}
	}
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, &FormatError{Reason: "CSV file is empty"}
	}

	urlCol, userCol, emailCol := -1, -1, -1
	data := rows

	if rowHasURL(rows[0]) {
		// No header row. Identify columns from the first data row.
		urlCol, userCol, emailCol = positionalColumns(rows[0])
	} else {
		for i, h := range rows[0] {
			switch h := strings.ToLower(h); {
			case strings.Contains(h, "url"), strings.Contains(h, "link"), strings.Contains(h, "activation"):
				urlCol = i
			case strings.Contains(h, "username"):
				userCol = i
			case strings.Contains(h, "email"):
				emailCol = i
			}
		}
		data = rows[1:]
	}

	if urlCol == -1 {
		return nil, &FormatError{Reason: "could not find URL column in CSV"}
	}

	var records []Record
	for _, row := range data {
		if len(row) <= urlCol {
			continue // incomplete row
		}
		rec := Record{URL: strings.TrimSpace(row[urlCol])}
		if userCol != -1 && len(row) > userCol {
			rec.Username = strings.TrimSpace(row[userCol])
		}
		if emailCol != -1 && len(row) > emailCol {
			rec.Email = strings.TrimSpace(row[emailCol])
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseCSVFile reads and parses a CSV file from disk.
func ParseCSVFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSV(f)
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		blank := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}

func isURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func rowHasURL(row []string) bool {
	for _, cell := range row {
		if isURL(cell) {
			return true
		}
	}
	return false
}

// positionalColumns maps a headerless row: the URL column holds the URL,
// a cell with "@" is the email, and the first remaining column is the
// username.
func positionalColumns(row []string) (urlCol, userCol, emailCol int) {
	urlCol, userCol, emailCol = -1, -1, -1
	for i, cell := range row {
		if isURL(cell) && urlCol == -1 {
			urlCol = i
		}
	}
	for i, cell := range row {
		if i == urlCol {
			continue
		}
		if strings.Contains(cell, "@") && emailCol == -1 {
			emailCol = i
			continue
		}
		if userCol == -1 {
			userCol = i
		}
	}
	return urlCol, userCol, emailCol
}
