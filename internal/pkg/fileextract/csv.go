package fileextract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// extractCSV joins fields with commas and rows with newlines, reading rows
// only until the joined text reaches maxLength.
func extractCSV(path string, maxLength int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []string
	joinedLen := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		row := strings.Join(record, ",")
		if !utf8.ValidString(row) {
			return "", fmt.Errorf("row %d is not valid utf-8", len(rows)+1)
		}
		if len(rows) > 0 {
			joinedLen++
		}
		rows = append(rows, row)
		joinedLen += utf8.RuneCountInString(row)
		if joinedLen >= maxLength {
			break
		}
	}
	return truncate(strings.Join(rows, "\n"), maxLength), nil
}
