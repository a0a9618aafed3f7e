package pdfextract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const pageSeparator = "\n\n"

// ExtractText reads the entire content of r and extracts plain text page by
// page. Pages are joined with a blank line. When maxLength > 0 extraction stops
// as soon as the accumulated text reaches maxLength characters and the result
// is cut to exactly maxLength.
func ExtractText(r io.Reader, maxLength int) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", nil
	}
	return extract(bytes.NewReader(b), int64(len(b)), maxLength)
}

// ExtractFile is ExtractText for a file on disk.
func ExtractFile(path string, maxLength int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "", nil
	}
	return extract(f, info.Size(), maxLength)
}

func extract(readerAt io.ReaderAt, size int64, maxLength int) (text string, err error) {
	// the pdf package panics on some malformed documents
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	pdfReader, err := pdf.NewReader(readerAt, size)
	if err != nil {
		return "", err
	}

	var pages []string
	accumulated := 0
	for i := 1; i <= pdfReader.NumPage(); i++ {
		page := pdfReader.Page(i)
		pageText := ""
		if !page.V.IsNull() {
			pageText, err = page.GetPlainText(nil)
			if err != nil {
				return "", fmt.Errorf("read page %d: %w", i, err)
			}
		}
		if len(pages) > 0 {
			accumulated += utf8.RuneCountInString(pageSeparator)
		}
		pages = append(pages, pageText)
		accumulated += utf8.RuneCountInString(pageText)

		if maxLength > 0 && accumulated >= maxLength {
			return truncate(strings.Join(pages, pageSeparator), maxLength), nil
		}
	}
	return strings.Join(pages, pageSeparator), nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
