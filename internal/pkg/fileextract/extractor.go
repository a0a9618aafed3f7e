package fileextract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"gopherai-chatbot/internal/pkg/pdfextract"
)

const DefaultMaxLength = 10000

var ErrNotFound = errors.New("file not found")

const (
	mimeDoc  = "application/msword"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePDF  = "application/pdf"
	mimeCSV  = "text/csv"
)

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".json": true, ".html": true, ".css": true,
	".js": true, ".py": true, ".java": true, ".c": true, ".cpp": true,
	".h": true, ".ts": true, ".tsx": true, ".jsx": true,
}

var textMIMEs = map[string]bool{
	"text/plain":       true,
	"text/markdown":    true,
	"application/json": true,
	"text/html":        true,
	"text/css":         true,
	"text/javascript":  true,
}

var extensionMIMEs = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".json": "application/json",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".pdf":  mimePDF,
	".doc":  mimeDoc,
	".docx": mimeDocx,
	".csv":  mimeCSV,
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// ImageLabeler produces a short human-readable description of an image file.
type ImageLabeler interface {
	Describe(path string) (string, error)
}

type Option func(*Extractor)

func WithImageLabeler(l ImageLabeler) Option {
	return func(e *Extractor) {
		e.labeler = l
	}
}

// Extractor turns uploaded files into plain text for prompting.
type Extractor struct {
	labeler ImageLabeler
}

func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns at most maxLength characters of text for the file at path.
// Only a missing file is reported as an error; parse failures are folded into
// the returned text so a bad attachment never aborts the caller.
func (e *Extractor) Extract(path string, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("stat file failed: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	mediaType := guessMediaType(path, ext)

	switch {
	case textMIMEs[mediaType] || textExtensions[ext]:
		return extractText(path, maxLength)
	case mediaType == mimePDF:
		text, err := pdfextract.ExtractFile(path, maxLength)
		if err != nil {
			return "Error extracting PDF content: " + err.Error(), nil
		}
		return text, nil
	case mediaType == mimeDoc || mediaType == mimeDocx:
		text, err := extractDocx(path)
		if err != nil {
			return "Error extracting Word document content: " + err.Error(), nil
		}
		return truncate(text, maxLength), nil
	case mediaType == mimeCSV:
		text, err := extractCSV(path, maxLength)
		if err != nil {
			return "Error extracting CSV content: " + err.Error(), nil
		}
		return text, nil
	default:
		return e.placeholder(path, mediaType), nil
	}
}

func (e *Extractor) placeholder(path, mediaType string) string {
	label := mediaType
	if label == "" {
		label = "binary"
	}
	out := fmt.Sprintf("[File content not extracted: %s is a %s file]", filepath.Base(path), label)

	if e.labeler != nil && strings.HasPrefix(mediaType, "image/") {
		if desc, err := e.labeler.Describe(path); err == nil && desc != "" {
			out += "\nDetected image labels: " + desc
		}
	}
	return out
}

// guessMediaType prefers the extension and falls back to content sniffing.
// An empty result means the type could not be inferred.
func guessMediaType(path, ext string) string {
	if mt, ok := extensionMIMEs[ext]; ok {
		return mt
	}
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	mt, _, _ := strings.Cut(detected.String(), ";")
	mt = strings.TrimSpace(mt)
	if mt == "application/octet-stream" {
		return ""
	}
	return mt
}

func extractText(path string, maxLength int) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file failed: %w", err)
	}
	return truncate(strings.ToValidUTF8(string(raw), ""), maxLength), nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
