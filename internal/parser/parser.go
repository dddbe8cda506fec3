// Package parser converts long-form text formats (plain text, markdown,
// HTML, CSV, PDF, Word) into a flat sequence of blocks for chunking.
// Presentation files take the slide-extraction path instead and are not
// handled here.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Block is one unit of extracted document text, in reading order.
// Heading blocks are rendered with a markdown-style prefix downstream.
type Block struct {
	Heading bool
	Text    string
}

// Parser converts raw document bytes into ordered blocks.
type Parser interface {
	Parse(r io.Reader, filename string) ([]Block, error)
}

// SupportedExtensions lists file extensions this package can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}
