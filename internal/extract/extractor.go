// Package extract converts validated uploads into normalized plain text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv"
	"github.com/corpora-ai/corpora/internal/domain"
)

// DocumentConverter abstracts the parser used for PDF and Word documents.
type DocumentConverter interface {
	Convert(r io.Reader, mimeType string) (string, error)
}

// DocconvConverter parses PDF, Word and RTF documents via docconv.
type DocconvConverter struct{}

func (DocconvConverter) Convert(r io.Reader, mimeType string) (string, error) {
	res, err := docconv.Convert(r, mimeType, false)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

// Extractor dispatches a validated media type to the matching extraction
// strategy and returns a single normalized text blob.
type Extractor struct {
	converter DocumentConverter
}

// New creates an Extractor backed by docconv.
func New() *Extractor {
	return &Extractor{converter: DocconvConverter{}}
}

// NewWithConverter creates an Extractor with a custom document converter (for testing).
func NewWithConverter(c DocumentConverter) *Extractor {
	return &Extractor{converter: c}
}

// Extract returns the normalized text of a document. Parser failures are
// wrapped as extraction errors carrying the original cause; extraction
// failure aborts ingestion of the document. The returned text has image
// artifacts stripped.
func (e *Extractor) Extract(content []byte, mediaType string) (string, error) {
	mt := domain.NormalizeMediaType(mediaType)

	var (
		text string
		err  error
	)

	switch {
	case strings.HasPrefix(mt, "text/"), mt == "application/json":
		text = string(content)

	case mt == "application/pdf",
		mt == "application/msword",
		mt == "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		mt == "application/vnd.ms-excel":
		text, err = e.converter.Convert(bytes.NewReader(content), mt)

	case mt == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		text, err = extractWorkbook(content)

	case mt == "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		mt == "application/vnd.ms-powerpoint",
		strings.HasPrefix(mt, "application/vnd.oasis.opendocument."):
		text, err = extractOfficeXML(content)

	default:
		return "", domain.NewExtractionError(mt, fmt.Errorf("no extraction strategy for media type"))
	}

	if err != nil {
		return "", domain.NewExtractionError(mt, err)
	}

	return StripImageArtifacts(text), nil
}
