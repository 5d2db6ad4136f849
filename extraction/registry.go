package extraction

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format enumerates the supported document payload formats.
type Format string

const (
	// FormatUnknown represents an unsupported or undetected format.
	FormatUnknown Format = ""
	// FormatText represents plain text documents.
	FormatText Format = "text"
	// FormatHTML represents HTML documents.
	FormatHTML Format = "html"
	// FormatImage represents image files (extraction stubbed).
	FormatImage Format = "image"
	// FormatPDF represents PDF documents (extraction stubbed).
	FormatPDF Format = "pdf"
	// FormatEPUB represents EPUB container documents.
	FormatEPUB Format = "epub"
)

// DetectFormat infers a document format from the provided path's
// extension. Matching is case-insensitive.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatText
	case ".html", ".htm":
		return FormatHTML
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp":
		return FormatImage
	case ".pdf":
		return FormatPDF
	case ".epub":
		return FormatEPUB
	default:
		return FormatUnknown
	}
}

// Registry maps formats to processor instances. Registration is static:
// NewRegistry wires every supported format, and Resolve fails closed on
// anything else.
type Registry struct {
	processors map[Format]Processor
}

func NewRegistry() *Registry {
	text := TextProcessor{}
	html := HTMLProcessor{}
	image := ImageProcessor{}

	return &Registry{
		processors: map[Format]Processor{
			FormatText:  text,
			FormatHTML:  html,
			FormatImage: image,
			FormatPDF:   PDFProcessor{},
			FormatEPUB:  NewEPUBProcessor(text, html, image),
		},
	}
}

// Resolve returns the processor for the file at path, or an error
// wrapping ErrUnsupportedFormat when the extension is not registered.
func (r *Registry) Resolve(path string) (Processor, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, strings.ToLower(filepath.Ext(path)))
	}

	processor, ok := r.processors[format]
	if !ok {
		return nil, fmt.Errorf("%w: no processor registered for %s", ErrUnsupportedFormat, format)
	}
	return processor, nil
}
