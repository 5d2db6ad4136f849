// Package extraction turns raw file contents into ordered text items.
// Each supported format has its own Processor; the Registry picks one by
// file extension. The EPUB processor composes the text, HTML, and image
// processors to handle the archive's sub-resources.
package extraction

import "errors"

// ErrUnsupportedFormat is returned by Registry.Resolve when a file's
// extension maps to no registered processor. Callers skip the file and
// continue the batch.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrDecode is returned when a text payload is not valid UTF-8. It fails
// the file it came from only.
var ErrDecode = errors.New("payload is not valid UTF-8")

// Processor extracts an ordered sequence of text items from one file's
// raw bytes. Stub processors never fail; they return a descriptive
// placeholder item instead.
type Processor interface {
	Extract(data []byte) ([]string, error)
}
