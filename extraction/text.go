package extraction

import (
	"fmt"
	"unicode/utf8"
)

// TextProcessor decodes the whole payload as UTF-8 text and returns it as
// a single item.
type TextProcessor struct{}

func (TextProcessor) Extract(data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("decode text: %w", ErrDecode)
	}
	return []string{string(data)}, nil
}

var _ Processor = TextProcessor{}
