package extraction

import (
	"errors"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"notes.txt":      FormatText,
		"REPORT.TXT":     FormatText,
		"page.html":      FormatHTML,
		"page.htm":       FormatHTML,
		"photo.JPG":      FormatImage,
		"diagram.png":    FormatImage,
		"manual.pdf":     FormatPDF,
		"book.epub":      FormatEPUB,
		"archive.tar.gz": FormatUnknown,
		"noextension":    FormatUnknown,
	}

	for path, want := range cases {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()

	processor, err := registry.Resolve("dir/book.EPUB")
	if err != nil {
		t.Fatalf("resolve epub: %v", err)
	}
	if _, ok := processor.(*EPUBProcessor); !ok {
		t.Fatalf("expected EPUB processor, got %T", processor)
	}

	if _, err := registry.Resolve("notes.txt"); err != nil {
		t.Fatalf("resolve txt: %v", err)
	}
}

func TestRegistryResolveUnsupported(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Resolve("data.xlsx")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
