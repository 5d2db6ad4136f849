package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	containerPath    = "META-INF/container.xml"
	packageMediaType = "application/oebps-package+xml"
)

// EPUBProcessor treats the payload as a zip-based EPUB3 container and
// routes each manifest resource to the processor for its media type.
// A malformed container or package document degrades to a single
// explanatory placeholder item; a malformed individual resource is
// skipped so the rest of the archive still extracts.
type EPUBProcessor struct {
	text  Processor
	html  Processor
	image Processor
}

func NewEPUBProcessor(text, html, image Processor) *EPUBProcessor {
	return &EPUBProcessor{text: text, html: html, image: image}
}

type epubContainer struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Manifest struct {
		Items []struct {
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
}

func (p *EPUBProcessor) Extract(data []byte) ([]string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return []string{"Could not open EPUB archive"}, nil
	}

	opfPath, err := locatePackage(archive)
	if err != nil {
		return []string{"Could not find OPF file in EPUB"}, nil
	}

	opfData, err := readEntry(archive, opfPath)
	if err != nil {
		return []string{"Could not find OPF file in EPUB"}, nil
	}

	var pkg epubPackage
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return []string{"Could not parse OPF package document"}, nil
	}

	items := make([]string, 0, len(pkg.Manifest.Items))
	for _, entry := range pkg.Manifest.Items {
		switch {
		case entry.MediaType == "application/xhtml+xml" || entry.MediaType == "text/html":
			content, err := readWithFallback(archive, entry.Href)
			if err != nil {
				continue
			}
			extracted, err := p.html.Extract(content)
			if err != nil {
				continue
			}
			items = append(items, extracted...)

		case entry.MediaType == "text/plain":
			content, err := readWithFallback(archive, entry.Href)
			if err != nil {
				continue
			}
			extracted, err := p.text.Extract(content)
			if err != nil {
				continue
			}
			items = append(items, extracted...)

		case strings.HasPrefix(entry.MediaType, "image/"):
			content, err := readWithFallback(archive, entry.Href)
			if err != nil {
				continue
			}
			extracted, err := p.image.Extract(content)
			if err != nil {
				continue
			}
			for _, text := range extracted {
				items = append(items, fmt.Sprintf("[Image: %s] %s", entry.Href, text))
			}
		}
		// Other media types (fonts, css, ncx) carry no extractable text.
	}

	return items, nil
}

func locatePackage(archive *zip.Reader) (string, error) {
	data, err := readEntry(archive, containerPath)
	if err != nil {
		return "", fmt.Errorf("read container descriptor: %w", err)
	}

	var container epubContainer
	if err := xml.Unmarshal(data, &container); err != nil {
		return "", fmt.Errorf("parse container descriptor: %w", err)
	}

	for _, rootfile := range container.Rootfiles {
		if rootfile.MediaType == packageMediaType && rootfile.FullPath != "" {
			return rootfile.FullPath, nil
		}
	}

	return "", fmt.Errorf("no package document listed in container descriptor")
}

func readEntry(archive *zip.Reader, name string) ([]byte, error) {
	file, err := archive.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open archive entry %s: %w", name, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read archive entry %s: %w", name, err)
	}
	return data, nil
}

// readWithFallback resolves href against the archive root, retrying under
// the conventional OPS/ prefix that many EPUBs use without reflecting it
// in manifest hrefs.
func readWithFallback(archive *zip.Reader, href string) ([]byte, error) {
	data, err := readEntry(archive, href)
	if err == nil {
		return data, nil
	}
	return readEntry(archive, "OPS/"+href)
}

var _ Processor = (*EPUBProcessor)(nil)
