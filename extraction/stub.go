package extraction

const (
	imagePlaceholder = "Image processing not implemented"
	pdfPlaceholder   = "PDF processing not implemented"
)

// ImageProcessor is a stub: image content extraction is out of scope, so
// it returns a fixed placeholder item and never fails.
type ImageProcessor struct{}

func (ImageProcessor) Extract([]byte) ([]string, error) {
	return []string{imagePlaceholder}, nil
}

// PDFProcessor is a stub: PDF content extraction is out of scope, so it
// returns a fixed placeholder item and never fails.
type PDFProcessor struct{}

func (PDFProcessor) Extract([]byte) ([]string, error) {
	return []string{pdfPlaceholder}, nil
}

var (
	_ Processor = ImageProcessor{}
	_ Processor = PDFProcessor{}
)
