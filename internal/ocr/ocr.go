package ocr

import (
	"context"

	"github.com/finsight-group/finrag-cli/internal/config"
)

// Extractor extracts page-level text content from PDF files.
type Extractor interface {
	// PageCount returns the number of pages in the PDF.
	PageCount(ctx context.Context, pdfPath string) (int, error)
	// ExtractPage returns the text of a single 1-indexed page.
	ExtractPage(ctx context.Context, pdfPath string, page int) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) Extractor {
	return NewPdfToText(cfg.PdfToTextPath, cfg.PdfInfoPath)
}
