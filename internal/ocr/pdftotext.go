package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// PdfToText extracts text from PDFs using the poppler CLI tools.
type PdfToText struct {
	binPath  string
	infoPath string
}

// NewPdfToText creates a PdfToText extractor. Empty paths default to the
// tools being on PATH.
func NewPdfToText(binPath, infoPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	if infoPath == "" {
		infoPath = "pdfinfo"
	}
	return &PdfToText{binPath: binPath, infoPath: infoPath}
}

// PageCount parses the "Pages:" line from pdfinfo output.
func (p *PdfToText) PageCount(ctx context.Context, pdfPath string) (int, error) {
	cmd := exec.CommandContext(ctx, p.infoPath, pdfPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, eris.Wrapf(err, "ocr: pdfinfo failed for %s: %s", pdfPath, stderr.String())
	}

	for _, line := range strings.Split(stdout.String(), "\n") {
		if rest, ok := strings.CutPrefix(line, "Pages:"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				return 0, eris.Wrapf(err, "ocr: parse page count for %s", pdfPath)
			}
			return n, nil
		}
	}
	return 0, eris.Errorf("ocr: no page count in pdfinfo output for %s", pdfPath)
}

// ExtractPage runs pdftotext -layout restricted to the given 1-indexed page
// and returns stdout.
func (p *PdfToText) ExtractPage(ctx context.Context, pdfPath string, page int) (string, error) {
	pageArg := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", "-f", pageArg, "-l", pageArg, pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: pdftotext failed for %s page %d: %s", pdfPath, page, stderr.String())
	}

	return stdout.String(), nil
}
