package document

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/finsight-group/finrag-cli/internal/model"
	"github.com/finsight-group/finrag-cli/internal/ocr"
)

// Error sentinels for per-document failures. Both are non-fatal for the
// batch: the offending document is logged and skipped.
var (
	ErrSourceUnavailable = eris.New("document: source unavailable")
	ErrInvalidPageIndex  = eris.New("document: page index out of range")
)

const maxConcurrentDownloads = 4

// Preparer acquires source PDFs, restricts them to the manifest's page
// subsets, and emits per-page text with provenance metadata.
type Preparer struct {
	fetcher     Fetcher
	extractor   ocr.Extractor
	downloadDir string
}

// NewPreparer creates a Preparer writing under downloadDir.
func NewPreparer(fetcher Fetcher, extractor ocr.Extractor, downloadDir string) *Preparer {
	return &Preparer{
		fetcher:     fetcher,
		extractor:   extractor,
		downloadDir: downloadDir,
	}
}

// Prepare processes every manifest document: download (if missing),
// validate page subsets, extract per-page text. Documents whose source
// cannot be acquired or whose page subset is out of range are skipped with
// a log entry; a page whose text extraction fails is retained as an
// empty-text page. The prepared pages and metadata manifest are persisted
// under <downloadDir>/prepared for reproducibility.
func (p *Preparer) Prepare(ctx context.Context, manifest *Manifest) ([]model.DocumentPage, []model.DocumentMeta, error) {
	docs := p.collect(manifest)
	if err := p.download(ctx, docs); err != nil {
		return nil, nil, err
	}

	var pages []model.DocumentPage
	var metas []model.DocumentMeta
	for _, d := range docs {
		if d.skipped {
			continue
		}
		docPages, meta, err := p.prepareDoc(ctx, d)
		if err != nil {
			zap.L().Warn("skipping document",
				zap.String("company", d.company),
				zap.String("year", d.doc.Year),
				zap.Error(err),
			)
			continue
		}
		pages = append(pages, docPages...)
		metas = append(metas, meta)
	}

	if err := p.persist(pages, metas); err != nil {
		return nil, nil, err
	}
	return pages, metas, nil
}

type manifestEntry struct {
	company string
	doc     ManifestDoc
	pdfPath string
	skipped bool
}

func (p *Preparer) collect(manifest *Manifest) []*manifestEntry {
	var docs []*manifestEntry
	for _, company := range manifest.CompanyNames() {
		for _, doc := range manifest.Companies[company] {
			if doc.URL == "" {
				continue
			}
			docs = append(docs, &manifestEntry{
				company: company,
				doc:     doc,
				pdfPath: filepath.Join(p.downloadDir, company, fmt.Sprintf("annual_report_%s.pdf", doc.Year)),
			})
		}
	}
	return docs
}

// download fetches missing PDFs concurrently. A failed download marks the
// entry skipped; it never aborts the batch.
func (p *Preparer) download(ctx context.Context, docs []*manifestEntry) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)

	var mu sync.Mutex
	for _, d := range docs {
		g.Go(func() error {
			if _, err := os.Stat(d.pdfPath); err == nil {
				return nil
			}
			if err := p.fetcher.Fetch(gCtx, d.doc.URL, d.pdfPath); err != nil {
				zap.L().Warn("source unavailable, skipping document",
					zap.String("company", d.company),
					zap.String("year", d.doc.Year),
					zap.String("url", d.doc.URL),
					zap.Error(eris.Wrap(ErrSourceUnavailable, err.Error())),
				)
				mu.Lock()
				d.skipped = true
				mu.Unlock()
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *Preparer) prepareDoc(ctx context.Context, d *manifestEntry) ([]model.DocumentPage, model.DocumentMeta, error) {
	meta := model.DocumentMeta{
		Company:      d.company,
		Year:         d.doc.Year,
		DocURL:       d.doc.URL,
		LocalPDFPath: d.pdfPath,
	}

	total, err := p.extractor.PageCount(ctx, d.pdfPath)
	if err != nil {
		return nil, meta, eris.Wrap(err, "document: page count")
	}

	keep := d.doc.Pages
	if len(keep) > 0 {
		for _, n := range keep {
			if n < 1 || n > total {
				return nil, meta, eris.Wrapf(ErrInvalidPageIndex, "page %d of %d in %s", n, total, d.pdfPath)
			}
		}
		meta.PagesKept = keep
	} else {
		keep = make([]int, total)
		for i := range keep {
			keep[i] = i + 1
		}
	}

	pages := make([]model.DocumentPage, 0, len(keep))
	for _, n := range keep {
		text, err := p.extractor.ExtractPage(ctx, d.pdfPath, n)
		if err != nil {
			// Extraction failure keeps an empty-text page so the gap
			// stays traceable.
			zap.L().Warn("page text extraction failed",
				zap.String("pdf", d.pdfPath),
				zap.Int("page", n),
				zap.Error(err),
			)
			text = ""
		}
		pages = append(pages, model.DocumentPage{
			Company:    d.company,
			Year:       d.doc.Year,
			PageNumber: n,
			Text:       text,
			SourcePath: d.pdfPath,
		})
	}
	return pages, meta, nil
}

// persist writes metadata.json and pages.json under <downloadDir>/prepared.
func (p *Preparer) persist(pages []model.DocumentPage, metas []model.DocumentMeta) error {
	dir := filepath.Join(p.downloadDir, "prepared")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "document: create %s", dir)
	}

	for name, v := range map[string]any{
		"metadata.json": metas,
		"pages.json":    pages,
	} {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return eris.Wrapf(err, "document: marshal %s", name)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return eris.Wrapf(err, "document: write %s", name)
		}
	}
	return nil
}
