package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher writes a marker file, or fails for URLs listed in failFor.
type fakeFetcher struct {
	failFor map[string]bool

	mu      sync.Mutex
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url, destPath string) error {
	if f.failFor[url] {
		return errors.New("status 404")
	}
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte("%PDF"), 0o644)
}

// fakeOCR reports a fixed page count and deterministic page text.
type fakeOCR struct {
	pages      int
	failPages  map[int]bool
	extracted  []int
	countCalls int
}

func (f *fakeOCR) PageCount(_ context.Context, _ string) (int, error) {
	f.countCalls++
	return f.pages, nil
}

func (f *fakeOCR) ExtractPage(_ context.Context, _ string, page int) (string, error) {
	if f.failPages[page] {
		return "", errors.New("pdftotext exited 1")
	}
	f.extracted = append(f.extracted, page)
	return fmt.Sprintf("page %d text", page), nil
}

func testManifest(pages []int) *Manifest {
	return &Manifest{Companies: map[string][]ManifestDoc{
		"acme": {{URL: "https://example.com/acme-2021.pdf", Year: "2021", Pages: pages}},
	}}
}

func TestPrepare_PageSubsetOrderAndCardinality(t *testing.T) {
	fetcher := &fakeFetcher{}
	ocrFake := &fakeOCR{pages: 10}
	p := NewPreparer(fetcher, ocrFake, t.TempDir())

	pages, metas, err := p.Prepare(context.Background(), testManifest([]int{3, 1, 7}))
	require.NoError(t, err)
	require.Len(t, metas, 1)
	require.Len(t, pages, 3)

	// Manifest order is preserved exactly, duplicates and all.
	assert.Equal(t, 3, pages[0].PageNumber)
	assert.Equal(t, 1, pages[1].PageNumber)
	assert.Equal(t, 7, pages[2].PageNumber)
	assert.Equal(t, []int{3, 1, 7}, metas[0].PagesKept)
	assert.Equal(t, "acme", metas[0].Company)
	assert.Equal(t, "2021", metas[0].Year)
}

func TestPrepare_EmptySubsetKeepsAllPages(t *testing.T) {
	p := NewPreparer(&fakeFetcher{}, &fakeOCR{pages: 4}, t.TempDir())

	pages, metas, err := p.Prepare(context.Background(), testManifest(nil))
	require.NoError(t, err)
	require.Len(t, pages, 4)
	for i, pg := range pages {
		assert.Equal(t, i+1, pg.PageNumber)
	}
	assert.Empty(t, metas[0].PagesKept)
}

func TestPrepare_InvalidPageIndexSkipsDocument(t *testing.T) {
	p := NewPreparer(&fakeFetcher{}, &fakeOCR{pages: 5}, t.TempDir())

	pages, metas, err := p.Prepare(context.Background(), testManifest([]int{2, 6}))
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Empty(t, metas)
}

func TestPrepare_ZeroPageIndexSkipsDocument(t *testing.T) {
	p := NewPreparer(&fakeFetcher{}, &fakeOCR{pages: 5}, t.TempDir())

	pages, _, err := p.Prepare(context.Background(), testManifest([]int{0}))
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestPrepare_UnavailableSourceSkipsNotAborts(t *testing.T) {
	m := &Manifest{Companies: map[string][]ManifestDoc{
		"acme": {{URL: "https://example.com/acme-2021.pdf", Year: "2021"}},
		"bad":  {{URL: "https://example.com/gone.pdf", Year: "2020"}},
	}}
	fetcher := &fakeFetcher{failFor: map[string]bool{"https://example.com/gone.pdf": true}}
	p := NewPreparer(fetcher, &fakeOCR{pages: 2}, t.TempDir())

	pages, metas, err := p.Prepare(context.Background(), m)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "acme", metas[0].Company)
	assert.Len(t, pages, 2)
}

func TestPrepare_ExtractionFailureKeepsEmptyPage(t *testing.T) {
	ocrFake := &fakeOCR{pages: 3, failPages: map[int]bool{2: true}}
	p := NewPreparer(&fakeFetcher{}, ocrFake, t.TempDir())

	pages, _, err := p.Prepare(context.Background(), testManifest([]int{1, 2, 3}))
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "page 1 text", pages[0].Text)
	assert.Equal(t, "", pages[1].Text)
	assert.Equal(t, "page 3 text", pages[2].Text)
}

func TestPrepare_SkipsRedownloadOfExistingFile(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "acme", "annual_report_2021.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(pdfPath), 0o755))
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF"), 0o644))

	fetcher := &fakeFetcher{}
	p := NewPreparer(fetcher, &fakeOCR{pages: 1}, dir)

	_, _, err := p.Prepare(context.Background(), testManifest(nil))
	require.NoError(t, err)
	assert.Empty(t, fetcher.fetched)
}

func TestPrepare_PersistsPreparedArtifacts(t *testing.T) {
	dir := t.TempDir()
	p := NewPreparer(&fakeFetcher{}, &fakeOCR{pages: 2}, dir)

	_, _, err := p.Prepare(context.Background(), testManifest(nil))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "prepared", "metadata.json"))
	assert.FileExists(t, filepath.Join(dir, "prepared", "pages.json"))
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	yaml := `
companies:
  acme:
    - url: https://example.com/acme.pdf
      year: "2021"
      pages: [1, 3]
  zenith:
    - url: https://example.com/zenith.pdf
      year: "2020"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "zenith"}, m.CompanyNames())
	assert.Equal(t, []int{1, 3}, m.Companies["acme"][0].Pages)
	assert.Equal(t, "2021", m.Companies["acme"][0].Year)
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
