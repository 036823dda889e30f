package document

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Manifest enumerates the source documents to prepare, grouped by company.
type Manifest struct {
	Companies map[string][]ManifestDoc `yaml:"companies"`
}

// ManifestDoc describes one source report. Pages is an optional 1-indexed
// subset; when empty, every page of the document is kept.
type ManifestDoc struct {
	URL   string `yaml:"url"`
	Year  string `yaml:"year"`
	Pages []int  `yaml:"pages,omitempty"`
}

// LoadManifest reads and parses a YAML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "document: read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "document: parse manifest %s", path)
	}
	return &m, nil
}

// CompanyNames returns the manifest's company names in sorted order, so
// preparation runs in a deterministic sequence.
func (m *Manifest) CompanyNames() []string {
	names := make([]string, 0, len(m.Companies))
	for name := range m.Companies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
