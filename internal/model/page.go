package model

// DocumentPage is one page of prepared report text with its provenance.
// Text may be empty when extraction failed for the page; the record is
// still retained so the gap stays visible downstream.
type DocumentPage struct {
	Company    string `json:"company"`
	Year       string `json:"year"`
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	SourcePath string `json:"source_path"`
}

// DocumentMeta describes one prepared source document.
type DocumentMeta struct {
	Company      string `json:"company"`
	Year         string `json:"year"`
	DocURL       string `json:"doc_url"`
	LocalPDFPath string `json:"local_pdf_path"`
	PagesKept    []int  `json:"pages_kept,omitempty"`
}

// Chunk is the indexing granule: page text plus its embedding and
// provenance metadata.
type Chunk struct {
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
	Source    string    `json:"source"`
	Page      int       `json:"page"`
}
