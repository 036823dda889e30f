package model

// EntityType identifies a structured fact extracted from report text.
type EntityType string

const (
	EntityRevenue      EntityType = "revenue"
	EntityRisks        EntityType = "risks"
	EntityHumanCapital EntityType = "human_capital"
)

// AllEntityTypes returns every tracked entity type.
func AllEntityTypes() []EntityType {
	return []EntityType{EntityRevenue, EntityRisks, EntityHumanCapital}
}

// EntityRecord is one aggregated row per (company, year). Fields are
// pointers so a value absent from the source text stays NULL in the
// structured store rather than collapsing to a zero value.
type EntityRecord struct {
	Company               string   `json:"company"`
	Year                  string   `json:"year"`
	SourceDoc             string   `json:"source_doc"`
	Revenue               *float64 `json:"revenue"`
	RevenueReasoning      *string  `json:"revenue_reasoning"`
	RevenueUnit           *string  `json:"revenue_unit"`
	RevenueUnitReasoning  *string  `json:"revenue_unit_reasoning"`
	Risks                 *string  `json:"risks"`
	RisksReasoning        *string  `json:"risks_reasoning"`
	HumanCapital          *int64   `json:"human_capital"`
	HumanCapitalReasoning *string  `json:"human_capital_reasoning"`
}

// Key identifies the record's aggregation bucket. Records with the same
// key are merged field-by-field, never duplicated.
func (r EntityRecord) Key() string {
	return r.Company + "\x00" + r.Year
}
