package extract

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/finsight-group/finrag-cli/internal/model"
)

// aggregator merges per-entity extraction payloads into one EntityRecord
// per (company, year), keyed explicitly rather than relying on any
// positional alignment between documents and metadata.
type aggregator struct {
	order []string
	byKey map[string]*model.EntityRecord
}

func newAggregator() *aggregator {
	return &aggregator{byKey: make(map[string]*model.EntityRecord)}
}

// recordFor returns the record for the document's (company, year) pair,
// creating it lazily on the first entity hit.
func (a *aggregator) recordFor(meta model.DocumentMeta) *model.EntityRecord {
	key := model.EntityRecord{Company: meta.Company, Year: meta.Year}.Key()
	if rec, ok := a.byKey[key]; ok {
		return rec
	}

	source := meta.DocURL
	if source == "" {
		source = meta.LocalPDFPath
	}
	rec := &model.EntityRecord{
		Company:   meta.Company,
		Year:      meta.Year,
		SourceDoc: source,
	}
	a.byKey[key] = rec
	a.order = append(a.order, key)
	return rec
}

type revenuePayload struct {
	Revenue              *float64 `json:"revenue"`
	RevenueReasoning     *string  `json:"revenue_reasoning"`
	RevenueUnit          *string  `json:"revenue_unit"`
	RevenueUnitReasoning *string  `json:"revenue_unit_reasoning"`
}

type risksPayload struct {
	Risks          *string `json:"risks"`
	RisksReasoning *string `json:"risks_reasoning"`
}

type humanCapitalPayload struct {
	HumanCapital          *int64  `json:"human_capital"`
	HumanCapitalReasoning *string `json:"human_capital_reasoning"`
}

// apply merges one entity's JSON payload into the document's record.
// The record is created only once a payload parses, so a document whose
// every extraction fails contributes no row at all.
func (a *aggregator) apply(meta model.DocumentMeta, entity model.EntityType, payload string) error {
	switch entity {
	case model.EntityRevenue:
		var p revenuePayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return eris.Wrapf(err, "extract: parse %s payload", entity)
		}
		rec := a.recordFor(meta)
		rec.Revenue = p.Revenue
		rec.RevenueReasoning = p.RevenueReasoning
		rec.RevenueUnit = p.RevenueUnit
		rec.RevenueUnitReasoning = p.RevenueUnitReasoning
	case model.EntityRisks:
		var p risksPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return eris.Wrapf(err, "extract: parse %s payload", entity)
		}
		rec := a.recordFor(meta)
		rec.Risks = p.Risks
		rec.RisksReasoning = p.RisksReasoning
	case model.EntityHumanCapital:
		var p humanCapitalPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return eris.Wrapf(err, "extract: parse %s payload", entity)
		}
		rec := a.recordFor(meta)
		rec.HumanCapital = p.HumanCapital
		rec.HumanCapitalReasoning = p.HumanCapitalReasoning
	default:
		return eris.Errorf("extract: unknown entity type %q", entity)
	}
	return nil
}

// records returns the aggregated records in first-seen order.
func (a *aggregator) records() []model.EntityRecord {
	out := make([]model.EntityRecord, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, *a.byKey[key])
	}
	return out
}
