package extract

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finsight-group/finrag-cli/internal/config"
	"github.com/finsight-group/finrag-cli/internal/index"
	"github.com/finsight-group/finrag-cli/internal/model"
	"github.com/finsight-group/finrag-cli/internal/resilience"
	"github.com/finsight-group/finrag-cli/pkg/anthropic"
)

const systemText = "You are a precise extraction engine for company financial reports. You output only valid JSON conforming to the schema you are given."

// Extractor runs retrieval-augmented entity extraction against the
// unstructured index and aggregates the results into one record per
// (company, year).
type Extractor struct {
	llm  anthropic.Client
	cfg  config.AnthropicConfig
	topK int
}

// New creates an Extractor retrieving topK chunks per extraction query.
func New(llm anthropic.Client, cfg config.AnthropicConfig, topK int) *Extractor {
	if topK <= 0 {
		topK = 5
	}
	return &Extractor{llm: llm, cfg: cfg, topK: topK}
}

// ExtractAll processes every (document, entity type) pair. Failures are
// isolated per pair: a retrieval or parse failure for one entity leaves
// the corresponding record fields nil and never aborts the batch.
// Returns one record per (company, year) that had at least one entity
// extracted, in first-seen order; a document whose every extraction
// fails yields no record.
func (e *Extractor) ExtractAll(ctx context.Context, ix *index.Index, metas []model.DocumentMeta, types []model.EntityType) ([]model.EntityRecord, error) {
	if len(types) == 0 {
		types = model.AllEntityTypes()
	}

	agg := newAggregator()
	for _, meta := range metas {
		log := zap.L().With(zap.String("company", meta.Company), zap.String("year", meta.Year))
		for _, entity := range types {
			spec, ok := entitySpecs[entity]
			if !ok {
				return nil, eris.Errorf("extract: no spec for entity type %q", entity)
			}

			payload, err := e.extractOne(ctx, ix, spec, meta)
			if err != nil {
				log.Warn("entity extraction failed, fields stay null",
					zap.String("entity", string(entity)),
					zap.Error(err),
				)
				continue
			}
			if err := agg.apply(meta, entity, payload); err != nil {
				log.Warn("entity payload unparseable, fields stay null",
					zap.String("entity", string(entity)),
					zap.Error(err),
				)
				continue
			}
			log.Info("entity extracted", zap.String("entity", string(entity)))
		}
	}
	return agg.records(), nil
}

// extractOne retrieves chunks for the entity's query and asks the model
// to fill the entity schema from them.
func (e *Extractor) extractOne(ctx context.Context, ix *index.Index, spec entitySpec, meta model.DocumentMeta) (string, error) {
	query := fmt.Sprintf(spec.QueryFormat, meta.Company, meta.Year)
	chunks, err := ix.Search(ctx, query, e.topK)
	if err != nil {
		return "", eris.Wrap(err, "extract: retrieve chunks")
	}

	excerpts := make([]string, len(chunks))
	for i, c := range chunks {
		excerpts[i] = c.Text
	}
	prompt := buildExtractionPrompt(spec, excerpts, meta.Company, meta.Year)

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: &temp,
		System:      anthropic.BuildCachedSystemBlocks(systemText),
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
			// Prefill steers the model straight into the JSON body.
			{Role: "assistant", Content: "<json>"},
		},
	}

	retryCfg := resilience.UpstreamRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "extract_entity")
	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.llm.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", eris.Wrap(err, "extract: model call")
	}
	resp.Usage.LogCost(e.cfg.Model, "extract")

	return parseJSONPayload(resp.Text()), nil
}
