package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/finsight-group/finrag-cli/internal/agent"
	"github.com/finsight-group/finrag-cli/internal/embedding"
	"github.com/finsight-group/finrag-cli/internal/index"
	"github.com/finsight-group/finrag-cli/internal/store"
	"github.com/finsight-group/finrag-cli/pkg/anthropic"
)

// answerEnv wires the shared collaborators the ask and serve commands need:
// the model client, the loaded index, the entity store and the agent on top.
type answerEnv struct {
	llm   anthropic.Client
	ix    *index.Index
	store store.EntityStore
	agent *agent.Agent
}

func initAnswerEnv(ctx context.Context) (*answerEnv, error) {
	llm := anthropic.NewClient(cfg.Anthropic.Key)
	embedder := embedding.NewOpenAIClient(cfg.Embedding)

	ix, err := index.LoadOrEmpty(cfg.Index.Path, embedder)
	if err != nil {
		return nil, err
	}

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	chain := agent.NewSQLChain(llm, cfg.Anthropic, st)
	ag := agent.New(llm, cfg.Anthropic, cfg.Agent.MaxIterations,
		agent.QueryStructuredCapability(chain),
		agent.SemanticSearchCapability(ix, cfg.Agent.SearchTopK),
	)

	zap.L().Debug("answer environment ready", zap.Int("index_chunks", ix.Len()))
	return &answerEnv{llm: llm, ix: ix, store: st, agent: ag}, nil
}

func (e *answerEnv) Close() {
	if err := e.store.Close(); err != nil {
		zap.L().Warn("closing entity store", zap.Error(err))
	}
}
