package agent

import (
	"context"
	"strings"

	"github.com/finsight-group/finrag-cli/internal/index"
	"github.com/finsight-group/finrag-cli/pkg/anthropic"
)

// Capability is a named, typed function the agent may invoke during its
// decision loop. Invoke errors are surfaced back into the loop's context
// as error results so the model can recover by trying another capability.
type Capability struct {
	Name        string
	Description string
	Schema      anthropic.InputSchema
	Invoke      func(ctx context.Context, args map[string]string) (string, error)
}

// SemanticSearchCapability retrieves the top-k passages for a query and
// returns their concatenated text.
func SemanticSearchCapability(ix *index.Index, topK int) Capability {
	if topK <= 0 {
		topK = 2
	}
	return Capability{
		Name:        "semantic_search",
		Description: "Retrieve relevant financial-report excerpts based on semantic similarity. Use for contextual or narrative questions (risk summaries, strategy, qualitative insights).",
		Schema: anthropic.InputSchema{
			Properties: map[string]anthropic.Property{
				"query": {Type: "string", Description: "The search query."},
			},
			Required: []string{"query"},
		},
		Invoke: func(ctx context.Context, args map[string]string) (string, error) {
			chunks, err := ix.Search(ctx, args["query"], topK)
			if err != nil {
				return "", err
			}
			texts := make([]string, len(chunks))
			for i, c := range chunks {
				texts[i] = c.Text
			}
			return strings.Join(texts, "\n"), nil
		},
	}
}

// QueryStructuredCapability answers a question by generating and running a
// query against the structured entity store.
func QueryStructuredCapability(chain *SQLChain) Capability {
	return Capability{
		Name:        "query_structured",
		Description: "Answer a question by querying the structured entity database (company, year, revenue, risks, human_capital). Use for structured quantities filtered or aggregated by company and year.",
		Schema: anthropic.InputSchema{
			Properties: map[string]anthropic.Property{
				"question": {Type: "string", Description: "The question to answer from the database."},
			},
			Required: []string{"question"},
		},
		Invoke: func(ctx context.Context, args map[string]string) (string, error) {
			return chain.Answer(ctx, args["question"])
		},
	}
}
