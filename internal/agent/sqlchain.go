package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finsight-group/finrag-cli/internal/config"
	"github.com/finsight-group/finrag-cli/internal/resilience"
	"github.com/finsight-group/finrag-cli/internal/store"
	"github.com/finsight-group/finrag-cli/pkg/anthropic"
)

const sqlGenPrompt = `You translate questions about company financial entities into a single SQLite SELECT statement.

Schema:
%s

Rules:
- Output exactly one SELECT statement and nothing else.
- Never modify data. Only SELECT is allowed.
- Company names are stored lowercase. Match with LOWER() or lowercase literals.
- year is stored as an integer.

Question: %s`

const sqlInterpretPrompt = `A question was answered by running a SQL query against the entity database.

Question: %s

Query:
%s

Result:
%s

Answer the question in one or two plain sentences using only the result above. If the result is empty, say the database holds no matching data.`

// SQLChain turns a natural-language question into a SELECT statement,
// executes it against the entity store and renders the rows back into a
// short prose answer. Both model calls run at temperature zero.
type SQLChain struct {
	llm anthropic.Client
	cfg config.AnthropicConfig
	st  store.EntityStore
}

func NewSQLChain(llm anthropic.Client, cfg config.AnthropicConfig, st store.EntityStore) *SQLChain {
	return &SQLChain{llm: llm, cfg: cfg, st: st}
}

func (c *SQLChain) Answer(ctx context.Context, question string) (string, error) {
	query, err := c.generate(ctx, question)
	if err != nil {
		return "", err
	}
	zap.L().Debug("generated structured query", zap.String("sql", query))

	res, err := c.st.Query(ctx, query)
	if err != nil {
		return "", err
	}

	return c.interpret(ctx, question, query, renderResult(res))
}

func (c *SQLChain) generate(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(sqlGenPrompt, store.Schema(), question)
	resp, err := c.complete(ctx, prompt, "sql_generate")
	if err != nil {
		return "", err
	}
	query := stripFences(resp.Text())
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT") {
		return "", eris.Wrapf(store.ErrQuery, "agent: model produced a non-SELECT statement: %q", query)
	}
	return query, nil
}

func (c *SQLChain) interpret(ctx context.Context, question, query, table string) (string, error) {
	prompt := fmt.Sprintf(sqlInterpretPrompt, question, query, table)
	resp, err := c.complete(ctx, prompt, "sql_interpret")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (c *SQLChain) complete(ctx context.Context, prompt, operation string) (*anthropic.MessageResponse, error) {
	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	}
	retryCfg := resilience.UpstreamRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", operation)
	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.llm.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "agent: %s call failed", operation)
	}
	resp.Usage.LogCost(c.cfg.Model, operation)
	return resp, nil
}

func renderResult(res *store.QueryResult) string {
	if res == nil || len(res.Rows) == 0 {
		return "(no rows)"
	}
	var b strings.Builder
	b.WriteString(strings.Join(res.Columns, " | "))
	for _, row := range res.Rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " | "))
	}
	return b.String()
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
