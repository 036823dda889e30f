package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finsight-group/finrag-cli/internal/config"
	"github.com/finsight-group/finrag-cli/internal/model"
	"github.com/finsight-group/finrag-cli/internal/resilience"
	"github.com/finsight-group/finrag-cli/internal/store"
	"github.com/finsight-group/finrag-cli/pkg/anthropic"
)

// ErrMaxIterations is returned when the model keeps requesting capabilities
// past the configured budget without producing a final answer.
var ErrMaxIterations = eris.New("agent: capability budget exhausted without a final answer")

const systemPrompt = `You are a financial research assistant answering questions about company annual reports.

You have two capabilities:
- query_structured: queries a database of extracted entities. The schema is:
%s
  Use it for structured quantities such as revenue figures, operating margins or headcount, filtered or aggregated by company and year.
- semantic_search: retrieves report passages by semantic similarity. Use it for contextual or narrative questions such as risk factors, strategy or qualitative insights.

Guidance:
- Pick the capability that fits the question. Use both when a question mixes structured figures with narrative context.
- If a capability returns an error or nothing useful, you may try the other one.
- When you have enough information, answer directly without further capability calls.
- If neither capability yields relevant data, say the reports do not contain the answer. Never invent figures.`

// Agent routes questions to retrieval capabilities through a bounded
// model-driven loop.
type Agent struct {
	llm    anthropic.Client
	cfg    config.AnthropicConfig
	max    int
	caps   []Capability
	byName map[string]Capability
}

func New(llm anthropic.Client, cfg config.AnthropicConfig, maxIterations int, caps ...Capability) *Agent {
	if maxIterations <= 0 {
		maxIterations = 8
	}
	byName := make(map[string]Capability, len(caps))
	for _, c := range caps {
		byName[c.Name] = c
	}
	return &Agent{llm: llm, cfg: cfg, max: maxIterations, caps: caps, byName: byName}
}

// Answer runs the decision loop for one question. The returned RouteDecision
// is populated even when the loop fails, so callers can always audit which
// capabilities ran.
func (a *Agent) Answer(ctx context.Context, question string) (string, *model.RouteDecision, error) {
	decision := &model.RouteDecision{
		QuestionID: uuid.NewString(),
		Question:   question,
		ChosenPath: model.RoutePathNone,
	}
	log := zap.L().With(zap.String("question_id", decision.QuestionID))
	log.Info("answering question", zap.String("question", question))

	messages := []anthropic.Message{
		{Role: "user", Content: question},
	}

	invocations := 0
	for {
		resp, err := a.complete(ctx, messages)
		if err != nil {
			decision.Resolve()
			return "", decision, err
		}

		uses := resp.ToolUses()
		if len(uses) == 0 {
			decision.Resolve()
			answer := resp.Text()
			log.Info("question answered",
				zap.String("path", string(decision.ChosenPath)),
				zap.Int("invocations", invocations))
			return answer, decision, nil
		}

		messages = append(messages, anthropic.Message{Role: "assistant", Blocks: resp.Content})

		results := make([]anthropic.ContentBlock, 0, len(uses))
		for _, use := range uses {
			if invocations >= a.max {
				decision.Resolve()
				log.Warn("capability budget exhausted", zap.Int("invocations", invocations))
				return "", decision, eris.Wrapf(ErrMaxIterations, "agent: budget of %d reached", a.max)
			}
			invocations++

			call := a.invoke(ctx, log, use)
			decision.Invocations = append(decision.Invocations, call)

			text := call.Result
			if call.Err != "" {
				text = call.Err
			}
			results = append(results, anthropic.ContentBlock{
				Type:      "tool_result",
				ToolUseID: use.ToolUseID,
				Text:      text,
				IsError:   call.Err != "",
			})
		}
		messages = append(messages, anthropic.Message{Role: "user", Blocks: results})
	}
}

func (a *Agent) invoke(ctx context.Context, log *zap.Logger, use anthropic.ContentBlock) model.CapabilityCall {
	args := map[string]string{}
	if len(use.ToolInput) > 0 {
		if err := json.Unmarshal(use.ToolInput, &args); err != nil {
			log.Warn("malformed capability arguments",
				zap.String("capability", use.ToolName), zap.Error(err))
			return model.CapabilityCall{
				Capability: use.ToolName,
				Err:        fmt.Sprintf("malformed arguments: %v", err),
			}
		}
	}

	call := model.CapabilityCall{Capability: use.ToolName, Args: args}

	c, ok := a.byName[use.ToolName]
	if !ok {
		call.Err = fmt.Sprintf("unknown capability %q", use.ToolName)
		log.Warn("unknown capability requested", zap.String("capability", use.ToolName))
		return call
	}

	result, err := c.Invoke(ctx, args)
	if err != nil {
		call.Err = fmt.Sprintf("capability failed: %v", err)
		log.Warn("capability failed",
			zap.String("capability", use.ToolName), zap.Error(err))
		return call
	}

	call.Result = result
	log.Info("capability invoked",
		zap.String("capability", use.ToolName),
		zap.Int("result_chars", len(result)))
	return call
}

func (a *Agent) complete(ctx context.Context, messages []anthropic.Message) (*anthropic.MessageResponse, error) {
	tools := make([]anthropic.ToolDef, len(a.caps))
	for i, c := range a.caps {
		tools[i] = anthropic.ToolDef{
			Name:        c.Name,
			Description: c.Description,
			InputSchema: c.Schema,
		}
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: &temp,
		System:      anthropic.BuildCachedSystemBlocks(fmt.Sprintf(systemPrompt, store.Schema())),
		Messages:    messages,
		Tools:       tools,
	}

	retryCfg := resilience.UpstreamRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "agent_loop")
	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.llm.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrap(err, "agent: model call failed")
	}
	resp.Usage.LogCost(a.cfg.Model, "agent_loop")
	return resp, nil
}
