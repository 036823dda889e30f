package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates an sdkClient pointing at a local test server.
func newTestClient(baseURL string) *sdkClient {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey("test-key"),
			option.WithBaseURL(baseURL),
		),
	}
}

func TestSDKClient_CreateMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-sonnet-4-5-20250929", body["model"])
		assert.NotNil(t, body["tools"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":   "msg_test_001",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "Let me check the database."},
				{
					"type":  "tool_use",
					"id":    "tu_001",
					"name":  "query_structured",
					"input": map[string]any{"question": "revenue of acme?"},
				},
			},
			"model":       "claude-sonnet-4-5-20250929",
			"stop_reason": "tool_use",
			"usage": map[string]any{
				"input_tokens":  10,
				"output_tokens": 5,
			},
		})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	temp := 0.0
	resp, err := c.CreateMessage(context.Background(), MessageRequest{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   256,
		Temperature: &temp,
		System:      BuildCachedSystemBlocks("system text"),
		Messages:    []Message{{Role: "user", Content: "What was acme's revenue?"}},
		Tools: []ToolDef{{
			Name:        "query_structured",
			Description: "query the entity database",
			InputSchema: InputSchema{
				Properties: map[string]Property{"question": {Type: "string"}},
				Required:   []string{"question"},
			},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Equal(t, "tool_use", resp.StopReason)
	assert.Equal(t, "Let me check the database.", resp.Text())

	uses := resp.ToolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, "tu_001", uses[0].ToolUseID)
	assert.Equal(t, "query_structured", uses[0].ToolName)

	var args map[string]string
	require.NoError(t, json.Unmarshal(uses[0].ToolInput, &args))
	assert.Equal(t, "revenue of acme?", args["question"])
}

func TestSDKClient_CreateMessage_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"type":  "error",
			"error": map[string]any{"type": "invalid_request_error", "message": "max_tokens required"},
		})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	_, err := c.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 256,
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create message")
}
