package anthropic

import (
	"encoding/json"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSDKMessage(t *testing.T) {
	sdkMsg := &sdk.Message{
		ID:           "msg_test_123",
		Model:        "claude-sonnet-4-5-20250929",
		StopReason:   "end_turn",
		StopSequence: "STOP",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "Hello world"},
			{Type: "text", Text: "Second block"},
		},
		Usage: sdk.Usage{
			InputTokens:              100,
			OutputTokens:             50,
			CacheCreationInputTokens: 2000,
			CacheReadInputTokens:     3000,
		},
	}

	resp := fromSDKMessage(sdkMsg)
	require.NotNil(t, resp)
	assert.Equal(t, "msg_test_123", resp.ID)
	assert.Equal(t, "end_turn", resp.StopReason)
	require.Len(t, resp.Content, 2)
	assert.Equal(t, "text", resp.Content[0].Type)
	assert.Equal(t, "Hello world", resp.Content[0].Text)
	assert.Equal(t, int64(100), resp.Usage.InputTokens)
	assert.Equal(t, int64(2000), resp.Usage.CacheCreationInputTokens)
}

func TestFromSDKMessage_EmptyContent(t *testing.T) {
	resp := fromSDKMessage(&sdk.Message{ID: "msg_empty", StopReason: "max_tokens"})
	require.NotNil(t, resp)
	assert.Empty(t, resp.Content)
	assert.Equal(t, "max_tokens", resp.StopReason)
}

func TestToSDKMessages_PlainText(t *testing.T) {
	out := toSDKMessages([]Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "<json>"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, sdk.MessageParamRoleUser, out[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, out[1].Role)
}

func TestToSDKBlocks_ToolUseAndResult(t *testing.T) {
	msg := Message{Role: "user", Blocks: []ContentBlock{
		{Type: "tool_use", ToolUseID: "tu_1", ToolName: "semantic_search", ToolInput: json.RawMessage(`{"query":"risks"}`)},
		{Type: "tool_result", ToolUseID: "tu_1", Text: "passages", IsError: false},
		{Type: "text", Text: "and also"},
	}}

	blocks := toSDKBlocks(msg)
	require.Len(t, blocks, 3)
	require.NotNil(t, blocks[0].OfToolUse)
	assert.Equal(t, "tu_1", blocks[0].OfToolUse.ID)
	assert.Equal(t, "semantic_search", blocks[0].OfToolUse.Name)
	require.NotNil(t, blocks[1].OfToolResult)
	require.NotNil(t, blocks[2].OfText)
}

func TestToSDKTools(t *testing.T) {
	tools := toSDKTools([]ToolDef{{
		Name:        "query_structured",
		Description: "query the entity database",
		InputSchema: InputSchema{
			Properties: map[string]Property{
				"question": {Type: "string", Description: "the question"},
			},
			Required: []string{"question"},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "query_structured", tools[0].OfTool.Name)
	assert.Equal(t, []string{"question"}, tools[0].OfTool.InputSchema.Required)
	assert.Contains(t, tools[0].OfTool.InputSchema.Properties, "question")
}

func TestToSDKSystemBlocks_CacheControl(t *testing.T) {
	out := toSDKSystemBlocks([]SystemBlock{
		{Text: "cached", CacheControl: &CacheControl{TTL: "1h"}},
		{Text: "plain"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "cached", out[0].Text)
	assert.Equal(t, sdk.CacheControlEphemeralTTL("1h"), out[0].CacheControl.TTL)
}
