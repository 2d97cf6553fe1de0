package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/forge/pkg/forgetypes"
)

func TestToFinishReason_MapsKnownStopReasons(t *testing.T) {
	assert.Equal(t, forgetypes.FinishToolCall, toFinishReason("tool_use"))
	assert.Equal(t, forgetypes.FinishMaxTokens, toFinishReason("max_tokens"))
	assert.Equal(t, forgetypes.FinishStop, toFinishReason("end_turn"))
	assert.Equal(t, forgetypes.FinishStop, toFinishReason("something_new"))
}

func TestSchemaProperties_ConvertsEnumAndType(t *testing.T) {
	s := Schema{
		Type: "object",
		Properties: map[string]Schema{
			"priority": {Type: "string", Enum: []string{"low", "high"}},
		},
	}

	props := schemaProperties(s)
	entry, ok := props["priority"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "string", entry["type"])
	assert.Equal(t, []string{"low", "high"}, entry["enum"])
}
