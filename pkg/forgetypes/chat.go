package forgetypes

import "time"

// TurnState is the lifecycle state of a ChatTurn.
type TurnState string

const (
	TurnPending            TurnState = "pending"
	TurnAwaitingToolResult TurnState = "awaiting_tool_result"
	TurnComplete           TurnState = "complete"
	TurnError              TurnState = "error"
	TurnCancelled          TurnState = "cancelled"
)

// FinishReason is why the provider stopped generating.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCall  FinishReason = "tool_call"
	FinishMaxTokens FinishReason = "max_tokens"
	FinishError     FinishReason = "error"
)

// Usage carries token accounting returned alongside a provider response.
type Usage struct {
	InputTokens       int64 `json:"input_tokens"`
	OutputTokens      int64 `json:"output_tokens"`
	CacheReadTokens   int64 `json:"cache_read_tokens"`
	CacheCreateTokens int64 `json:"cache_creation_tokens"`
}

// ToolResultStatus is the outcome of executing (or attempting to execute) a
// proposed tool call.
type ToolResultStatus string

const (
	ToolResultOK              ToolResultStatus = "ok"
	ToolResultError            ToolResultStatus = "error"
	ToolResultCancelled        ToolResultStatus = "cancelled"
	ToolResultConfirmRequired  ToolResultStatus = "confirm_required"
)

// SideEffect records an observable mutation a tool call performed.
type SideEffect struct {
	Kind        string         `json:"kind"`
	Description string         `json:"description"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// ToolCall is a structured tool invocation proposed by the provider.
type ToolCall struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Arguments     map[string]any   `json:"arguments"`
	ResultStatus  ToolResultStatus `json:"result_status"`
	ResultPayload map[string]any   `json:"result_payload,omitempty"`
	SideEffects   []SideEffect     `json:"side_effects,omitempty"`
	Confirmed     bool             `json:"confirmed,omitempty"`
}

// ChatTurn is one request/response exchange in the chat pipeline.
type ChatTurn struct {
	TurnID        string       `json:"turn_id"`
	SubmittedAt   time.Time    `json:"submitted_at"`
	UserText      string       `json:"user_text"`
	ResponseText  string       `json:"response_text,omitempty"`
	ToolCalls     []ToolCall   `json:"tool_calls,omitempty"`
	FinishReason  FinishReason `json:"finish_reason,omitempty"`
	Usage         Usage        `json:"usage"`
	CostUSD       float64      `json:"cost_usd"`
	DurationMS    int64        `json:"duration_ms"`
	State         TurnState    `json:"state"`
	Success       bool         `json:"success"`
	Error         string       `json:"error,omitempty"`
}

// AuditLevel controls which turns are written to the audit journal.
type AuditLevel string

const (
	AuditAll          AuditLevel = "all"
	AuditCommandsOnly AuditLevel = "commands_only"
	AuditErrorsOnly   AuditLevel = "errors_only"
)

// AuditEntry is a ChatTurn flattened for the append-only audit journal.
type AuditEntry struct {
	ChatTurn
	AuditLevel AuditLevel `json:"audit_level"`
}
