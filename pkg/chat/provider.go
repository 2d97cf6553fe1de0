package chat

import (
	"context"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// ProviderResponse is what a Provider returns for one prompt.
type ProviderResponse struct {
	Text         string
	ToolCalls    []forgetypes.ToolCall
	DurationMS   int64
	CostUSD      float64
	Model        string
	FinishReason forgetypes.FinishReason
	Usage        forgetypes.Usage
}

// Provider is a pluggable backend the chat pipeline sends prompts to.
type Provider interface {
	// Name identifies the provider for logging and audit entries.
	Name() string
	Process(ctx context.Context, prompt string, dctx forgetypes.DashboardContext, tools []ToolSpec) (ProviderResponse, error)
}

// ToolSpec is what a Provider is told about an available tool; it is the
// subset of Tool a provider needs to propose calls against it.
type ToolSpec struct {
	Name        string
	Description string
	Schema      Schema
}
