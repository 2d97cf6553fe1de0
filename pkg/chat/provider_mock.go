package chat

import (
	"context"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// MockResponder produces a canned ProviderResponse for a given prompt,
// used by MockProvider.
type MockResponder func(prompt string, dctx forgetypes.DashboardContext) (ProviderResponse, error)

// MockProvider returns scripted responses without any real IO — used
// throughout this package's own tests instead of hitting the HTTP or
// subprocess provider.
type MockProvider struct {
	Respond MockResponder
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Process(_ context.Context, prompt string, dctx forgetypes.DashboardContext, _ []ToolSpec) (ProviderResponse, error) {
	if m.Respond == nil {
		return ProviderResponse{Text: "", FinishReason: forgetypes.FinishStop}, nil
	}
	return m.Respond(prompt, dctx)
}
