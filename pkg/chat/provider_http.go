package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cuemby/forge/pkg/faults"
	"github.com/cuemby/forge/pkg/forgetypes"
)

// DefaultModel is used when NewHTTPProvider is given an empty model.
const DefaultModel = "claude-sonnet-4-5-20250929"

// HTTPProvider sends prompts to the Anthropic Messages API.
type HTTPProvider struct {
	client anthropic.Client
	model  string
}

// NewHTTPProvider builds an HTTPProvider. apiKey may be empty to let the
// SDK pick it up from ANTHROPIC_API_KEY.
func NewHTTPProvider(apiKey, model string) *HTTPProvider {
	if model == "" {
		model = DefaultModel
	}
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &HTTPProvider{client: anthropic.NewClient(opts...), model: model}
}

func (p *HTTPProvider) Name() string { return "anthropic" }

func (p *HTTPProvider) Process(ctx context.Context, prompt string, dctx forgetypes.DashboardContext, tools []ToolSpec) (ProviderResponse, error) {
	start := time.Now()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt(dctx)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if len(tools) > 0 {
		params.Tools = toAnthropicTools(tools)
	}

	msg, err := p.client.Messages.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		return ProviderResponse{}, &faults.ProviderError{Message: err.Error()}
	}

	resp := ProviderResponse{
		DurationMS: duration.Milliseconds(),
		Model:      p.model,
		Usage: forgetypes.Usage{
			InputTokens:       msg.Usage.InputTokens,
			OutputTokens:      msg.Usage.OutputTokens,
			CacheReadTokens:   msg.Usage.CacheReadInputTokens,
			CacheCreateTokens: msg.Usage.CacheCreationInputTokens,
		},
		FinishReason: toFinishReason(string(msg.StopReason)),
	}

	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Text += variant.Text
		case anthropic.ToolUseBlock:
			args, ok := variant.Input.(map[string]any)
			if !ok {
				args = map[string]any{}
			}
			resp.ToolCalls = append(resp.ToolCalls, forgetypes.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: args,
			})
		}
	}

	return resp, nil
}

func toFinishReason(stopReason string) forgetypes.FinishReason {
	switch stopReason {
	case "tool_use":
		return forgetypes.FinishToolCall
	case "max_tokens":
		return forgetypes.FinishMaxTokens
	case "end_turn", "stop_sequence":
		return forgetypes.FinishStop
	default:
		return forgetypes.FinishStop
	}
}

func toAnthropicTools(tools []ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: schemaProperties(t.Schema),
				},
			},
		})
	}
	return out
}

func schemaProperties(s Schema) map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, prop := range s.Properties {
		entry := map[string]any{"type": prop.Type}
		if len(prop.Enum) > 0 {
			entry["enum"] = prop.Enum
		}
		props[name] = entry
	}
	return props
}

// systemPrompt renders the injected dashboard snapshot as a compact
// preamble so the model has current worker/task/cost state without a
// dedicated tool round-trip.
func systemPrompt(dctx forgetypes.DashboardContext) string {
	return fmt.Sprintf(
		"You are the FORGE control-plane assistant. Current state as of %s: %d workers, %d tasks, today's spend $%.2f, projected $%.2f.",
		dctx.GatheredAt.Format(time.RFC3339), len(dctx.Workers), len(dctx.Tasks), dctx.TodayCostUSD, dctx.ProjectedCostUSD,
	)
}
