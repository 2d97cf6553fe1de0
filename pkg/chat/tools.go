package chat

import (
	"context"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// Handler executes a tool call's side effects and returns its result
// payload plus any side effects it performed.
type Handler func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error)

// ConfirmFunc reports whether a specific invocation of a tool needs
// confirmation before executing, given its arguments — e.g.
// spawn_worker only confirms when the requested count exceeds 2.
type ConfirmFunc func(args map[string]any) bool

// Tool is one entry in the registry.
type Tool struct {
	Name                 string
	Description          string
	Schema               Schema
	RequiresConfirmation bool
	SelfConfirms         ConfirmFunc
	Handler              Handler
}

func (t Tool) needsConfirmation(args map[string]any) bool {
	if t.RequiresConfirmation {
		return true
	}
	if t.SelfConfirms != nil {
		return t.SelfConfirms(args)
	}
	return false
}

// Registry is the enumerable set of tools available to a pipeline.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name] = t
	}
	return r
}

// Specs returns the ToolSpec view handed to providers.
func (r *Registry) Specs() []ToolSpec {
	out := make([]ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, ToolSpec{Name: t.Name, Description: t.Description, Schema: t.Schema})
	}
	return out
}

// Execute validates call's arguments and, unless confirmation is
// required and not yet given, runs the tool's handler. The returned
// ToolCall always has ResultStatus set.
func (r *Registry) Execute(ctx context.Context, call forgetypes.ToolCall) forgetypes.ToolCall {
	tool, ok := r.tools[call.Name]
	if !ok {
		call.ResultStatus = forgetypes.ToolResultError
		call.ResultPayload = map[string]any{"error": "tool not found: " + call.Name}
		return call
	}

	if msg := tool.Schema.Validate(call.Arguments); msg != "" {
		call.ResultStatus = forgetypes.ToolResultError
		call.ResultPayload = map[string]any{"error": msg}
		return call
	}

	if tool.needsConfirmation(call.Arguments) && !call.Confirmed {
		call.ResultStatus = forgetypes.ToolResultConfirmRequired
		call.ResultPayload = map[string]any{
			"tool":      tool.Name,
			"arguments": call.Arguments,
		}
		return call
	}

	payload, effects, err := tool.Handler(ctx, call.Arguments)
	if err != nil {
		call.ResultStatus = forgetypes.ToolResultError
		call.ResultPayload = map[string]any{"error": err.Error()}
		return call
	}

	call.ResultStatus = forgetypes.ToolResultOK
	call.ResultPayload = payload
	call.SideEffects = effects
	return call
}
