package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/forge/pkg/forgetypes"
)

func TestRegistry_UnknownToolReturnsError(t *testing.T) {
	r := NewRegistry()
	call := r.Execute(context.Background(), forgetypes.ToolCall{Name: "ghost"})
	assert.Equal(t, forgetypes.ToolResultError, call.ResultStatus)
}

func TestRegistry_InvalidArgumentsReturnError(t *testing.T) {
	r := NewRegistry(Tool{
		Name:   "assign_task",
		Schema: Schema{Type: "object", Required: []string{"task_id"}},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error) {
			t.Fatal("handler must not run on invalid arguments")
			return nil, nil, nil
		},
	})

	call := r.Execute(context.Background(), forgetypes.ToolCall{Name: "assign_task", Arguments: map[string]any{}})
	assert.Equal(t, forgetypes.ToolResultError, call.ResultStatus)
}

func TestRegistry_AlwaysConfirmsRequiresConfirmationFlag(t *testing.T) {
	r := NewRegistry(Tool{
		Name:                 "kill_worker",
		RequiresConfirmation: true,
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error) {
			t.Fatal("handler must not run before confirmation")
			return nil, nil, nil
		},
	})

	call := r.Execute(context.Background(), forgetypes.ToolCall{Name: "kill_worker"})
	assert.Equal(t, forgetypes.ToolResultConfirmRequired, call.ResultStatus)

	call.Confirmed = true
	ran := false
	r2 := NewRegistry(Tool{
		Name:                 "kill_worker",
		RequiresConfirmation: true,
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error) {
			ran = true
			return map[string]any{}, nil, nil
		},
	})
	call2 := r2.Execute(context.Background(), forgetypes.ToolCall{Name: "kill_worker", Confirmed: true})
	assert.Equal(t, forgetypes.ToolResultOK, call2.ResultStatus)
	assert.True(t, ran)
}

func TestRegistry_SelfConfirmsPredicateGatesOnArguments(t *testing.T) {
	r := NewRegistry(Tool{
		Name: "spawn_worker",
		SelfConfirms: func(args map[string]any) bool {
			count, _ := args["count"].(int)
			return count > 2
		},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error) {
			return map[string]any{"spawned": true}, nil, nil
		},
	})

	small := r.Execute(context.Background(), forgetypes.ToolCall{Name: "spawn_worker", Arguments: map[string]any{"count": 1}})
	assert.Equal(t, forgetypes.ToolResultOK, small.ResultStatus)

	large := r.Execute(context.Background(), forgetypes.ToolCall{Name: "spawn_worker", Arguments: map[string]any{"count": 5}})
	assert.Equal(t, forgetypes.ToolResultConfirmRequired, large.ResultStatus)
}

func TestRegistry_HandlerErrorSurfacesAsResultError(t *testing.T) {
	r := NewRegistry(Tool{
		Name: "boom",
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error) {
			return nil, nil, assert.AnError
		},
	})

	call := r.Execute(context.Background(), forgetypes.ToolCall{Name: "boom"})
	require.Equal(t, forgetypes.ToolResultError, call.ResultStatus)
}

func TestRegistry_SpecsReflectAllTools(t *testing.T) {
	r := NewRegistry(
		Tool{Name: "a", Description: "does a"},
		Tool{Name: "b", Description: "does b"},
	)
	specs := r.Specs()
	assert.Len(t, specs, 2)
}
