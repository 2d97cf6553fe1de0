package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cuemby/forge/pkg/chat"
	"github.com/cuemby/forge/pkg/config"
	"github.com/cuemby/forge/pkg/faults"
	"github.com/cuemby/forge/pkg/forgetypes"
	"github.com/cuemby/forge/pkg/launcher"
	"github.com/cuemby/forge/pkg/ledger"
	"github.com/cuemby/forge/pkg/tasks"
)

// toolDeps are the live collaborators the builtin tool set dispatches
// against. Tools never reach into pkg/ledger or pkg/launcher directly
// from pkg/chat — the registry stays decoupled, and this is where the
// wiring happens instead.
type toolDeps struct {
	ledger   *ledger.Ledger
	launcher *launcher.Launcher
	binding  tasks.Binding
	confirm  config.ConfirmationConfig
}

func requiresConfirmation(cfg config.ConfirmationConfig, name string) bool {
	for _, n := range cfg.RequiredFor {
		if n == name {
			return true
		}
	}
	return false
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]any, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func stringSliceArg(args map[string]any, name string) []string {
	raw, ok := args[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// buildTools returns the enumerable tool set the chat pipeline proposes
// calls against: list_workers, spawn_worker, kill_worker,
// kill_all_workers, pause_workers, assign_task.
func buildTools(d toolDeps) []chat.Tool {
	return []chat.Tool{
		listWorkersTool(d),
		spawnWorkerTool(d),
		killWorkerTool(d),
		killAllWorkersTool(d),
		pauseWorkersTool(d),
		assignTaskTool(d),
	}
}

func listWorkersTool(d toolDeps) chat.Tool {
	return chat.Tool{
		Name:        "list_workers",
		Description: "List every worker currently known to the status ledger",
		Schema:      chat.Schema{Type: "object"},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error) {
			snap := d.ledger.Snapshot()
			workers := make([]map[string]any, 0, len(snap.Workers))
			for id, ws := range snap.Workers {
				workers = append(workers, map[string]any{
					"worker_id":       string(id),
					"status":          string(ws.Status),
					"model":           ws.Model,
					"tasks_completed": ws.TasksCompleted,
				})
			}
			return map[string]any{"workers": workers}, nil, nil
		},
	}
}

func spawnWorkerTool(d toolDeps) chat.Tool {
	return chat.Tool{
		Name:        "spawn_worker",
		Description: "Launch one or more new workers against a model and workspace",
		Schema: chat.Schema{
			Type:     "object",
			Required: []string{"model", "workspace"},
			Properties: map[string]chat.Schema{
				"model":     {Type: "string"},
				"workspace": {Type: "string"},
				"count":     {Type: "number"},
				"bead_ref":  {Type: "string"},
			},
		},
		RequiresConfirmation: requiresConfirmation(d.confirm, "spawn_worker"),
		SelfConfirms: func(args map[string]any) bool {
			return intArg(args, "count", 1) > 2
		},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error) {
			count := intArg(args, "count", 1)
			if count < 1 {
				count = 1
			}
			model := stringArg(args, "model")
			workspace := stringArg(args, "workspace")
			beadRef := forgetypes.TaskID(stringArg(args, "bead_ref"))

			spawned := make([]map[string]any, 0, count)
			effects := make([]forgetypes.SideEffect, 0, count)
			for i := 0; i < count; i++ {
				id := forgetypes.WorkerID(uuid.NewString())
				outcome, err := d.launcher.Spawn(ctx, forgetypes.SpawnRequest{
					WorkerID:  id,
					Model:     model,
					Workspace: workspace,
					BeadRef:   beadRef,
				})
				if err != nil {
					return nil, effects, err
				}
				spawned = append(spawned, map[string]any{"worker_id": string(outcome.WorkerID), "pid": outcome.PID})
				effects = append(effects, forgetypes.SideEffect{
					Kind:        "worker_spawned",
					Description: fmt.Sprintf("spawned worker %s", outcome.WorkerID),
					Payload:     map[string]any{"worker_id": string(outcome.WorkerID), "model": model},
				})
			}
			return map[string]any{"spawned": spawned}, effects, nil
		},
	}
}

func killWorkerTool(d toolDeps) chat.Tool {
	return chat.Tool{
		Name:                 "kill_worker",
		Description:          "Terminate a single worker by id",
		RequiresConfirmation: true,
		Schema: chat.Schema{
			Type:       "object",
			Required:   []string{"worker_id"},
			Properties: map[string]chat.Schema{"worker_id": {Type: "string"}},
		},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error) {
			id := forgetypes.WorkerID(stringArg(args, "worker_id"))
			ws, ok := d.ledger.Snapshot().Get(id)
			if !ok {
				return nil, nil, &faults.ToolExecutionFailedError{Name: "kill_worker", Detail: fmt.Sprintf("worker %s not found", id)}
			}
			if err := d.launcher.Kill(ws.PID, false); err != nil {
				return nil, nil, err
			}
			stopped := forgetypes.WorkerStopped
			if err := d.ledger.Update(id, ledger.Patch{Status: &stopped}); err != nil {
				return nil, nil, err
			}
			effect := forgetypes.SideEffect{
				Kind:        "worker_stopped",
				Description: fmt.Sprintf("killed worker %s", id),
				Payload:     map[string]any{"worker_id": string(id)},
			}
			return map[string]any{"worker_id": string(id)}, []forgetypes.SideEffect{effect}, nil
		},
	}
}

func killAllWorkersTool(d toolDeps) chat.Tool {
	return chat.Tool{
		Name:                 "kill_all_workers",
		Description:          "Terminate every worker currently known to the status ledger",
		RequiresConfirmation: true,
		Schema:               chat.Schema{Type: "object"},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error) {
			snap := d.ledger.Snapshot()
			stopped := forgetypes.WorkerStopped
			effects := make([]forgetypes.SideEffect, 0, len(snap.Workers))
			for id, ws := range snap.Workers {
				if err := d.launcher.Kill(ws.PID, false); err != nil {
					return nil, effects, err
				}
				if err := d.ledger.Update(id, ledger.Patch{Status: &stopped}); err != nil {
					return nil, effects, err
				}
				effects = append(effects, forgetypes.SideEffect{
					Kind:        "worker_stopped",
					Description: fmt.Sprintf("killed worker %s", id),
					Payload:     map[string]any{"worker_id": string(id)},
				})
			}
			return map[string]any{"count": len(effects)}, effects, nil
		},
	}
}

func pauseWorkersTool(d toolDeps) chat.Tool {
	return chat.Tool{
		Name:        "pause_workers",
		Description: "Mark a set of workers paused in the status ledger; they are not resumed automatically",
		Schema: chat.Schema{
			Type:     "object",
			Required: []string{"worker_ids"},
			Properties: map[string]chat.Schema{
				"worker_ids":       {},
				"duration_minutes": {Type: "number"},
			},
		},
		RequiresConfirmation: requiresConfirmation(d.confirm, "pause_workers"),
		SelfConfirms: func(args map[string]any) bool {
			return intArg(args, "duration_minutes", 0) > 10
		},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error) {
			paused := forgetypes.WorkerPaused
			ids := stringSliceArg(args, "worker_ids")
			effects := make([]forgetypes.SideEffect, 0, len(ids))
			for _, raw := range ids {
				id := forgetypes.WorkerID(raw)
				if err := d.ledger.Update(id, ledger.Patch{Status: &paused}); err != nil {
					return nil, effects, err
				}
				effects = append(effects, forgetypes.SideEffect{
					Kind:        "worker_paused",
					Description: fmt.Sprintf("paused worker %s", id),
					Payload:     map[string]any{"worker_id": raw},
				})
			}
			return map[string]any{"count": len(effects)}, effects, nil
		},
	}
}

func assignTaskTool(d toolDeps) chat.Tool {
	return chat.Tool{
		Name:        "assign_task",
		Description: "Assign a tracked task to a worker",
		Schema: chat.Schema{
			Type:     "object",
			Required: []string{"task_id", "worker_id"},
			Properties: map[string]chat.Schema{
				"task_id":   {Type: "string"},
				"worker_id": {Type: "string"},
			},
		},
		RequiresConfirmation: requiresConfirmation(d.confirm, "assign_task"),
		SelfConfirms: func(args map[string]any) bool {
			rec, err := d.binding.Get(context.Background(), forgetypes.TaskID(stringArg(args, "task_id")))
			return err == nil && rec != nil && rec.Status == forgetypes.TaskInProgress
		},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, []forgetypes.SideEffect, error) {
			taskID := forgetypes.TaskID(stringArg(args, "task_id"))
			workerID := forgetypes.WorkerID(stringArg(args, "worker_id"))

			if err := d.binding.Assign(ctx, taskID, workerID); err != nil {
				return nil, nil, err
			}
			if err := d.binding.SetStatus(ctx, taskID, forgetypes.TaskInProgress); err != nil {
				return nil, nil, err
			}
			effect := forgetypes.SideEffect{
				Kind:        "task_assigned",
				Description: fmt.Sprintf("assigned task %s to worker %s", taskID, workerID),
				Payload:     map[string]any{"task_id": string(taskID), "worker_id": string(workerID)},
			}
			return map[string]any{"task_id": string(taskID), "worker_id": string(workerID)}, []forgetypes.SideEffect{effect}, nil
		},
	}
}
