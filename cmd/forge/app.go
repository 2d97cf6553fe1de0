package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/forge/pkg/chat"
	"github.com/cuemby/forge/pkg/config"
	"github.com/cuemby/forge/pkg/cost"
	"github.com/cuemby/forge/pkg/crash"
	"github.com/cuemby/forge/pkg/events"
	"github.com/cuemby/forge/pkg/faults"
	"github.com/cuemby/forge/pkg/forgetypes"
	"github.com/cuemby/forge/pkg/health"
	"github.com/cuemby/forge/pkg/launcher"
	"github.com/cuemby/forge/pkg/ledger"
	"github.com/cuemby/forge/pkg/tasks"
)

// app bundles every collaborator a subcommand might need, wired from the
// resolved config and data directory. Subcommands open only what they
// use and close the rest.
type app struct {
	cfg       *config.Config
	statusDir string
	dataDir   string

	bus *events.Bus
}

func newApp(cmd *cobra.Command) (*app, error) {
	statusDir, _ := cmd.Flags().GetString("status-dir")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	configPath, _ := cmd.Flags().GetString("config")

	if err := os.MkdirAll(statusDir, 0o755); err != nil {
		return nil, fmt.Errorf("create status dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Load(filepath.Join(dataDir, "forge.yaml"))
	}
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		statusDir: statusDir,
		dataDir:   dataDir,
		bus:       events.NewBus(),
	}, nil
}

func (a *app) path(name string) string {
	return filepath.Join(a.dataDir, name)
}

func (a *app) openLedger() (*ledger.Ledger, error) {
	l, err := ledger.NewLedger(a.statusDir, a.path("history.db"), 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (a *app) newMonitor() *health.Monitor {
	hc := a.cfg.Health
	return health.NewMonitor(health.Config{
		StaleActivityThreshold: time.Duration(hc.StaleActivityThresholdSecs) * time.Second,
		TaskStuckThreshold:     time.Duration(hc.TaskStuckThresholdMins) * time.Minute,
		EnableMemoryCheck:      hc.EnableMemoryCheck,
		EnableResponseCheck:    hc.EnableResponseCheck,
	})
}

func (a *app) openRecoverer(binding tasks.Binding) (*crash.Recoverer, error) {
	cc := a.cfg.Crash
	return crash.NewRecoverer(crash.Config{
		AutoRestartEnabled:    cc.AutoRestartEnabled,
		MaxCrashesInWindow:    cc.MaxCrashesInWindow,
		CrashWindow:           time.Duration(cc.CrashWindowSecs) * time.Second,
		ClearAssigneesEnabled: cc.ClearAssigneesEnabled,
	}, binding, a.path("crash.db"))
}

func (a *app) openCostLedger() (*cost.Ledger, error) {
	return cost.Open(a.path("cost.db"))
}

func (a *app) newBinding() tasks.Binding {
	if _, err := exec.LookPath("br"); err == nil {
		return tasks.NewShellBinding("br")
	}
	fb, err := tasks.NewFileBinding(a.path("tasks.jsonl"))
	if err != nil {
		return tasks.NewShellBinding("br")
	}
	return fb
}

func (a *app) newLauncher(binaryPath string, accessor launcher.StatusAccessor) *launcher.Launcher {
	return launcher.New(launcher.Config{BinaryPath: binaryPath}, accessor)
}

func (a *app) newFaultsManager() *faults.Manager {
	return faults.NewManager(a.bus)
}

func (a *app) newAuditJournal() (*chat.AuditJournal, error) {
	if !a.cfg.Chat.Audit.Enabled {
		return nil, nil
	}
	return chat.OpenAuditJournal(a.path("audit.jsonl"), chatAuditLevel(a.cfg.Chat.Audit.LogLevel))
}

// chatAuditLevel maps the config surface's log_level string onto the
// typed AuditLevel, defaulting to AuditAll for an unrecognized value.
func chatAuditLevel(level string) forgetypes.AuditLevel {
	switch level {
	case string(forgetypes.AuditCommandsOnly):
		return forgetypes.AuditCommandsOnly
	case string(forgetypes.AuditErrorsOnly):
		return forgetypes.AuditErrorsOnly
	default:
		return forgetypes.AuditAll
	}
}
