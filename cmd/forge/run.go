package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cuemby/forge/pkg/chat"
	"github.com/cuemby/forge/pkg/crash"
	"github.com/cuemby/forge/pkg/events"
	"github.com/cuemby/forge/pkg/faults"
	"github.com/cuemby/forge/pkg/forgetypes"
	"github.com/cuemby/forge/pkg/health"
	"github.com/cuemby/forge/pkg/launcher"
	"github.com/cuemby/forge/pkg/ledger"
	"github.com/cuemby/forge/pkg/log"
	"github.com/cuemby/forge/pkg/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the orchestration core: ledger, health monitor, crash recovery, and chat pipeline",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("launcher-binary", "forge-launch", "Launcher program invoked to spawn workers")
	runCmd.Flags().String("chat-binary", "forge-chat", "Subprocess chat provider binary, if present on PATH")
	runCmd.Flags().String("metrics-addr", ":9090", "Address to serve Prometheus metrics on")
	rootCmd.AddCommand(runCmd)
}

// ledgerAccessor adapts *ledger.Ledger to launcher.StatusAccessor: each
// call takes a fresh snapshot so the launcher's post-spawn poll always
// sees the ledger's current state, not a stale one captured at wiring
// time.
type ledgerAccessor struct{ l *ledger.Ledger }

func (a ledgerAccessor) Get(id forgetypes.WorkerID) (*forgetypes.WorkerStatus, bool) {
	return a.l.Snapshot().Get(id)
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	logger := log.WithComponent("run")

	l, err := a.openLedger()
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()

	binding := a.newBinding()

	recoverer, err := a.openRecoverer(binding)
	if err != nil {
		return fmt.Errorf("open crash recoverer: %w", err)
	}
	defer recoverer.Close()

	costLedger, err := a.openCostLedger()
	if err != nil {
		return fmt.Errorf("open cost ledger: %w", err)
	}
	defer costLedger.Close()

	launcherBinary, _ := cmd.Flags().GetString("launcher-binary")
	lnch := a.newLauncher(launcherBinary, ledgerAccessor{l})

	faultsMgr := a.newFaultsManager()
	monitor := a.newMonitor()

	a.bus.Start()
	defer a.bus.Stop()

	audit, err := a.newAuditJournal()
	if err != nil {
		return fmt.Errorf("open audit journal: %w", err)
	}
	if audit != nil {
		defer audit.Close()
	}

	chatBinary, _ := cmd.Flags().GetString("chat-binary")
	provider, err := chat.SelectProvider(a.cfg.Chat.Provider, chatBinary, os.Getenv("ANTHROPIC_API_KEY"), "")
	if err != nil {
		logger.Warn().Err(err).Msg("no chat provider available, falling back to mock")
		provider, _ = chat.SelectProvider("mock", "", "", "")
	}

	registry := chat.NewRegistry(buildTools(toolDeps{
		ledger:   l,
		launcher: lnch,
		binding:  binding,
		confirm:  a.cfg.Chat.Confirmations,
	})...)

	pipeline := chat.NewPipeline(chat.Config{
		Provider: provider,
		Registry: registry,
		RateLimiter: chat.NewRateLimiter(
			a.cfg.Chat.RateLimit.MaxPerMinute,
			a.cfg.Chat.RateLimit.MaxPerHour,
		),
		Audit:    audit,
		Bus:      a.bus,
		CostSink: costLedger,
	}, chat.ContextSourceFunc(func() forgetypes.DashboardContext {
		return gatherContext(l, costLedger)
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := l.Run(ctx, time.Duration(a.cfg.Log.PollIntervalSecs)*time.Second); err != nil {
			logger.Warn().Err(err).Msg("ledger watch loop exited")
		}
	}()

	go runHealthLoop(ctx, a, l, monitor, recoverer, lnch, faultsMgr)

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	go serveMetrics(metricsAddr, logger)

	logger.Info().Str("status_dir", a.statusDir).Str("data_dir", a.dataDir).Msg("forge control plane started")

	runChatREPL(ctx, pipeline)

	cancel()
	return nil
}

// runHealthLoop evaluates every worker's health once per configured
// interval, feeds crash-class failures to the Recoverer, and issues a
// restart spawn when it decides to.
func runHealthLoop(ctx context.Context, a *app, l *ledger.Ledger, monitor *health.Monitor, recoverer *crash.Recoverer, lnch *launcher.Launcher, faultsMgr *faults.Manager) {
	logger := log.WithComponent("health")
	interval := time.Duration(a.cfg.Health.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := l.Snapshot()
			_, results := monitor.Evaluate(ctx, snap.Workers)
			for _, r := range results {
				a.bus.Publish(&events.Event{Type: events.EventWorkerHealth, Payload: r})
				if r.Outcome == forgetypes.OutcomePass {
					continue
				}
				ws, ok := snap.Get(r.WorkerID)
				if !ok {
					continue
				}
				action, err := recoverer.HandleFailure(ctx, ws, r)
				if err != nil {
					faultsMgr.Record("crash", forgetypes.CategoryWorker, forgetypes.SeverityWarning, err.Error())
					continue
				}
				if action != forgetypes.CrashActionRestart {
					continue
				}
				if _, err := lnch.Spawn(ctx, forgetypes.SpawnRequest{
					WorkerID:  ws.WorkerID,
					Model:     ws.Model,
					Workspace: ws.WorkspacePath,
					BeadRef:   ws.CurrentTask.TaskID,
				}); err != nil {
					logger.Warn().Err(err).Str("worker_id", string(ws.WorkerID)).Msg("auto-restart spawn failed")
					faultsMgr.Record("crash", forgetypes.CategoryWorker, forgetypes.SeverityError, err.Error())
				}
			}
			if err := recoverer.CleanWindow(time.Now()); err != nil {
				logger.Warn().Err(err).Msg("crash window cleanup failed")
			}
		}
	}
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn().Err(err).Msg("metrics server stopped")
	}
}

// runChatREPL is FORGE's interactive surface in place of the out-of-scope
// TUI: a plain line-oriented loop over stdin, one ChatTurn per line.
func runChatREPL(ctx context.Context, pipeline *chat.Pipeline) {
	fmt.Println("forge chat ready. Type a message and press enter; Ctrl-D to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		text := scanner.Text()
		if text == "" {
			continue
		}
		turn, err := pipeline.Submit(ctx, text)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(turn.ResponseText)
	}
}
