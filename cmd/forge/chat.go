package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuemby/forge/pkg/chat"
	"github.com/cuemby/forge/pkg/forgetypes"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Submit a single chat turn and print the response",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().String("launcher-binary", "forge-launch", "Launcher program invoked to spawn workers")
	chatCmd.Flags().String("chat-binary", "forge-chat", "Subprocess chat provider binary, if present on PATH")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	l, err := a.openLedger()
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()
	if err := l.Tick(); err != nil {
		return fmt.Errorf("read status dir: %w", err)
	}

	binding := a.newBinding()

	costLedger, err := a.openCostLedger()
	if err != nil {
		return fmt.Errorf("open cost ledger: %w", err)
	}
	defer costLedger.Close()

	launcherBinary, _ := cmd.Flags().GetString("launcher-binary")
	lnch := a.newLauncher(launcherBinary, ledgerAccessor{l})

	chatBinary, _ := cmd.Flags().GetString("chat-binary")
	provider, err := chat.SelectProvider(a.cfg.Chat.Provider, chatBinary, os.Getenv("ANTHROPIC_API_KEY"), "")
	if err != nil {
		return err
	}

	audit, err := a.newAuditJournal()
	if err != nil {
		return fmt.Errorf("open audit journal: %w", err)
	}
	if audit != nil {
		defer audit.Close()
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
		CostSink: costLedger,
	}, chat.ContextSourceFunc(func() forgetypes.DashboardContext {
		return gatherContext(l, costLedger)
	}))

	turn, err := pipeline.Submit(context.Background(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Println(turn.ResponseText)
	for _, tc := range turn.ToolCalls {
		if tc.ResultStatus == forgetypes.ToolResultConfirmRequired {
			fmt.Printf("confirmation required for %s before it will execute\n", tc.Name)
		}
	}
	return nil
}
