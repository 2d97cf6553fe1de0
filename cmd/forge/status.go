package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current worker fleet as seen in the status directory",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	snap := l.Snapshot()
	if len(snap.Workers) == 0 {
		fmt.Println("no workers found in", a.statusDir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "WORKER_ID\tSTATUS\tMODEL\tTASK\tTASKS_DONE\tLAST_ACTIVITY")
	for id, ws := range snap.Workers {
		task := string(ws.CurrentTask.TaskID)
		if task == "" {
			task = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			id, ws.Status, ws.Model, task, ws.TasksCompleted, ws.LastActivity.Format("15:04:05"))
	}
	return w.Flush()
}
