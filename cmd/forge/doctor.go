package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cuemby/forge/pkg/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate configuration and check that external collaborators are reachable",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type check struct {
	name string
	ok   bool
	hint string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	statusDir, _ := cmd.Flags().GetString("status-dir")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	configPath, _ := cmd.Flags().GetString("config")

	var checks []check

	if configPath == "" {
		configPath = filepath.Join(dataDir, "forge.yaml")
	}
	if _, err := config.Load(configPath); err != nil {
		checks = append(checks, check{name: "config file", ok: false, hint: err.Error()})
	} else {
		checks = append(checks, check{name: "config file", ok: true})
	}

	checks = append(checks, dirWritable("status dir", statusDir))
	checks = append(checks, dirWritable("data dir", dataDir))
	checks = append(checks, binaryOnPath("br", "task binding falls back to a local JSONL file"))
	checks = append(checks, binaryOnPath("forge-launch", "set --launcher-binary to point at your launcher program"))
	checks = append(checks, binaryOnPath("forge-chat", "subprocess chat provider unavailable; set ANTHROPIC_API_KEY for the HTTP provider instead"))
	checks = append(checks, envSet("ANTHROPIC_API_KEY", "HTTP chat provider will be unavailable without it"))

	failed := 0
	for _, c := range checks {
		status := "ok"
		if !c.ok {
			status = "FAIL"
			failed++
		}
		if c.hint != "" {
			fmt.Printf("[%s] %-12s %s\n", status, c.name, c.hint)
		} else {
			fmt.Printf("[%s] %-12s\n", status, c.name)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func dirWritable(name, path string) check {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return check{name: name, ok: false, hint: err.Error()}
	}
	probe := path + "/.forge-doctor-probe"
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return check{name: name, ok: false, hint: err.Error()}
	}
	_ = os.Remove(probe)
	return check{name: name, ok: true, hint: path}
}

func binaryOnPath(binary, hintIfMissing string) check {
	if _, err := exec.LookPath(binary); err != nil {
		return check{name: binary, ok: false, hint: hintIfMissing}
	}
	return check{name: binary, ok: true}
}

func envSet(name, hintIfMissing string) check {
	if os.Getenv(name) == "" {
		return check{name: name, ok: false, hint: hintIfMissing}
	}
	return check{name: name, ok: true}
}
