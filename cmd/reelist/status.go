package main

import (
	"context"
	"fmt"
	"time"

	"reelist/internal/adapter/backend"
	"reelist/internal/adapter/tui/theme"
	"reelist/internal/domain"
	"reelist/internal/infra/logger"
)

// runStatus prints a one-shot readiness report. The exit code mirrors the
// verdict, so scripts can gate on `reelist status` without parsing output.
func runStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Backend.URL == "" {
		return fmt.Errorf("no backend URL configured (set REELIST_BACKEND_URL or backend.url in reelist.yaml)")
	}

	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	client := backend.New(cfg.Backend, log)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	set, enrichment := client.ProbeAll(ctx)

	fmt.Printf("Reelist server: %s\n\n", cfg.Backend.URL)
	fmt.Println(statusRow("Trakt credentials", set.Credentials, "not configured"))
	fmt.Println(statusRow("TMDB key", set.Key, "not configured"))
	fmt.Println(statusRow("Trakt authorization", set.Auth, "not authorized"))
	fmt.Println(statusRow("Enrichment", enrichment, "build not complete"))
	fmt.Println()

	if set.AllFailed() {
		return fmt.Errorf("server unreachable at %s", cfg.Backend.URL)
	}
	if !set.AllSatisfied() {
		return fmt.Errorf("setup incomplete, run 'reelist setup'")
	}
	if !enrichment.Satisfied {
		printBuildProgress(ctx, client)
		return fmt.Errorf("enrichment build not complete")
	}

	fmt.Println("Ready.")
	return nil
}

// statusRow renders one aligned signal line. fallback is the wording for an
// unsatisfied signal that carries no probe detail.
func statusRow(label string, sig domain.ReadinessSignal, fallback string) string {
	symbol := theme.SymbolSuccess
	state := "configured"
	if label == "Enrichment" {
		state = "complete"
	}
	if !sig.Satisfied {
		symbol = theme.SymbolPending
		state = fallback
		if sig.Detail != "" {
			symbol = theme.SymbolError
			state = sig.Detail
		}
	}
	return fmt.Sprintf("  %s %-20s %s", symbol, label, state)
}

// printBuildProgress adds the live job snapshot under an incomplete
// enrichment row, when the server can report one.
func printBuildProgress(ctx context.Context, client *backend.Client) {
	status, err := client.BuildStatus(ctx)
	if err != nil {
		return
	}
	switch status.State {
	case domain.BuildRunning:
		fmt.Printf("Build running: %.0f%% (%d/%d items)\n\n", status.Percent(), status.Processed, status.Total)
	case domain.BuildError:
		detail := status.ErrorDetail
		if detail == "" {
			detail = "unknown error"
		}
		fmt.Printf("Last build failed: %s\n\n", detail)
	}
}
