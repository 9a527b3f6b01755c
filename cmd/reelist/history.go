package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"reelist/internal/adapter/history"
)

// historyListLimit caps the listing; the store prunes beyond its keep count
// anyway.
const historyListLimit = 20

// runHistory lists recent enrichment builds from the local store.
func runHistory() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
		fmt.Println("No builds recorded yet.")
		return nil
	}

	store, err := history.NewStore(cfg.History.Path, cfg.History.Keep)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	recs, err := store.Recent(context.Background(), historyListLimit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(recs) == 0 {
		fmt.Println("No builds recorded yet.")
		return nil
	}

	fmt.Printf("%-16s  %-8s  %11s  %9s\n", "FINISHED", "STATE", "ITEMS", "DURATION")
	for _, r := range recs {
		state := string(r.State)
		if r.Skipped {
			state = "skipped"
		}
		dur := "-"
		if d := r.Duration(); d > 0 {
			dur = d.Round(time.Second).String()
		}
		fmt.Printf("%-16s  %-8s  %11s  %9s\n",
			r.FinishedAt.Format("2006-01-02 15:04"),
			state,
			fmt.Sprintf("%d/%d", r.Processed, r.Total),
			dur,
		)
	}
	return nil
}
