package main

import (
	"context"
	"fmt"
	"time"

	"reelist/internal/infra/logger"
	"reelist/internal/usecase/discovery"
)

// runDiscover browses the local network for advertised Reelist servers.
func runDiscover() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	fmt.Println("Scanning for Reelist servers (_reelist._tcp)...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endpoints, err := discovery.NewScanner(log).Scan(ctx)
	if err != nil {
		return err
	}

	if len(endpoints) == 0 {
		fmt.Println("No servers found. Check that the server is on this network and mDNS is not blocked.")
		return nil
	}

	fmt.Printf("\nFound %d server(s):\n\n", len(endpoints))
	for _, ep := range endpoints {
		line := fmt.Sprintf("  %-28s %s", ep.URL, ep.Name)
		if ep.Version != "" {
			line += fmt.Sprintf(" (v%s)", ep.Version)
		}
		fmt.Println(line)
	}

	fmt.Println("\nUse one with:")
	fmt.Printf("  REELIST_BACKEND_URL=%s reelist\n", endpoints[0].URL)
	return nil
}
