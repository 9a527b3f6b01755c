package backend

import (
	"context"

	"reelist/internal/domain"
)

// Enrichment build operations.

// BuildStatus fetches the current enrichment job snapshot. Unlike the
// readiness probes this propagates errors: the monitor distinguishes "polling
// failed" from "job reported an error state".
func (c *Client) BuildStatus(ctx context.Context) (domain.BuildJobStatus, error) {
	const op = "Client.BuildStatus"

	var status domain.BuildJobStatus
	if err := c.getJSON(ctx, op, "/api/v1/enrichment/status", &status); err != nil {
		return domain.BuildJobStatus{}, err
	}
	return status, nil
}

// StartBuild asks the server to begin the enrichment build. With force, a
// finished or failed job is restarted from scratch; without it the server
// ignores the request when a job already ran.
func (c *Client) StartBuild(ctx context.Context, force bool) error {
	const op = "Client.StartBuild"

	payload := struct {
		Force bool `json:"force"`
	}{Force: force}

	if err := c.postJSON(ctx, op, "/api/v1/enrichment/start", payload, nil); err != nil {
		return err
	}

	c.logger.Info("enrichment build requested", "force", force)
	return nil
}

// SkipBuild marks enrichment as intentionally skipped so the readiness gate
// stops routing to the monitor. Skipping is reversible on the server; it is
// not a completed build.
func (c *Client) SkipBuild(ctx context.Context) error {
	const op = "Client.SkipBuild"

	if err := c.postJSON(ctx, op, "/api/v1/enrichment/skip", nil, nil); err != nil {
		return err
	}

	c.logger.Warn("enrichment build skipped by user")
	return nil
}
