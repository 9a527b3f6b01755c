package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"reelist/internal/adapter/history"
	"reelist/internal/adapter/tui/theme"
	"reelist/internal/infra/config"
)

// CheckStatus represents the result of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // optional fix suggestion
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(cfg *config.Config) CheckResult
}

// runDoctor executes all health checks and reports results.
func runDoctor() error {
	cfgPath := configPath()

	// Try to load the config; several checks work without it.
	cfg, cfgErr := loadConfig()

	checks := []Check{
		{Name: "Config file", Fn: checkConfigFile(cfgPath, cfgErr)},
		{Name: "Config schema", Fn: checkConfigSchema(cfgPath)},
		{Name: "Config permissions", Fn: checkConfigPermissions(cfgPath)},
		{Name: "State directory", Fn: checkStateDir},
		{Name: "Session file", Fn: checkSessionFile},
		{Name: "History database", Fn: checkHistoryDB},
		{Name: "Callback port", Fn: checkCallbackPort},
		{Name: "Server reachability", Fn: checkServerReachable},
		{Name: "Trakt authorization", Fn: checkTraktAuth},
		{Name: "Terminal", Fn: checkTerminal},
	}

	fmt.Println("reelist doctor")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	var pass, warn, fail int

	for _, check := range checks {
		result := check.Fn(cfg)
		result.Name = check.Name

		fmt.Printf("  %s %s: %s\n", statusIcon(result.Status), result.Name, result.Message)
		if result.Fix != "" {
			fmt.Printf("      Fix: %s\n", result.Fix)
		}

		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Results: %d passed, %d warnings, %d failed\n", pass, warn, fail)

	if fail > 0 {
		fmt.Println("\nFix the FAIL issues above before running reelist.")
		return fmt.Errorf("%d check(s) failed", fail)
	}
	if warn > 0 {
		fmt.Println("\nreelist should work, but consider addressing the warnings.")
	} else {
		fmt.Println("\nAll checks passed! reelist is ready to run.")
	}
	return nil
}

func statusIcon(s CheckStatus) string {
	switch s {
	case StatusPass:
		return "[PASS]"
	case StatusWarn:
		return "[WARN]"
	case StatusFail:
		return "[FAIL]"
	default:
		return "[????]"
	}
}

// checkConfigFile returns a check that verifies the config file parses. A
// missing file is fine: defaults plus environment carry a full setup.
func checkConfigFile(cfgPath string, cfgErr error) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			if cfgErr != nil {
				// Defaults plus environment failed validation.
				return CheckResult{
					Status:  StatusFail,
					Message: fmt.Sprintf("configuration invalid: %v", cfgErr),
					Fix:     "Check REELIST_* environment variables",
				}
			}
			return CheckResult{
				Status:  StatusPass,
				Message: fmt.Sprintf("no config file at %s (using defaults and environment)", cfgPath),
			}
		}

		if cfgErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config file error: %v", cfgErr),
				Fix:     fmt.Sprintf("Check the YAML syntax in %s", cfgPath),
			}
		}

		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config loaded from %s", cfgPath),
		}
	}
}

// checkConfigSchema validates the raw config file against the embedded JSON
// schema, which catches misspelled keys the lenient YAML decoder accepts.
func checkConfigSchema(cfgPath string) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		raw, err := os.ReadFile(cfgPath)
		if err != nil {
			if os.IsNotExist(err) {
				return CheckResult{
					Status:  StatusPass,
					Message: "skipped, no config file",
				}
			}
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("cannot read config file: %v", err),
			}
		}

		if err := config.CheckSchema(raw); err != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("schema violation: %v", err),
				Fix:     "Fix or remove the offending keys in " + cfgPath,
			}
		}

		return CheckResult{
			Status:  StatusPass,
			Message: "config matches the schema",
		}
	}
}

// checkConfigPermissions verifies the config file is not group or world
// writable. The file may hold a backend URL with embedded credentials.
func checkConfigPermissions(cfgPath string) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		info, err := os.Stat(cfgPath)
		if err != nil {
			if os.IsNotExist(err) {
				return CheckResult{
					Status:  StatusPass,
					Message: "skipped, no config file",
				}
			}
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("cannot stat config file: %v", err),
			}
		}

		mode := info.Mode().Perm()
		if mode&0o077 > 0o044 {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config file has insecure permissions %o", mode),
				Fix:     fmt.Sprintf("chmod 600 %s", cfgPath),
			}
		}

		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config file permissions %o", mode),
		}
	}
}

// checkStateDir verifies the state directory exists and is writable.
func checkStateDir(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{
			Status:  StatusFail,
			Message: "cannot check, config not loaded",
		}
	}

	dir := cfg.StateDir
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("state directory %s cannot be created: %v", dir, err),
			Fix:     fmt.Sprintf("mkdir -p %s", dir),
		}
	}

	probe := dir + "/.doctor-check"
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("state directory %s is not writable: %v", dir, err),
			Fix:     fmt.Sprintf("chmod 700 %s", dir),
		}
	}
	os.Remove(probe)

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("state directory %s writable", dir),
	}
}

// checkSessionFile inspects the persisted session without creating one.
func checkSessionFile(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{
			Status:  StatusFail,
			Message: "cannot check, config not loaded",
		}
	}

	path := cfg.SessionPath()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return CheckResult{
			Status:  StatusPass,
			Message: "no session file yet (created on first run)",
		}
	}
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("cannot stat session file: %v", err),
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("cannot read session file: %v", err),
		}
	}
	var sess struct {
		BackendURL    string `yaml:"backend_url"`
		PendingReturn string `yaml:"pending_return"`
	}
	if err := yaml.Unmarshal(raw, &sess); err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("session file corrupt: %v", err),
			Fix:     fmt.Sprintf("Delete %s to start a fresh session", path),
		}
	}

	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("session file has permissions %o (want 0600)", mode),
			Fix:     fmt.Sprintf("chmod 600 %s", path),
		}
	}

	if sess.PendingReturn != "" {
		if cfg.Backend.URL != "" && sess.BackendURL != "" && sess.BackendURL != cfg.Backend.URL {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("pending authorization return belongs to %s, current backend is %s", sess.BackendURL, cfg.Backend.URL),
				Fix:     "Run 'reelist setup' to restart authorization against the current server",
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: "session OK, a pending authorization return will resume in setup",
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: "session OK",
	}
}

// checkHistoryDB opens the build history database read-only style: a missing
// file passes without being created.
func checkHistoryDB(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{
			Status:  StatusFail,
			Message: "cannot check, config not loaded",
		}
	}

	path := cfg.History.Path
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return CheckResult{
			Status:  StatusPass,
			Message: "no history database yet (created after the first build)",
		}
	}

	store, err := history.NewStore(path, cfg.History.Keep)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("history database cannot be opened: %v", err),
			Fix:     fmt.Sprintf("Delete %s to reset the local build history", path),
		}
	}
	defer store.Close()

	recs, err := store.Recent(context.Background(), 1)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("history database unreadable: %v", err),
			Fix:     fmt.Sprintf("Delete %s to reset the local build history", path),
		}
	}
	if len(recs) == 0 {
		return CheckResult{
			Status:  StatusPass,
			Message: "history database OK (no runs recorded)",
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("history database OK (last run %s)", recs[0].FinishedAt.Format("2006-01-02 15:04")),
	}
}

// checkCallbackPort verifies the authorization callback can bind. A taken
// port is a warning, not a failure: setup falls back to pasting the URL.
func checkCallbackPort(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{
			Status:  StatusFail,
			Message: "cannot check, config not loaded",
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Callback.Bind, cfg.Callback.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("cannot bind %s: %v", addr, err),
			Fix:     "Set callback.port to a free port, or paste the redirect URL during setup",
		}
	}
	ln.Close()

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("callback %s available (redirect URI %s)", addr, cfg.RedirectURI()),
	}
}

// checkServerReachable pings the server health endpoint.
func checkServerReachable(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{
			Status:  StatusFail,
			Message: "cannot check, config not loaded",
		}
	}

	if cfg.Backend.URL == "" {
		return CheckResult{
			Status:  StatusWarn,
			Message: "no backend URL configured",
			Fix:     "Run 'reelist discover' or set REELIST_BACKEND_URL",
		}
	}

	endpoint := strings.TrimRight(cfg.Backend.URL, "/") + "/api/v1/health"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("invalid backend URL: %v", err),
		}
	}

	resp, err := http.DefaultClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("cannot reach %s: %v", cfg.Backend.URL, err),
			Fix:     "Check that the Reelist server is running and the URL is right",
		}
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("server responded with status %d", resp.StatusCode),
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s reachable (latency: %dms)", cfg.Backend.URL, latency.Milliseconds()),
	}
}

// checkTraktAuth reports whether the server holds a Trakt authorization.
// Unreachable servers are a warning here; reachability has its own check.
func checkTraktAuth(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{
			Status:  StatusFail,
			Message: "cannot check, config not loaded",
		}
	}
	if cfg.Backend.URL == "" {
		return CheckResult{
			Status:  StatusWarn,
			Message: "skipped, no backend URL configured",
		}
	}

	endpoint := strings.TrimRight(cfg.Backend.URL, "/") + "/api/v1/auth/trakt/status"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("invalid backend URL: %v", err),
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return CheckResult{
			Status:  StatusWarn,
			Message: "skipped, server not reachable",
		}
	}
	defer resp.Body.Close()

	var payload struct {
		Authenticated bool `json:"authenticated"`
		User          *struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("unexpected auth status response: %v", err),
		}
	}

	if !payload.Authenticated {
		return CheckResult{
			Status:  StatusWarn,
			Message: "server not yet authorized with Trakt",
			Fix:     "Run 'reelist setup' to authorize",
		}
	}
	if payload.User != nil && payload.User.Username != "" {
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("authorized as %s", payload.User.Username),
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: "authorized with Trakt",
	}
}

// checkTerminal verifies the terminal can host the interactive screens.
func checkTerminal(_ *config.Config) CheckResult {
	term := os.Getenv("TERM")
	switch term {
	case "":
		return CheckResult{
			Status:  StatusWarn,
			Message: "TERM is not set",
			Fix:     "Run from a regular terminal; status and doctor work regardless",
		}
	case "dumb":
		return CheckResult{
			Status:  StatusFail,
			Message: "TERM=dumb cannot host the interactive screens",
			Fix:     "Run from a regular terminal; status and doctor work regardless",
		}
	}

	symbols := "unicode"
	if !theme.DetectUnicodeSupport() {
		symbols = "ascii"
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("TERM=%s, %s symbols", term, symbols),
	}
}
