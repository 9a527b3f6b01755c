package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker/v2"

	"reelist/internal/adapter/backend"
	"reelist/internal/adapter/history"
	"reelist/internal/adapter/session"
	"reelist/internal/adapter/tui/gate"
	tuihome "reelist/internal/adapter/tui/home"
	tuimonitor "reelist/internal/adapter/tui/monitor"
	tuisetup "reelist/internal/adapter/tui/setup"
	"reelist/internal/adapter/tui/theme"
	"reelist/internal/infra/config"
	"reelist/internal/infra/logger"
	"reelist/internal/infra/tracer"
	"reelist/internal/usecase"
	"reelist/internal/usecase/discovery"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env first, so REELIST_* overrides are visible to every command.
	_ = godotenv.Load()

	applyASCIIFlag()

	// Handle help and version first
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		case "version", "--version":
			fmt.Printf("reelist %s\n", version)
			return
		}
	}

	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		if err := runTUI(gate.ScreenLoading); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		return
	}

	switch os.Args[1] {
	case "setup":
		if err := runTUI(gate.ScreenSetup); err != nil {
			fmt.Fprintf(os.Stderr, "setup: %v\n", err)
			os.Exit(1)
		}
	case "status":
		if err := runStatus(); err != nil {
			fmt.Fprintf(os.Stderr, "status: %v\n", err)
			os.Exit(1)
		}
	case "doctor":
		if err := runDoctor(); err != nil {
			fmt.Fprintf(os.Stderr, "doctor: %v\n", err)
			os.Exit(1)
		}
	case "discover":
		if err := runDiscover(); err != nil {
			fmt.Fprintf(os.Stderr, "discover: %v\n", err)
			os.Exit(1)
		}
	case "history":
		if err := runHistory(); err != nil {
			fmt.Fprintf(os.Stderr, "history: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'reelist --help' for usage information.\n", os.Args[1])
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`reelist - Setup and readiness companion for a Reelist media server

USAGE:
    reelist [COMMAND] [FLAGS]

COMMANDS:
    setup       Launch the setup wizard, even when the server is configured
    status      One-shot readiness report (exits 1 when setup is incomplete)
    doctor      Run health checks on your installation
    discover    Find Reelist servers on the local network via mDNS
    history     List recent enrichment builds
    version     Print the version

    (no command) - Probe the server and open the right screen

FLAGS:
    -h, --help         Show this help message
    --config PATH      Config file path (default: ./reelist.yaml)
    --backend URL      Reelist server URL (overrides config)
    --ascii            Force ASCII symbols instead of Unicode glyphs

CONFIGURATION:
    Config file: ./reelist.yaml
    Environment: REELIST_* variables override config
    State dir:   ~/.reelist (session, history, logs)

EXAMPLES:
    reelist                          # Open the TUI against the configured server
    reelist --backend http://media-box:7878
    reelist setup                    # Re-run the guided setup
    reelist status && start-sync     # Gate a script on readiness
    reelist doctor                   # Check config, server, and state files`)
}

func showFirstRunMessage() {
	fmt.Println(`Welcome to reelist!

No Reelist server is configured and none was found on the local network.

Option 1: Point reelist at your server
  Set the environment variable:
    REELIST_BACKEND_URL=http://media-box:7878
  Or add to reelist.yaml:
    backend:
      url: http://media-box:7878

Option 2: Scan for servers
  Run: reelist discover
  Servers advertise themselves as _reelist._tcp over mDNS.

Then run 'reelist' again to start the guided setup.`)
}

// configPath resolves the config file location: --config flag, then the
// REELIST_CONFIG environment variable, then ./reelist.yaml.
func configPath() string {
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	if p := os.Getenv("REELIST_CONFIG"); p != "" {
		return p
	}
	return "reelist.yaml"
}

// backendFlag extracts --backend from os.Args, empty when absent.
func backendFlag() string {
	for i, arg := range os.Args {
		if arg == "--backend" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
		if strings.HasPrefix(arg, "--backend=") {
			return strings.TrimPrefix(arg, "--backend=")
		}
	}
	return ""
}

// applyASCIIFlag forces the ASCII symbol set when --ascii is present. Symbols
// are initialized from the environment at import time, so the flag works by
// setting the override variable and re-running detection.
func applyASCIIFlag() {
	for _, arg := range os.Args[1:] {
		if arg == "--ascii" {
			os.Setenv("REELIST_ASCII_SYMBOLS", "1")
			theme.InitSymbols()
			return
		}
	}
}

// loadConfig loads and finalizes the config shared by every command: the
// --backend override, the resolved redirect host, and the symbol set.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if url := backendFlag(); url != "" {
		cfg.Backend.URL = url
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	// The wizard prefills the redirect-host field from Callback.Host; resolve
	// it here so an unset host becomes the machine's name, never a loopback.
	cfg.Callback.Host = cfg.RedirectHost()

	if cfg.UI.ASCIISymbols {
		os.Setenv("REELIST_ASCII_SYMBOLS", "1")
		theme.InitSymbols()
	}

	return cfg, nil
}

// runTUI wires the full client and runs the gate. start forces the first
// routed screen; the setup subcommand passes ScreenSetup, everything else
// lets the probe snapshot decide.
func runTUI(start gate.Screen) error {
	// 1. Config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	// 3. Backend URL, discovered when not configured
	if cfg.Backend.URL == "" {
		url, ok := adoptDiscoveredBackend(ctx, log)
		if !ok {
			showFirstRunMessage()
			return nil
		}
		cfg.Backend.URL = url
	}

	// 4. Backend client & local stores
	client := backend.New(cfg.Backend, log)

	sessions := session.NewStore(cfg.SessionPath(), log)
	rememberBackend(sessions, cfg.Backend.URL, log)

	hist, err := history.NewStore(cfg.History.Path, cfg.History.Keep)
	if err != nil {
		return fmt.Errorf("history store: %w", err)
	}
	defer hist.Close()

	// 5. Screen dependencies
	deps := gate.Deps{
		Prober: client,
		BreakerOpen: func() bool {
			return client.BreakerState() == gobreaker.StateOpen
		},
		Setup: tuisetup.Deps{
			Setup:    usecase.NewSetupService(client, client, log),
			Broker:   usecase.NewBroker(client, sessions, log),
			Callback: cfg.Callback,
			Logger:   log,
		},
		Monitor: tuimonitor.Deps{
			Build:   client,
			History: hist,
			Poll:    cfg.Backend.PollInterval,
			Grace:   cfg.UI.GracePeriod,
			Logger:  log,
		},
		Home: tuihome.Deps{
			Backend:        client,
			Prober:         client,
			History:        hist,
			HealthInterval: cfg.UI.HealthInterval,
			Logger:         log,
		},
		Logger: log,
	}

	log.Info("reelist starting",
		"version", version,
		"backend", cfg.Backend.URL,
		"redirect_uri", cfg.RedirectURI(),
	)

	p := tea.NewProgram(gate.NewRootModel(deps, start), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// adoptDiscoveredBackend scans the local network for an advertised server.
// The first hit wins for this run; the choice is printed so the user can pin
// it in the config or environment.
func adoptDiscoveredBackend(ctx context.Context, log *slog.Logger) (string, bool) {
	fmt.Println("No backend URL configured; scanning the local network...")

	scanner := discovery.NewScanner(log)
	endpoints, err := scanner.Scan(ctx)
	if err != nil {
		log.Warn("mdns scan failed", "error", err)
		return "", false
	}
	if len(endpoints) == 0 {
		return "", false
	}

	ep := endpoints[0]
	fmt.Printf("Found %s at %s, using it for this run.\n", ep.Name, ep.URL)
	fmt.Println("Pin it with REELIST_BACKEND_URL or backend.url in reelist.yaml.")
	return ep.URL, true
}

// rememberBackend records the backend URL this run connects to, so doctor can
// flag a pending handshake that belongs to a different server.
func rememberBackend(sessions *session.Store, url string, log *slog.Logger) {
	sess, err := sessions.LoadOrCreate()
	if err != nil {
		log.Warn("session load failed", "error", err)
		return
	}
	if sess.BackendURL == url {
		return
	}
	sess.BackendURL = url
	if err := sessions.Save(sess); err != nil {
		log.Warn("session save failed", "error", err)
	}
}
