// Command balance-tower starts the Balance Tower game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags (each with an environment variable) control host/port, the rules
// directory and default rule set, debug logging, and optional ngrok tunneling.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/balance-tower/api"
	"github.com/wricardo/balance-tower/game/config"
	"github.com/wricardo/balance-tower/game/service"
	"github.com/wricardo/balance-tower/game/session"
	"github.com/wricardo/balance-tower/logging"
	"github.com/wricardo/balance-tower/transport/mcp"
	"github.com/wricardo/balance-tower/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/time/rate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Balance Tower Server"
)

const defaultRulesDir = "configs"

// serverConfig is the resolved command line configuration
type serverConfig struct {
	Addr         string
	RulesDir     string
	DefaultRules string
	Debug        bool
	JSONLogs     bool
	Ngrok        bool
	NgrokAuth    string
	NgrokDomain  string
	NewGameRate  float64
	NewGameBurst int
}

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	app := newApp()

	// Logging is reconfigured per mode once flags are parsed
	logging.Setup(logging.Options{Out: os.Stderr})
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn().Err(envErr).Msg("error loading .env file")
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "balance-tower",
		Usage:   "Run the Balance Tower game server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "rules-dir",
				Value:   defaultRulesDir,
				Usage:   "Directory containing rule set JSON files",
				Sources: cli.EnvVars("RULES_DIR"),
			},
			&cli.StringFlag{
				Name:    "default-rules",
				Value:   config.BuiltinID,
				Usage:   "Rule set used when a new game does not name one",
				Sources: cli.EnvVars("DEFAULT_RULES"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "json-logs",
				Usage:   "Write logs as JSON instead of console text",
				Sources: cli.EnvVars("JSON_LOGS"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
			&cli.FloatFlag{
				Name:    "new-game-rate",
				Value:   2,
				Usage:   "Games per second a single client IP may create (0 disables the limit)",
				Sources: cli.EnvVars("NEW_GAME_RATE"),
			},
			&cli.IntFlag{
				Name:    "new-game-burst",
				Value:   10,
				Usage:   "Burst of games a single client IP may create at once",
				Sources: cli.EnvVars("NEW_GAME_BURST"),
			},
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServerCommand,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, starting an internal HTTP API if needed",
				Action:  runMCPCommand,
			},
		},
	}
}

// configFromCommand reads the resolved flag values
func configFromCommand(cmd *cli.Command) serverConfig {
	rulesDir := cmd.String("rules-dir")
	if !cmd.IsSet("rules-dir") {
		// The default directory is optional; built-in rules still work without it
		if info, err := os.Stat(rulesDir); err != nil || !info.IsDir() {
			rulesDir = ""
		}
	}

	return serverConfig{
		Addr:         fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port")),
		RulesDir:     rulesDir,
		DefaultRules: cmd.String("default-rules"),
		Debug:        cmd.Bool("debug"),
		JSONLogs:     cmd.Bool("json-logs"),
		Ngrok:        cmd.Bool("ngrok"),
		NgrokAuth:    cmd.String("ngrok-auth"),
		NgrokDomain:  cmd.String("ngrok-domain"),
		NewGameRate:  cmd.Float("new-game-rate"),
		NewGameBurst: int(cmd.Int("new-game-burst")),
	}
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)
	logging.Setup(logging.Options{Out: os.Stdout, Debug: cfg.Debug, JSON: cfg.JSONLogs})

	log.Info().Str("version", Version).Str("mode", "server").Msgf("Starting %s", AppName)

	gameService, err := initializeServices(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	return runHTTPServer(ctx, cfg, gameService)
}

func runMCPCommand(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)
	// stdout carries the MCP protocol
	logging.Setup(logging.Options{Out: os.Stderr, Debug: cfg.Debug, JSON: cfg.JSONLogs})

	log.Info().Str("version", Version).Str("mode", "mcp").Msgf("Starting %s", AppName)

	gameService, err := initializeServices(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	return runStdioMCPWithInternalServer(cfg, gameService)
}

// initializeServices wires the session and rules managers into the game service
func initializeServices(cfg serverConfig) (service.GameService, error) {
	configManager, err := config.NewManager(cfg.RulesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create rules manager: %w", err)
	}

	if cfg.DefaultRules != "" && cfg.DefaultRules != configManager.DefaultID() {
		if err := configManager.SetDefault(cfg.DefaultRules); err != nil {
			return nil, fmt.Errorf("failed to select default rules: %w", err)
		}
	}

	log.Info().
		Str("rules_dir", cfg.RulesDir).
		Str("default_rules", configManager.DefaultID()).
		Msg("rules loaded")

	return service.NewGameService(session.NewManager(), configManager), nil
}

// newHandler combines the API server and the /mcp endpoint
func newHandler(apiServer *api.Server, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()

	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cfg serverConfig, gameService service.GameService) error {
	hub := websocket.NewHub()
	go hub.Run()

	apiServer := api.NewServer(gameService, hub, api.WithNewGameLimit(rate.Limit(cfg.NewGameRate), cfg.NewGameBurst))
	mcpClient := mcp.NewClient("http://" + cfg.Addr)
	handler := newHandler(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().
			Str("addr", cfg.Addr).
			Str("ui", fmt.Sprintf("http://%s/", cfg.Addr)).
			Str("websocket", fmt.Sprintf("ws://%s/ws?game=<game_id>", cfg.Addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", cfg.Addr)).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	if cfg.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, handler)
		}()
	}

	var runErr error
	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("Server stopped")
	return runErr
}

// runNgrokTunnel serves the handler through an ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, cfg serverConfig, handler http.Handler) {
	if cfg.NgrokAuth == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info().Msg("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		log.Info().Str("domain", cfg.NgrokDomain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuth))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	// Closing the listener ends http.Serve below
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Info().
		Str("url", ngrokURL).
		Str("ui", ngrokURL+"/").
		Str("mcp", ngrokURL+"/mcp").
		Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// externalAPIAvailable reports whether a game server already answers at baseURL
func externalAPIAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API already listening on the configured address; otherwise it
// starts an internal HTTP API on a random loopback port and targets that.
func runStdioMCPWithInternalServer(cfg serverConfig, gameService service.GameService) error {
	externalURL := "http://" + cfg.Addr
	baseURL := externalURL

	log.Info().Str("url", externalURL).Msg("checking for external API server")

	if externalAPIAvailable(externalURL) {
		log.Info().Str("url", externalURL).Msg("external API server found, using it for MCP")
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Info().Str("addr", internalAddr).Msg("starting internal HTTP server for MCP stdio")

		hub := websocket.NewHub()
		go hub.Run()

		httpServer := &http.Server{
			Handler: api.NewServer(gameService, hub),
		}
		defer httpServer.Close()

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()

		baseURL = "http://" + internalAddr
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
