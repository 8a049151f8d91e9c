// Command merge2048 starts the sliding-tile merge puzzle server.
//
// It supports four commands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "validate" – checks every rule preset in a directory
//  4. "simulate" – lets a built-in strategy play many games and prints a summary
//
// Flags control host/port, config directory, debug logging, the public URL and
// game title used in score cards, and optional ngrok tunneling for easy external access during
// development. Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/merge2048/game/config"
	"github.com/wricardo/mcp-training/merge2048/game/service"
	"github.com/wricardo/mcp-training/merge2048/game/session"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Merge 2048 Server"
)

// envLoadErr remembers why .env could not be loaded until a logger exists
var envLoadErr error

const (
	defaultSessionTTL      = 24 * time.Hour
	sessionCleanupInterval = time.Hour
)

func main() {
	// Load .env file if it exists; real environment variables win
	envLoadErr = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newCommand()
	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the command tree. Flags live on the root command so they
// can be given before any subcommand.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "merge2048",
		Usage:   AppName,
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
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing rule presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "public-url",
				Usage:   "Base URL used in share links (default http://<host>:<port>)",
				Sources: cli.EnvVars("PUBLIC_URL"),
			},
			&cli.StringFlag{
				Name:    "game-name",
				Value:   service.DefaultGameName,
				Usage:   "Game title used in share texts",
				Sources: cli.EnvVars("GAME_NAME"),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Value:   defaultSessionTTL,
				Usage:   "Remove sessions idle for longer than this",
				Sources: cli.EnvVars("SESSION_TTL"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
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
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServe,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, reusing a running API server or starting an internal one",
				Action:  runStdioMCP,
			},
			{
				Name:      "validate",
				Usage:     "Validate every rule preset in a directory (default: --config-dir)",
				ArgsUsage: "[dir]",
				Action:    runValidate,
			},
			simulateCommand(),
		},
	}
}

// app holds the services shared by every command
type app struct {
	logger   *zap.Logger
	configs  *config.Manager
	sessions *session.Manager
	service  service.GameService
}

// newLogger builds a production logger, or a development one with debug on
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// publicURL returns the base URL used in share links
func publicURL(cmd *cli.Command) string {
	if u := cmd.String("public-url"); u != "" {
		return strings.TrimRight(u, "/")
	}
	if domain := cmd.String("ngrok-domain"); domain != "" && cmd.Bool("ngrok") {
		return "https://" + domain
	}
	return fmt.Sprintf("http://%s:%d", cmd.String("host"), int(cmd.Int("port")))
}

// initializeServices wires config and session managers and the game service
func initializeServices(cmd *cli.Command) (*app, error) {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}

	if envLoadErr != nil && !os.IsNotExist(envLoadErr) {
		logger.Warn("failed to load .env file", zap.Error(envLoadErr))
	}

	configManager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create config manager")
	}

	sessionManager := session.NewManager(session.WithLogger(logger.Named("session")))

	gameService := service.NewGameService(sessionManager, configManager,
		service.WithLogger(logger.Named("service")),
		service.WithPublicURL(publicURL(cmd)),
		service.WithGameName(cmd.String("game-name")))

	return &app{
		logger:   logger,
		configs:  configManager,
		sessions: sessionManager,
		service:  gameService,
	}, nil
}
