package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridiron-hq/fantasy-bridge/internal/audit"
	"github.com/gridiron-hq/fantasy-bridge/internal/auth"
	"github.com/gridiron-hq/fantasy-bridge/internal/browser"
	"github.com/gridiron-hq/fantasy-bridge/internal/config"
	"github.com/gridiron-hq/fantasy-bridge/internal/credential"
	"github.com/gridiron-hq/fantasy-bridge/internal/espn"
	"github.com/gridiron-hq/fantasy-bridge/internal/league"
	"github.com/gridiron-hq/fantasy-bridge/internal/observe"
	"github.com/gridiron-hq/fantasy-bridge/internal/profile"
	"github.com/gridiron-hq/fantasy-bridge/internal/server"
)

// version is set at build time via ldflags.
var version = "dev"

const leagueCacheSize = 1_000

func main() {
	configureLogging()

	logBuildInfo()

	err := launchServer()
	if err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

func launchServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}
	cfg.Server.Version = version

	var hooks server.ShutdownHooks
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hooks.Execute(shutdownCtx)
	}()

	shutdownTelemetry, err := observe.Configure(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("telemetry bootstrap failed: %w", err)
	}
	hooks.Add("telemetry", shutdownTelemetry)

	// Outbound ESPN traffic goes through the instrumented transport.
	espnClient := espn.New(cfg.ESPN, observe.HTTPTransport(http.DefaultTransport, cfg.Observe))

	store := credential.NewStore(cfg.Auth.CredentialFile)
	coordinator := auth.NewCoordinator(store, browser.Capture,
		auth.WithTimeout(time.Duration(cfg.Auth.LoginTimeoutSeconds)*time.Second),
		auth.WithHeadless(cfg.Auth.Headless),
		auth.WithPersistMode(credential.PersistMode(cfg.Auth.PersistMode)),
	)

	leagues := league.NewCache(coordinator, func(ctx context.Context, leagueID, year int, cred credential.Credential) (*espn.League, error) {
		return espnClient.League(ctx, leagueID, year, cred.S2, cred.SWID)
	}, leagueCacheSize)

	profiles := profile.NewStore()
	if cfg.Server.LeagueProfile != "" {
		configured, err := profile.Load(cfg.Server.LeagueProfile)
		if err != nil {
			return fmt.Errorf("league profile load failed: %w", err)
		}
		profiles.Update(configured)
		log.Info().Int("leagues", len(configured)).Msg("league profile loaded")
	}

	mcp := mcpserver.NewMCPServer(cfg.Server.Name, version,
		mcpserver.WithToolHandlerMiddleware(audit.Middleware()),
		mcpserver.WithRecovery(),
	)

	registerTools(mcp, &toolDeps{
		coordinator: coordinator,
		leagues:     leagues,
		store:       store,
		profiles:    profiles,
	})

	log.Info().Str("name", cfg.Server.Name).Str("version", version).Msg("serving MCP over stdio")

	// stdout carries the protocol; everything diagnostic stays on stderr.
	err = mcpserver.NewStdioServer(mcp).Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info().Msg("shutting down")
	return nil
}

func configureLogging() {
	// Set global level to the minimum: allows per-logger levels to take
	// effect without the global level interfering.
	zerolog.SetGlobalLevel(zerolog.Level(-128))

	// The MCP stdio transport owns stdout; all logging goes to stderr.
	log.Logger = log.Output(os.Stderr).Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info()
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}
