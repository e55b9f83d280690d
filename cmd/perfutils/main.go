package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/perfutils/internal/config"
	"github.com/claude/perfutils/internal/formula"
	perfmcp "github.com/claude/perfutils/internal/mcp"
	"github.com/claude/perfutils/internal/server"
	"github.com/claude/perfutils/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpStdio := flag.Bool("mcp-stdio", false, "serve MCP over stdin/stdout instead of HTTP")
	remote := flag.String("remote", "", "with -mcp-stdio: read training logs from this perfutils server instead of the local database")
	flag.Parse()

	// Stdout carries the MCP protocol in stdio mode.
	logOut := os.Stdout
	if *mcpStdio {
		logOut = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("perfutils starting", "version", Version)

	if *mcpStdio && *remote != "" {
		runRemoteStdio(*remote, log)
		return
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	def, err := formula.Lookup(cfg.Formulas.Default)
	if err != nil {
		log.Error("invalid default formula", "error", err)
		os.Exit(1)
	}

	// Open database (migrates Postgres)
	ctx := context.Background()
	store, closeStore, err := storage.Open(ctx, cfg.Database, "migrations", log)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	mcpSrv := perfmcp.New(store, def, Version, log)
	if *mcpStdio {
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			log.Error("mcp stdio error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Create server
	srv := server.New(store, def, cfg.Auth.APIKey, log)
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(mcpSrv))

	// Start server on tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(func(ctx context.Context, remoteAddr string) (server.UserInfo, error) {
			who, err := lc.WhoIs(ctx, remoteAddr)
			if err != nil {
				return server.UserInfo{}, err
			}
			if who.UserProfile == nil {
				return server.UserInfo{}, fmt.Errorf("no user profile for %s", remoteAddr)
			}
			return server.UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}, nil
		})

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)", "formula", def.Name())
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// runRemoteStdio serves MCP over stdio with training logs read from a
// remote perfutils server. No config file or database is needed.
func runRemoteStdio(baseURL string, log *slog.Logger) {
	def, _ := formula.Lookup(os.Getenv("PERFUTILS_FORMULA"))
	if def == nil {
		def = formula.Brzycki
	}
	mcpSrv := perfmcp.New(perfmcp.NewHTTPClient(baseURL), def, Version, log)
	log.Info("serving MCP over stdio", "remote", baseURL)
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		log.Error("mcp stdio error", "error", err)
		os.Exit(1)
	}
}
