// modelserver serves stored custom models to connected clients.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/ccmodels/internal/config"
	"github.com/Faultbox/ccmodels/internal/game"
	"github.com/Faultbox/ccmodels/internal/logger"
	"github.com/Faultbox/ccmodels/internal/skin"
	"github.com/Faultbox/ccmodels/internal/skinserver"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	opts := logger.Options{Level: cfg.Logging.Level, Console: true, JSON: cfg.Logging.JSON}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithOptions(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== ccmodels server ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	g, err := game.New(cfg)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		os.Exit(1)
	}
	defer g.Close()

	if err := g.ValidateAll(); err != nil {
		logger.Warn("some stored models failed to build", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, g); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped",
		zap.Int("connections", g.Transport().Len()),
		zap.Int("cached_skins", g.Skins().Len()))
}

func run(ctx context.Context, cfg *config.Config, g *game.Game) error {
	eg, ctx := errgroup.WithContext(ctx)

	if cfg.SkinServer.Enabled {
		overlay, err := skinserver.LoadOverlay(cfg.SkinServer.OverlayPath)
		if err != nil {
			return err
		}
		fetcher := skin.NewHTTPFetcher(cfg.Skins.URLTemplate, cfg.Skins.FetchTimeout, cfg.Skins.MaxBytes)
		srv := skinserver.New(fetcher, overlay, skinserver.NewPublicIP(cfg.SkinServer.PublicIPURL))
		eg.Go(func() error {
			return srv.ListenAndServe(ctx, cfg.SkinServer.Addr)
		})
	}

	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.ListenAddr, err)
	}
	logger.Info("listening", zap.String("addr", ln.Addr().String()))

	eg.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	eg.Go(func() error {
		return acceptLoop(ctx, ln, g)
	})
	return eg.Wait()
}

func acceptLoop(ctx context.Context, ln net.Listener, g *game.Game) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting: %w", err)
		}
		go serveConn(g, conn)
	}
}
