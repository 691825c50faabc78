package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-mood-music/internal/config"
	"github.com/justestif/go-mood-music/internal/logger"
	"github.com/justestif/go-mood-music/internal/mqttrpc"
	"github.com/justestif/go-mood-music/internal/web"
	webfs "github.com/justestif/go-mood-music/web"
)

func newServeCmd() *cobra.Command {
	var flags config.Flags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the suggestion endpoint and demo page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.Addr, "addr", "", "listen address (env ADDR, default :8080)")
	cmd.Flags().StringVar(&flags.Env, "env", "", "environment: development, staging or production (env ENV)")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn or error (env LOG_LEVEL)")
	cmd.Flags().StringVar(&flags.LogFormat, "log-format", "", "log format: json or text (env LOG_FORMAT)")

	return cmd
}

func serve(ctx context.Context, flags config.Flags) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(logger.Config{
		Format:      cfg.Logger.Format,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   !cfg.IsProduction(),
	})

	gateway, err := newGateway(ctx, log)
	if err != nil {
		return err
	}
	if err := cfg.CheckWriteTimeout(gateway.MaxLatency()); err != nil {
		return err
	}

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		TemplatesFS:    templates,
		StaticFS:       static,
		Logger:         log,
	}, gateway)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	var rpc *mqttrpc.Server
	mqttCfg, err := mqttrpc.LoadConfig()
	switch {
	case errors.Is(err, mqttrpc.ErrBrokerNotConfigured):
		log.Info("mqtt transport disabled")
	case err != nil:
		return fmt.Errorf("loading mqtt config: %w", err)
	default:
		rpc = mqttrpc.NewServer(gateway, mqttCfg.TopicPrefix, log, mqttrpc.WithMaxInFlight(mqttCfg.MaxInFlight))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(ctx)
	})
	if rpc != nil {
		g.Go(func() error {
			return mqttrpc.Serve(ctx, mqttCfg, rpc)
		})
	}

	return g.Wait()
}
