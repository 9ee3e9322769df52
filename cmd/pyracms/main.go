// Command pyracms runs the CMS host: it loads config, registers the built-in
// modules, activates the enabled ones and serves the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/leeforge/pyracms/auth"
	"github.com/leeforge/pyracms/config"
	"github.com/leeforge/pyracms/logging"
	"github.com/leeforge/pyracms/plugin"
	"github.com/leeforge/pyracms/plugin/examples/forum"
	"github.com/leeforge/pyracms/redis_client"
	"github.com/leeforge/pyracms/runtime"
	"github.com/leeforge/pyracms/server"
	"go.uber.org/zap"
)

// modules lists the plugins compiled into the host, in registration order.
var modules = []func() plugin.Plugin{
	forum.New,
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pyracms: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reload := make(chan struct{}, 1)
	opts := config.DefaultOptions()
	opts.WatchAble = true
	opts.OnChange = func(fsnotify.Event) {
		select {
		case reload <- struct{}{}:
		default:
		}
	}

	cfg, host, err := config.Load(opts)
	if err != nil {
		return err
	}

	logger := logging.New(host.Logging)
	logging.SetGlobal(logger)
	defer func() {
		_ = logger.Sync()
		_ = logging.CloseFiles()
	}()
	logger.Info("config loaded", zap.Strings("files", cfg.Files()), zap.String("mode", string(opts.Mode)))

	authorizer, err := auth.NewCasbinAuthorizer(host.Authz.Policies, host.Authz.Roles, logger)
	if err != nil {
		return err
	}

	rt := runtime.NewRuntime(runtime.Config{
		Logger:          logger,
		Plugins:         host.Plugins,
		ShutdownTimeout: host.Server.ShutdownTimeout,
	})

	if host.Redis.Enabled {
		client, err := redis_client.NewRedis(ctx, host.Redis, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		forwarder := redis_client.NewForwarder(client, host.Redis.ChannelPrefix, logger)
		forwarder.Attach(rt.Events())
		defer forwarder.Close()
	}

	for _, build := range modules {
		if err := rt.Register(ctx, build()); err != nil {
			return err
		}
	}
	if err := rt.Bootstrap(ctx); err != nil {
		_ = rt.Shutdown(context.Background())
		return err
	}

	srv := server.New(host.Server, server.Options{
		Registry:   rt.Registry(),
		Authorizer: authorizer,
		Logger:     logger,
		Subject:    auth.HeaderSubject,
	})
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case err = <-serveErr:
			running = false
		case <-reload:
			fresh := config.DefaultHostConfig()
			if bindErr := cfg.BindWithDefaults(&fresh); bindErr != nil {
				logger.Warn("config reload failed", zap.Error(bindErr))
				continue
			}
			if recErr := rt.Reconcile(ctx, fresh.Plugins); recErr != nil {
				logger.Warn("plugin reconcile incomplete", zap.Error(recErr))
			}
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), host.Server.ShutdownTimeout)
	defer cancel()
	return errors.Join(err, srv.Shutdown(shutdownCtx), rt.Shutdown(shutdownCtx))
}
