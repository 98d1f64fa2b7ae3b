package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	mastermind "github.com/mastermind-ci/mastermind"
	"github.com/mastermind-ci/mastermind/exitcodes"
	"github.com/mastermind-ci/mastermind/flags"
	"github.com/mastermind-ci/mastermind/service"
)

var (
	Version   = "v1.0.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "mastermind"
	app.Usage = "Toolchain test orchestration service"
	app.Description = "mastermind tests processor toolchains across branches and configurations"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			// Map typed errors onto the documented exit codes
			var resultErr *mastermind.ResultError
			switch {
			case mastermind.IsUsageError(err):
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.UsageError))
			case mastermind.IsInternalError(err):
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.InternalError))
			case mastermind.IsTestFailureError(err):
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestsFailed))
			case errors.As(err, &resultErr):
				cli.HandleExitCoder(cli.Exit(err.Error(), resultErr.Code))
			default:
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.InternalError))
			}
		}
	}

	// Start telemetry
	shutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server
	svc := service.New()
	svc.Start(ctx)
	defer svc.Shutdown()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context) error {
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, log.LevelInfo, true))
	log.SetDefault(logger)

	cfg, err := mastermind.NewConfig(ctx, logger)
	if err != nil {
		return err
	}

	cfg.Log.Debug("Config", "config", cfg)

	m, err := mastermind.New(ctx.Context, cfg, Version, nil)
	if err != nil {
		return mastermind.NewInternalError(fmt.Errorf("failed to create mastermind: %w", err))
	}
	defer func() {
		_ = m.Stop(ctx.Context)
	}()

	return m.Start(ctx.Context)
}
