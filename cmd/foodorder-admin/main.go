package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/target/foodorder-ui/config"
	"github.com/target/foodorder-ui/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	// rawConfig commands receive the config even when validation failed.
	rawConfig bool
	run       commandFn
}

type commandContext struct {
	Ctx       context.Context
	Logger    *slog.Logger
	Config    config.AppConfig
	ConfigErr error
	Out       io.Writer
	Err       io.Writer
	In        io.Reader
	// Sessions opens the session store; tests replace it.
	Sessions func(ctx *commandContext) (sessionAdmin, func() error, error)
}

func main() {
	logger := bootstrap.InitLogger(false)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, logger, os.Args[1:])
	stop()
	os.Exit(code) //nolint:forbidigo // CLI must propagate its status to shell scripts
}

func run(ctx context.Context, logger *slog.Logger, args []string) int {
	if len(args) < 1 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		return 2
	}

	cmdName := args[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		return 2
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil && !cmd.rawConfig {
		logger.ErrorContext(ctx, "load config", "error", err)
		return 1
	}

	cmdCtx := &commandContext{
		Ctx:       ctx,
		Logger:    logger,
		Config:    cfg,
		ConfigErr: err,
		Out:       os.Stdout,
		Err:       os.Stderr,
		In:        os.Stdin,
		Sessions:  openSessionStore,
	}
	if runErr := cmd.run(cmdCtx, args[1:]); runErr != nil {
		// A failed check has already reported itself.
		if !errors.Is(runErr, errCheckFailed) {
			logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		}
		return 1
	}
	return 0
}

func commands() map[string]command {
	return map[string]command{
		"config-check": {
			name:        "config-check",
			description: "Validate configuration and print a redacted summary",
			rawConfig:   true,
			run:         runConfigCheck,
		},
		"sessions-list": {
			name:        "sessions-list",
			description: "List live sessions in the session store",
			run:         runSessionsList,
		},
		"session-revoke": {
			name:        "session-revoke",
			description: "Delete a session so its user must sign in again",
			run:         runSessionRevoke,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: foodorder-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-24s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}
