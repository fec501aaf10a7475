package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/narrai/narrai-web/config"
	"github.com/narrai/narrai-web/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	// needsConfig commands load the environment configuration before running.
	needsConfig bool
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	In     io.Reader
}

func main() {
	logger := bootstrap.InitLogger()
	os.Exit(run(os.Args[1:], logger, os.Stdin, os.Stdout, os.Stderr)) //nolint:forbidigo // CLI exit status
}

// run dispatches a command and returns the process exit status.
func run(args []string, logger *slog.Logger, in io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		if err := printUsage(stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		return 2
	}

	cmdName := args[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		return 2
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Out:    stdout,
		In:     in,
	}
	if cmd.needsConfig {
		cfg, err := bootstrap.LoadConfig()
		if err != nil {
			logger.ErrorContext(cmdCtx.Ctx, "load config", "error", err)
			return 1
		}
		cmdCtx.Config = cfg
	}

	if err := cmd.run(cmdCtx, args[1:]); err != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", err)
		return 1
	}
	return 0
}

func commands() map[string]command {
	return map[string]command{
		"routes": {
			name:        "routes",
			description: "Print the route table with guard annotations",
			run:         runRoutes,
		},
		"migrate": {
			name:        "migrate",
			description: "Run database migrations (or list them with --status)",
			needsConfig: true,
			run:         runMigrations,
		},
		"onboarding-reset": {
			name:        "onboarding-reset",
			description: "Show the onboarding carousel to a user again",
			needsConfig: true,
			run:         runOnboardingReset,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: narrai-admin <command> [flags]\n\n"); err != nil {
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
		if err := writef(w, "  %-20s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
