package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/narrai/narrai-web/internal/bootstrap"
	"github.com/narrai/narrai-web/internal/data"
)

type onboardingResetOptions struct {
	UserID string
	Yes    bool
}

// carouselResetter is the slice of the onboarding repository this command needs.
type carouselResetter interface {
	ResetCarousel(ctx context.Context, userID string) error
	Dismissals(ctx context.Context, userID string) (int, error)
}

var errAborted = errors.New("aborted")

func runOnboardingReset(cmdCtx *commandContext, args []string) error {
	opts, err := parseOnboardingResetFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 30*time.Second)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	return resetOnboarding(ctx, cmdCtx, data.NewOnboardingRepo(db), opts)
}

func resetOnboarding(ctx context.Context, cmdCtx *commandContext, repo carouselResetter, opts onboardingResetOptions) error {
	dismissals, err := repo.Dismissals(ctx, opts.UserID)
	if err != nil {
		return err
	}
	if !opts.Yes {
		if confirmErr := confirm(cmdCtx, fmt.Sprintf(
			"Reset onboarding for %s (dismissed %d time(s))? [y/N]: ", opts.UserID, dismissals,
		)); confirmErr != nil {
			return confirmErr
		}
	}
	if err := repo.ResetCarousel(ctx, opts.UserID); err != nil {
		return err
	}
	cmdCtx.Logger.InfoContext(ctx, "onboarding reset", "user_id", opts.UserID)
	return writef(cmdCtx.Out, "onboarding carousel will be shown to %s on next sign-in\n", opts.UserID)
}

func confirm(cmdCtx *commandContext, prompt string) error {
	if err := writef(cmdCtx.Out, "%s", prompt); err != nil {
		return err
	}
	in := cmdCtx.In
	if in == nil {
		in = os.Stdin
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}

func parseOnboardingResetFlags(args []string) (onboardingResetOptions, error) {
	fs := flag.NewFlagSet("onboarding-reset", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts onboardingResetOptions
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return onboardingResetOptions{}, err
	}
	if fs.NArg() != 1 {
		return onboardingResetOptions{}, errors.New("usage: narrai-admin onboarding-reset [--yes] <user-id>")
	}
	opts.UserID = strings.TrimSpace(fs.Arg(0))
	if opts.UserID == "" {
		return onboardingResetOptions{}, data.ErrUserIDRequired
	}
	return opts, nil
}
