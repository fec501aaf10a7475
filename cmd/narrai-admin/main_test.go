package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrai/narrai-web/internal/data"
	"github.com/narrai/narrai-web/internal/domain/nav"
)

func testContext(in string) (*commandContext, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Out:    out,
		In:     strings.NewReader(in),
	}, out
}

func TestRun_UsageAndUnknownCommand(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, logger, nil, io.Discard, &stderr))
	assert.Contains(t, stderr.String(), "Usage: narrai-admin")
	assert.Contains(t, stderr.String(), "onboarding-reset")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"db-reset"}, logger, nil, io.Discard, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "db-reset"`)
}

func TestRun_RoutesNeedsNoConfig(t *testing.T) {
	var stdout bytes.Buffer
	code := run([]string{"routes"}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, &stdout, io.Discard)

	require.Equal(t, 0, code)
	out := stdout.String()
	assert.Contains(t, out, "PATTERN")
	assert.Contains(t, out, "GET /{$}")
	assert.Contains(t, out, "GET /book/{sessionId}")
	assert.Regexp(t, `GET /analytics\s+analytics\s+admin\s+layout`, out)
	assert.Regexp(t, `GET /login\s+login\s+public\s+standalone`, out)
}

func TestRoutes_JSON(t *testing.T) {
	cmdCtx, out := testContext("")
	require.NoError(t, runRoutes(cmdCtx, []string{"--json"}))

	var rows []routeRow
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, len(nav.Routes()))
	for _, r := range rows {
		if r.View == string(nav.ViewBookReader) {
			assert.Equal(t, "sessionId", r.Param)
			assert.Equal(t, "authenticated", r.Access)
		}
	}
}

func TestPrintMigrationStatus(t *testing.T) {
	var out bytes.Buffer
	err := printMigrationStatus(&out, []string{"0001_user_onboarding", "0002_dismissals"}, map[string]bool{"0001_user_onboarding": true})

	require.NoError(t, err)
	assert.Regexp(t, `0001_user_onboarding\s+applied`, out.String())
	assert.Regexp(t, `0002_dismissals\s+pending`, out.String())
	assert.Contains(t, out.String(), "2 migration(s), 1 pending")
}

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags([]string{"--status", "--timeout", "30s"})
	require.NoError(t, err)
	assert.True(t, opts.Status)
	assert.Equal(t, "30s", opts.Timeout.String())

	_, err = parseMigrateFlags([]string{"--timeout", "0s"})
	require.Error(t, err)
}

func TestParseOnboardingResetFlags(t *testing.T) {
	opts, err := parseOnboardingResetFlags([]string{"--yes", "user-1"})
	require.NoError(t, err)
	assert.Equal(t, onboardingResetOptions{UserID: "user-1", Yes: true}, opts)

	_, err = parseOnboardingResetFlags(nil)
	require.Error(t, err)

	_, err = parseOnboardingResetFlags([]string{" "})
	require.ErrorIs(t, err, data.ErrUserIDRequired)
}

type fakeResetter struct {
	dismissals int
	reset      []string
	err        error
}

func (f *fakeResetter) ResetCarousel(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.reset = append(f.reset, userID)
	return nil
}

func (f *fakeResetter) Dismissals(context.Context, string) (int, error) {
	return f.dismissals, nil
}

func TestResetOnboarding(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		repo := &fakeResetter{dismissals: 3}
		cmdCtx, out := testContext("y\n")

		require.NoError(t, resetOnboarding(context.Background(), cmdCtx, repo, onboardingResetOptions{UserID: "user-1"}))

		assert.Equal(t, []string{"user-1"}, repo.reset)
		assert.Contains(t, out.String(), "dismissed 3 time(s)")
		assert.Contains(t, out.String(), "shown to user-1 on next sign-in")
	})

	t.Run("declined", func(t *testing.T) {
		repo := &fakeResetter{}
		cmdCtx, _ := testContext("n\n")

		err := resetOnboarding(context.Background(), cmdCtx, repo, onboardingResetOptions{UserID: "user-1"})

		require.ErrorIs(t, err, errAborted)
		assert.Empty(t, repo.reset)
	})

	t.Run("yes skips prompt", func(t *testing.T) {
		repo := &fakeResetter{}
		cmdCtx, out := testContext("")

		require.NoError(t, resetOnboarding(context.Background(), cmdCtx, repo, onboardingResetOptions{UserID: "user-1", Yes: true}))

		assert.Equal(t, []string{"user-1"}, repo.reset)
		assert.NotContains(t, out.String(), "[y/N]")
	})

	t.Run("store failure", func(t *testing.T) {
		repo := &fakeResetter{err: errors.New("connection refused")}
		cmdCtx, _ := testContext("")

		err := resetOnboarding(context.Background(), cmdCtx, repo, onboardingResetOptions{UserID: "user-1", Yes: true})

		require.Error(t, err)
	})
}
