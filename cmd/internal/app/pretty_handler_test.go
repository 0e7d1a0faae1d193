package app

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestStripANSI(t *testing.T) {
	t.Parallel()

	in := ansiBlue + "INFO" + ansiReset + " plain " + ansiRed + "ERR" + ansiReset
	got := stripANSI(in)
	want := "INFO plain ERR"
	if got != want {
		t.Fatalf("stripANSI()=%q want=%q", got, want)
	}
}

func TestPrettyHandler_Handle(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	h := newPrettyHandler(&sb, &slog.HandlerOptions{Level: slog.LevelInfo}, false)

	r := slog.NewRecord(time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC), slog.LevelWarn, "auth.login.fail", 0)
	r.AddAttrs(
		slog.String("path", "/auth/login"),
		slog.Int("status", 401),
		slog.String("user_agent", "curl/8.0 (x86_64)"),
	)

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	line := sb.String()
	for _, want := range []string{
		"lvl=[WARN]",
		"msg=auth.login.fail",
		"path=/auth/login",
		"status=401",
		`user_agent="curl/8.0 (x86_64)"`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	h := newPrettyHandler(&sb, nil, false).
		WithAttrs([]slog.Attr{slog.String("service", "mosaic")}).
		WithGroup("db")

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "pool.ready", 0)
	r.AddAttrs(slog.Int("conns", 4))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	line := sb.String()
	if !strings.Contains(line, "service=mosaic") {
		t.Fatalf("line %q missing base attr", line)
	}
	if !strings.Contains(line, "db.conns=4") {
		t.Fatalf("line %q missing grouped attr", line)
	}
}

func TestPrettyHandler_EnabledRespectsLevel(t *testing.T) {
	t.Parallel()

	h := newPrettyHandler(&strings.Builder{}, &slog.HandlerOptions{Level: slog.LevelWarn}, false)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should pass at warn level")
	}
}
