package logger_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
)

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	t.Parallel()

	stored := newFileLogger(t)
	ctx := logger.WithContext(context.Background(), stored)

	if got := logger.FromContext(ctx); got != stored {
		t.Errorf("FromContext() = %v, want stored logger", got)
	}
}

func TestFromContext_FallbackWhenMissing(t *testing.T) {
	t.Parallel()

	got := logger.FromContext(context.Background())
	if got == nil {
		t.Fatal("FromContext() returned nil")
	}
	got.Warn("fallback still writes", logger.String("k", "v"))
}

func TestNew_WritesToFile(t *testing.T) {
	t.Parallel()

	l := newFileLogger(t)
	l.With(logger.String("job_id", "abc")).Info("probe",
		logger.Int("attempt", 1),
		logger.Error(errors.New("boom")),
	)
	if err := l.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}

func TestNewNop_DiscardsEverything(t *testing.T) {
	t.Parallel()

	l := logger.NewNop()
	l.Fatal("does not exit")
	if l.With(logger.Bool("x", true)) == nil {
		t.Error("With() returned nil")
	}
}

func newFileLogger(t *testing.T) logger.Logger {
	t.Helper()

	path := filepath.Join(t.TempDir(), "out.log")
	l, err := logger.New(logger.Config{Level: "debug", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}
