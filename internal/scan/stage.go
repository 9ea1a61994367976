package scan

import (
	"context"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

// Stage names used for metrics and logs.
const (
	StageCore    = "core"
	StageStatic  = "static"
	StageSandbox = "sandbox"
)

// Stage is a pipeline step that runs after the core verdict is stored.
type Stage interface {
	Name() string
	Run(ctx context.Context, snap domain.Snapshot) error
}

// NoopStage is a placeholder stage that always succeeds.
type NoopStage struct {
	StageName string
}

// Name returns the stage name.
func (s NoopStage) Name() string { return s.StageName }

// Run does nothing.
func (NoopStage) Run(context.Context, domain.Snapshot) error { return nil }

// StageFunc adapts a function to a Stage.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, snap domain.Snapshot) error
}

// Name returns the stage name.
func (s StageFunc) Name() string { return s.StageName }

// Run calls Fn.
func (s StageFunc) Run(ctx context.Context, snap domain.Snapshot) error {
	return s.Fn(ctx, snap)
}
