package compiler

import (
	"log/slog"
	"time"

	"github.com/MELON-27AF/Project-5g/internal/capability"
	"github.com/MELON-27AF/Project-5g/internal/image"
	"github.com/MELON-27AF/Project-5g/internal/registry"
)

// Mode selects what the compiler does with the finished plan.
type Mode string

const (
	// ModeRender produces artifacts only.
	ModeRender Mode = "render"
	// ModeRun produces artifacts and hands the plan to the native runner.
	ModeRun Mode = "run"
)

// Options configures a Compiler.
type Options struct {
	Mode Mode

	// CheckImages enables daemon probes for container images. When false
	// the gate binds the first candidate unprobed.
	CheckImages  bool
	ImageTimeout time.Duration

	// Backend, when set, bypasses probing and compiles for the given
	// descriptor. The render-only service uses this.
	Backend *capability.Descriptor

	Logger *slog.Logger

	// Prober, when set, scopes backend negotiation to this compiler.
	// Left nil, negotiation goes through the process-wide commit.
	Prober capability.Prober

	Inspector image.Inspector
	Registry  *registry.Registry
}

func (o *Options) defaults() {
	if o.Mode == "" {
		o.Mode = ModeRender
	}
	if o.ImageTimeout <= 0 {
		o.ImageTimeout = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Registry == nil {
		o.Registry = registry.Default
	}
}
