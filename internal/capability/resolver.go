package capability

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNoBackend is reserved for callers that must map a resolver failure
// onto an exit code. The baseline variant always succeeds, so the resolver
// itself never returns it.
var ErrNoBackend = errors.New("no emulation backend available")

// Prober answers whether a backend variant can initialize in the current
// environment. Probes must be side-effect free beyond the initialization
// they test for.
type Prober interface {
	// ProbeContainerRuntime checks the container-native variant: a
	// reachable container daemon and a working virtual switch layer.
	ProbeContainerRuntime(ctx context.Context) error
	// ProbeWirelessStack checks the wireless-native variant: link-layer
	// management plus a wireless subsystem.
	ProbeWirelessStack(ctx context.Context) error
	// WirelessExtensions is the secondary probe run only after the
	// container-native variant has committed.
	WirelessExtensions(ctx context.Context) bool
}

// Resolver negotiates the backend variant exactly once per process.
//
// The container-native and wireless-native variants share module-level
// state in the emulation runtime; initializing the second after the first
// corrupts it. Resolution therefore tries the variants strictly in
// priority order, commits to the first that initializes, and is never
// re-run: every later Resolve call returns the committed Descriptor.
type Resolver struct {
	prober Prober
	log    *slog.Logger

	once sync.Once
	desc Descriptor
}

// NewResolver returns a resolver using the given prober. Pass a fake
// prober in tests; SystemProber probes the real environment.
func NewResolver(p Prober, log *slog.Logger) *Resolver {
	return &Resolver{prober: p, log: log}
}

// Resolve returns the process-wide Capability Descriptor, probing on the
// first call and reusing the committed result afterwards.
func (r *Resolver) Resolve(ctx context.Context) Descriptor {
	r.once.Do(func() {
		r.desc = r.resolve(ctx)
		r.log.Info("backend committed",
			"variant", string(r.desc.Variant),
			"containers", r.desc.Containers,
			"wireless", r.desc.Wireless)
	})
	return r.desc
}

var system struct {
	once sync.Once
	desc Descriptor
}

// Commit negotiates against the live system exactly once per process.
// Every later call, from any compilation in the same process, returns the
// descriptor committed by the first; the probes never run twice.
func Commit(ctx context.Context, log *slog.Logger) Descriptor {
	system.once.Do(func() {
		system.desc = NewResolver(SystemProber(), log).Resolve(ctx)
	})
	return system.desc
}

func (r *Resolver) resolve(ctx context.Context) Descriptor {
	if err := r.prober.ProbeContainerRuntime(ctx); err == nil {
		return Describe(Containernet, true, r.prober.WirelessExtensions(ctx))
	} else {
		r.log.Warn("container-native backend unavailable", "error", err)
	}

	if err := r.prober.ProbeWirelessStack(ctx); err == nil {
		return Describe(MininetWifi, false, true)
	} else {
		r.log.Warn("wireless-native backend unavailable", "error", err)
	}

	// Baseline never fails.
	return Describe(Mininet, false, false)
}
