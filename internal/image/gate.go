// Package image resolves the container image each instance will run,
// probing the local daemon so the deployment script never references an
// image that cannot start.
package image

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docker/docker/client"

	"github.com/MELON-27AF/Project-5g/internal/result"
)

// Inspector answers whether an image reference is present locally.
type Inspector interface {
	HasImage(ctx context.Context, ref string) (bool, error)
}

type dockerInspector struct {
	cli *client.Client
}

// NewDockerInspector connects to the local daemon using environment
// configuration and API version negotiation.
func NewDockerInspector() (Inspector, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connect to container daemon: %w", err)
	}
	return &dockerInspector{cli: cli}, nil
}

func (d *dockerInspector) HasImage(ctx context.Context, ref string) (bool, error) {
	_, _, err := d.cli.ImageInspectWithRaw(ctx, ref)
	if err == nil {
		return true, nil
	}
	if client.IsErrNotFound(err) {
		return false, nil
	}
	return false, err
}

// Binding is the gate's decision for one instance.
type Binding struct {
	Image   string
	Skipped bool
	Reason  string
}

// Gate checks candidate images against an Inspector. With assume set it
// binds the first candidate without probing, for environments with no
// daemon access (the render-only service, --no-image-check).
type Gate struct {
	ins     Inspector
	timeout time.Duration
	assume  bool
	log     *slog.Logger
}

// New builds a gate. A nil inspector forces assume mode.
func New(ins Inspector, timeout time.Duration, assume bool, log *slog.Logger) *Gate {
	if ins == nil {
		assume = true
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gate{ins: ins, timeout: timeout, assume: assume, log: log}
}

// Bind picks the first resolvable candidate for an instance. Candidates
// are tried in order; an instance with no resolvable candidate is
// skipped, never silently rescheduled onto a different backend.
func (g *Gate) Bind(ctx context.Context, node, instance string, candidates []string) (Binding, result.ImageEntry) {
	entry := result.ImageEntry{Node: node, Instance: instance}
	if len(candidates) == 0 {
		entry.Skipped = true
		entry.Reason = "no image candidates"
		return Binding{Skipped: true, Reason: entry.Reason}, entry
	}
	if g.assume {
		entry.Image = candidates[0]
		return Binding{Image: candidates[0]}, entry
	}

	for _, ref := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, g.timeout)
		ok, err := g.ins.HasImage(probeCtx, ref)
		cancel()
		if err != nil {
			g.log.Warn("image probe failed", "instance", instance, "image", ref, "error", err)
			continue
		}
		if ok {
			if ref != candidates[0] {
				g.log.Info("bound alternate image", "instance", instance, "image", ref)
			}
			entry.Image = ref
			return Binding{Image: ref}, entry
		}
		g.log.Debug("image not present", "instance", instance, "image", ref)
	}

	entry.Skipped = true
	entry.Reason = fmt.Sprintf("none of %d candidate images resolvable", len(candidates))
	return Binding{Skipped: true, Reason: entry.Reason}, entry
}

// Defaults returns the built-in image candidates for a function when the
// topology names none.
func Defaults(fn string) []string {
	switch fn {
	case "nrf", "scp", "ausf", "udm", "udr", "pcf", "bsf", "nssf", "amf", "smf", "upf":
		return []string{"adaptive/open5gs:1.0", "openverso/open5gs:2.7.0"}
	case "gnb", "ue":
		return []string{"adaptive/ueransim:latest", "towards5gs/ueransim-gnb:v3.2.6"}
	case "host":
		return []string{"kurento/frr:v4"}
	}
	return nil
}
