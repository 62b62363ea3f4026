// Package emulator executes a deployment plan natively: containers on the
// local daemon, virtual switches on the host's OVS layer, cabling with
// veth pairs. It is the run-mode counterpart of the emitted script and
// consumes the same step model.
package emulator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/MELON-27AF/Project-5g/internal/deploy"
)

// Runner deploys and tears down one emulated topology.
type Runner struct {
	docker *client.Client
	bm     *bridgeManager
	log    *slog.Logger

	containers []string          // created container names, for teardown
	hostVeth   map[string]string // instance -> host-side veth
	switchOf   map[string]bool   // instance is a switch
}

// NewRunner connects to the local daemon and switch layer.
func NewRunner(log *slog.Logger) (*Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connect to container daemon: %w", err)
	}
	return &Runner{
		docker:   cli,
		bm:       newBridgeManager(),
		log:      log,
		hostVeth: make(map[string]string),
		switchOf: make(map[string]bool),
	}, nil
}

// Deploy executes the plan step by step, in plan order. Steps the backend
// did not grant are skipped exactly like the emitted script skips them.
// On the first hard error the partial deployment is left standing for
// inspection; call Destroy to tear it down.
func (r *Runner) Deploy(ctx context.Context, s *deploy.Script) error {
	if !s.Backend.Containers {
		return fmt.Errorf("backend %s cannot run containers natively", s.Backend.Variant)
	}
	if err := r.bm.init(); err != nil {
		return fmt.Errorf("initialize switch layer: %w", err)
	}

	for _, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !st.Requires.SatisfiedBy(s.Backend) {
			r.log.Warn("step skipped", "step", string(st.Kind), "instance", st.Instance)
			continue
		}
		if err := r.apply(ctx, st); err != nil {
			return fmt.Errorf("%s %s: %w", st.Kind, st.Instance, err)
		}
	}
	r.log.Info("topology deployed", "containers", len(r.containers))
	return nil
}

func (r *Runner) apply(ctx context.Context, st deploy.Step) error {
	switch st.Kind {
	case deploy.AddSwitch:
		r.switchOf[st.Instance] = true
		return r.bm.addSwitch(st.Instance, hostnameOf(st.Instance))
	case deploy.AddController:
		// The OVS layer runs with its built-in controller; a dedicated
		// controller node is not materialized natively.
		r.log.Debug("controller handled by switch layer", "instance", st.Instance)
		return nil
	case deploy.AddContainer, deploy.AddHost:
		return r.addContainer(ctx, st)
	case deploy.AddLink:
		return r.addLink(st)
	case deploy.StartDaemon:
		return r.execDaemon(ctx, st)
	default:
		r.log.Debug("step has no native action", "step", string(st.Kind))
		return nil
	}
}

// addContainer creates and starts the container, then cables it onto the
// default bridge. AddHost steps run the default image so plain hosts get
// the same treatment with a generic userland.
func (r *Runner) addContainer(ctx context.Context, st deploy.Step) error {
	img := st.Image
	if img == "" {
		img = "frr:v4"
	}
	name := "mn." + st.Instance

	sysctls := map[string]string{
		"net.ipv4.ip_forward":          "1",
		"net.ipv6.conf.all.forwarding": "1",
	}
	_, err := r.docker.ContainerCreate(ctx, &container.Config{
		Image:           img,
		NetworkDisabled: true,
		User:            "root",
		Env:             st.Env,
	}, &container.HostConfig{
		Privileged: st.Privileged,
		Binds:      st.Volumes,
		Sysctls:    sysctls,
	}, nil, nil, name)
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	r.containers = append(r.containers, name)

	if err := r.docker.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container: %w", err)
	}

	info, err := r.docker.ContainerInspect(ctx, name)
	if err != nil {
		return fmt.Errorf("inspect container: %w", err)
	}
	netns := fmt.Sprintf("/proc/%d/ns/net", info.State.Pid)

	host, err := plumbVeth(hostnameOf(st.Instance), netns, st.Address)
	if err != nil {
		return err
	}
	r.hostVeth[st.Instance] = host
	return r.bm.attach(r.bm.def, host)
}

// addLink moves a node's veth onto the switch's bridge. Links between two
// non-switch nodes stay on the default bridge, which already connects
// them.
func (r *Runner) addLink(st deploy.Step) error {
	node, peer := st.Node, st.Peer
	switch {
	case r.switchOf[peer]:
		return r.rehome(node, peer)
	case r.switchOf[node]:
		return r.rehome(peer, node)
	default:
		return nil
	}
}

func (r *Runner) rehome(instance, switchInstance string) error {
	veth, ok := r.hostVeth[instance]
	if !ok {
		return fmt.Errorf("no interface recorded for %s", instance)
	}
	if err := r.bm.cli.VSwitch.DeletePort(r.bm.def, veth); err != nil {
		return fmt.Errorf("detach %s from default bridge: %w", veth, err)
	}
	return r.bm.attach(r.bm.bridgeFor(switchInstance), veth)
}

func (r *Runner) execDaemon(ctx context.Context, st deploy.Step) error {
	name := "mn." + st.Instance
	exec, err := r.docker.ContainerExecCreate(ctx, name, container.ExecOptions{
		Cmd:    []string{"sh", "-c", st.Command + " &"},
		Detach: true,
	})
	if err != nil {
		return fmt.Errorf("create exec: %w", err)
	}
	if err := r.docker.ContainerExecStart(ctx, exec.ID, container.ExecStartOptions{Detach: true}); err != nil {
		return fmt.Errorf("start %q: %w", st.Command, err)
	}
	return nil
}

// Destroy removes every container and bridge the runner created. Errors
// are logged and teardown continues; a half-removed topology is worse
// than a noisy one.
func (r *Runner) Destroy(ctx context.Context) {
	for _, name := range r.containers {
		if err := r.docker.ContainerRemove(ctx, name, container.RemoveOptions{Force: true}); err != nil {
			r.log.Warn("remove container", "name", name, "error", err)
		}
	}
	for _, err := range r.bm.destroy() {
		r.log.Warn("remove bridge", "error", err)
	}
}

func hostnameOf(instance string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(instance) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	s := b.String()
	if s == "" {
		s = "node"
	}
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}
