package handler

import (
	"github.com/MELON-27AF/Project-5g/internal/alloc"
	"github.com/MELON-27AF/Project-5g/internal/deploy"
	"github.com/MELON-27AF/Project-5g/internal/image"
	"github.com/MELON-27AF/Project-5g/internal/registry"
	"github.com/MELON-27AF/Project-5g/internal/render"
	"github.com/MELON-27AF/Project-5g/internal/result"
	"github.com/MELON-27AF/Project-5g/internal/topology"
)

func init() {
	registry.Default.Register(&switchHandler{})
	registry.Default.Register(&controllerHandler{})
	registry.Default.Register(&routerHandler{})
	registry.Default.Register(&hostHandler{})
}

func baseRecord(inst topology.Instance, fn string) *alloc.Record {
	h := alloc.Hostname(inst.Name())
	return &alloc.Record{
		Node:     inst.Node.Name,
		Instance: inst.Name(),
		Function: fn,
		Hostname: h,
		Iface:    h + "-eth0",
		Ports:    make(map[alloc.Interface]int),
	}
}

type switchHandler struct{}

func (switchHandler) Function() string { return "switch" }

func (switchHandler) Validate(topology.Instance) []result.Issue { return nil }

func (switchHandler) Allocate(pool *alloc.Pool, inst topology.Instance) (*alloc.Record, []result.Issue, error) {
	return baseRecord(inst, "switch"), nil, nil
}

func (switchHandler) Images(topology.Instance) []string { return nil }

func (switchHandler) Render(topology.Instance, *alloc.Record, *alloc.Set) ([]render.Artifact, error) {
	return nil, nil
}

func (switchHandler) Steps(inst topology.Instance, rec *alloc.Record, _ string) []deploy.Step {
	kind := deploy.AddSwitch
	var req deploy.Requirement
	if topology.GetBool(inst.Node.Properties, "wireless") {
		kind = deploy.AddAccessPoint
		req = deploy.Requirement{Wireless: true}
	}
	return []deploy.Step{{
		Kind:     kind,
		Node:     inst.Node.Name,
		Instance: rec.Instance,
		Function: "switch",
		Requires: req,
		Position: topology.GetStr(inst.Node.Properties, "position"),
	}}
}

type controllerHandler struct{}

func (controllerHandler) Function() string { return "controller" }

func (controllerHandler) Validate(inst topology.Instance) []result.Issue {
	var issues []result.Issue
	if _, fellBack := topology.IntOr(inst.Config(), "port", 0); fellBack {
		issues = append(issues, result.Issue{
			Kind: result.KindConflict, Severity: result.SeverityWarning,
			Entity:     inst.Name(),
			Message:    "port is not a number, using the default OpenFlow port",
			Suggestion: "set port to an integer between 1 and 65535",
		})
	}
	return issues
}

func (controllerHandler) Allocate(pool *alloc.Pool, inst topology.Instance) (*alloc.Record, []result.Issue, error) {
	rec := baseRecord(inst, "controller")
	override, _ := topology.IntOr(inst.Config(), "port", 0)
	port, err := pool.AssignPort(rec.Hostname, alloc.IfaceOpenFlow, override)
	if err != nil {
		return nil, nil, err
	}
	rec.Ports[alloc.IfaceOpenFlow] = port
	return rec, nil, nil
}

func (controllerHandler) Images(topology.Instance) []string { return nil }

func (controllerHandler) Render(topology.Instance, *alloc.Record, *alloc.Set) ([]render.Artifact, error) {
	return nil, nil
}

func (controllerHandler) Steps(inst topology.Instance, rec *alloc.Record, _ string) []deploy.Step {
	return []deploy.Step{{
		Kind:     deploy.AddController,
		Node:     inst.Node.Name,
		Instance: rec.Instance,
		Function: "controller",
	}}
}

type routerHandler struct{}

func (routerHandler) Function() string { return "router" }

func (routerHandler) Validate(topology.Instance) []result.Issue { return nil }

func (routerHandler) Allocate(pool *alloc.Pool, inst topology.Instance) (*alloc.Record, []result.Issue, error) {
	rec := baseRecord(inst, "router")
	mgmt, err := pool.Mgmt(rec.Instance)
	if err != nil {
		return nil, nil, err
	}
	rec.Mgmt = mgmt
	return rec, nil, nil
}

func (routerHandler) Images(topology.Instance) []string { return nil }

func (routerHandler) Render(topology.Instance, *alloc.Record, *alloc.Set) ([]render.Artifact, error) {
	return nil, nil
}

func (routerHandler) Steps(inst topology.Instance, rec *alloc.Record, _ string) []deploy.Step {
	return []deploy.Step{
		{
			Kind:     deploy.AddHost,
			Node:     inst.Node.Name,
			Instance: rec.Instance,
			Function: "router",
			Address:  rec.Mgmt.String(),
		},
		{
			Kind:     deploy.StartDaemon,
			Node:     inst.Node.Name,
			Instance: rec.Instance,
			Function: "router",
			Command:  "sysctl -w net.ipv4.ip_forward=1",
		},
	}
}

type hostHandler struct{}

func (hostHandler) Function() string { return "host" }

func (hostHandler) Validate(topology.Instance) []result.Issue { return nil }

func (hostHandler) Allocate(pool *alloc.Pool, inst topology.Instance) (*alloc.Record, []result.Issue, error) {
	rec := baseRecord(inst, "host")
	mgmt, err := pool.Mgmt(rec.Instance)
	if err != nil {
		return nil, nil, err
	}
	rec.Mgmt = mgmt
	return rec, nil, nil
}

func (hostHandler) Images(inst topology.Instance) []string {
	if img := topology.GetStr(inst.Node.Properties, "image"); img != "" {
		return append([]string{img}, topology.GetStrSlice(inst.Node.Properties, "alternates")...)
	}
	if inst.Containerized() {
		return image.Defaults("host")
	}
	return nil
}

func (hostHandler) Render(topology.Instance, *alloc.Record, *alloc.Set) ([]render.Artifact, error) {
	return nil, nil
}

func (hostHandler) Steps(inst topology.Instance, rec *alloc.Record, img string) []deploy.Step {
	if inst.Containerized() {
		return []deploy.Step{{
			Kind:     deploy.AddContainer,
			Node:     inst.Node.Name,
			Instance: rec.Instance,
			Function: "host",
			Requires: deploy.Requirement{Containers: true},
			Image:    img,
			Volumes:  profileVolumes(inst),
			Address:  rec.Mgmt.String(),
		}}
	}
	return []deploy.Step{{
		Kind:     deploy.AddHost,
		Node:     inst.Node.Name,
		Instance: rec.Instance,
		Function: "host",
		Address:  rec.Mgmt.String(),
	}}
}
