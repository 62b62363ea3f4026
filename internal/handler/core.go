// Package handler implements one FunctionHandler per node function.
// Handlers self-register with the default registry from init functions;
// importing the package for side effects wires up the full set.
package handler

import (
	"fmt"

	"github.com/MELON-27AF/Project-5g/internal/alloc"
	"github.com/MELON-27AF/Project-5g/internal/deploy"
	"github.com/MELON-27AF/Project-5g/internal/image"
	"github.com/MELON-27AF/Project-5g/internal/registry"
	"github.com/MELON-27AF/Project-5g/internal/render"
	"github.com/MELON-27AF/Project-5g/internal/result"
	"github.com/MELON-27AF/Project-5g/internal/topology"
)

// coreSpec describes the fixed shape of one core network function: the
// daemon it runs, the protocol interfaces it listens on, and whether it
// owns user-plane session blocks.
type coreSpec struct {
	fn         string
	daemon     string
	ifaces     []alloc.Interface
	sessions   bool
	privileged bool
}

var coreSpecs = []coreSpec{
	{fn: "nrf", daemon: "open5gs-nrfd", ifaces: []alloc.Interface{alloc.IfaceSBI}},
	{fn: "scp", daemon: "open5gs-scpd", ifaces: []alloc.Interface{alloc.IfaceSBI}},
	{fn: "ausf", daemon: "open5gs-ausfd", ifaces: []alloc.Interface{alloc.IfaceSBI}},
	{fn: "udm", daemon: "open5gs-udmd", ifaces: []alloc.Interface{alloc.IfaceSBI}},
	{fn: "udr", daemon: "open5gs-udrd", ifaces: []alloc.Interface{alloc.IfaceSBI}},
	{fn: "pcf", daemon: "open5gs-pcfd", ifaces: []alloc.Interface{alloc.IfaceSBI}},
	{fn: "bsf", daemon: "open5gs-bsfd", ifaces: []alloc.Interface{alloc.IfaceSBI}},
	{fn: "nssf", daemon: "open5gs-nssfd", ifaces: []alloc.Interface{alloc.IfaceSBI}},
	{fn: "amf", daemon: "open5gs-amfd", ifaces: []alloc.Interface{alloc.IfaceSBI, alloc.IfaceNGAP}},
	{fn: "smf", daemon: "open5gs-smfd", ifaces: []alloc.Interface{alloc.IfaceSBI, alloc.IfacePFCP, alloc.IfaceGTPU}, sessions: true},
	{fn: "upf", daemon: "open5gs-upfd", ifaces: []alloc.Interface{alloc.IfacePFCP, alloc.IfaceGTPU}, sessions: true, privileged: true},
}

type coreHandler struct {
	spec coreSpec
}

func init() {
	for _, s := range coreSpecs {
		registry.Default.Register(&coreHandler{spec: s})
	}
}

func (h *coreHandler) Function() string { return h.spec.fn }

func (h *coreHandler) Validate(inst topology.Instance) []result.Issue {
	var issues []result.Issue
	cfg := inst.Config()
	for _, iface := range h.spec.ifaces {
		key := string(iface) + "_port"
		if _, fellBack := topology.IntOr(cfg, key, 0); fellBack {
			issues = append(issues, result.Issue{
				Kind: result.KindConflict, Severity: result.SeverityWarning,
				Entity:     inst.Name(),
				Message:    fmt.Sprintf("%s is not a number, using the default port", key),
				Suggestion: fmt.Sprintf("set %s to an integer between 1 and 65535", key),
			})
		}
	}
	if h.spec.sessions {
		for i, s := range topology.GetMapSlice(cfg, "sessions") {
			if topology.GetStr(s, "subnet") == "" {
				issues = append(issues, result.Issue{
					Kind: result.KindStructural, Severity: result.SeverityError,
					Entity:     inst.Name(),
					Message:    fmt.Sprintf("sessions[%d] has no subnet", i),
					Suggestion: "give every session entry a subnet in CIDR form",
				})
			}
		}
	}
	return issues
}

func (h *coreHandler) Allocate(pool *alloc.Pool, inst topology.Instance) (*alloc.Record, []result.Issue, error) {
	var warnings []result.Issue
	cfg := inst.Config()

	rec := &alloc.Record{
		Node:     inst.Node.Name,
		Instance: inst.Name(),
		Function: h.spec.fn,
		Hostname: alloc.Hostname(inst.Name()),
		Iface:    alloc.Hostname(inst.Name()) + "-eth0",
		Ports:    make(map[alloc.Interface]int),
	}

	mgmt, err := pool.Mgmt(rec.Instance)
	if err != nil {
		return nil, warnings, err
	}
	rec.Mgmt = mgmt

	for _, iface := range h.spec.ifaces {
		override, _ := topology.IntOr(cfg, string(iface)+"_port", 0)
		port, err := pool.AssignPort(rec.Hostname, iface, override)
		if err != nil {
			pool.Release(rec.Hostname)
			return nil, warnings, err
		}
		rec.Ports[iface] = port
	}

	if h.spec.sessions {
		entries := topology.GetMapSlice(cfg, "sessions")
		if len(entries) == 0 {
			dnn := topology.GetStr(cfg, "dnn")
			if dnn == "" {
				dnn = "internet"
			}
			s, err := pool.NextSession(rec.Instance, dnn)
			if err != nil {
				pool.Release(rec.Hostname)
				return nil, warnings, err
			}
			rec.Sessions = append(rec.Sessions, s)
		}
		for _, e := range entries {
			dnn := topology.GetStr(e, "dnn")
			if dnn == "" {
				dnn = "internet"
			}
			s, err := pool.Claim(rec.Instance, dnn, topology.GetStr(e, "subnet"))
			if err != nil {
				pool.Release(rec.Hostname)
				return nil, warnings, err
			}
			rec.Sessions = append(rec.Sessions, s)
		}
	}

	return rec, warnings, nil
}

func (h *coreHandler) Images(inst topology.Instance) []string {
	if inst.Profile != nil && inst.Profile.Image != "" {
		return append([]string{inst.Profile.Image}, inst.Profile.Alternates...)
	}
	if img := topology.GetStr(inst.Node.Properties, "image"); img != "" {
		return []string{img}
	}
	return image.Defaults(h.spec.fn)
}

func (h *coreHandler) Render(inst topology.Instance, rec *alloc.Record, set *alloc.Set) ([]render.Artifact, error) {
	computed := make(map[string]any)
	if nrfs := set.ByFunction("nrf"); len(nrfs) > 0 {
		computed["nrf_host"] = nrfs[0].FQDN()
		computed["nrf_port"] = nrfs[0].Ports[alloc.IfaceSBI]
	}
	res := render.NewResolver(inst.Config(), computed, render.CoreDefaults())
	a, err := render.Open5GS(rec, res)
	if err != nil {
		return nil, err
	}
	return []render.Artifact{a}, nil
}

func (h *coreHandler) Steps(inst topology.Instance, rec *alloc.Record, img string) []deploy.Step {
	confPath := fmt.Sprintf("./config/%s.yaml:/etc/open5gs/custom/%s.yaml", rec.Instance, rec.Instance)
	volumes := append([]string{confPath}, profileVolumes(inst)...)

	return []deploy.Step{
		{
			Kind:       deploy.AddContainer,
			Node:       inst.Node.Name,
			Instance:   rec.Instance,
			Function:   h.spec.fn,
			Requires:   deploy.Requirement{Containers: true},
			Image:      img,
			Volumes:    volumes,
			Address:    rec.Mgmt.String(),
			Privileged: h.spec.privileged,
		},
		{
			Kind:     deploy.StartDaemon,
			Node:     inst.Node.Name,
			Instance: rec.Instance,
			Function: h.spec.fn,
			Requires: deploy.Requirement{Containers: true},
			Command:  fmt.Sprintf("%s -c /etc/open5gs/custom/%s.yaml", h.spec.daemon, rec.Instance),
		},
	}
}

func profileVolumes(inst topology.Instance) []string {
	if inst.Profile != nil {
		return inst.Profile.Volumes
	}
	return topology.GetStrSlice(inst.Node.Properties, "volumes")
}
