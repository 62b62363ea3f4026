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

type gnbHandler struct{}

func init() {
	registry.Default.Register(&gnbHandler{})
}

func (gnbHandler) Function() string { return "gnb" }

func (gnbHandler) Validate(inst topology.Instance) []result.Issue {
	var issues []result.Issue
	if _, fellBack := topology.IntOr(inst.Config(), "ngap_port", 0); fellBack {
		issues = append(issues, result.Issue{
			Kind: result.KindConflict, Severity: result.SeverityWarning,
			Entity:     inst.Name(),
			Message:    "ngap_port is not a number, using the default port",
			Suggestion: "set ngap_port to an integer between 1 and 65535",
		})
	}
	return issues
}

func (gnbHandler) Allocate(pool *alloc.Pool, inst topology.Instance) (*alloc.Record, []result.Issue, error) {
	rec := &alloc.Record{
		Node:     inst.Node.Name,
		Instance: inst.Name(),
		Function: "gnb",
		Hostname: alloc.Hostname(inst.Name()),
		Iface:    alloc.Hostname(inst.Name()) + "-eth0",
		Ports:    make(map[alloc.Interface]int),
	}
	mgmt, err := pool.Mgmt(rec.Instance)
	if err != nil {
		return nil, nil, err
	}
	rec.Mgmt = mgmt

	override, _ := topology.IntOr(inst.Config(), "ngap_port", 0)
	port, err := pool.AssignPort(rec.Hostname, alloc.IfaceNGAP, override)
	if err != nil {
		pool.Release(rec.Hostname)
		return nil, nil, err
	}
	rec.Ports[alloc.IfaceNGAP] = port

	gtpu, err := pool.AssignPort(rec.Hostname, alloc.IfaceGTPU, 0)
	if err != nil {
		pool.Release(rec.Hostname)
		return nil, nil, err
	}
	rec.Ports[alloc.IfaceGTPU] = gtpu
	return rec, nil, nil
}

func (gnbHandler) Images(inst topology.Instance) []string {
	if img := topology.GetStr(inst.Node.Properties, "image"); img != "" {
		return append([]string{img}, topology.GetStrSlice(inst.Node.Properties, "alternates")...)
	}
	return image.Defaults("gnb")
}

func (gnbHandler) Render(inst topology.Instance, rec *alloc.Record, set *alloc.Set) ([]render.Artifact, error) {
	res := render.NewResolver(inst.Config(), nil, render.RadioDefaults())
	a, err := render.RadioConfig(rec, res)
	if err != nil {
		return nil, err
	}
	return []render.Artifact{a}, nil
}

func (gnbHandler) Steps(inst topology.Instance, rec *alloc.Record, img string) []deploy.Step {
	confPath := fmt.Sprintf("./config/%s.yaml:/etc/ueransim/gnb.yaml", rec.Instance)
	req := deploy.Requirement{Containers: true}
	steps := []deploy.Step{
		{
			Kind:     deploy.AddContainer,
			Node:     inst.Node.Name,
			Instance: rec.Instance,
			Function: "gnb",
			Requires: req,
			Image:    img,
			Volumes:  append([]string{confPath}, profileVolumes(inst)...),
			Address:  rec.Mgmt.String(),
		},
		{
			Kind:     deploy.StartDaemon,
			Node:     inst.Node.Name,
			Instance: rec.Instance,
			Function: "gnb",
			Requires: req,
			Command:  "nr-gnb -c /etc/ueransim/gnb.yaml",
		},
	}
	// A position only affects placement under a wireless backend; the
	// radio container itself deploys on any container backend.
	steps[0].Position = topology.GetStr(inst.Node.Properties, "position")
	return steps
}
