package handler

import (
	"fmt"
	"strings"

	"github.com/MELON-27AF/Project-5g/internal/alloc"
	"github.com/MELON-27AF/Project-5g/internal/deploy"
	"github.com/MELON-27AF/Project-5g/internal/image"
	"github.com/MELON-27AF/Project-5g/internal/registry"
	"github.com/MELON-27AF/Project-5g/internal/render"
	"github.com/MELON-27AF/Project-5g/internal/result"
	"github.com/MELON-27AF/Project-5g/internal/topology"
)

type ueHandler struct{}

func init() {
	registry.Default.Register(&ueHandler{})
}

func (ueHandler) Function() string { return "ue" }

func (ueHandler) Validate(inst topology.Instance) []result.Issue {
	var issues []result.Issue
	if supi := topology.GetStr(inst.Config(), "supi"); supi != "" && !strings.HasPrefix(supi, "imsi-") {
		issues = append(issues, result.Issue{
			Kind: result.KindStructural, Severity: result.SeverityError,
			Entity:     inst.Name(),
			Message:    fmt.Sprintf("supi %q does not start with imsi-", supi),
			Suggestion: "use the imsi-<15 digits> form",
		})
	}
	return issues
}

func (ueHandler) Allocate(pool *alloc.Pool, inst topology.Instance) (*alloc.Record, []result.Issue, error) {
	rec := &alloc.Record{
		Node:     inst.Node.Name,
		Instance: inst.Name(),
		Function: "ue",
		Hostname: alloc.Hostname(inst.Name()),
		Iface:    alloc.Hostname(inst.Name()) + "-eth0",
		Ports:    make(map[alloc.Interface]int),
	}
	mgmt, err := pool.Mgmt(rec.Instance)
	if err != nil {
		return nil, nil, err
	}
	rec.Mgmt = mgmt
	return rec, nil, nil
}

func (ueHandler) Images(inst topology.Instance) []string {
	if img := topology.GetStr(inst.Node.Properties, "image"); img != "" {
		return append([]string{img}, topology.GetStrSlice(inst.Node.Properties, "alternates")...)
	}
	return image.Defaults("ue")
}

func (ueHandler) Render(inst topology.Instance, rec *alloc.Record, set *alloc.Set) ([]render.Artifact, error) {
	res := render.NewResolver(inst.Config(), nil, render.TerminalDefaults())
	a, err := render.TerminalConfig(rec, res)
	if err != nil {
		return nil, err
	}
	return []render.Artifact{a}, nil
}

func (ueHandler) Steps(inst topology.Instance, rec *alloc.Record, img string) []deploy.Step {
	confPath := fmt.Sprintf("./config/%s.yaml:/etc/ueransim/ue.yaml", rec.Instance)
	req := deploy.Requirement{Containers: true}
	kind := deploy.AddContainer
	pos := topology.GetStr(inst.Node.Properties, "position")
	if pos != "" {
		kind = deploy.AddStation
		req = deploy.Requirement{Containers: true, Wireless: true}
	}
	return []deploy.Step{
		{
			Kind:     kind,
			Node:     inst.Node.Name,
			Instance: rec.Instance,
			Function: "ue",
			Requires: req,
			Image:    img,
			Volumes:  append([]string{confPath}, profileVolumes(inst)...),
			Address:  rec.Mgmt.String(),
			Position: pos,
		},
		{
			Kind:     deploy.StartDaemon,
			Node:     inst.Node.Name,
			Instance: rec.Instance,
			Function: "ue",
			Requires: req,
			Command:  "nr-ue -c /etc/ueransim/ue.yaml",
		},
	}
}
