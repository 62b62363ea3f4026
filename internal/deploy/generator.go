package deploy

import (
	"github.com/MELON-27AF/Project-5g/internal/capability"
	"github.com/MELON-27AF/Project-5g/internal/topology"
)

// Generate assembles the deployment plan from the per-instance steps the
// handlers produced, appends link steps from the topology, and orders the
// whole plan by stage. It is a pure function of its inputs so the emitted
// script is reproducible byte for byte.
//
// live maps each deployed node to a representative instance. Nodes absent
// from it (skipped or failed) contribute no steps, and links touching an
// absent node are dropped with them. A multi-instance node is cabled
// through its representative, so link steps always name instances the
// plan actually defines.
func Generate(topo *topology.Topology, caps capability.Descriptor, instanceSteps []Step, live map[string]string) *Script {
	steps := make([]Step, 0, len(instanceSteps)+len(topo.Links))
	steps = append(steps, instanceSteps...)

	// On a container backend without the wireless stack, positioned
	// terminals degrade to plain container placements instead of
	// disappearing behind a guard.
	if !caps.Wireless && caps.Containers {
		for i := range steps {
			st := &steps[i]
			if !st.Requires.Wireless || !st.Requires.Containers {
				continue
			}
			if st.Kind == AddStation {
				st.Kind = AddContainer
			}
			st.Requires = Requirement{Containers: true}
			st.Position = ""
		}
	}

	for _, l := range topo.Links {
		from, to := live[l.From], live[l.To]
		if from == "" || to == "" {
			continue
		}
		steps = append(steps, Step{
			Kind:      AddLink,
			Node:      from,
			Peer:      to,
			Requires:  linkRequirement(topo, l),
			Bandwidth: l.Bandwidth,
			Delay:     l.Delay,
			Loss:      l.Loss,
		})
	}

	// Wireless topologies get propagation modeling and a topology plot,
	// both guarded so non-wireless backends skip them with a notice.
	for _, st := range steps {
		if st.Requires.Wireless || st.Kind == AddStation || st.Kind == AddAccessPoint {
			steps = append(steps,
				Step{Kind: Propagation, Requires: Requirement{Wireless: true}},
				Step{Kind: PlotTopology, Requires: Requirement{Wireless: true}},
			)
			break
		}
	}

	order(steps)
	return &Script{
		Topology: topo.Metadata.Name,
		Backend:  caps,
		Steps:    steps,
	}
}

// linkRequirement propagates endpoint requirements onto the cable: a link
// into a container-backed node needs containers, a wireless link needs the
// wireless stack.
func linkRequirement(topo *topology.Topology, l topology.Link) Requirement {
	var req Requirement
	if l.Kind == "wireless" {
		req.Wireless = true
	}
	for _, name := range []string{l.From, l.To} {
		n := topo.NodeByName(name)
		if n == nil {
			continue
		}
		inst := topology.Instance{Node: n}
		if inst.Containerized() {
			req.Containers = true
		}
	}
	return req
}
