package topology

import (
	"fmt"

	"github.com/MELON-27AF/Project-5g/internal/result"
)

var validTypes = map[NodeType]bool{
	TypeCore: true, TypeRadio: true, TypeTerminal: true,
	TypeSwitch: true, TypeRouter: true, TypeHost: true, TypeController: true,
}

var validFunctions = func() map[string]bool {
	m := make(map[string]bool, len(CoreFunctions))
	for _, f := range CoreFunctions {
		m[f] = true
	}
	return m
}()

// Validate checks the structural invariants of the topology document:
// unique non-empty node names, known types, links between existing nodes,
// and well-formed profiles. Function-specific validation is done by
// handlers. Every error names the offending node or link identity.
func Validate(t *Topology) []result.Issue {
	var issues []result.Issue

	structural := func(entity, msg, hint string) {
		issues = append(issues, result.Issue{
			Kind: result.KindStructural, Severity: result.SeverityError,
			Entity: entity, Message: msg, Suggestion: hint,
		})
	}

	if t == nil {
		structural("", "topology document is nil", "")
		return issues
	}
	if t.Metadata.Version == "" {
		issues = append(issues, result.Issue{
			Kind: result.KindStructural, Severity: result.SeverityWarning,
			Message:    "metadata.version is empty",
			Suggestion: `set metadata.version (e.g. "1.0")`,
		})
	}

	seenNodes := make(map[string]bool)
	seenInstances := make(map[string]string) // instance name -> node name
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Name == "" {
			structural("", fmt.Sprintf("node at index %d has empty name", i), "set node.name")
			continue
		}
		if seenNodes[n.Name] {
			structural(n.Name, "duplicate node name: "+n.Name, "use unique names for each node")
			continue
		}
		seenNodes[n.Name] = true
		seenInstances[n.Name] = n.Name

		if !validTypes[n.Type] {
			structural(n.Name, fmt.Sprintf("unknown node type %q", n.Type),
				"use one of: core, gnb, ue, switch, router, host, controller")
		}
		if len(n.Profiles) > 0 && n.Type != TypeCore {
			structural(n.Name, fmt.Sprintf("node type %q cannot carry configuration profiles", n.Type),
				"profiles are only valid on core nodes")
		}
		for j := range n.Profiles {
			p := &n.Profiles[j]
			if p.Name == "" {
				structural(n.Name, fmt.Sprintf("profile at index %d of node %s has empty name", j, n.Name), "set profile.name")
				continue
			}
			if owner, dup := seenInstances[p.Name]; dup {
				structural(p.Name, fmt.Sprintf("instance name %s already used by %s", p.Name, owner),
					"instance names must be unique across the topology")
				continue
			}
			seenInstances[p.Name] = n.Name
			if !validFunctions[p.Function] {
				structural(p.Name, fmt.Sprintf("unknown core function %q", p.Function),
					"use one of: nrf, scp, ausf, udm, udr, pcf, bsf, nssf, amf, smf, upf")
			}
		}
	}

	for i, l := range t.Links {
		id := l.Name
		if id == "" {
			id = fmt.Sprintf("link[%d]", i)
		}
		if l.From == "" || l.To == "" {
			structural(id, "link must have source and target", "set link.source and link.target to node names")
			continue
		}
		if l.From == l.To {
			structural(id, "link connects node "+l.From+" to itself", "remove the self-link")
			continue
		}
		if !seenNodes[l.From] {
			structural(id, "link source node not found: "+l.From, "reference an existing node name")
		}
		if !seenNodes[l.To] {
			structural(id, "link target node not found: "+l.To, "reference an existing node name")
		}
	}

	return issues
}
