package alloc

import (
	"fmt"

	"github.com/MELON-27AF/Project-5g/internal/result"
	"github.com/MELON-27AF/Project-5g/internal/topology"
)

// Wire resolves cross-references between allocated records: session
// management learns its data-plane peers, radio nodes learn the mobility
// function address, and terminals learn which radio nodes to search for.
// It returns warnings for topologies missing an expected counterpart.
func Wire(set *Set, topo *topology.Topology) []result.Issue {
	var warnings []result.Issue

	nrfs := set.ByFunction("nrf")
	upfs := set.ByFunction("upf")
	amfs := set.ByFunction("amf")
	gnbs := set.ByFunction("gnb")

	upfNames := make([]string, 0, len(upfs))
	for _, u := range upfs {
		upfNames = append(upfNames, u.FQDN())
	}

	for _, r := range set.Records {
		switch r.Function {
		case "smf":
			if len(upfs) == 0 {
				warnings = append(warnings, warn(r.Instance,
					"session management has no user-plane function to steer traffic to"))
				continue
			}
			r.DataPlaneClients = append([]string(nil), upfNames...)
			for _, u := range upfs {
				r.dependOn(u.Instance)
			}
		case "gnb":
			if len(amfs) == 0 {
				warnings = append(warnings, warn(r.Instance,
					"radio node has no mobility function to register with"))
				continue
			}
			r.AMFAddress = amfs[0].FQDN()
			r.AMFPort = amfs[0].Ports[IfaceNGAP]
			r.dependOn(amfs[0].Instance)
		case "ue":
			if len(gnbs) == 0 {
				warnings = append(warnings, warn(r.Instance,
					"terminal has no radio node to attach to"))
				continue
			}
			for _, g := range gnbs {
				r.GNBSearch = append(r.GNBSearch, g.FQDN())
				r.dependOn(g.Instance)
			}
		}

		// Every registering core function waits for the repository.
		if isRegistrant(r.Function) && len(nrfs) > 0 && r.Instance != nrfs[0].Instance {
			r.dependOn(nrfs[0].Instance)
		}
	}

	// Link endpoints become structural dependencies so switches come up
	// before the nodes cabled into them. Every instance of a
	// multi-instance node picks up the dependency.
	for _, l := range topo.Links {
		from, to := recordsOfNode(set, l.From), recordsOfNode(set, l.To)
		if len(from) == 0 || len(to) == 0 {
			continue
		}
		switch {
		case isFabric(to[0].Function) && !isFabric(from[0].Function):
			for _, r := range from {
				r.dependOn(to[0].Instance)
			}
		case isFabric(from[0].Function) && !isFabric(to[0].Function):
			for _, r := range to {
				r.dependOn(from[0].Instance)
			}
		}
	}

	return warnings
}

func recordsOfNode(set *Set, node string) []*Record {
	var out []*Record
	for _, r := range set.Records {
		if r.Node == node {
			out = append(out, r)
		}
	}
	return out
}

func isFabric(fn string) bool {
	switch fn {
	case "switch", "router", "controller":
		return true
	}
	return false
}

func isRegistrant(fn string) bool {
	switch fn {
	case "scp", "ausf", "udm", "udr", "pcf", "bsf", "nssf", "amf", "smf":
		return true
	}
	return false
}

func warn(entity, msg string) result.Issue {
	return result.Issue{
		Kind:     result.KindConflict,
		Severity: result.SeverityWarning,
		Entity:   entity,
		Message:  msg,
		Suggestion: fmt.Sprintf("add the missing counterpart node or remove %s from the topology",
			entity),
	}
}
