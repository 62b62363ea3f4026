// Package deploy builds the ordered deployment plan and emits it as an
// executable emulation script. The plan is a plain data structure so the
// same steps drive both the script emitter and the native runner.
package deploy

import (
	"sort"

	"github.com/MELON-27AF/Project-5g/internal/capability"
)

// ActionKind names one kind of deployment step.
type ActionKind string

const (
	AddController  ActionKind = "add-controller"
	AddSwitch      ActionKind = "add-switch"
	AddAccessPoint ActionKind = "add-access-point"
	AddContainer   ActionKind = "add-container"
	AddHost        ActionKind = "add-host"
	AddStation     ActionKind = "add-station"
	AddLink        ActionKind = "add-link"
	Propagation    ActionKind = "propagation-model"
	StartDaemon    ActionKind = "start-daemon"
	PlotTopology   ActionKind = "plot-topology"
)

// Requirement states which capabilities a step needs. Steps whose
// requirement the committed backend cannot satisfy are skipped with a
// logged notice, never executed partially.
type Requirement struct {
	Containers bool
	Wireless   bool
}

// SatisfiedBy reports whether the committed backend grants the
// requirement.
func (r Requirement) SatisfiedBy(d capability.Descriptor) bool {
	if r.Containers && !d.Containers {
		return false
	}
	if r.Wireless && !d.Wireless {
		return false
	}
	return true
}

func (r Requirement) String() string {
	switch {
	case r.Containers && r.Wireless:
		return "containers+wireless"
	case r.Containers:
		return "containers"
	case r.Wireless:
		return "wireless"
	}
	return "none"
}

// Step is one action of the deployment plan.
type Step struct {
	Kind     ActionKind
	Node     string
	Instance string
	Function string
	Requires Requirement

	// Container and host fields.
	Image   string
	Command string
	Volumes []string
	Env     []string // KEY=VALUE, sorted
	Address string   // management address with prefix length
	Privileged bool

	// Link fields.
	Peer      string
	Bandwidth int
	Delay     string
	Loss      float64

	// Wireless fields.
	Position string
}

// Script is the ordered deployment plan for one compilation run.
type Script struct {
	Topology string
	Backend  capability.Descriptor
	Steps    []Step
}

// stageRank orders steps so every instance starts after everything it
// needs: fabric first, then repository, registering functions, session
// management, user plane, radio, terminals, plain hosts, then links and
// daemon starts at the end.
var stageRank = map[string]int{
	"controller": 0,
	"switch":     1,
	"router":     2,
	"nrf":        10,
	"scp":        11,
	"ausf":       12,
	"udm":        12,
	"udr":        12,
	"pcf":        12,
	"bsf":        12,
	"nssf":       12,
	"amf":        20,
	"smf":        21,
	"upf":        30,
	"gnb":        40,
	"ue":         50,
	"host":       60,
}

func rankOf(kind ActionKind, function string) int {
	switch kind {
	case AddLink:
		return 70
	case Propagation:
		return 75
	case StartDaemon:
		return 80
	case PlotTopology:
		return 90
	}
	if r, ok := stageRank[function]; ok {
		return r
	}
	return 65
}

// order sorts steps by stage, keeping declaration order within a stage.
func order(steps []Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		return rankOf(steps[i].Kind, steps[i].Function) < rankOf(steps[j].Kind, steps[j].Function)
	})
}
