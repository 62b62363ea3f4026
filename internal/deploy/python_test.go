package deploy

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MELON-27AF/Project-5g/internal/capability"
	"github.com/MELON-27AF/Project-5g/internal/topology"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTopo() *topology.Topology {
	return &topology.Topology{
		Metadata: topology.Metadata{Version: "1.0", Name: "lab"},
		Nodes: []topology.Node{
			{Name: "ue1", Type: topology.TypeTerminal},
			{Name: "s1", Type: topology.TypeSwitch},
			{Name: "core1", Type: topology.TypeCore},
		},
		Links: []topology.Link{
			{From: "core1", To: "s1"},
			{From: "ue1", To: "s1"},
		},
	}
}

func sampleSteps() []Step {
	req := Requirement{Containers: true}
	return []Step{
		{Kind: AddContainer, Node: "ue1", Instance: "ue1", Function: "ue", Requires: req, Image: "adaptive/ueransim:latest"},
		{Kind: AddSwitch, Node: "s1", Instance: "s1", Function: "switch"},
		{Kind: AddContainer, Node: "core1", Instance: "amf1", Function: "amf", Requires: req, Image: "adaptive/open5gs:1.0"},
		{Kind: StartDaemon, Node: "core1", Instance: "amf1", Function: "amf", Requires: req, Command: "open5gs-amfd -c /etc/open5gs/custom/amf1.yaml"},
	}
}

// live maps deployed nodes to their representative instance. Entries are
// either a plain name (node and instance coincide) or "node=instance".
func live(entries ...string) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		node, inst, ok := strings.Cut(e, "=")
		if !ok {
			inst = node
		}
		m[node] = inst
	}
	return m
}

func TestGenerateOrdersByStage(t *testing.T) {
	caps := capability.Describe(capability.Containernet, true, false)
	script := Generate(sampleTopo(), caps, sampleSteps(), live("ue1", "s1", "core1=amf1"))

	var kinds []ActionKind
	for _, st := range script.Steps {
		kinds = append(kinds, st.Kind)
	}
	// Switch first, then core before terminal, links and daemons last.
	assert.Equal(t, []ActionKind{AddSwitch, AddContainer, AddContainer, AddLink, AddLink, StartDaemon}, kinds)
	assert.Equal(t, "amf1", script.Steps[1].Instance)
	assert.Equal(t, "ue1", script.Steps[2].Instance)
}

func TestGenerateDropsLinksOfAbsentNodes(t *testing.T) {
	caps := capability.Describe(capability.Containernet, true, false)
	script := Generate(sampleTopo(), caps, nil, live("s1", "core1=amf1"))

	require.Len(t, script.Steps, 1)
	assert.Equal(t, AddLink, script.Steps[0].Kind)
	assert.Equal(t, "amf1", script.Steps[0].Node)
}

func TestGenerateCablesMultiInstanceNodeThroughRepresentative(t *testing.T) {
	caps := capability.Describe(capability.Containernet, true, false)
	script := Generate(sampleTopo(), caps, sampleSteps(), live("ue1", "s1", "core1=amf1"))

	out, _ := Emit(script, quiet())
	text := string(out)

	// The core node defines no script variable of its own; its links go
	// through the amf1 instance so every referenced name is assigned.
	assert.Contains(t, text, "net.addLink(amf1, s1)")
	assert.Contains(t, text, "net.addLink(ue1, s1)")
	assert.NotContains(t, text, "core1")
}

func TestGenerateDowngradesStationWithoutWirelessStack(t *testing.T) {
	topo := &topology.Topology{
		Metadata: topology.Metadata{Version: "1.0", Name: "lab"},
		Nodes:    []topology.Node{{Name: "ue1", Type: topology.TypeTerminal}},
	}
	steps := []Step{
		{Kind: AddStation, Node: "ue1", Instance: "ue1", Function: "ue",
			Requires: Requirement{Containers: true, Wireless: true},
			Image:    "adaptive/ueransim:latest", Position: "10,20,0"},
		{Kind: StartDaemon, Node: "ue1", Instance: "ue1", Function: "ue",
			Requires: Requirement{Containers: true, Wireless: true},
			Command:  "nr-ue -c /etc/ueransim/ue.yaml"},
	}

	caps := capability.Describe(capability.Containernet, true, false)
	script := Generate(topo, caps, steps, live("ue1"))

	require.Len(t, script.Steps, 2)
	assert.Equal(t, AddContainer, script.Steps[0].Kind)
	assert.Equal(t, Requirement{Containers: true}, script.Steps[0].Requires)
	assert.Empty(t, script.Steps[0].Position)
	assert.Equal(t, Requirement{Containers: true}, script.Steps[1].Requires)

	out, guards := Emit(script, quiet())
	text := string(out)
	assert.Contains(t, text, "net.addDocker('ue1'")
	assert.NotContains(t, text, "# skipped")
	assert.NotContains(t, text, "position=")
	for _, g := range guards {
		assert.True(t, g.Granted)
	}
}

func TestEmitAppliesContainerPositionOnlyWithWireless(t *testing.T) {
	topo := &topology.Topology{
		Metadata: topology.Metadata{Version: "1.0", Name: "lab"},
		Nodes:    []topology.Node{{Name: "gnb1", Type: topology.TypeRadio}},
	}
	steps := []Step{{
		Kind: AddContainer, Node: "gnb1", Instance: "gnb1", Function: "gnb",
		Requires: Requirement{Containers: true},
		Image:    "adaptive/ueransim:latest", Position: "40,50,0",
	}}

	wired := Generate(topo, capability.Describe(capability.Containernet, true, false), steps, live("gnb1"))
	out, _ := Emit(wired, quiet())
	assert.Contains(t, string(out), "net.addDocker('gnb1'")
	assert.NotContains(t, string(out), "position=")

	hybrid := Generate(topo, capability.Describe(capability.Containernet, true, true), steps, live("gnb1"))
	out, _ = Emit(hybrid, quiet())
	assert.Contains(t, string(out), "position='40,50,0'")
}

func TestEmitIsDeterministic(t *testing.T) {
	caps := capability.Describe(capability.Containernet, true, false)
	script := Generate(sampleTopo(), caps, sampleSteps(), live("ue1", "s1", "core1=amf1"))

	a, _ := Emit(script, quiet())
	b, _ := Emit(script, quiet())
	assert.Equal(t, a, b)
}

func TestEmitContainernetScript(t *testing.T) {
	caps := capability.Describe(capability.Containernet, true, false)
	script := Generate(sampleTopo(), caps, sampleSteps(), live("ue1", "s1", "core1=amf1"))

	out, guards := Emit(script, quiet())
	text := string(out)

	assert.Contains(t, text, "from mininet.net import Containernet")
	assert.Contains(t, text, "net = Containernet(")
	assert.Contains(t, text, "net.addDocker('amf1', cls=Docker, dimage=\"adaptive/open5gs:1.0\"")
	assert.Contains(t, text, "s1 = net.addSwitch('s1', cls=OVSKernelSwitch)")
	assert.Contains(t, text, "amf1.cmd('open5gs-amfd -c /etc/open5gs/custom/amf1.yaml &')")
	assert.NotContains(t, text, "mn_wifi")

	for _, g := range guards {
		assert.True(t, g.Granted)
	}
}

func TestEmitGuardsContainerStepsOnBaseline(t *testing.T) {
	caps := capability.Describe(capability.Mininet, false, false)
	script := Generate(sampleTopo(), caps, sampleSteps(), live("ue1", "s1", "core1=amf1"))

	out, guards := Emit(script, quiet())
	text := string(out)

	assert.NotContains(t, text, "addDocker")
	assert.Contains(t, text, "from mininet.net import Mininet")
	assert.Contains(t, text, "# skipped")

	denied := 0
	for _, g := range guards {
		if !g.Granted {
			denied++
			assert.NotEmpty(t, g.Notice)
		}
	}
	// Two containers, one daemon start and two links touching containers.
	assert.Equal(t, 5, denied)
}

func TestGenerateAddsWirelessModelSteps(t *testing.T) {
	topo := &topology.Topology{
		Metadata: topology.Metadata{Version: "1.0", Name: "radio"},
		Nodes: []topology.Node{
			{Name: "ue1", Type: topology.TypeTerminal},
			{Name: "ap1", Type: topology.TypeSwitch},
		},
		Links: []topology.Link{{From: "ue1", To: "ap1", Kind: "wireless"}},
	}
	steps := []Step{
		{Kind: AddAccessPoint, Node: "ap1", Instance: "ap1", Function: "switch", Requires: Requirement{Wireless: true}},
		{Kind: AddStation, Node: "ue1", Instance: "ue1", Function: "ue", Requires: Requirement{Containers: true, Wireless: true}, Position: "10,20,0"},
	}

	caps := capability.Describe(capability.Containernet, true, true)
	script := Generate(topo, caps, steps, live("ue1", "ap1"))

	var kinds []ActionKind
	for _, st := range script.Steps {
		kinds = append(kinds, st.Kind)
	}
	assert.Contains(t, kinds, Propagation)
	assert.Contains(t, kinds, PlotTopology)

	// Propagation modeling precedes the plot, both after all links.
	assert.Equal(t, []ActionKind{AddAccessPoint, AddStation, AddLink, Propagation, PlotTopology}, kinds)

	out, _ := Emit(script, quiet())
	text := string(out)
	assert.Contains(t, text, "net.setPropagationModel(")
	assert.Contains(t, text, "net.plotGraph(")
	assert.Contains(t, text, "net.addStation('ue1'")
}

func TestGenerateSkipsWirelessModelStepsForWiredTopology(t *testing.T) {
	caps := capability.Describe(capability.Containernet, true, false)
	script := Generate(sampleTopo(), caps, sampleSteps(), live("ue1", "s1", "core1=amf1"))

	for _, st := range script.Steps {
		assert.NotEqual(t, Propagation, st.Kind)
		assert.NotEqual(t, PlotTopology, st.Kind)
	}
}

func TestEmitHasNoTimestamps(t *testing.T) {
	caps := capability.Describe(capability.Containernet, true, false)
	script := Generate(sampleTopo(), caps, sampleSteps(), live("ue1", "s1", "core1=amf1"))

	out, _ := Emit(script, quiet())
	for _, fragment := range []string{"202", "Generated on", "date"} {
		assert.False(t, strings.Contains(string(out), fragment), fragment)
	}
}

func TestRequirementString(t *testing.T) {
	assert.Equal(t, "none", Requirement{}.String())
	assert.Equal(t, "containers", Requirement{Containers: true}.String())
	assert.Equal(t, "wireless", Requirement{Wireless: true}.String())
	assert.Equal(t, "containers+wireless", Requirement{Containers: true, Wireless: true}.String())
}
