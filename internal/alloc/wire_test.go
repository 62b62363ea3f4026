package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MELON-27AF/Project-5g/internal/topology"
)

func addRecord(t *testing.T, s *Set, node, instance, fn string) *Record {
	t.Helper()
	r := &Record{Node: node, Instance: instance, Function: fn, Hostname: Hostname(instance)}
	require.NoError(t, s.Add(r))
	return r
}

func TestWireConnectsControlAndUserPlane(t *testing.T) {
	s := NewSet()
	addRecord(t, s, "core1", "nrf1", "nrf")
	amf := addRecord(t, s, "core1", "amf1", "amf")
	smf := addRecord(t, s, "core1", "smf1", "smf")
	upf1 := addRecord(t, s, "core1", "upf1", "upf")
	upf2 := addRecord(t, s, "core1", "upf2", "upf")
	gnb := addRecord(t, s, "gnb1", "gnb1", "gnb")
	ue := addRecord(t, s, "ue1", "ue1", "ue")

	warnings := Wire(s, &topology.Topology{})
	assert.Empty(t, warnings)

	assert.Equal(t, []string{upf1.FQDN(), upf2.FQDN()}, smf.DataPlaneClients)
	assert.Contains(t, smf.DependsOn, "upf1")
	assert.Contains(t, smf.DependsOn, "upf2")
	assert.Contains(t, smf.DependsOn, "nrf1")

	assert.Equal(t, amf.FQDN(), gnb.AMFAddress)
	assert.Contains(t, gnb.DependsOn, "amf1")

	assert.Equal(t, []string{gnb.FQDN()}, ue.GNBSearch)
}

func TestWireWarnsOnMissingCounterparts(t *testing.T) {
	s := NewSet()
	addRecord(t, s, "core1", "smf1", "smf")
	addRecord(t, s, "gnb1", "gnb1", "gnb")
	addRecord(t, s, "ue1", "ue1", "ue")

	warnings := Wire(s, &topology.Topology{})
	require.Len(t, warnings, 3)

	entities := make(map[string]bool)
	for _, w := range warnings {
		entities[w.Entity] = true
	}
	assert.True(t, entities["smf1"])
	assert.True(t, entities["gnb1"])
	assert.True(t, entities["ue1"])
}

func TestWireAddsSwitchDependenciesFromLinks(t *testing.T) {
	s := NewSet()
	sw := addRecord(t, s, "s1", "s1", "switch")
	amf := addRecord(t, s, "core1", "amf1", "amf")

	topo := &topology.Topology{
		Links: []topology.Link{{From: "core1", To: "s1"}},
	}
	Wire(s, topo)

	assert.Contains(t, amf.DependsOn, "s1")
	assert.Empty(t, sw.DependsOn)
}

func TestWireCablesEveryInstanceOfAMultiProfileNode(t *testing.T) {
	s := NewSet()
	addRecord(t, s, "s1", "s1", "switch")
	nrf := addRecord(t, s, "core1", "nrf1", "nrf")
	amf := addRecord(t, s, "core1", "amf1", "amf")
	upf := addRecord(t, s, "core1", "upf1", "upf")

	topo := &topology.Topology{
		Links: []topology.Link{{From: "core1", To: "s1"}},
	}
	Wire(s, topo)

	for _, r := range []*Record{nrf, amf, upf} {
		assert.Contains(t, r.DependsOn, "s1", r.Instance)
	}
}

func TestWireCarriesTheMobilityPortToRadioNodes(t *testing.T) {
	s := NewSet()
	amf := addRecord(t, s, "core1", "amf1", "amf")
	amf.Ports = map[Interface]int{IfaceNGAP: 39000}
	gnb := addRecord(t, s, "gnb1", "gnb1", "gnb")

	Wire(s, &topology.Topology{})

	assert.Equal(t, amf.FQDN(), gnb.AMFAddress)
	assert.Equal(t, 39000, gnb.AMFPort)
}

func TestFQDNUsesEmulationPrefix(t *testing.T) {
	r := &Record{Hostname: "upf1"}
	assert.Equal(t, "mn.upf1", r.FQDN())
}
