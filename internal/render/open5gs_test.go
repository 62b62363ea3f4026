package render

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MELON-27AF/Project-5g/internal/alloc"
)

func upfRecord() *alloc.Record {
	return &alloc.Record{
		Node:     "core1",
		Instance: "upf1",
		Function: "upf",
		Hostname: "upf1",
		Ports: map[alloc.Interface]int{
			alloc.IfacePFCP: 8805,
			alloc.IfaceGTPU: 2152,
		},
		Sessions: []alloc.SessionSubnet{{
			DNN:     "internet",
			Subnet:  netip.MustParsePrefix("10.45.0.0/16"),
			Gateway: netip.MustParseAddr("10.45.0.1"),
		}},
	}
}

func TestOpen5GSRenderIsDeterministic(t *testing.T) {
	first, err := Open5GS(upfRecord(), NewResolver(nil, nil, CoreDefaults()))
	require.NoError(t, err)
	second, err := Open5GS(upfRecord(), NewResolver(nil, nil, CoreDefaults()))
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, "config/upf1.yaml", first.Name)
}

func TestOpen5GSCarriesSessionBlocks(t *testing.T) {
	a, err := Open5GS(upfRecord(), NewResolver(nil, nil, CoreDefaults()))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(a.Data, &doc))

	upf, ok := doc["upf"].(map[string]any)
	require.True(t, ok)
	sessions, ok := upf["session"].([]any)
	require.True(t, ok)
	require.Len(t, sessions, 1)

	entry := sessions[0].(map[string]any)
	assert.Equal(t, "10.45.0.0/16", entry["subnet"])
	assert.Equal(t, "10.45.0.1", entry["gateway"])
	assert.Equal(t, "internet", entry["dnn"])
}

func TestOpen5GSOverrideWinsOverDefault(t *testing.T) {
	rec := &alloc.Record{
		Instance: "amf1",
		Function: "amf",
		Hostname: "amf1",
		Ports: map[alloc.Interface]int{
			alloc.IfaceSBI:  7777,
			alloc.IfaceNGAP: 38412,
		},
	}
	override := map[string]any{"log_level": "debug", "mcc": "001", "mnc": "01"}
	computed := map[string]any{"nrf_host": "mn.nrf1", "nrf_port": 7777}

	a, err := Open5GS(rec, NewResolver(override, computed, CoreDefaults()))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(a.Data, &doc))

	logger := doc["logger"].(map[string]any)
	assert.Equal(t, "debug", logger["level"])

	amf := doc["amf"].(map[string]any)
	guami := amf["guami"].([]any)[0].(map[string]any)
	plmn := guami["plmn_id"].(map[string]any)
	assert.Equal(t, "001", plmn["mcc"])
	assert.Equal(t, "01", plmn["mnc"])
}

func TestOpen5GSReportsUnresolvedKeys(t *testing.T) {
	rec := &alloc.Record{
		Instance: "smf1",
		Function: "smf",
		Hostname: "smf1",
		Ports:    map[alloc.Interface]int{alloc.IfaceSBI: 7777},
	}
	// No computed layer: nrf_host and nrf_port cannot resolve.
	_, err := Open5GS(rec, NewResolver(nil, nil, CoreDefaults()))
	require.Error(t, err)

	var unresolved *Unresolved
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "smf1", unresolved.Entity)
	assert.Contains(t, unresolved.Keys, "nrf_host")
	assert.Contains(t, unresolved.Keys, "nrf_port")
}

func TestRadioConfigPointsAtMobilityFunction(t *testing.T) {
	rec := &alloc.Record{
		Instance:   "gnb1",
		Function:   "gnb",
		Hostname:   "gnb1",
		AMFAddress: "mn.amf1",
		Ports:      map[alloc.Interface]int{alloc.IfaceNGAP: 38412},
	}
	a, err := RadioConfig(rec, NewResolver(nil, nil, RadioDefaults()))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(a.Data, &doc))

	amfConfigs := doc["amfConfigs"].([]any)
	require.Len(t, amfConfigs, 1)
	assert.Equal(t, "mn.amf1", amfConfigs[0].(map[string]any)["address"])
	assert.Equal(t, 38412, amfConfigs[0].(map[string]any)["port"])
	assert.Equal(t, "mn.gnb1", doc["linkIp"])
}

func TestRadioConfigAdvertisesOverriddenMobilityPort(t *testing.T) {
	rec := &alloc.Record{
		Instance:   "gnb1",
		Function:   "gnb",
		Hostname:   "gnb1",
		AMFAddress: "mn.amf1",
		AMFPort:    39000,
	}
	a, err := RadioConfig(rec, NewResolver(nil, nil, RadioDefaults()))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(a.Data, &doc))

	amfConfigs := doc["amfConfigs"].([]any)
	require.Len(t, amfConfigs, 1)
	assert.Equal(t, 39000, amfConfigs[0].(map[string]any)["port"])
}

func TestTerminalConfigSearchesRadioNodes(t *testing.T) {
	rec := &alloc.Record{
		Instance:  "ue1",
		Function:  "ue",
		Hostname:  "ue1",
		GNBSearch: []string{"mn.gnb1", "mn.gnb2"},
	}
	a, err := TerminalConfig(rec, NewResolver(nil, nil, TerminalDefaults()))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(a.Data, &doc))

	search := doc["gnbSearchList"].([]any)
	assert.Equal(t, []any{"mn.gnb1", "mn.gnb2"}, search)
	assert.Equal(t, "imsi-999700000000001", doc["supi"])

	sessions := doc["sessions"].([]any)
	require.Len(t, sessions, 1)
	assert.Equal(t, "internet", sessions[0].(map[string]any)["apn"])
}
