package render

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/MELON-27AF/Project-5g/internal/alloc"
)

// RadioDefaults is the default configuration layer for radio nodes.
func RadioDefaults() map[string]any {
	return map[string]any{
		"mcc":       "999",
		"mnc":       "70",
		"tac":       1,
		"sst":       1,
		"sd":        "0xffffff",
		"nci":       "0x000000010",
		"id_length": 32,
	}
}

// TerminalDefaults is the default configuration layer for terminals. The
// subscriber key material matches the emulator's provisioned test SIM.
func TerminalDefaults() map[string]any {
	return map[string]any{
		"mcc":      "999",
		"mnc":      "70",
		"sst":      1,
		"sd":       "0xffffff",
		"supi":     "imsi-999700000000001",
		"key":      "465B5CE8B199B49FAA5F0A2EE238A6BC",
		"op":       "E8ED289DEBA952E4283B54E88E6183CA",
		"op_type":  "OPC",
		"amf_code": "8000",
		"imei":     "356938035643803",
		"imei_sv":  "4370816125816151",
		"dnn":      "internet",
	}
}

type amfConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

type sliceEntry struct {
	SST int    `yaml:"sst"`
	SD  string `yaml:"sd,omitempty"`
}

type gnbDoc struct {
	MCC      string `yaml:"mcc"`
	MNC      string `yaml:"mnc"`
	NCI      string `yaml:"nci"`
	IDLength int    `yaml:"idLength"`
	TAC      int    `yaml:"tac"`

	LinkIP string `yaml:"linkIp"`
	NGAPIP string `yaml:"ngapIp"`
	GTPIP  string `yaml:"gtpIp"`

	AMFConfigs []amfConfig  `yaml:"amfConfigs"`
	Slices     []sliceEntry `yaml:"slices"`

	IgnoreStreamIDs bool `yaml:"ignoreStreamIds"`
}

type ueSession struct {
	Type  string     `yaml:"type"`
	APN   string     `yaml:"apn"`
	Slice sliceEntry `yaml:"slice"`
}

type algoToggle struct {
	IA1 bool `yaml:"IA1,omitempty"`
	IA2 bool `yaml:"IA2,omitempty"`
	IA3 bool `yaml:"IA3,omitempty"`
	EA1 bool `yaml:"EA1,omitempty"`
	EA2 bool `yaml:"EA2,omitempty"`
	EA3 bool `yaml:"EA3,omitempty"`
}

type ueDoc struct {
	SUPI string `yaml:"supi"`
	MCC  string `yaml:"mcc"`
	MNC  string `yaml:"mnc"`

	Key     string `yaml:"key"`
	OP      string `yaml:"op"`
	OPType  string `yaml:"opType"`
	AMFCode string `yaml:"amf"`
	IMEI    string `yaml:"imei"`
	IMEISV  string `yaml:"imeiSv"`

	GNBSearchList []string `yaml:"gnbSearchList"`

	Sessions        []ueSession  `yaml:"sessions"`
	ConfiguredNSSAI []sliceEntry `yaml:"configured-nssai"`
	DefaultNSSAI    []sliceEntry `yaml:"default-nssai"`

	Integrity algoToggle `yaml:"integrity"`
	Ciphering algoToggle `yaml:"ciphering"`
}

// RadioConfig renders the UERANSIM gNB configuration for a radio node.
// The mobility function address comes from the wiring pass.
func RadioConfig(rec *alloc.Record, res *Resolver) (Artifact, error) {
	doc := gnbDoc{
		MCC:      res.Str("mcc"),
		MNC:      res.Str("mnc"),
		NCI:      res.Str("nci"),
		IDLength: res.Int("id_length"),
		TAC:      res.Int("tac"),

		LinkIP: rec.FQDN(),
		NGAPIP: rec.FQDN(),
		GTPIP:  rec.FQDN(),

		Slices:          []sliceEntry{{SST: res.Int("sst"), SD: res.Str("sd")}},
		IgnoreStreamIDs: true,
	}
	if rec.AMFAddress != "" {
		port := rec.AMFPort
		if port == 0 {
			port = alloc.WellKnownPort[alloc.IfaceNGAP]
		}
		doc.AMFConfigs = []amfConfig{{Address: rec.AMFAddress, Port: port}}
	}
	if err := res.Err(rec.Instance); err != nil {
		return Artifact{}, err
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return Artifact{}, fmt.Errorf("marshal %s config: %w", rec.Instance, err)
	}
	return Artifact{Name: "config/" + rec.Instance + ".yaml", Data: data}, nil
}

// TerminalConfig renders the UERANSIM UE configuration for a terminal.
// Radio node addresses come from the wiring pass.
func TerminalConfig(rec *alloc.Record, res *Resolver) (Artifact, error) {
	slice := sliceEntry{SST: res.Int("sst"), SD: res.Str("sd")}
	doc := ueDoc{
		SUPI:    res.Str("supi"),
		MCC:     res.Str("mcc"),
		MNC:     res.Str("mnc"),
		Key:     res.Str("key"),
		OP:      res.Str("op"),
		OPType:  res.Str("op_type"),
		AMFCode: res.Str("amf_code"),
		IMEI:    res.Str("imei"),
		IMEISV:  res.Str("imei_sv"),

		GNBSearchList: rec.GNBSearch,

		Sessions: []ueSession{{
			Type:  "IPv4",
			APN:   res.Str("dnn"),
			Slice: slice,
		}},
		ConfiguredNSSAI: []sliceEntry{slice},
		DefaultNSSAI:    []sliceEntry{slice},

		Integrity: algoToggle{IA1: true, IA2: true, IA3: true},
		Ciphering: algoToggle{EA1: true, EA2: true, EA3: true},
	}
	if err := res.Err(rec.Instance); err != nil {
		return Artifact{}, err
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return Artifact{}, fmt.Errorf("marshal %s config: %w", rec.Instance, err)
	}
	return Artifact{Name: "config/" + rec.Instance + ".yaml", Data: data}, nil
}
