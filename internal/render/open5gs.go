package render

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/MELON-27AF/Project-5g/internal/alloc"
)

// CoreDefaults is the default configuration layer shared by every core
// network function. Instance config overrides any of these.
func CoreDefaults() map[string]any {
	return map[string]any{
		"log_level": "info",
		"db_uri":    "mongodb://mongodb/open5gs",
		"mcc":       "999",
		"mnc":       "70",
		"tac":       1,
		"sst":       1,
		"sd":        "0xffffff",
		"dnn":       "internet",
	}
}

type loggerSection struct {
	Level string `yaml:"level"`
}

// Endpoint is one listen or peer address inside a service section.
type Endpoint struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port,omitempty"`
}

type sbiClient struct {
	NRF []Endpoint `yaml:"nrf,omitempty"`
	SCP []Endpoint `yaml:"scp,omitempty"`
}

type sbiSection struct {
	Server []Endpoint `yaml:"server,omitempty"`
	Client *sbiClient `yaml:"client,omitempty"`
}

type pfcpSection struct {
	Server []Endpoint `yaml:"server,omitempty"`
	Client []Endpoint `yaml:"client,omitempty"`
}

type gtpuSection struct {
	Server []Endpoint `yaml:"server,omitempty"`
}

type ngapSection struct {
	Server []Endpoint `yaml:"server,omitempty"`
}

type plmnID struct {
	MCC string `yaml:"mcc"`
	MNC string `yaml:"mnc"`
}

type guamiEntry struct {
	PLMNID plmnID `yaml:"plmn_id"`
	AMFID  amfID  `yaml:"amf_id"`
}

type amfID struct {
	Region int `yaml:"region"`
	Set    int `yaml:"set"`
}

type taiEntry struct {
	PLMNID plmnID `yaml:"plmn_id"`
	TAC    int    `yaml:"tac"`
}

type snssai struct {
	SST int    `yaml:"sst"`
	SD  string `yaml:"sd,omitempty"`
}

type plmnSupport struct {
	PLMNID plmnID   `yaml:"plmn_id"`
	SNSSAI []snssai `yaml:"s_nssai"`
}

// SessionEntry is one user-plane address block in a session management
// or user-plane function config.
type SessionEntry struct {
	Subnet  string `yaml:"subnet"`
	Gateway string `yaml:"gateway"`
	DNN     string `yaml:"dnn"`
}

type serviceSection struct {
	SBI     *sbiSection    `yaml:"sbi,omitempty"`
	PFCP    *pfcpSection   `yaml:"pfcp,omitempty"`
	GTPU    *gtpuSection   `yaml:"gtpu,omitempty"`
	NGAP    *ngapSection   `yaml:"ngap,omitempty"`
	GUAMI   []guamiEntry   `yaml:"guami,omitempty"`
	TAI     []taiEntry     `yaml:"tai,omitempty"`
	PLMN    []plmnSupport  `yaml:"plmn_support,omitempty"`
	Session []SessionEntry `yaml:"session,omitempty"`
	DNS     []string       `yaml:"dns,omitempty"`
}

type coreDoc struct {
	Logger loggerSection `yaml:"logger"`
	DB     string        `yaml:"db_uri,omitempty"`

	NRF  *serviceSection `yaml:"nrf,omitempty"`
	SCP  *serviceSection `yaml:"scp,omitempty"`
	AUSF *serviceSection `yaml:"ausf,omitempty"`
	UDM  *serviceSection `yaml:"udm,omitempty"`
	UDR  *serviceSection `yaml:"udr,omitempty"`
	PCF  *serviceSection `yaml:"pcf,omitempty"`
	BSF  *serviceSection `yaml:"bsf,omitempty"`
	NSSF *serviceSection `yaml:"nssf,omitempty"`
	AMF  *serviceSection `yaml:"amf,omitempty"`
	SMF  *serviceSection `yaml:"smf,omitempty"`
	UPF  *serviceSection `yaml:"upf,omitempty"`
}

func (d *coreDoc) attach(fn string, s *serviceSection) error {
	switch fn {
	case "nrf":
		d.NRF = s
	case "scp":
		d.SCP = s
	case "ausf":
		d.AUSF = s
	case "udm":
		d.UDM = s
	case "udr":
		d.UDR = s
	case "pcf":
		d.PCF = s
	case "bsf":
		d.BSF = s
	case "nssf":
		d.NSSF = s
	case "amf":
		d.AMF = s
	case "smf":
		d.SMF = s
	case "upf":
		d.UPF = s
	default:
		return fmt.Errorf("unknown core function %q", fn)
	}
	return nil
}

func usesDatabase(fn string) bool {
	switch fn {
	case "udr", "pcf":
		return true
	}
	return false
}

// Open5GS renders the configuration file for one core network function
// instance. The artifact name follows the daemon naming convention, e.g.
// amf1 running the amf function yields config/amf1.yaml.
func Open5GS(rec *alloc.Record, res *Resolver) (Artifact, error) {
	sec := &serviceSection{}
	fn := rec.Function

	if port, ok := rec.Ports[alloc.IfaceSBI]; ok {
		sec.SBI = &sbiSection{
			Server: []Endpoint{{Address: "0.0.0.0", Port: port}},
		}
		if fn != "nrf" {
			sec.SBI.Client = &sbiClient{
				NRF: []Endpoint{{Address: res.Str("nrf_host"), Port: res.Int("nrf_port")}},
			}
		}
	}
	if port, ok := rec.Ports[alloc.IfacePFCP]; ok {
		sec.PFCP = &pfcpSection{
			Server: []Endpoint{{Address: "0.0.0.0", Port: port}},
		}
		for _, peer := range rec.DataPlaneClients {
			sec.PFCP.Client = append(sec.PFCP.Client, Endpoint{Address: peer, Port: alloc.WellKnownPort[alloc.IfacePFCP]})
		}
	}
	if port, ok := rec.Ports[alloc.IfaceGTPU]; ok {
		sec.GTPU = &gtpuSection{
			Server: []Endpoint{{Address: "0.0.0.0", Port: port}},
		}
	}
	if port, ok := rec.Ports[alloc.IfaceNGAP]; ok {
		sec.NGAP = &ngapSection{
			Server: []Endpoint{{Address: "0.0.0.0", Port: port}},
		}
	}

	plmn := plmnID{MCC: res.Str("mcc"), MNC: res.Str("mnc")}
	slice := snssai{SST: res.Int("sst"), SD: res.Str("sd")}

	switch fn {
	case "amf":
		sec.GUAMI = []guamiEntry{{PLMNID: plmn, AMFID: amfID{Region: 2, Set: 1}}}
		sec.TAI = []taiEntry{{PLMNID: plmn, TAC: res.Int("tac")}}
		sec.PLMN = []plmnSupport{{PLMNID: plmn, SNSSAI: []snssai{slice}}}
	case "nssf":
		sec.PLMN = []plmnSupport{{PLMNID: plmn, SNSSAI: []snssai{slice}}}
	case "smf":
		sec.DNS = []string{"8.8.8.8", "8.8.4.4"}
	}

	for _, s := range rec.Sessions {
		sec.Session = append(sec.Session, SessionEntry{
			Subnet:  s.Subnet.String(),
			Gateway: s.Gateway.String(),
			DNN:     s.DNN,
		})
	}

	doc := coreDoc{Logger: loggerSection{Level: res.Str("log_level")}}
	if usesDatabase(fn) {
		doc.DB = res.Str("db_uri")
	}
	if err := doc.attach(fn, sec); err != nil {
		return Artifact{}, err
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
