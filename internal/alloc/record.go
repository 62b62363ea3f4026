package alloc

import (
	"fmt"
	"net/netip"
	"strings"
)

// Interface names a protocol surface that needs its own port allocation.
type Interface string

const (
	IfaceSBI      Interface = "sbi"      // service-based interface
	IfacePFCP     Interface = "pfcp"     // packet forwarding control
	IfaceGTPU     Interface = "gtpu"     // user-plane tunneling
	IfaceNGAP     Interface = "ngap"     // radio <-> mobility signaling
	IfaceOpenFlow Interface = "openflow" // controller channel
)

// WellKnownPort holds the default port per protocol interface, used unless
// a node property overrides it.
var WellKnownPort = map[Interface]int{
	IfaceSBI:      7777,
	IfacePFCP:     8805,
	IfaceGTPU:     2152,
	IfaceNGAP:     38412,
	IfaceOpenFlow: 6653,
}

// SessionSubnet is one allocated user-plane address block.
type SessionSubnet struct {
	DNN     string
	Subnet  netip.Prefix
	Gateway netip.Addr
}

// Record is the resolved resource allocation for one deployable instance.
// Records are transient: rebuilt from scratch on every compilation run.
type Record struct {
	Node     string
	Instance string
	Function string
	Hostname string
	Iface    string       // network interface name inside the node
	Mgmt     netip.Prefix // management address on the emulation bridge

	Ports    map[Interface]int
	Sessions []SessionSubnet

	// DependsOn lists instance names this instance structurally depends
	// on; the deployment generator provisions dependencies first.
	DependsOn []string

	// Cross-references computed by Wire.
	DataPlaneClients []string // session management: data-plane hostnames
	AMFAddress       string   // radio node: mobility function address
	AMFPort          int      // radio node: mobility function NGAP port
	GNBSearch        []string // terminal: radio node addresses
}

// FQDN returns the name the instance is reachable under on the emulation
// network ("mn." prefix per the containernet naming convention).
func (r *Record) FQDN() string {
	return "mn." + r.Hostname
}

func (r *Record) dependOn(name string) {
	for _, d := range r.DependsOn {
		if d == name {
			return
		}
	}
	r.DependsOn = append(r.DependsOn, name)
}

// Set is the ordered collection of allocation records for one run.
type Set struct {
	Records []*Record
	byName  map[string]*Record
}

// NewSet returns an empty record set.
func NewSet() *Set {
	return &Set{byName: make(map[string]*Record)}
}

// Add appends a record, rejecting duplicate instance names or hostnames.
func (s *Set) Add(r *Record) error {
	if _, exists := s.byName[r.Instance]; exists {
		return &ConflictError{Entity: r.Instance, Global: true,
			Reason: "duplicate instance name " + r.Instance}
	}
	for _, other := range s.Records {
		if other.Hostname == r.Hostname {
			return &ConflictError{Entity: r.Instance, Global: true,
				Reason: fmt.Sprintf("hostname %s already taken by %s", r.Hostname, other.Instance)}
		}
	}
	s.Records = append(s.Records, r)
	s.byName[r.Instance] = r
	return nil
}

// Get returns the record for an instance name, or nil.
func (s *Set) Get(instance string) *Record {
	return s.byName[instance]
}

// ByFunction returns records of the given function in declaration order.
func (s *Set) ByFunction(fn string) []*Record {
	var out []*Record
	for _, r := range s.Records {
		if r.Function == fn {
			out = append(out, r)
		}
	}
	return out
}

// Hostname derives a stable hostname from a display name: lowercase
// alphanumerics, digit-safe prefix, at most 10 characters so derived
// interface names stay within the kernel's 15-character limit.
func Hostname(name string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(name) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	clean := b.String()
	if clean == "" {
		return "node"
	}
	if clean[0] >= '0' && clean[0] <= '9' {
		clean = "n" + clean
	}
	if len(clean) > 10 {
		clean = clean[:10]
	}
	return clean
}
