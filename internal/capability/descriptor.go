package capability

// Variant names one of the mutually exclusive emulation backends, in
// priority order: containernet, mininet-wifi, mininet.
type Variant string

const (
	Containernet Variant = "containernet" // container-native
	MininetWifi  Variant = "mininet-wifi" // wireless-native
	Mininet      Variant = "mininet"      // baseline, always available
)

// Alias is a backend-agnostic node role. Later pipeline stages ask the
// Descriptor which concrete backend symbol realizes a role, instead of
// branching on the variant themselves.
type Alias string

const (
	AliasNet         Alias = "net"
	AliasCLI         Alias = "cli"
	AliasSwitch      Alias = "switch"
	AliasAccessPoint Alias = "access-point"
	AliasStation     Alias = "station"
	AliasContainer   Alias = "container"
)

// Descriptor is the committed capability record for this process. It is
// immutable once the resolver returns it.
type Descriptor struct {
	Variant    Variant
	Containers bool // container-backed nodes supported
	Wireless   bool // wireless operations supported

	aliases map[Alias]string
}

// Symbol resolves a role alias to the concrete symbol available under the
// committed backend.
func (d Descriptor) Symbol(a Alias) string {
	if s, ok := d.aliases[a]; ok {
		return s
	}
	return baselineAliases[a]
}

// Describe builds a descriptor for a known variant without probing, for
// render-only compilations and tests.
func Describe(v Variant, containers, wireless bool) Descriptor {
	return Descriptor{
		Variant:    v,
		Containers: containers,
		Wireless:   wireless,
		aliases:    buildAliases(v, wireless),
	}
}

var baselineAliases = map[Alias]string{
	AliasNet:         "Mininet",
	AliasCLI:         "CLI",
	AliasSwitch:      "OVSKernelSwitch",
	AliasAccessPoint: "OVSKernelSwitch",
	AliasStation:     "Host",
	AliasContainer:   "Host",
}

func buildAliases(v Variant, wireless bool) map[Alias]string {
	m := make(map[Alias]string, len(baselineAliases))
	for k, s := range baselineAliases {
		m[k] = s
	}
	switch v {
	case Containernet:
		m[AliasNet] = "Containernet"
		m[AliasContainer] = "Docker"
		if wireless {
			m[AliasAccessPoint] = "OVSKernelAP"
			m[AliasStation] = "Station"
		}
	case MininetWifi:
		m[AliasNet] = "Mininet_wifi"
		m[AliasAccessPoint] = "OVSKernelAP"
		m[AliasStation] = "Station"
	}
	return m
}
