package alloc

import (
	"fmt"
	"net/netip"
)

// ConflictError reports a resource collision found during allocation.
// Global conflicts (duplicate hostnames, overlapping subnets) invalidate
// the whole run; local ones only invalidate the claiming instance.
type ConflictError struct {
	Entity string
	Global bool
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource conflict on %s: %s", e.Entity, e.Reason)
}

// mgmtBase is reserved for the emulation bridge; session blocks may not
// overlap it.
var mgmtBase = netip.MustParsePrefix("192.168.10.0/24")

// Pool hands out collision-free subnets, management addresses and ports
// for a single compilation run. Not safe for concurrent use; the compiler
// allocates sequentially in declaration order.
type Pool struct {
	subnets   []netip.Prefix
	nextOctet int // second octet of the next automatic session block
	mgmtNext  int // final octet of the next management address
	ports     map[string]map[int]Interface // hostname -> port -> owner
}

// NewPool returns a pool with no allocations.
func NewPool() *Pool {
	return &Pool{
		nextOctet: 45,
		mgmtNext:  1,
		ports:     make(map[string]map[int]Interface),
	}
}

// NextSession allocates the next automatic user-plane block. Blocks advance
// through the second octet starting at 10.45.0.0/16 so every data-plane
// function gets a disjoint range.
func (p *Pool) NextSession(entity, dnn string) (SessionSubnet, error) {
	for p.nextOctet < 256 {
		pfx := netip.PrefixFrom(netip.AddrFrom4([4]byte{10, byte(p.nextOctet), 0, 0}), 16)
		p.nextOctet++
		if !p.overlaps(pfx) {
			p.subnets = append(p.subnets, pfx)
			return SessionSubnet{DNN: dnn, Subnet: pfx, Gateway: gatewayOf(pfx)}, nil
		}
	}
	return SessionSubnet{}, &ConflictError{Entity: entity, Global: true,
		Reason: "session subnet space exhausted"}
}

// Claim reserves an explicitly requested subnet. Overlap with any prior
// claim, automatic or manual, is a global conflict.
func (p *Pool) Claim(entity, dnn, cidr string) (SessionSubnet, error) {
	pfx, err := netip.ParsePrefix(cidr)
	if err != nil {
		return SessionSubnet{}, &ConflictError{Entity: entity,
			Reason: fmt.Sprintf("invalid subnet %q: %v", cidr, err)}
	}
	pfx = pfx.Masked()
	if p.overlaps(pfx) {
		return SessionSubnet{}, &ConflictError{Entity: entity, Global: true,
			Reason: fmt.Sprintf("subnet %s overlaps an earlier allocation", pfx)}
	}
	p.subnets = append(p.subnets, pfx)
	return SessionSubnet{DNN: dnn, Subnet: pfx, Gateway: gatewayOf(pfx)}, nil
}

// Mgmt allocates the next management address on the emulation bridge.
func (p *Pool) Mgmt(entity string) (netip.Prefix, error) {
	if p.mgmtNext > 254 {
		return netip.Prefix{}, &ConflictError{Entity: entity, Global: true,
			Reason: "management address space exhausted"}
	}
	addr := netip.AddrFrom4([4]byte{192, 168, 10, byte(p.mgmtNext)})
	p.mgmtNext++
	return netip.PrefixFrom(addr, mgmtBase.Bits()), nil
}

// AssignPort records a port binding for a host. A zero override takes the
// protocol's well-known default. Two interfaces claiming the same port on
// the same host is a local conflict.
func (p *Pool) AssignPort(host string, iface Interface, override int) (int, error) {
	port := override
	if port == 0 {
		port = WellKnownPort[iface]
	}
	if port <= 0 || port > 65535 {
		return 0, &ConflictError{Entity: host,
			Reason: fmt.Sprintf("port %d for %s out of range", port, iface)}
	}
	taken, ok := p.ports[host]
	if !ok {
		taken = make(map[int]Interface)
		p.ports[host] = taken
	}
	if owner, busy := taken[port]; busy {
		return 0, &ConflictError{Entity: host,
			Reason: fmt.Sprintf("port %d requested for %s already bound to %s", port, iface, owner)}
	}
	taken[port] = iface
	return port, nil
}

// Release drops all port bindings of a host, used when an instance is
// discarded after a downstream allocation failure.
func (p *Pool) Release(host string) {
	delete(p.ports, host)
}

func (p *Pool) overlaps(pfx netip.Prefix) bool {
	for _, existing := range p.subnets {
		if existing.Overlaps(pfx) {
			return true
		}
	}
	return mgmtBase.Overlaps(pfx)
}

func gatewayOf(pfx netip.Prefix) netip.Addr {
	return pfx.Addr().Next()
}
