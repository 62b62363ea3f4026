package emulator

import (
	"fmt"
	"net"

	ns "github.com/containernetworking/plugins/pkg/ns"
	"github.com/vishvananda/netlink"
)

const (
	vethInsideSuffix = "-eth0"
	vethHostSuffix   = "-ovs"
)

// plumbVeth creates a veth pair for a container, moves the inner end into
// the container's network namespace, assigns its address there and leaves
// the host end ready to be plugged into a bridge. Returns the host-side
// interface name.
func plumbVeth(hostname, netnsPath, cidr string) (string, error) {
	inside := hostname + vethInsideSuffix
	host := hostname + vethHostSuffix

	attrs := netlink.NewLinkAttrs()
	attrs.Name = host
	attrs.MTU = 1500
	attrs.Flags = net.FlagUp

	veth := &netlink.Veth{LinkAttrs: attrs, PeerName: inside}
	if err := netlink.LinkAdd(veth); err != nil {
		return "", fmt.Errorf("create veth pair for %s: %w", hostname, err)
	}

	insideLink, err := netlink.LinkByName(inside)
	if err != nil {
		return "", fmt.Errorf("find %s: %w", inside, err)
	}
	hostLink, err := netlink.LinkByName(host)
	if err != nil {
		return "", fmt.Errorf("find %s: %w", host, err)
	}
	if err := netlink.LinkSetUp(hostLink); err != nil {
		return "", fmt.Errorf("bring up %s: %w", host, err)
	}

	nsHandle, err := ns.GetNS(netnsPath)
	if err != nil {
		return "", fmt.Errorf("open namespace %s: %w", netnsPath, err)
	}
	defer nsHandle.Close()

	if err := netlink.LinkSetNsFd(insideLink, int(nsHandle.Fd())); err != nil {
		return "", fmt.Errorf("move %s into namespace: %w", inside, err)
	}

	if err := nsHandle.Do(func(_ ns.NetNS) error {
		link, err := netlink.LinkByName(inside)
		if err != nil {
			return fmt.Errorf("find %s in namespace: %w", inside, err)
		}
		if cidr != "" {
			ip, ipNet, err := net.ParseCIDR(cidr)
			if err != nil {
				return fmt.Errorf("parse address %q: %w", cidr, err)
			}
			addr := &netlink.Addr{IPNet: &net.IPNet{IP: ip, Mask: ipNet.Mask}}
			if err := netlink.AddrAdd(link, addr); err != nil {
				return fmt.Errorf("assign %s to %s: %w", cidr, inside, err)
			}
		}
		return netlink.LinkSetUp(link)
	}); err != nil {
		return "", err
	}

	return host, nil
}
