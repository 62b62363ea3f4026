package emulator

import (
	"fmt"

	"github.com/digitalocean/go-openvswitch/ovs"
	"github.com/vishvananda/netlink"
)

// bridgeManager wraps the virtual switch layer: one default bridge for
// unswitched nodes plus one bridge per switch instance.
type bridgeManager struct {
	cli     *ovs.Client
	def     string
	bridges map[string]string // instance -> bridge name
}

func newBridgeManager() *bridgeManager {
	return &bridgeManager{
		cli:     ovs.New(),
		def:     "nf5g-br0",
		bridges: make(map[string]string),
	}
}

func (bm *bridgeManager) init() error {
	return bm.cli.VSwitch.AddBridge(bm.def)
}

// addSwitch creates a dedicated bridge for a switch instance.
func (bm *bridgeManager) addSwitch(instance, hostname string) error {
	name := "nf-" + hostname
	if err := bm.cli.VSwitch.AddBridge(name); err != nil {
		return fmt.Errorf("create bridge for %s: %w", instance, err)
	}
	bm.bridges[instance] = name
	return nil
}

// bridgeFor returns the bridge a node attaches to: its switch's bridge
// when it is cabled into one, the default bridge otherwise.
func (bm *bridgeManager) bridgeFor(switchInstance string) string {
	if b, ok := bm.bridges[switchInstance]; ok {
		return b
	}
	return bm.def
}

// attach plugs the host side of a veth pair into a bridge.
func (bm *bridgeManager) attach(bridge, veth string) error {
	link, err := netlink.LinkByName(veth)
	if err != nil {
		return fmt.Errorf("find veth %s: %w", veth, err)
	}
	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("bring up veth %s: %w", veth, err)
	}
	if err := bm.cli.VSwitch.AddPort(bridge, veth); err != nil {
		return fmt.Errorf("add %s to bridge %s: %w", veth, bridge, err)
	}
	return nil
}

func (bm *bridgeManager) destroy() []error {
	var errs []error
	for _, b := range bm.bridges {
		if err := bm.cli.VSwitch.DeleteBridge(b); err != nil {
			errs = append(errs, err)
		}
	}
	if err := bm.cli.VSwitch.DeleteBridge(bm.def); err != nil {
		errs = append(errs, err)
	}
	return errs
}
