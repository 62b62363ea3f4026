package capability

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/digitalocean/go-openvswitch/ovs"
	"github.com/docker/docker/client"
	"github.com/vishvananda/netlink"
)

const probeTimeout = 5 * time.Second

// wireless subsystem sysfs root; present when mac80211 (or hwsim) is loaded
const ieee80211Path = "/sys/class/ieee80211"

// systemProber probes the real host environment.
type systemProber struct{}

// SystemProber returns the prober used outside of tests.
func SystemProber() Prober {
	return systemProber{}
}

func (systemProber) ProbeContainerRuntime(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("container daemon client: %w", err)
	}
	defer cli.Close()
	if _, err := cli.Ping(ctx); err != nil {
		return fmt.Errorf("container daemon unreachable: %w", err)
	}

	if _, err := ovs.New().VSwitch.ListBridges(); err != nil {
		return fmt.Errorf("open vswitch unavailable: %w", err)
	}
	return nil
}

func (systemProber) ProbeWirelessStack(ctx context.Context) error {
	if _, err := netlink.LinkList(); err != nil {
		return fmt.Errorf("link management unavailable: %w", err)
	}
	if _, err := os.Stat(ieee80211Path); err != nil {
		return fmt.Errorf("no wireless subsystem: %w", err)
	}
	return nil
}

func (systemProber) WirelessExtensions(ctx context.Context) bool {
	_, err := os.Stat(ieee80211Path)
	return err == nil
}
