package deploy

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MELON-27AF/Project-5g/internal/capability"
	"github.com/MELON-27AF/Project-5g/internal/result"
)

// Emit renders the deployment plan as an executable emulation script for
// the committed backend. Steps whose requirement the backend cannot
// satisfy become commented notices; every guard decision is returned so
// the compiler can log and persist it.
//
// The output is a pure function of the plan: no timestamps, no
// environment lookups, stable ordering throughout.
func Emit(s *Script, log *slog.Logger) ([]byte, []result.GuardEntry) {
	var (
		buf    bytes.Buffer
		guards []result.GuardEntry
	)
	caps := s.Backend

	buf.WriteString("#!/usr/bin/env python\n\n")
	fmt.Fprintf(&buf, "\"\"\"Emulation script for topology %q (%s backend).\"\"\"\n\n", s.Topology, caps.Variant)
	writeImports(&buf, caps)

	buf.WriteString("\ndef topology():\n")
	fmt.Fprintf(&buf, "    net = %s(controller=Controller, link=TCLink%s)\n",
		caps.Symbol(capability.AliasNet), netExtras(caps))

	var controllers, switches []string

	for _, st := range s.Steps {
		granted := st.Requires.SatisfiedBy(caps)
		if st.Requires != (Requirement{}) {
			g := result.GuardEntry{
				Step:     string(st.Kind),
				Entity:   entityOf(st),
				Requires: st.Requires.String(),
				Granted:  granted,
			}
			if !granted {
				g.Notice = fmt.Sprintf("requires %s, backend %s grants neither", st.Requires, caps.Variant)
				log.Warn("step skipped", "step", string(st.Kind), "entity", g.Entity, "requires", st.Requires.String())
			}
			guards = append(guards, g)
		}
		if !granted {
			fmt.Fprintf(&buf, "    # skipped %s %s: requires %s\n", st.Kind, entityOf(st), st.Requires)
			continue
		}

		switch st.Kind {
		case AddController:
			name := pyName(st.Instance)
			controllers = append(controllers, name)
			fmt.Fprintf(&buf, "    %s = net.addController('%s', controller=Controller, port=%d)\n",
				name, st.Instance, 6653)
		case AddSwitch:
			name := pyName(st.Instance)
			switches = append(switches, name)
			fmt.Fprintf(&buf, "    %s = net.addSwitch('%s', cls=%s)\n",
				name, st.Instance, caps.Symbol(capability.AliasSwitch))
		case AddAccessPoint:
			name := pyName(st.Instance)
			switches = append(switches, name)
			fmt.Fprintf(&buf, "    %s = net.addAccessPoint('%s', cls=%s, ssid='%s-ssid', mode='g', channel='1'%s)\n",
				name, st.Instance, caps.Symbol(capability.AliasAccessPoint), st.Instance, position(st))
		case AddContainer:
			emitContainer(&buf, caps, st)
		case AddHost:
			fmt.Fprintf(&buf, "    %s = net.addHost('%s'%s)\n",
				pyName(st.Instance), st.Instance, addrArg(st))
		case AddStation:
			fmt.Fprintf(&buf, "    %s = net.addStation('%s'%s%s)\n",
				pyName(st.Instance), st.Instance, addrArg(st), position(st))
		case AddLink:
			fmt.Fprintf(&buf, "    net.addLink(%s, %s%s)\n",
				pyName(st.Node), pyName(st.Peer), linkArgs(st))
		case Propagation:
			buf.WriteString("    net.setPropagationModel(model=\"logDistance\", exp=3)\n")
		case StartDaemon:
			// daemon commands run after net.build below
		case PlotTopology:
			buf.WriteString("    net.plotGraph(max_x=1000, max_y=1000)\n")
		}
	}

	buf.WriteString("\n    net.build()\n")
	for _, c := range controllers {
		fmt.Fprintf(&buf, "    %s.start()\n", c)
	}
	for _, sw := range switches {
		fmt.Fprintf(&buf, "    %s.start([%s])\n", sw, strings.Join(controllers, ", "))
	}

	for _, st := range s.Steps {
		if st.Kind != StartDaemon || !st.Requires.SatisfiedBy(caps) {
			continue
		}
		fmt.Fprintf(&buf, "    %s.cmd('%s &')\n", pyName(st.Instance), st.Command)
	}

	fmt.Fprintf(&buf, "\n    %s(net)\n", caps.Symbol(capability.AliasCLI))
	buf.WriteString("    net.stop()\n")
	buf.WriteString("\n\nif __name__ == '__main__':\n")
	buf.WriteString("    setLogLevel('info')\n")
	buf.WriteString("    topology()\n")

	return buf.Bytes(), guards
}

func writeImports(buf *bytes.Buffer, caps capability.Descriptor) {
	switch caps.Variant {
	case capability.Containernet:
		buf.WriteString("from mininet.net import Containernet\n")
		if caps.Wireless {
			buf.WriteString("from mn_wifi.node import OVSKernelAP, Station\n")
		}
		buf.WriteString("from mininet.node import Controller, OVSKernelSwitch, Docker\n")
	case capability.MininetWifi:
		buf.WriteString("from mn_wifi.net import Mininet_wifi\n")
		buf.WriteString("from mn_wifi.node import OVSKernelAP, Station\n")
		buf.WriteString("from mininet.node import Controller, OVSKernelSwitch\n")
		buf.WriteString("from mn_wifi.cli import CLI\n")
	default:
		buf.WriteString("from mininet.net import Mininet\n")
		buf.WriteString("from mininet.node import Controller, OVSKernelSwitch\n")
	}
	if caps.Variant != capability.MininetWifi {
		buf.WriteString("from mininet.cli import CLI\n")
	}
	buf.WriteString("from mininet.link import TCLink\n")
	buf.WriteString("from mininet.log import setLogLevel, info\n")
}

func netExtras(caps capability.Descriptor) string {
	if caps.Wireless {
		return ", accessPoint=" + caps.Symbol(capability.AliasAccessPoint)
	}
	return ""
}

func emitContainer(buf *bytes.Buffer, caps capability.Descriptor, st Step) {
	var args []string
	args = append(args, fmt.Sprintf("'%s'", st.Instance))
	args = append(args, fmt.Sprintf("cls=%s", caps.Symbol(capability.AliasContainer)))
	args = append(args, fmt.Sprintf("dimage=\"%s\"", st.Image))
	if st.Address != "" {
		args = append(args, fmt.Sprintf("ip='%s'", st.Address))
	}
	if len(st.Env) > 0 {
		pairs := make([]string, 0, len(st.Env))
		for _, kv := range st.Env {
			k, v, _ := strings.Cut(kv, "=")
			pairs = append(pairs, fmt.Sprintf("\"%s\": \"%s\"", k, v))
		}
		args = append(args, "environment={"+strings.Join(pairs, ", ")+"}")
	}
	if len(st.Volumes) > 0 {
		vols := make([]string, 0, len(st.Volumes))
		for _, v := range st.Volumes {
			vols = append(vols, fmt.Sprintf("\"%s\"", v))
		}
		args = append(args, "volumes=["+strings.Join(vols, ", ")+"]")
	}
	if st.Privileged {
		args = append(args, "privileged=True")
	}
	if st.Position != "" && caps.Wireless {
		args = append(args, fmt.Sprintf("position='%s'", st.Position))
	}
	fmt.Fprintf(buf, "    %s = net.addDocker(%s)\n", pyName(st.Instance), strings.Join(args, ", "))
}

func addrArg(st Step) string {
	if st.Address == "" {
		return ""
	}
	return fmt.Sprintf(", ip='%s'", st.Address)
}

func position(st Step) string {
	if st.Position == "" {
		return ""
	}
	return fmt.Sprintf(", position='%s'", st.Position)
}

func linkArgs(st Step) string {
	var parts []string
	if st.Bandwidth > 0 {
		parts = append(parts, fmt.Sprintf("bw=%d", st.Bandwidth))
	}
	if st.Delay != "" {
		parts = append(parts, fmt.Sprintf("delay='%s'", st.Delay))
	}
	if st.Loss > 0 {
		parts = append(parts, fmt.Sprintf("loss=%g", st.Loss))
	}
	if len(parts) == 0 {
		return ""
	}
	return ", cls=TCLink, " + strings.Join(parts, ", ")
}

func entityOf(st Step) string {
	if st.Instance != "" {
		return st.Instance
	}
	if st.Peer != "" {
		return st.Node + "<->" + st.Peer
	}
	return st.Node
}

// pyName turns an instance name into a safe script identifier.
func pyName(name string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(name) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		}
	}
	s := b.String()
	if s == "" {
		return "node"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "n" + s
	}
	return s
}
