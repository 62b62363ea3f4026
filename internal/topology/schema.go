package topology

import "strconv"

// NodeType enumerates the node kinds the compiler understands.
type NodeType string

const (
	TypeCore       NodeType = "core"       // core-network-function complex
	TypeRadio      NodeType = "gnb"        // radio node (base station)
	TypeTerminal   NodeType = "ue"         // end-user terminal
	TypeSwitch     NodeType = "switch"
	TypeRouter     NodeType = "router"
	TypeHost       NodeType = "host"       // plain or container-backed host
	TypeController NodeType = "controller" // SDN controller
)

// CoreFunctions lists the core network functions a core node may host,
// in no particular order; deployment ordering is decided elsewhere.
var CoreFunctions = []string{
	"nrf", "scp", "ausf", "udm", "udr", "pcf", "bsf", "nssf", "amf", "smf", "upf",
}

// Topology is the root structure of a topology document. It is handed to
// the compiler as a read-only snapshot; the compiler never mutates it.
type Topology struct {
	Metadata Metadata `json:"metadata"`
	Nodes    []Node   `json:"nodes"`
	Links    []Link   `json:"links"`
}

// Metadata holds document-level information from the editor.
type Metadata struct {
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Node is a single element of the topology graph.
type Node struct {
	Name       string         `json:"name"`
	Type       NodeType       `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Profiles   []Profile      `json:"profiles,omitempty"`
}

// Profile is one named configuration profile of a multi-instance node.
// A core node hosts one profile per network function instance.
type Profile struct {
	Name       string         `json:"name"`
	Function   string         `json:"function"`
	Config     map[string]any `json:"config,omitempty"`
	Image      string         `json:"image,omitempty"`
	Alternates []string       `json:"alternates,omitempty"`
	Volumes    []string       `json:"volumes,omitempty"`
}

// Link connects two nodes by name.
type Link struct {
	Name      string  `json:"name,omitempty"`
	From      string  `json:"source"`
	To        string  `json:"target"`
	Kind      string  `json:"type,omitempty"`
	Bandwidth int     `json:"bandwidth,omitempty"` // mbps
	Delay     string  `json:"delay,omitempty"`     // e.g. "5ms"
	Loss      float64 `json:"loss,omitempty"`      // percent
}

// NodeByName returns the node with the given name, or nil.
func (t *Topology) NodeByName(name string) *Node {
	for i := range t.Nodes {
		if t.Nodes[i].Name == name {
			return &t.Nodes[i]
		}
	}
	return nil
}

// LinksOf returns the links touching the given node name.
func (t *Topology) LinksOf(name string) []Link {
	var out []Link
	for _, l := range t.Links {
		if l.From == name || l.To == name {
			out = append(out, l)
		}
	}
	return out
}

// GetStr gets a string property; empty if missing or not a string.
func GetStr(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetBool gets a bool property.
func GetBool(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

// IntOr gets an integer property, accepting JSON numbers and numeric
// strings. A missing or unparseable value yields the fallback; the second
// return reports whether the fallback was substituted for a present but
// malformed value.
func IntOr(m map[string]any, key string, fallback int) (int, bool) {
	if m == nil {
		return fallback, false
	}
	v, ok := m[key]
	if !ok {
		return fallback, false
	}
	switch n := v.(type) {
	case int:
		return n, false
	case float64:
		return int(n), false
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, false
		}
		return fallback, true
	default:
		return fallback, true
	}
}

// GetStrSlice gets a list-of-strings property.
func GetStrSlice(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetMapSlice gets a list-of-objects property (e.g. UPF session entries).
func GetMapSlice(m map[string]any, key string) []map[string]any {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		if mm, ok := v.(map[string]any); ok {
			out = append(out, mm)
		}
	}
	return out
}
