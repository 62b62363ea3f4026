package topology

// Instance is one deployable unit of the topology. Core nodes expand into
// one instance per configuration profile; every other node type is a
// single instance with a nil Profile.
type Instance struct {
	Node    *Node
	Profile *Profile
}

// Name returns the instance's unique display name.
func (i Instance) Name() string {
	if i.Profile != nil {
		return i.Profile.Name
	}
	return i.Node.Name
}

// Function returns the handler key for the instance: the profile's core
// function, or the node type for single-instance nodes.
func (i Instance) Function() string {
	if i.Profile != nil {
		return i.Profile.Function
	}
	return string(i.Node.Type)
}

// Config returns the instance's override document: the profile config for
// core instances, node properties otherwise.
func (i Instance) Config() map[string]any {
	if i.Profile != nil {
		return i.Profile.Config
	}
	return i.Node.Properties
}

// Containerized reports whether the instance structurally requires
// container backing. Such an instance is either scheduled as a container
// or recorded as skipped; it is never downgraded to a plain host.
func (i Instance) Containerized() bool {
	switch i.Node.Type {
	case TypeCore, TypeRadio, TypeTerminal:
		return true
	case TypeHost:
		return GetStr(i.Node.Properties, "image") != ""
	default:
		return false
	}
}

// Instances expands the topology into deployable instances in declaration
// order. Allocation iterates this slice so results are reproducible.
func (t *Topology) Instances() []Instance {
	var out []Instance
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Type == TypeCore && len(n.Profiles) > 0 {
			for j := range n.Profiles {
				out = append(out, Instance{Node: n, Profile: &n.Profiles[j]})
			}
			continue
		}
		out = append(out, Instance{Node: n})
	}
	return out
}
