package topology

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// HCL form of the topology document, for hand-authored topologies:
//
//	metadata { version = "1.0" name = "lab" }
//	node "core1" "core" {
//	  profile "upf1" {
//	    function = "upf"
//	    config   = { sessions = [{ dnn = "internet" }] }
//	  }
//	}
//	link "core1" "gnb1" { bandwidth = 1000 }
type hclDocument struct {
	Metadata *hclMetadata `hcl:"metadata,block"`
	Nodes    []hclNode    `hcl:"node,block"`
	Links    []hclLink    `hcl:"link,block"`
}

type hclMetadata struct {
	Version     string `hcl:"version,optional"`
	Name        string `hcl:"name,optional"`
	Description string `hcl:"description,optional"`
}

type hclNode struct {
	Name       string       `hcl:"name,label"`
	Type       string       `hcl:"type,label"`
	Properties cty.Value    `hcl:"properties,optional"`
	Profiles   []hclProfile `hcl:"profile,block"`
}

type hclProfile struct {
	Name       string    `hcl:"name,label"`
	Function   string    `hcl:"function"`
	Image      string    `hcl:"image,optional"`
	Alternates []string  `hcl:"alternates,optional"`
	Volumes    []string  `hcl:"volumes,optional"`
	Config     cty.Value `hcl:"config,optional"`
}

type hclLink struct {
	From      string  `hcl:"from,label"`
	To        string  `hcl:"to,label"`
	Kind      string  `hcl:"kind,optional"`
	Bandwidth int     `hcl:"bandwidth,optional"`
	Delay     string  `hcl:"delay,optional"`
	Loss      float64 `hcl:"loss,optional"`
}

// ParseHCL decodes a topology from its HCL form.
func ParseHCL(filename string, src []byte) (*Topology, error) {
	var doc hclDocument
	if err := hclsimple.Decode(filename, src, nil, &doc); err != nil {
		return nil, fmt.Errorf("parse topology HCL: %w", err)
	}

	t := &Topology{}
	if doc.Metadata != nil {
		t.Metadata = Metadata{
			Version:     doc.Metadata.Version,
			Name:        doc.Metadata.Name,
			Description: doc.Metadata.Description,
		}
	}
	for _, hn := range doc.Nodes {
		props, err := ctyObject(hn.Properties)
		if err != nil {
			return nil, fmt.Errorf("node %s: properties: %w", hn.Name, err)
		}
		n := Node{Name: hn.Name, Type: NodeType(hn.Type), Properties: props}
		for _, hp := range hn.Profiles {
			cfg, err := ctyObject(hp.Config)
			if err != nil {
				return nil, fmt.Errorf("profile %s: config: %w", hp.Name, err)
			}
			n.Profiles = append(n.Profiles, Profile{
				Name:       hp.Name,
				Function:   hp.Function,
				Config:     cfg,
				Image:      hp.Image,
				Alternates: hp.Alternates,
				Volumes:    hp.Volumes,
			})
		}
		t.Nodes = append(t.Nodes, n)
	}
	for _, hl := range doc.Links {
		t.Links = append(t.Links, Link{
			From: hl.From, To: hl.To, Kind: hl.Kind,
			Bandwidth: hl.Bandwidth, Delay: hl.Delay, Loss: hl.Loss,
		})
	}
	return t, nil
}

func ctyObject(v cty.Value) (map[string]any, error) {
	if v == cty.NilVal || v.IsNull() {
		return map[string]any{}, nil
	}
	out, err := ctyToNative(v)
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %s", v.Type().FriendlyName())
	}
	return m, nil
}

// ctyToNative recursively converts a cty.Value into its natural Go
// counterpart so properties decode the same whether they came from JSON
// or HCL.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("convert number: %w", err)
		}
		return f, nil
	case ty == cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(v, &b); err != nil {
			return nil, fmt.Errorf("convert bool: %w", err)
		}
		return b, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0)
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			nv, err := ctyToNative(ev)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nv)
		}
		return slice, nil
	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			nv, err := ctyToNative(ev)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", k.AsString(), err)
			}
			m[k.AsString()] = nv
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
