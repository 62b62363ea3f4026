package deploy

import "encoding/json"

// ArtifactBuilder collects the output files of one compilation run: the
// emulation script, per-node config files and the image manifest.
type ArtifactBuilder struct {
	script  []byte
	configs map[string][]byte
	images  []byte
	log     []byte
}

// NewBuilder returns an empty ArtifactBuilder.
func NewBuilder() *ArtifactBuilder {
	return &ArtifactBuilder{
		configs: make(map[string][]byte),
	}
}

// SetScript sets the topology.py content.
func (b *ArtifactBuilder) SetScript(content []byte) {
	b.script = content
}

// AddConfig adds a rendered config file under its relative path.
func (b *ArtifactBuilder) AddConfig(name string, content []byte) {
	if len(content) == 0 {
		return
	}
	b.configs[name] = content
}

// SetImages serializes the image manifest.
func (b *ArtifactBuilder) SetImages(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b.images = append(data, '\n')
	return nil
}

// SetLog sets the generation log content.
func (b *ArtifactBuilder) SetLog(content []byte) {
	b.log = content
}

// Build returns a map of filename -> content for all output files.
func (b *ArtifactBuilder) Build() map[string][]byte {
	out := make(map[string][]byte, len(b.configs)+3)
	if len(b.script) > 0 {
		out["topology.py"] = b.script
	}
	for name, content := range b.configs {
		out[name] = content
	}
	if len(b.images) > 0 {
		out["images.json"] = b.images
	}
	if len(b.log) > 0 {
		out["generation.log"] = b.log
	}
	return out
}
