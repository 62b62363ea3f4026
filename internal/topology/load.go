package topology

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads a topology document from disk, dispatching on the file
// extension: .hcl / .nf5g are parsed as HCL, everything else as the
// editor's JSON export.
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl", ".nf5g":
		// The HCL decoder dispatches on the file suffix, so alternate
		// extensions are presented to it under a .hcl name.
		name := strings.TrimSuffix(filepath.Base(path), ext) + ".hcl"
		return ParseHCL(name, data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes a topology from the editor's JSON export format.
func ParseJSON(data []byte) (*Topology, error) {
	var t Topology
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse topology JSON: %w", err)
	}
	return &t, nil
}
