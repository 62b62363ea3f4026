package compiler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MELON-27AF/Project-5g/internal/capability"
	_ "github.com/MELON-27AF/Project-5g/internal/handler" // register handlers
	"github.com/MELON-27AF/Project-5g/internal/result"
	"github.com/MELON-27AF/Project-5g/internal/topology"
)

type fakeProber struct {
	containerErr error
	wirelessErr  error
}

func (f fakeProber) ProbeContainerRuntime(context.Context) error { return f.containerErr }
func (f fakeProber) ProbeWirelessStack(context.Context) error    { return f.wirelessErr }
func (f fakeProber) WirelessExtensions(context.Context) bool     { return false }

type fakeInspector struct {
	present map[string]bool
}

func (f fakeInspector) HasImage(_ context.Context, ref string) (bool, error) {
	return f.present[ref], nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fullTopo() *topology.Topology {
	return &topology.Topology{
		Metadata: topology.Metadata{Version: "1.0", Name: "lab"},
		Nodes: []topology.Node{
			{Name: "s1", Type: topology.TypeSwitch},
			{Name: "core1", Type: topology.TypeCore, Profiles: []topology.Profile{
				{Name: "nrf1", Function: "nrf"},
				{Name: "amf1", Function: "amf"},
				{Name: "smf1", Function: "smf"},
				{Name: "upf1", Function: "upf"},
			}},
			{Name: "gnb1", Type: topology.TypeRadio},
			{Name: "ue1", Type: topology.TypeTerminal},
		},
		Links: []topology.Link{
			{From: "core1", To: "s1"},
			{From: "gnb1", To: "s1"},
			{From: "ue1", To: "s1"},
		},
	}
}

func TestCompileFullTopology(t *testing.T) {
	c := New(Options{
		CheckImages: false,
		Prober:      fakeProber{},
		Logger:      quiet(),
	})
	res, script := c.Compile(context.Background(), fullTopo())

	require.True(t, res.Success)
	assert.False(t, res.Partial)
	assert.Equal(t, 0, res.ExitCode())
	assert.Equal(t, string(capability.Containernet), res.Backend)
	require.NotNil(t, script)

	assert.Contains(t, res.Artifacts, "topology.py")
	assert.Contains(t, res.Artifacts, "images.json")
	assert.Contains(t, res.Artifacts, "generation.log")
	for _, name := range []string{"nrf1", "amf1", "smf1", "upf1", "gnb1", "ue1"} {
		assert.Contains(t, res.Artifacts, "config/"+name+".yaml", name)
	}

	// Every container instance bound an image.
	require.Len(t, res.Images, 6)
	for _, entry := range res.Images {
		assert.False(t, entry.Skipped, entry.Instance)
		assert.NotEmpty(t, entry.Image, entry.Instance)
	}

	// The core node's link runs through its first instance; the script
	// never references a name it does not define.
	text := string(res.Artifacts["topology.py"])
	assert.Contains(t, text, "net.addLink(nrf1, s1)")
	assert.NotContains(t, text, "core1")
}

func TestCompileAbortsOnStructuralSessionEntry(t *testing.T) {
	topo := fullTopo()
	topo.Nodes[1].Profiles[3].Config = map[string]any{
		"sessions": []any{map[string]any{"dnn": "internet"}},
	}

	c := New(Options{Prober: fakeProber{}, Logger: quiet()})
	res, script := c.Compile(context.Background(), topo)

	assert.False(t, res.Success)
	assert.Equal(t, result.ExitStructural, res.ExitCode())
	assert.Nil(t, script)
	assert.Empty(t, res.Artifacts)
	assert.True(t, res.HasKind(result.KindStructural))
}

type countingProber struct {
	containerProbes int
}

func (p *countingProber) ProbeContainerRuntime(context.Context) error {
	p.containerProbes++
	return nil
}
func (p *countingProber) ProbeWirelessStack(context.Context) error { return nil }
func (p *countingProber) WirelessExtensions(context.Context) bool  { return false }

func TestCompileCommitsBackendAcrossRuns(t *testing.T) {
	p := &countingProber{}
	c := New(Options{Prober: p, Logger: quiet()})

	first, _ := c.Compile(context.Background(), fullTopo())
	second, _ := c.Compile(context.Background(), fullTopo())

	assert.Equal(t, first.Backend, second.Backend)
	assert.Equal(t, 1, p.containerProbes)
}

func TestCompileRejectsDanglingLink(t *testing.T) {
	topo := fullTopo()
	topo.Links = append(topo.Links, topology.Link{Name: "bad", From: "gnb1", To: "nowhere"})

	c := New(Options{Prober: fakeProber{}, Logger: quiet()})
	res, script := c.Compile(context.Background(), topo)

	assert.False(t, res.Success)
	assert.Equal(t, result.ExitStructural, res.ExitCode())
	assert.Nil(t, script)
	assert.Empty(t, res.Artifacts)

	found := false
	for _, e := range res.Errors {
		if e.Entity == "bad" {
			found = true
		}
	}
	assert.True(t, found, "error should name the offending link")
}

func TestCompileSkipsContainersOnBaselineBackend(t *testing.T) {
	c := New(Options{
		Prober: fakeProber{
			containerErr: errors.New("no daemon"),
			wirelessErr:  errors.New("no mac80211"),
		},
		Logger: quiet(),
	})
	res, script := c.Compile(context.Background(), fullTopo())

	require.True(t, res.Success)
	assert.True(t, res.Partial)
	assert.Equal(t, result.ExitPartial, res.ExitCode())
	assert.Equal(t, string(capability.Mininet), res.Backend)
	require.NotNil(t, script)

	// Container instances are recorded skipped, never downgraded.
	require.Len(t, res.Images, 6)
	for _, entry := range res.Images {
		assert.True(t, entry.Skipped, entry.Instance)
		assert.Contains(t, entry.Reason, "cannot run containers")
	}
	for _, st := range script.Steps {
		assert.NotEqual(t, "add-container", string(st.Kind))
	}

	// The switch still deploys.
	text := string(res.Artifacts["topology.py"])
	assert.Contains(t, text, "addSwitch('s1'")
}

func TestCompileIsolatesUnresolvableImage(t *testing.T) {
	topo := fullTopo()
	// Pin one instance to an image the daemon does not have.
	topo.Nodes[1].Profiles[1].Image = "missing/amf:0.0"

	present := map[string]bool{
		"adaptive/open5gs:1.0":     true,
		"adaptive/ueransim:latest": true,
	}
	c := New(Options{
		CheckImages: true,
		Prober:      fakeProber{},
		Inspector:   fakeInspector{present: present},
		Logger:      quiet(),
	})
	res, script := c.Compile(context.Background(), topo)

	require.True(t, res.Success)
	assert.True(t, res.Partial)
	assert.Equal(t, result.ExitPartial, res.ExitCode())
	require.NotNil(t, script)
	assert.True(t, res.HasKind(result.KindImage))

	assert.NotContains(t, res.Artifacts, "config/amf1.yaml")
	assert.Contains(t, res.Artifacts, "config/upf1.yaml")
}

func TestCompileCascadesRenderFailureToDependents(t *testing.T) {
	// No repository function, so the mobility function cannot resolve its
	// registration endpoint. The radio node depends on it, and the
	// terminal on the radio node, so both fall with it.
	topo := &topology.Topology{
		Metadata: topology.Metadata{Version: "1.0", Name: "lab"},
		Nodes: []topology.Node{
			{Name: "core1", Type: topology.TypeCore, Profiles: []topology.Profile{
				{Name: "amf1", Function: "amf"},
			}},
			{Name: "gnb1", Type: topology.TypeRadio},
			{Name: "ue1", Type: topology.TypeTerminal},
		},
	}

	c := New(Options{Prober: fakeProber{}, Logger: quiet()})
	res, script := c.Compile(context.Background(), topo)

	require.True(t, res.Success)
	assert.True(t, res.Partial)
	assert.Equal(t, result.ExitPartial, res.ExitCode())
	require.NotNil(t, script)
	assert.Empty(t, script.Steps)

	assert.True(t, res.HasKind(result.KindRender))
	byEntity := make(map[string]string)
	for _, e := range res.Errors {
		byEntity[e.Entity] = e.Kind
	}
	assert.Equal(t, result.KindRender, byEntity["amf1"])
	assert.Equal(t, result.KindConflict, byEntity["gnb1"])
	assert.Equal(t, result.KindConflict, byEntity["ue1"])

	for _, name := range []string{"amf1", "gnb1", "ue1"} {
		assert.NotContains(t, res.Artifacts, "config/"+name+".yaml", name)
	}
}

func TestCompileAbortsOnGlobalConflict(t *testing.T) {
	topo := fullTopo()
	// Two user-plane instances claiming the same explicit block.
	topo.Nodes[1].Profiles[3].Config = map[string]any{
		"sessions": []any{map[string]any{"subnet": "10.45.0.0/16"}},
	}
	topo.Nodes[1].Profiles = append(topo.Nodes[1].Profiles, topology.Profile{
		Name: "upf2", Function: "upf",
		Config: map[string]any{
			"sessions": []any{map[string]any{"subnet": "10.45.0.0/16"}},
		},
	})

	c := New(Options{Prober: fakeProber{}, Logger: quiet()})
	res, script := c.Compile(context.Background(), topo)

	assert.False(t, res.Success)
	assert.Equal(t, result.ExitFailure, res.ExitCode())
	assert.Nil(t, script)
	assert.True(t, res.HasKind(result.KindConflict))
}

func TestCompileExplicitBackendSkipsProbing(t *testing.T) {
	backend := capability.Describe(capability.Containernet, true, false)
	c := New(Options{Backend: &backend, Logger: quiet()})

	res, _ := c.Compile(context.Background(), fullTopo())
	require.True(t, res.Success)
	assert.Equal(t, string(capability.Containernet), res.Backend)
}

func TestCompileCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(Options{Prober: fakeProber{}, Logger: quiet()})
	res, _ := c.Compile(ctx, fullTopo())

	assert.False(t, res.Success)
	assert.True(t, res.HasKind(result.KindCapability))
}
