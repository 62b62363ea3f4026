package capability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProber struct {
	containerErr error
	wirelessErr  error
	extensions   bool

	containerProbes int
}

func (f *fakeProber) ProbeContainerRuntime(context.Context) error {
	f.containerProbes++
	return f.containerErr
}

func (f *fakeProber) ProbeWirelessStack(context.Context) error { return f.wirelessErr }

func (f *fakeProber) WirelessExtensions(context.Context) bool { return f.extensions }

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolvePrefersContainerBackend(t *testing.T) {
	r := NewResolver(&fakeProber{extensions: true}, quiet())
	d := r.Resolve(context.Background())

	assert.Equal(t, Containernet, d.Variant)
	assert.True(t, d.Containers)
	assert.True(t, d.Wireless)
}

func TestResolveFallsBackToWireless(t *testing.T) {
	r := NewResolver(&fakeProber{containerErr: errors.New("no daemon")}, quiet())
	d := r.Resolve(context.Background())

	assert.Equal(t, MininetWifi, d.Variant)
	assert.False(t, d.Containers)
	assert.True(t, d.Wireless)
}

func TestResolveBaselineAlwaysSucceeds(t *testing.T) {
	r := NewResolver(&fakeProber{
		containerErr: errors.New("no daemon"),
		wirelessErr:  errors.New("no mac80211"),
	}, quiet())
	d := r.Resolve(context.Background())

	assert.Equal(t, Mininet, d.Variant)
	assert.False(t, d.Containers)
	assert.False(t, d.Wireless)
}

func TestResolveCommitsOnce(t *testing.T) {
	p := &fakeProber{}
	r := NewResolver(p, quiet())

	first := r.Resolve(context.Background())

	// A later environment change must not move the committed backend.
	p.containerErr = errors.New("daemon went away")
	second := r.Resolve(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.containerProbes)
}

func TestSymbolsFollowVariant(t *testing.T) {
	wired := Describe(Containernet, true, false)
	assert.Equal(t, "Containernet", wired.Symbol(AliasNet))
	assert.Equal(t, "Docker", wired.Symbol(AliasContainer))
	assert.Equal(t, "OVSKernelSwitch", wired.Symbol(AliasAccessPoint))

	wireless := Describe(Containernet, true, true)
	assert.Equal(t, "OVSKernelAP", wireless.Symbol(AliasAccessPoint))
	assert.Equal(t, "Station", wireless.Symbol(AliasStation))

	base := Describe(Mininet, false, false)
	assert.Equal(t, "Mininet", base.Symbol(AliasNet))
	assert.Equal(t, "Host", base.Symbol(AliasContainer))
}

func TestCommitReturnsOneDescriptorPerProcess(t *testing.T) {
	first := Commit(context.Background(), quiet())
	second := Commit(context.Background(), quiet())

	assert.Equal(t, first, second)
	assert.NotEmpty(t, string(first.Variant))
}
