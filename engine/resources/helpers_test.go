package resources_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/packforge/loadstone/engine/manifest"
	"github.com/packforge/loadstone/engine/pack"
	"github.com/packforge/loadstone/engine/resources"
)

// tickDriver drives a fixed set of loadables, standing in for the full
// system manager in lifecycle tests.
type tickDriver struct {
	loadables []resources.Loadable
	services  []interface{ Tick() }
	ticks     int
}

func (d *tickDriver) Tick() {
	d.ticks++
	for _, s := range d.services {
		s.Tick()
	}
	for _, l := range d.loadables {
		l.Update()
	}
}

func (d *tickDriver) add(ls ...resources.Loadable) {
	d.loadables = append(d.loadables, ls...)
}

// stubProvider hands out pre-built loadables by key, incrementing the
// reference count the way the resource system does.
type stubProvider struct {
	bundles map[uint32]*resources.Bundle
	assets  map[string]*resources.Asset
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		bundles: make(map[uint32]*resources.Bundle),
		assets:  make(map[string]*resources.Asset),
	}
}

func (p *stubProvider) AcquireBundle(bundleID uint32) (*resources.Bundle, error) {
	b, ok := p.bundles[bundleID]
	if !ok {
		return nil, fmt.Errorf("%w: bundle %d is not in the manifest", resources.ErrUnknownResource, bundleID)
	}
	b.AddRef()
	return b, nil
}

func (p *stubProvider) AcquireAsset(path string, resourceType resources.ResourceType) (*resources.Asset, error) {
	a, ok := p.assets[path]
	if !ok {
		return nil, fmt.Errorf("%w: '%s' is not in the manifest", resources.ErrUnknownResource, path)
	}
	a.AddRef()
	return a, nil
}

// writePacked writes a packed bundle file into dir and returns its
// metadata plus the on-disk path.
func writePacked(t *testing.T, dir string, id uint32, name string, entries []pack.Entry, deps ...uint32) (*manifest.BundleInfo, string) {
	t.Helper()
	data, err := pack.Encode(entries)
	require.NoError(t, err)

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Name)
	}
	info := &manifest.BundleInfo{
		ID:             id,
		Name:           name,
		AssetPaths:     paths,
		Size:           int64(len(data)),
		Hash:           pack.Digest(data),
		HashedFileName: fmt.Sprintf("%s_%s.bundle", name, pack.Digest(data)[:8]),
		DependencyIDs:  deps,
	}
	path := filepath.Join(dir, info.SaveName())
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return info, path
}

// writeRaw writes a raw (unpacked) file bundle.
func writeRaw(t *testing.T, dir string, id uint32, name string, data []byte) (*manifest.BundleInfo, string) {
	t.Helper()
	info := &manifest.BundleInfo{
		ID:         id,
		Name:       name,
		IsRawFile:  true,
		AssetPaths: []string{name},
		Size:       int64(len(data)),
	}
	path := filepath.Join(dir, info.SaveName())
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return info, path
}

// driveUntilTerminal ticks the driver until the loadable settles,
// pacing the passes the way a real tick loop would.
func driveUntilTerminal(t *testing.T, d *tickDriver, l resources.Loadable) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if l.Status().Terminal() {
			return
		}
		d.Tick()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("loadable '%s' did not settle: status %s", l.Address(), l.Status())
}

type textDecoder struct{}

func (textDecoder) Decode(name string, data []byte) (interface{}, error) {
	return string(data), nil
}

type failingDecoder struct{}

func (failingDecoder) Decode(name string, data []byte) (interface{}, error) {
	return nil, fmt.Errorf("corrupt payload in '%s'", name)
}
