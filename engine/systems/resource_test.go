package systems_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packforge/loadstone/engine/manifest"
	"github.com/packforge/loadstone/engine/pack"
	"github.com/packforge/loadstone/engine/resources"
	"github.com/packforge/loadstone/engine/systems"
)

type testEnv struct {
	sm  *systems.SystemManager
	rs  *systems.ResourceSystem
	dir string
}

// newTestEnv builds a system manager over a small on-disk content set:
// bundle 1 holds two text assets, bundle 2 holds a scene and a prefab
// and depends on bundle 1, bundle 3 holds a second scene.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	infos := []*manifest.BundleInfo{
		writeTestBundle(t, dir, 1, "common", []pack.Entry{
			{Name: "ui/motd.txt", Data: []byte("welcome")},
			{Name: "ui/title.txt", Data: []byte("loadstone")},
		}),
		writeTestBundle(t, dir, 2, "level01", []pack.Entry{
			{Name: "level01/scene", Data: []byte("scene: level01")},
			{Name: "level01/banner.txt", Data: []byte("LEVEL 01")},
		}, 1),
		writeTestBundle(t, dir, 3, "level02", []pack.Entry{
			{Name: "level02/scene", Data: []byte("scene: level02")},
		}),
	}

	sm, err := systems.NewSystemManager(&systems.ResourceSystemConfig{
		AssetBasePath: dir,
		DownloadPath:  filepath.Join(dir, "downloads"),
	}, manifest.NewIndex(infos), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Shutdown() })

	return &testEnv{sm: sm, rs: sm.ResourceSystem(), dir: dir}
}

func writeTestBundle(t *testing.T, dir string, id uint32, name string, entries []pack.Entry, deps ...uint32) *manifest.BundleInfo {
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
	require.NoError(t, os.WriteFile(filepath.Join(dir, info.SaveName()), data, 0o644))
	return info
}

func (e *testEnv) driveUntilTerminal(t *testing.T, l resources.Loadable) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if l.Status().Terminal() {
			return
		}
		e.sm.Tick()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("loadable '%s' did not settle: status %s", l.Address(), l.Status())
}

func TestResourceSystemLoadAssetSync(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.rs.LoadAsset("ui/motd.txt", resources.ResourceTypeText)
	require.NoError(t, err)
	require.Equal(t, resources.StatusSucceeded, a.Status())
	assert.Equal(t, "welcome", a.Object())
	assert.Equal(t, 1, a.RefCount())
}

func TestResourceSystemSharesOneInstance(t *testing.T) {
	env := newTestEnv(t)

	calls1, calls2 := 0, 0
	a1, err := env.rs.LoadAssetAsync("ui/motd.txt", resources.ResourceTypeText, func(resources.Loadable) { calls1++ })
	require.NoError(t, err)
	a2, err := env.rs.LoadAssetAsync("ui/motd.txt", resources.ResourceTypeText, func(resources.Loadable) { calls2++ })
	require.NoError(t, err)

	// Concurrent requests for one address share the live loadable.
	require.Same(t, a1, a2)
	require.Equal(t, 2, a1.RefCount())

	env.driveUntilTerminal(t, a1)
	require.Equal(t, resources.StatusSucceeded, a1.Status())
	assert.Equal(t, 1, calls1)
	assert.Equal(t, 1, calls2)

	// No second load happens; the object is already there.
	a3, err := env.rs.LoadAsset("ui/motd.txt", resources.ResourceTypeText)
	require.NoError(t, err)
	require.Same(t, a1, a3)
	require.Equal(t, 3, a1.RefCount())
}

func TestResourceSystemUnknownAssetFailsFast(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rs.LoadAsset("ui/nope.txt", resources.ResourceTypeText)
	require.ErrorIs(t, err, resources.ErrUnknownResource)
	_, err = env.rs.LoadAssetAsync("ui/nope.txt", resources.ResourceTypeText, nil)
	require.ErrorIs(t, err, resources.ErrUnknownResource)

	// Nothing was constructed or cached for the bad address.
	assert.Equal(t, 0, env.rs.CachedCount())
}

func TestResourceSystemTypeMismatch(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rs.LoadAsset("ui/motd.txt", resources.ResourceTypeText)
	require.NoError(t, err)

	_, err = env.rs.LoadAsset("ui/motd.txt", resources.ResourceTypeBinary)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already cached")
}

func TestResourceSystemDeferredCallback(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rs.LoadAsset("ui/motd.txt", resources.ResourceTypeText)
	require.NoError(t, err)

	// The asset is already terminal; the callback may not fire inline.
	fired := false
	_, err = env.rs.LoadAssetAsync("ui/motd.txt", resources.ResourceTypeText, func(resources.Loadable) { fired = true })
	require.NoError(t, err)
	require.False(t, fired)

	env.sm.Tick()
	require.True(t, fired)
}

func TestResourceSystemLoadBundle(t *testing.T) {
	env := newTestEnv(t)

	b, err := env.rs.LoadBundle(2)
	require.NoError(t, err)
	require.Equal(t, resources.StatusSucceeded, b.Status())

	data, ok := b.Entry("level01/scene")
	require.True(t, ok)
	assert.Equal(t, []byte("scene: level01"), data)

	// The dependency was pulled in and cached alongside.
	assert.True(t, env.rs.CachedCount() >= 2)
}

func TestResourceSystemUnknownBundle(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rs.LoadBundle(99)
	require.ErrorIs(t, err, resources.ErrUnknownResource)
}

func TestResourceSystemRemoveFromCache(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.rs.LoadAsset("ui/motd.txt", resources.ResourceTypeText)
	require.NoError(t, err)
	a.Release()
	before := env.rs.CachedCount()

	env.rs.RemoveFromCache("ui/motd.txt")
	require.Equal(t, before-1, env.rs.CachedCount())
	require.Equal(t, resources.StatusUnloaded, a.Status())

	// Removing an unknown key is a no-op.
	env.rs.RemoveFromCache("ui/motd.txt")
	require.Equal(t, before-1, env.rs.CachedCount())
}

func TestResourceSystemClearAll(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.rs.LoadAsset("ui/motd.txt", resources.ResourceTypeText)
	require.NoError(t, err)
	_, err = env.rs.LoadBundle(2)
	require.NoError(t, err)
	require.True(t, env.rs.CachedCount() > 0)

	env.rs.ClearAll()
	require.Equal(t, 0, env.rs.CachedCount())
	require.Equal(t, resources.StatusUnloaded, a.Status())
	require.Equal(t, 0, a.RefCount())
}

func TestResourceSystemLRUEviction(t *testing.T) {
	env := newTestEnv(t)

	policy, err := systems.NewLRUPolicy(1)
	require.NoError(t, err)
	env.rs.SetEvictionPolicy(policy)

	a1, err := env.rs.LoadAsset("ui/motd.txt", resources.ResourceTypeText)
	require.NoError(t, err)
	a2, err := env.rs.LoadAsset("ui/title.txt", resources.ResourceTypeText)
	require.NoError(t, err)

	// First zero-crossing fits in the idle budget.
	a1.Release()
	env.sm.Tick()
	require.Equal(t, resources.StatusSucceeded, a1.Status())

	// The second pushes the least recently released entry out.
	a2.Release()
	env.sm.Tick()
	require.Equal(t, resources.StatusUnloaded, a1.Status())
	require.Equal(t, resources.StatusSucceeded, a2.Status())
}

func TestResourceSystemRegisterDecoderOnce(t *testing.T) {
	env := newTestEnv(t)

	// The built-in types are registered by the system manager.
	require.False(t, env.rs.RegisterDecoder(resources.ResourceTypeText, nil))
	require.True(t, env.rs.RegisterDecoder(resources.ResourceTypeCustom, customDecoder{}))
	require.False(t, env.rs.RegisterDecoder(resources.ResourceTypeCustom, customDecoder{}))
}

func TestResourceSystemCustomDecoder(t *testing.T) {
	env := newTestEnv(t)
	require.True(t, env.rs.RegisterDecoder(resources.ResourceTypeCustom, customDecoder{}))

	a, err := env.rs.LoadAsset("ui/title.txt", resources.ResourceTypeCustom)
	require.NoError(t, err)
	assert.Equal(t, 9, a.Object())
}

type customDecoder struct{}

func (customDecoder) Decode(name string, data []byte) (interface{}, error) {
	return len(data), nil
}
