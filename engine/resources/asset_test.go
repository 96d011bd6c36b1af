package resources_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packforge/loadstone/engine/pack"
	"github.com/packforge/loadstone/engine/resources"
)

func TestAssetDecodesBundleEntry(t *testing.T) {
	dir := t.TempDir()
	provider := newStubProvider()
	driver := &tickDriver{}

	info, path := writePacked(t, dir, 1, "common", []pack.Entry{
		{Name: "ui/motd.txt", Data: []byte("welcome")},
	})
	b := resources.NewBundle(info, path, provider, driver)
	provider.bundles[1] = b

	a := resources.NewAsset("ui/motd.txt", resources.ResourceTypeText, 1, textDecoder{}, provider, driver)
	driver.add(a, b)
	a.AddRef()

	a.Load()
	require.Equal(t, 1, b.RefCount())

	driveUntilTerminal(t, driver, a)
	require.Equal(t, resources.StatusSucceeded, a.Status())
	require.Equal(t, 1.0, a.Progress())
	assert.Equal(t, "welcome", a.Object())

	// The bundle reference is held for the asset's whole lifetime.
	require.Equal(t, 1, b.RefCount())
	a.Unload()
	require.Equal(t, 0, b.RefCount())
	assert.Nil(t, a.Object())
}

func TestAssetMissingEntryFails(t *testing.T) {
	dir := t.TempDir()
	provider := newStubProvider()
	driver := &tickDriver{}

	info, path := writePacked(t, dir, 1, "common", []pack.Entry{
		{Name: "ui/motd.txt", Data: []byte("welcome")},
	})
	b := resources.NewBundle(info, path, provider, driver)
	provider.bundles[1] = b

	a := resources.NewAsset("ui/absent.txt", resources.ResourceTypeText, 1, textDecoder{}, provider, driver)
	driver.add(a, b)

	a.Load()
	driveUntilTerminal(t, driver, a)
	require.Equal(t, resources.StatusFailed, a.Status())
	require.ErrorIs(t, a.Err(), resources.ErrDeserializeFailure)
	assert.Contains(t, a.Error(), "no such entry")
}

func TestAssetDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	provider := newStubProvider()
	driver := &tickDriver{}

	info, path := writePacked(t, dir, 1, "common", []pack.Entry{
		{Name: "ui/motd.txt", Data: []byte("welcome")},
	})
	b := resources.NewBundle(info, path, provider, driver)
	provider.bundles[1] = b

	a := resources.NewAsset("ui/motd.txt", resources.ResourceTypeText, 1, failingDecoder{}, provider, driver)
	driver.add(a, b)

	a.Load()
	driveUntilTerminal(t, driver, a)
	require.Equal(t, resources.StatusFailed, a.Status())
	require.ErrorIs(t, a.Err(), resources.ErrDeserializeFailure)
	assert.Contains(t, a.Error(), "corrupt payload")
}

func TestAssetBundleFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	provider := newStubProvider()
	driver := &tickDriver{}

	info, _ := writePacked(t, dir, 1, "common", []pack.Entry{
		{Name: "ui/motd.txt", Data: []byte("welcome")},
	})
	b := resources.NewBundle(info, dir+"/missing.bundle", provider, driver)
	provider.bundles[1] = b

	a := resources.NewAsset("ui/motd.txt", resources.ResourceTypeText, 1, textDecoder{}, provider, driver)
	driver.add(a, b)

	a.Load()
	driveUntilTerminal(t, driver, a)
	require.Equal(t, resources.StatusFailed, a.Status())
	require.ErrorIs(t, a.Err(), resources.ErrDependencyFailure)
}

func TestAssetLoadImmediately(t *testing.T) {
	dir := t.TempDir()
	provider := newStubProvider()
	driver := &tickDriver{}

	info, path := writePacked(t, dir, 1, "common", []pack.Entry{
		{Name: "ui/motd.txt", Data: []byte("welcome")},
	})
	b := resources.NewBundle(info, path, provider, driver)
	provider.bundles[1] = b

	a := resources.NewAsset("ui/motd.txt", resources.ResourceTypeText, 1, textDecoder{}, provider, driver)

	a.LoadImmediately()
	require.Equal(t, resources.StatusSucceeded, a.Status())
	assert.Equal(t, "welcome", a.Object())
	assert.Equal(t, 0, driver.ticks)
}
