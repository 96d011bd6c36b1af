package systems

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/packforge/loadstone/engine/core"
	"github.com/packforge/loadstone/engine/manifest"
	"github.com/packforge/loadstone/engine/resources"
	"github.com/packforge/loadstone/engine/transfer"
)

/** @brief The configuration for the resource system */
type ResourceSystemConfig struct {
	/** @brief The relative base path for bundles shipped with the client. */
	AssetBasePath string
	/** @brief The directory downloaded bundles are saved into. */
	DownloadPath string
	/** @brief The remote base URL bundles are fetched from. Empty disables downloads. */
	DownloadURL string
}

// ResourceSystem is the cache and handler for bundles and assets: one
// live loadable per resolved path, shared by every concurrent request.
// Synchronous and asynchronous entry points route through the same
// lookup. It also implements resources.Provider, which is how bundles
// and assets acquire their own dependencies.
//
// Cache keys are the bundle save names and the asset logical addresses;
// the build pipeline keeps those namespaces disjoint.
type ResourceSystem struct {
	config  *ResourceSystemConfig
	index   manifest.Index
	service transfer.Service
	driver  resources.Driver

	decoders map[resources.ResourceType]resources.Decoder

	cache  map[string]resources.Loadable
	policy EvictionPolicy
	// entries currently noted unused with the policy, so zero-crossings
	// are reported exactly once
	idle map[string]bool
}

func NewResourceSystem(config *ResourceSystemConfig, index manifest.Index, service transfer.Service) (*ResourceSystem, error) {
	if config == nil || config.AssetBasePath == "" && config.DownloadPath == "" {
		err := fmt.Errorf("failed to run NewResourceSystem: no bundle storage path configured")
		core.LogError(err.Error())
		return nil, err
	}
	if index == nil {
		err := fmt.Errorf("failed to run NewResourceSystem: manifest index is required")
		core.LogError(err.Error())
		return nil, err
	}

	rs := &ResourceSystem{
		config:   config,
		index:    index,
		service:  service,
		decoders: make(map[resources.ResourceType]resources.Decoder),
		cache:    make(map[string]resources.Loadable),
		policy:   KeepAllPolicy{},
		idle:     make(map[string]bool),
	}

	core.LogInfo("Resource system initialized with base path '%s'.", config.AssetBasePath)
	return rs, nil
}

// BindDriver wires the scheduling driver loadables spin during
// LoadImmediately. Called once by the system manager.
func (rs *ResourceSystem) BindDriver(driver resources.Driver) {
	rs.driver = driver
}

// SetEvictionPolicy replaces the policy deciding when zero-refcount
// cached entries are unloaded.
func (rs *ResourceSystem) SetEvictionPolicy(policy EvictionPolicy) {
	if policy == nil {
		policy = KeepAllPolicy{}
	}
	rs.policy = policy
}

// RegisterDecoder installs the decoder for a resource type. A type can
// only be registered once.
func (rs *ResourceSystem) RegisterDecoder(resourceType resources.ResourceType, decoder resources.Decoder) bool {
	if _, exists := rs.decoders[resourceType]; exists {
		core.LogError("resource_system_register_decoder - decoder for type %d already exists and will not be registered.", resourceType)
		return false
	}
	rs.decoders[resourceType] = decoder
	return true
}

// Contains reports whether an address is known to the manifest.
func (rs *ResourceSystem) Contains(path string) bool {
	return rs.index.ContainsAsset(path)
}

// AcquireBundle implements resources.Provider. The returned bundle
// carries one reference owned by the caller; it may be in any load state.
func (rs *ResourceSystem) AcquireBundle(bundleID uint32) (*resources.Bundle, error) {
	info, ok := rs.index.Bundle(bundleID)
	if !ok {
		return nil, fmt.Errorf("%w: bundle %d is not in the manifest", resources.ErrUnknownResource, bundleID)
	}
	key := info.SaveName()
	if cached, ok := rs.cache[key]; ok {
		b, err := asBundle(cached)
		if err != nil {
			return nil, err
		}
		b.AddRef()
		return b, nil
	}

	b := rs.newBundle(info)
	b.AddRef()
	rs.cache[key] = b
	return asBundleLenient(b), nil
}

// AcquireAsset implements resources.Provider. The returned asset carries
// one reference owned by the caller.
func (rs *ResourceSystem) AcquireAsset(path string, resourceType resources.ResourceType) (*resources.Asset, error) {
	if !rs.index.ContainsAsset(path) {
		return nil, fmt.Errorf("%w: '%s' is not in the manifest", resources.ErrUnknownResource, path)
	}
	if cached, ok := rs.cache[path]; ok {
		a, ok := cached.(*resources.Asset)
		if !ok {
			return nil, fmt.Errorf("cache entry '%s' is not an asset", path)
		}
		if a.Type() != resourceType {
			return nil, fmt.Errorf("asset '%s' is already cached with resource type %d", path, a.Type())
		}
		a.AddRef()
		return a, nil
	}

	bundleID, _ := rs.index.AssetBundle(path)
	a := resources.NewAsset(path, resourceType, bundleID, rs.decoders[resourceType], rs, rs.driver)
	a.AddRef()
	rs.cache[path] = a
	return a, nil
}

// LoadAsset blocks until the asset is terminal, forcing synchronous
// completion of an in-flight load if one exists. The returned error is
// the asset's own failure, if any; the caller keeps its reference either
// way.
func (rs *ResourceSystem) LoadAsset(path string, resourceType resources.ResourceType) (*resources.Asset, error) {
	a, err := rs.AcquireAsset(path, resourceType)
	if err != nil {
		return nil, err
	}
	a.LoadImmediately()
	return a, a.Err()
}

// LoadAssetAsync returns immediately; onComplete fires exactly once
// after the terminal transition. If the asset is already terminal the
// callback fires on the next scheduling pass, never inline.
func (rs *ResourceSystem) LoadAssetAsync(path string, resourceType resources.ResourceType, onComplete func(resources.Loadable)) (*resources.Asset, error) {
	a, err := rs.AcquireAsset(path, resourceType)
	if err != nil {
		return nil, err
	}
	a.OnComplete(onComplete)
	a.Load()
	return a, nil
}

// LoadBundle blocks until the bundle is terminal.
func (rs *ResourceSystem) LoadBundle(bundleID uint32) (*resources.Bundle, error) {
	b, err := rs.AcquireBundle(bundleID)
	if err != nil {
		return nil, err
	}
	b.LoadImmediately()
	return b, b.Err()
}

// LoadBundleAsync returns immediately; onComplete fires once terminal.
func (rs *ResourceSystem) LoadBundleAsync(bundleID uint32, onComplete func(resources.Loadable)) (*resources.Bundle, error) {
	b, err := rs.AcquireBundle(bundleID)
	if err != nil {
		return nil, err
	}
	b.OnComplete(onComplete)
	b.Load()
	return b, nil
}

// RemoveFromCache evicts one entry and unloads it. Entries still holding
// references are unloaded anyway; this is the explicit eviction hook.
func (rs *ResourceSystem) RemoveFromCache(path string) {
	cached, ok := rs.cache[path]
	if !ok {
		return
	}
	if cached.RefCount() > 0 {
		core.LogWarn("evicting '%s' while it still has %d references", path, cached.RefCount())
	}
	delete(rs.cache, path)
	delete(rs.idle, path)
	rs.policy.Forget(path)
	cached.Unload()
}

// ClearAll force-releases every entry, unloads it and empties the cache.
// A shutdown operation; it never fails.
func (rs *ResourceSystem) ClearAll() {
	for _, cached := range rs.cache {
		cached.FullyRelease()
		cached.Unload()
	}
	rs.cache = make(map[string]resources.Loadable)
	rs.idle = make(map[string]bool)
	rs.policy.Reset()
}

// CachedCount returns the number of live cache entries.
func (rs *ResourceSystem) CachedCount() int {
	return len(rs.cache)
}

// Update drives every cached loadable one tick and reports refcount
// zero-crossings to the eviction policy. No iteration order is
// guaranteed and none may be relied upon.
func (rs *ResourceSystem) Update() {
	for _, cached := range rs.cache {
		cached.Update()
	}
	rs.scanUsage()
}

func (rs *ResourceSystem) Shutdown() error {
	rs.ClearAll()
	return nil
}

func (rs *ResourceSystem) scanUsage() {
	var evict []string
	for path, cached := range rs.cache {
		unused := cached.RefCount() == 0
		switch {
		case unused && !rs.idle[path]:
			rs.idle[path] = true
			evict = append(evict, rs.policy.NoteUnused(path)...)
		case !unused && rs.idle[path]:
			delete(rs.idle, path)
			rs.policy.NoteUsed(path)
		}
	}
	for _, path := range evict {
		rs.RemoveFromCache(path)
	}
}

// newBundle picks local or download-backed loading for a bundle: a file
// already present under the asset base path loads locally; anything else
// is fetched into the download path first.
func (rs *ResourceSystem) newBundle(info *manifest.BundleInfo) resources.Loadable {
	saveName := info.SaveName()
	localPath := filepath.Join(rs.config.AssetBasePath, saveName)
	if _, err := os.Stat(localPath); err == nil || rs.config.DownloadURL == "" {
		return resources.NewBundle(info, localPath, rs, rs.driver)
	}
	savePath := filepath.Join(rs.config.DownloadPath, saveName)
	remoteURL := rs.config.DownloadURL + "/" + saveName
	return resources.NewDownloadBundle(info, savePath, remoteURL, rs, rs.driver, rs.service)
}

func asBundle(l resources.Loadable) (*resources.Bundle, error) {
	if b := asBundleLenient(l); b != nil {
		return b, nil
	}
	return nil, fmt.Errorf("cache entry '%s' is not a bundle", l.Address())
}

func asBundleLenient(l resources.Loadable) *resources.Bundle {
	switch v := l.(type) {
	case *resources.Bundle:
		return v
	case *resources.DownloadBundle:
		return v.AsBundle()
	}
	return nil
}
