package manifest

import (
	"encoding/json"
	"fmt"
	"os"
)

/** @brief Metadata describing one packaged bundle, as produced by the build pipeline. */
type BundleInfo struct {
	/** @brief The numeric bundle identifier, unique within a manifest version. */
	ID uint32 `json:"id"`
	/** @brief The logical bundle name, also the save name for raw files. */
	Name string `json:"name"`
	/** @brief Raw files are stored unpacked under their logical name. */
	IsRawFile bool `json:"is_raw_file"`
	/** @brief Logical addresses of the assets contained in this bundle. */
	AssetPaths []string `json:"asset_paths"`
	/** @brief The size of the packed file in bytes. */
	Size int64 `json:"size"`
	/** @brief Hex-encoded content hash of the packed file. */
	Hash string `json:"hash"`
	/** @brief The hash-qualified on-disk file name for packed bundles. */
	HashedFileName string `json:"hashed_file_name"`
	/** @brief IDs of the bundles this bundle depends on. */
	DependencyIDs []uint32 `json:"dependency_ids"`
}

// SaveName returns the on-disk file name for this bundle. Raw files keep
// their logical name; packed bundles use the hash-qualified name. Cache
// keys and file lookups both depend on this rule, so it lives in exactly
// one place.
func (b *BundleInfo) SaveName() string {
	if b.IsRawFile {
		return b.Name
	}
	return b.HashedFileName
}

// Index is the read-only lookup service over one manifest version. A new
// manifest version is loaded into a fresh Index and swapped in whole.
type Index interface {
	// ContainsAsset reports whether the logical address is known.
	ContainsAsset(path string) bool
	// AssetBundle resolves an asset address to its owning bundle id.
	AssetBundle(path string) (uint32, bool)
	// BundleDependencies returns the direct dependency ids of a bundle.
	BundleDependencies(bundleID uint32) []uint32
	// Bundle returns the metadata for a bundle id.
	Bundle(bundleID uint32) (*BundleInfo, bool)
}

type memoryIndex struct {
	bundles map[uint32]*BundleInfo
	assets  map[string]uint32
}

// NewIndex builds an Index from bundle metadata. Asset addresses are
// mapped to the first bundle that lists them.
func NewIndex(bundles []*BundleInfo) Index {
	idx := &memoryIndex{
		bundles: make(map[uint32]*BundleInfo, len(bundles)),
		assets:  make(map[string]uint32),
	}
	for _, b := range bundles {
		idx.bundles[b.ID] = b
		for _, p := range b.AssetPaths {
			if _, taken := idx.assets[p]; !taken {
				idx.assets[p] = b.ID
			}
		}
	}
	return idx
}

func (m *memoryIndex) ContainsAsset(path string) bool {
	_, ok := m.assets[path]
	return ok
}

func (m *memoryIndex) AssetBundle(path string) (uint32, bool) {
	id, ok := m.assets[path]
	return id, ok
}

func (m *memoryIndex) BundleDependencies(bundleID uint32) []uint32 {
	b, ok := m.bundles[bundleID]
	if !ok {
		return nil
	}
	return b.DependencyIDs
}

func (m *memoryIndex) Bundle(bundleID uint32) (*BundleInfo, bool) {
	b, ok := m.bundles[bundleID]
	return b, ok
}

// LoadIndex reads a manifest file written by the packaging pipeline. The
// file is a JSON array of bundle entries.
func LoadIndex(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest '%s': %w", path, err)
	}
	var bundles []*BundleInfo
	if err := json.Unmarshal(data, &bundles); err != nil {
		return nil, fmt.Errorf("failed to parse manifest '%s': %w", path, err)
	}
	return NewIndex(bundles), nil
}
