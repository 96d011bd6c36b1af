package resources

import (
	"fmt"
	"io"
	"os"

	"github.com/packforge/loadstone/engine/manifest"
	"github.com/packforge/loadstone/engine/pack"
)

/** @brief Bytes deserialized from the save file per tick. */
const localReadChunk = 64 * 1024

// Bundle is a loadable packaged container of resources. It acquires and
// loads every bundle in its dependency list before touching its own save
// file; its payload becomes available as named entries on success.
type Bundle struct {
	LoadableCore

	info     *manifest.BundleInfo
	savePath string
	provider Provider

	deps     []*Bundle
	depsDone bool

	// progress composition: depWeight scales the dependency stage,
	// ownBase+ownSpan frame the local deserialize stage
	depWeight float64
	ownBase   float64
	ownSpan   float64

	file      *os.File
	fileSize  int64
	readBytes int64
	buf       []byte
	scratch   []byte

	entries map[string][]byte
}

// NewBundle creates a bundle backed by a file already present in local
// storage. savePath must follow the save-name rule (manifest.SaveName).
func NewBundle(info *manifest.BundleInfo, savePath string, provider Provider, driver Driver) *Bundle {
	b := &Bundle{
		info:      info,
		savePath:  savePath,
		provider:  provider,
		depWeight: 0.5,
		ownBase:   0.5,
		ownSpan:   0.5,
	}
	b.bind(b, info.Name, driver)
	return b
}

func (b *Bundle) Info() *manifest.BundleInfo {
	return b.info
}

// Entry returns the raw payload for a logical address inside this
// bundle. Only valid while StatusSucceeded.
func (b *Bundle) Entry(name string) ([]byte, bool) {
	data, ok := b.entries[name]
	return data, ok
}

func (b *Bundle) onLoadStart() {
	b.start(b.beginLocalLoad)
}

// start runs the shared first half of a bundle load: dependency
// acquisition and, when every dependency is already terminal, entry into
// the kind's own stage.
func (b *Bundle) start(enterOwnStage func()) {
	if !b.acquireDependencies() {
		return
	}
	for _, dep := range b.deps {
		dep.Load()
	}
	if b.dependenciesSettled() {
		b.depsDone = true
		enterOwnStage()
	}
}

func (b *Bundle) onTick() {
	if !b.depsDone {
		if !b.dependenciesSettled() {
			if !b.status.Terminal() {
				b.setProgress(b.depWeight * b.dependencyProgress())
			}
			return
		}
		b.depsDone = true
		b.beginLocalLoad()
		return
	}
	b.tickLocalLoad()
}

func (b *Bundle) onForceComplete() {
	for _, dep := range b.deps {
		dep.LoadImmediately()
	}
	if !b.dependenciesSettled() {
		return
	}
	if !b.depsDone {
		b.depsDone = true
		b.beginLocalLoad()
	}
	for b.status == StatusLoading {
		b.tickLocalLoad()
	}
}

func (b *Bundle) onUnload() {
	if b.file != nil {
		b.file.Close()
		b.file = nil
	}
	b.buf = nil
	b.scratch = nil
	b.entries = nil
	// released in the reverse order of acquisition
	for i := len(b.deps) - 1; i >= 0; i-- {
		b.deps[i].Release()
	}
	b.deps = nil
	b.depsDone = false
	b.readBytes = 0
	b.fileSize = 0
}

func (b *Bundle) onUnused() {}

// acquireDependencies resolves the dependency id list through the
// provider, taking one owned reference per dependency. On failure the
// references taken so far are released and the bundle finishes failed.
func (b *Bundle) acquireDependencies() bool {
	ids := b.info.DependencyIDs
	if len(ids) == 0 {
		return true
	}
	acquired := make([]*Bundle, 0, len(ids))
	for _, id := range ids {
		dep, err := b.provider.AcquireBundle(id)
		if err != nil {
			for i := len(acquired) - 1; i >= 0; i-- {
				acquired[i].Release()
			}
			b.finish(errDependency(b.address, fmt.Sprintf("bundle %d", id), err.Error()))
			return false
		}
		acquired = append(acquired, dep)
	}
	b.deps = acquired
	return true
}

// dependenciesSettled reports whether every dependency reached
// Succeeded. A failed dependency finishes this bundle immediately; its
// own physical load is never attempted.
func (b *Bundle) dependenciesSettled() bool {
	for _, dep := range b.deps {
		if dep.Status() == StatusFailed {
			b.finish(errDependency(b.address, dep.Address(), dep.Error()))
			return false
		}
	}
	for _, dep := range b.deps {
		if dep.Status() != StatusSucceeded {
			return false
		}
	}
	return true
}

// dependencyProgress is the minimum progress across the dependency set.
func (b *Bundle) dependencyProgress() float64 {
	if len(b.deps) == 0 {
		return 1
	}
	minFrac := 1.0
	for _, dep := range b.deps {
		if p := dep.Progress(); p < minFrac {
			minFrac = p
		}
	}
	return minFrac
}

func (b *Bundle) beginLocalLoad() {
	f, err := os.Open(b.savePath)
	if err != nil {
		b.finish(errWithAddress(ErrDeserializeFailure, b.address, err.Error()))
		return
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		b.finish(errWithAddress(ErrDeserializeFailure, b.address, err.Error()))
		return
	}
	b.file = f
	b.fileSize = st.Size()
	b.readBytes = 0
	b.buf = make([]byte, 0, b.fileSize)
}

// tickLocalLoad reads one chunk of the save file per pass and
// deserializes once the whole file is in memory.
func (b *Bundle) tickLocalLoad() {
	if b.file == nil {
		return
	}
	if b.scratch == nil {
		b.scratch = make([]byte, localReadChunk)
	}
	n, err := b.file.Read(b.scratch)
	if n > 0 {
		b.buf = append(b.buf, b.scratch[:n]...)
		b.readBytes += int64(n)
		if b.fileSize > 0 {
			b.setProgress(b.ownBase + b.ownSpan*float64(b.readBytes)/float64(b.fileSize))
		}
	}
	if err == io.EOF || (err == nil && b.readBytes >= b.fileSize) {
		b.file.Close()
		b.file = nil
		b.deserialize()
		return
	}
	if err != nil {
		b.file.Close()
		b.file = nil
		b.finish(errWithAddress(ErrDeserializeFailure, b.address, err.Error()))
	}
}

func (b *Bundle) deserialize() {
	data := b.buf
	b.buf = nil
	b.scratch = nil

	if !b.info.IsRawFile && b.info.Hash != "" {
		if sum := pack.Digest(data); sum != b.info.Hash {
			b.finish(errWithAddress(ErrDeserializeFailure, b.address,
				fmt.Sprintf("content hash mismatch: got %s, want %s", sum, b.info.Hash)))
			return
		}
	}

	if b.info.IsRawFile {
		// Raw files carry a single payload under their logical name.
		b.entries = map[string][]byte{b.info.Name: data}
		b.finish(nil)
		return
	}

	entries, err := pack.Decode(data)
	if err != nil {
		b.finish(errWithAddress(ErrDeserializeFailure, b.address, err.Error()))
		return
	}
	b.entries = make(map[string][]byte, len(entries))
	for _, e := range entries {
		b.entries[e.Name] = e.Data
	}
	b.finish(nil)
}
