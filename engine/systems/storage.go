package systems

import (
	"errors"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/packforge/loadstone/engine/core"
)

// StorageWatcher keeps the cache honest about local bundle storage: when
// a cached bundle's backing file is removed or rewritten underneath the
// runtime, the entry is evicted so the next request reloads it. Raw
// fsnotify events arrive on their own goroutine and are queued; all
// cache mutation happens from Update on the driver thread.
type StorageWatcher struct {
	rs       *ResourceSystem
	fsnotify *fsnotify.Watcher
	events   chan fsnotify.Event
	done     chan struct{}
	isClosed bool
}

func NewStorageWatcher(rs *ResourceSystem) (*StorageWatcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	sw := &StorageWatcher{
		rs:       rs,
		fsnotify: fsWatch,
		events:   make(chan fsnotify.Event, 256),
		done:     make(chan struct{}),
	}
	go sw.pump()
	return sw, nil
}

// Watch starts watching one bundle storage directory (non-recursively;
// bundle saves are flat).
func (sw *StorageWatcher) Watch(dir string) error {
	if sw.isClosed {
		return errors.New("storage watcher already closed")
	}
	return sw.fsnotify.Add(dir)
}

// pump forwards raw events to the buffered queue. Overflow drops events;
// a missed eviction only means a stale cache entry until the next
// explicit removal.
func (sw *StorageWatcher) pump() {
	for {
		select {
		case e := <-sw.fsnotify.Events:
			select {
			case sw.events <- e:
			default:
				core.LogWarn("storage watcher queue full, dropping event for '%s'", e.Name)
			}
		case err := <-sw.fsnotify.Errors:
			if err != nil {
				core.LogError("storage watcher: %s", err.Error())
			}
		case <-sw.done:
			sw.fsnotify.Close()
			return
		}
	}
}

// Update drains queued events on the driver thread and evicts cache
// entries whose backing files changed on disk.
func (sw *StorageWatcher) Update() {
	for {
		select {
		case e := <-sw.events:
			if e.Op&(fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
				key := filepath.Base(e.Name)
				core.LogDebug("bundle storage changed on disk, evicting '%s'", key)
				sw.rs.RemoveFromCache(key)
			}
		default:
			return
		}
	}
}

func (sw *StorageWatcher) Close() error {
	if sw.isClosed {
		return nil
	}
	sw.isClosed = true
	close(sw.done)
	return nil
}
