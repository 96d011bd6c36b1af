package systems

import (
	"github.com/packforge/loadstone/engine/manifest"
	"github.com/packforge/loadstone/engine/resources"
	"github.com/packforge/loadstone/engine/resources/loaders"
	"github.com/packforge/loadstone/engine/transfer"
)

// SystemManager wires the subsystems together and is the scheduling
// driver: one Tick is one cooperative scheduling pass over the transfer
// service and every live loadable.
type SystemManager struct {
	resourceSystem *ResourceSystem
	sceneSystem    *SceneSystem
	objectSystem   *ObjectSystem
	storageWatcher *StorageWatcher
	service        transfer.Service
}

func NewSystemManager(config *ResourceSystemConfig, index manifest.Index, service transfer.Service) (*SystemManager, error) {
	rs, err := NewResourceSystem(config, index, service)
	if err != nil {
		return nil, err
	}
	ss, err := NewSceneSystem(rs, index)
	if err != nil {
		return nil, err
	}
	osys, err := NewObjectSystem(rs, index)
	if err != nil {
		return nil, err
	}
	sw, err := NewStorageWatcher(rs)
	if err != nil {
		return nil, err
	}

	sm := &SystemManager{
		resourceSystem: rs,
		sceneSystem:    ss,
		objectSystem:   osys,
		storageWatcher: sw,
		service:        service,
	}
	rs.BindDriver(sm)
	ss.BindDriver(sm)
	osys.BindDriver(sm)

	// Auto-register known decoder types here.
	rs.RegisterDecoder(resources.ResourceTypeText, loaders.TextDecoder{})
	rs.RegisterDecoder(resources.ResourceTypeBinary, loaders.BinaryDecoder{})
	rs.RegisterDecoder(resources.ResourceTypeImage, loaders.ImageDecoder{})
	rs.RegisterDecoder(resources.ResourceTypeBitmapFont, loaders.BitmapFontDecoder{})

	return sm, nil
}

func (sm *SystemManager) ResourceSystem() *ResourceSystem {
	return sm.resourceSystem
}

func (sm *SystemManager) SceneSystem() *SceneSystem {
	return sm.sceneSystem
}

func (sm *SystemManager) ObjectSystem() *ObjectSystem {
	return sm.objectSystem
}

func (sm *SystemManager) StorageWatcher() *StorageWatcher {
	return sm.storageWatcher
}

// Tick implements resources.Driver: one pass over everything that can
// make progress. LoadImmediately re-enters it until its loadable is
// terminal.
func (sm *SystemManager) Tick() {
	if sm.service != nil {
		sm.service.Tick()
	}
	sm.storageWatcher.Update()
	sm.resourceSystem.Update()
	sm.sceneSystem.Update()
	sm.objectSystem.Update()
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.objectSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.sceneSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.resourceSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.storageWatcher.Close(); err != nil {
		return err
	}
	return nil
}
