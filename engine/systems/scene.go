package systems

import (
	"fmt"

	"github.com/packforge/loadstone/engine/core"
	"github.com/packforge/loadstone/engine/manifest"
	"github.com/packforge/loadstone/engine/resources"
)

// SceneSystem tracks the one-level main/additive scene tree. There is at
// most one main scene; additive scenes hang off it and live exactly as
// long as it stays the main scene.
type SceneSystem struct {
	rs     *ResourceSystem
	index  manifest.Index
	driver resources.Driver

	main   *resources.Scene
	scenes []*resources.Scene
}

func NewSceneSystem(rs *ResourceSystem, index manifest.Index) (*SceneSystem, error) {
	if rs == nil || index == nil {
		return nil, fmt.Errorf("failed to run NewSceneSystem: resource system and manifest index are required")
	}
	return &SceneSystem{
		rs:    rs,
		index: index,
	}, nil
}

func (ss *SceneSystem) BindDriver(driver resources.Driver) {
	ss.driver = driver
}

// MainScene returns the current main scene, nil before the first load.
func (ss *SceneSystem) MainScene() *resources.Scene {
	return ss.main
}

// LoadScene begins loading a scene. A non-additive load releases the
// previous main scene (it is not forcibly destroyed; outside holders
// keep it alive) and detaches its additive children. An additive load
// attaches to the current main scene.
func (ss *SceneSystem) LoadScene(path string, additive bool, onComplete func(resources.Loadable)) (*resources.Scene, error) {
	if !ss.index.ContainsAsset(path) {
		return nil, fmt.Errorf("%w: '%s' is not in the manifest", resources.ErrUnknownResource, path)
	}
	if additive && ss.main == nil {
		return nil, fmt.Errorf("cannot load additive scene '%s': no main scene is active", path)
	}

	bundleID, _ := ss.index.AssetBundle(path)
	s := resources.NewScene(path, additive, bundleID, ss.rs, ss.driver)
	s.AddRef()
	ss.scenes = append(ss.scenes, s)

	if additive {
		s.SetParent(ss.main)
		ss.main.AddChild(s)
	} else {
		if prev := ss.main; prev != nil {
			for _, child := range prev.DetachChildren() {
				child.Release()
			}
			prev.Release()
			core.LogDebug("main scene '%s' released in favour of '%s'", prev.Address(), path)
		}
		ss.main = s
	}

	s.OnComplete(onComplete)
	s.Load()
	return s, nil
}

// UnloadScene releases one scene. Additive scenes are detached from
// their parent; unloading the main scene also releases its children.
func (ss *SceneSystem) UnloadScene(s *resources.Scene) {
	if s == nil {
		return
	}
	if parent := s.Parent(); parent != nil {
		parent.RemoveChild(s)
		s.SetParent(nil)
	}
	if s == ss.main {
		for _, child := range s.DetachChildren() {
			child.Release()
		}
		ss.main = nil
	}
	s.Release()
}

// OperationsInFlight counts outstanding scene load operations, so
// callers can hold higher-level transitions until the subsystem is
// quiescent.
func (ss *SceneSystem) OperationsInFlight() int {
	count := 0
	for _, s := range ss.scenes {
		if s.Status() == resources.StatusLoading {
			count++
		}
	}
	return count
}

// Update ticks every live scene and tears down released ones. A released
// scene still in flight keeps loading; its teardown waits for the
// terminal state.
func (ss *SceneSystem) Update() {
	for _, s := range ss.scenes {
		s.Update()
	}
	kept := ss.scenes[:0]
	for _, s := range ss.scenes {
		if s.RefCount() == 0 && s.Status() != resources.StatusLoading {
			s.Unload()
			continue
		}
		kept = append(kept, s)
	}
	ss.scenes = kept
}

func (ss *SceneSystem) Shutdown() error {
	for _, s := range ss.scenes {
		s.FullyRelease()
		s.Unload()
	}
	ss.scenes = nil
	ss.main = nil
	return nil
}
