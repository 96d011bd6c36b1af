package systems

import (
	"fmt"

	"github.com/packforge/loadstone/engine/manifest"
	"github.com/packforge/loadstone/engine/resources"
)

// ObjectSystem spawns instances from assets and owns their instance
// objects until destroyed.
type ObjectSystem struct {
	rs     *ResourceSystem
	index  manifest.Index
	driver resources.Driver

	objects []*resources.InstanceObject
}

func NewObjectSystem(rs *ResourceSystem, index manifest.Index) (*ObjectSystem, error) {
	if rs == nil || index == nil {
		return nil, fmt.Errorf("failed to run NewObjectSystem: resource system and manifest index are required")
	}
	return &ObjectSystem{
		rs:    rs,
		index: index,
	}, nil
}

func (osys *ObjectSystem) BindDriver(driver resources.Driver) {
	osys.driver = driver
}

// Instantiate begins spawning an instance of the addressed asset. The
// returned instance object is a poll-based future: check IsDone and
// Result, or register OnComplete.
func (osys *ObjectSystem) Instantiate(path string, resourceType resources.ResourceType) (*resources.InstanceObject, error) {
	if !osys.index.ContainsAsset(path) {
		return nil, fmt.Errorf("%w: '%s' is not in the manifest", resources.ErrUnknownResource, path)
	}
	o := resources.NewInstanceObject(path, resourceType, osys.rs, osys.driver)
	o.AddRef()
	osys.objects = append(osys.objects, o)
	o.Load()
	return o, nil
}

// Destroy tears one instance object down and drops the system's
// reference. Safe to call while the instantiation is still in flight.
func (osys *ObjectSystem) Destroy(o *resources.InstanceObject) {
	if o == nil {
		return
	}
	o.Destroy()
	o.Release()
}

// Update ticks every live instance object and tears down released ones.
// A released object still in flight keeps loading; its teardown waits
// for the terminal state.
func (osys *ObjectSystem) Update() {
	for _, o := range osys.objects {
		o.Update()
	}
	kept := osys.objects[:0]
	for _, o := range osys.objects {
		if o.RefCount() == 0 && o.Status() != resources.StatusLoading {
			o.Unload()
			continue
		}
		kept = append(kept, o)
	}
	osys.objects = kept
}

func (osys *ObjectSystem) Shutdown() error {
	for _, o := range osys.objects {
		o.Destroy()
		o.FullyRelease()
	}
	osys.objects = nil
	return nil
}
