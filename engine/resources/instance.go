package resources

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/packforge/loadstone/engine/core"
)

const instanceAssetWeight = 0.9

// Instance is one spawned occurrence of an asset.
type Instance struct {
	ID     uuid.UUID
	Name   string
	Object interface{}
}

// InstanceObject is a loadable wrapper that depends on exactly one Asset
// and produces a spawned Instance. It doubles as a poll-based future
// (IsDone/Result/Err) so cooperative callers can wait on it without
// callback plumbing.
type InstanceObject struct {
	LoadableCore

	resourceType ResourceType
	provider     Provider

	asset    *Asset
	instance *Instance
}

func NewInstanceObject(path string, resourceType ResourceType, provider Provider, driver Driver) *InstanceObject {
	o := &InstanceObject{
		resourceType: resourceType,
		provider:     provider,
	}
	o.bind(o, path, driver)
	return o
}

// IsDone reports whether the instantiation reached a terminal state.
func (o *InstanceObject) IsDone() bool {
	return o.status.Terminal()
}

// Result returns the spawned instance, nil until success.
func (o *InstanceObject) Result() *Instance {
	return o.instance
}

// Destroy tears the instance object down. Called before completion it
// forces the pending load to a failed terminal state first, so the
// in-flight asset reference cannot leak, then frees the spawned instance
// and releases the asset.
func (o *InstanceObject) Destroy() {
	if o.status == StatusLoading {
		core.LogWarn("instance object '%s' destroyed before instantiation completed", o.address)
		o.finish(fmt.Errorf("instantiation of '%s' destroyed before completion", o.address))
	}
	o.Unload()
}

func (o *InstanceObject) onLoadStart() {
	a, err := o.provider.AcquireAsset(o.address, o.resourceType)
	if err != nil {
		o.finish(errDependency(o.address, o.address, err.Error()))
		return
	}
	o.asset = a
	a.Load()
	if a.Status().Terminal() {
		o.settle()
	}
}

func (o *InstanceObject) onTick() {
	if o.asset == nil {
		return
	}
	if o.asset.Status().Terminal() {
		o.settle()
		return
	}
	o.setProgress(instanceAssetWeight * o.asset.Progress())
}

func (o *InstanceObject) onForceComplete() {
	if o.asset == nil {
		return
	}
	o.asset.LoadImmediately()
	o.settle()
}

func (o *InstanceObject) onUnload() {
	o.instance = nil
	if o.asset != nil {
		o.asset.Release()
		o.asset = nil
	}
}

func (o *InstanceObject) onUnused() {}

func (o *InstanceObject) settle() {
	if o.asset.Status() == StatusFailed {
		o.finish(errDependency(o.address, o.asset.Address(), o.asset.Error()))
		return
	}
	o.instance = &Instance{
		ID:     uuid.New(),
		Name:   o.address,
		Object: o.asset.Object(),
	}
	o.finish(nil)
}
