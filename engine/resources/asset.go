package resources

import (
	"fmt"
)

// assetBundleWeight is the share of an asset's progress attributed to
// its owning bundle; the remainder covers decoding.
const assetBundleWeight = 0.9

// Asset is one logical, typed resource materialized from within a
// bundle. It owns a reference to its bundle for its whole lifetime and
// releases it on unload.
type Asset struct {
	LoadableCore

	resourceType ResourceType
	bundleID     uint32
	provider     Provider
	decoder      Decoder

	bundle *Bundle
	object interface{}
}

func NewAsset(path string, resourceType ResourceType, bundleID uint32, decoder Decoder, provider Provider, driver Driver) *Asset {
	a := &Asset{
		resourceType: resourceType,
		bundleID:     bundleID,
		provider:     provider,
		decoder:      decoder,
	}
	a.bind(a, path, driver)
	return a
}

func (a *Asset) Type() ResourceType {
	return a.resourceType
}

// Object returns the decoded result. Only valid while StatusSucceeded.
func (a *Asset) Object() interface{} {
	return a.object
}

func (a *Asset) onLoadStart() {
	b, err := a.provider.AcquireBundle(a.bundleID)
	if err != nil {
		a.finish(errDependency(a.address, fmt.Sprintf("bundle %d", a.bundleID), err.Error()))
		return
	}
	a.bundle = b
	b.Load()
	if b.Status().Terminal() {
		a.settle()
	}
}

func (a *Asset) onTick() {
	if a.bundle == nil {
		return
	}
	if a.bundle.Status().Terminal() {
		a.settle()
		return
	}
	a.setProgress(assetBundleWeight * a.bundle.Progress())
}

func (a *Asset) onForceComplete() {
	if a.bundle == nil {
		return
	}
	a.bundle.LoadImmediately()
	a.settle()
}

func (a *Asset) onUnload() {
	a.object = nil
	if a.bundle != nil {
		a.bundle.Release()
		a.bundle = nil
	}
}

func (a *Asset) onUnused() {}

// settle runs once the owning bundle is terminal: propagate its failure
// or decode this asset's entry.
func (a *Asset) settle() {
	if a.bundle.Status() == StatusFailed {
		a.finish(errDependency(a.address, a.bundle.Address(), a.bundle.Error()))
		return
	}
	data, ok := a.bundle.Entry(a.address)
	if !ok {
		a.finish(errWithAddress(ErrDeserializeFailure, a.address,
			fmt.Sprintf("no such entry in bundle '%s'", a.bundle.Address())))
		return
	}
	if a.decoder == nil {
		a.finish(errWithAddress(ErrDeserializeFailure, a.address,
			fmt.Sprintf("no decoder registered for resource type %d", a.resourceType)))
		return
	}
	obj, err := a.decoder.Decode(a.address, data)
	if err != nil {
		a.finish(errWithAddress(ErrDeserializeFailure, a.address, err.Error()))
		return
	}
	a.object = obj
	a.finish(nil)
}
