package resources

import (
	"fmt"
)

const sceneBundleWeight = 0.9

// Scene is a loadable scene-graph unit. A scene is either the single
// active "main" scene or an additive child attached to one; the
// main/additive bookkeeping itself belongs to the scene system, which
// uses the parent/child accessors below.
type Scene struct {
	LoadableCore

	additive bool
	bundleID uint32
	provider Provider

	bundle *Bundle
	data   []byte

	parent   *Scene
	children []*Scene
}

func NewScene(path string, additive bool, bundleID uint32, provider Provider, driver Driver) *Scene {
	s := &Scene{
		additive: additive,
		bundleID: bundleID,
		provider: provider,
	}
	s.bind(s, path, driver)
	return s
}

func (s *Scene) IsAdditive() bool {
	return s.additive
}

// Data returns the raw scene payload. Only valid while StatusSucceeded.
func (s *Scene) Data() []byte {
	return s.data
}

func (s *Scene) Parent() *Scene {
	return s.parent
}

func (s *Scene) Children() []*Scene {
	return s.children
}

// SetParent attaches this scene under a main scene. Managed by the
// scene system; an additive scene holds its main scene as parent.
func (s *Scene) SetParent(parent *Scene) {
	s.parent = parent
}

// AddChild records an additive scene under this main scene.
func (s *Scene) AddChild(child *Scene) {
	s.children = append(s.children, child)
}

// RemoveChild detaches one additive scene.
func (s *Scene) RemoveChild(child *Scene) {
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// DetachChildren clears the child list and returns the former children.
func (s *Scene) DetachChildren() []*Scene {
	children := s.children
	s.children = nil
	for _, c := range children {
		c.parent = nil
	}
	return children
}

func (s *Scene) onLoadStart() {
	b, err := s.provider.AcquireBundle(s.bundleID)
	if err != nil {
		s.finish(errDependency(s.address, fmt.Sprintf("bundle %d", s.bundleID), err.Error()))
		return
	}
	s.bundle = b
	b.Load()
	if b.Status().Terminal() {
		s.settle()
	}
}

func (s *Scene) onTick() {
	if s.bundle == nil {
		return
	}
	if s.bundle.Status().Terminal() {
		s.settle()
		return
	}
	s.setProgress(sceneBundleWeight * s.bundle.Progress())
}

func (s *Scene) onForceComplete() {
	if s.bundle == nil {
		return
	}
	s.bundle.LoadImmediately()
	s.settle()
}

func (s *Scene) onUnload() {
	s.data = nil
	s.parent = nil
	s.children = nil
	if s.bundle != nil {
		s.bundle.Release()
		s.bundle = nil
	}
}

func (s *Scene) onUnused() {}

func (s *Scene) settle() {
	if s.bundle.Status() == StatusFailed {
		s.finish(errDependency(s.address, s.bundle.Address(), s.bundle.Error()))
		return
	}
	data, ok := s.bundle.Entry(s.address)
	if !ok {
		s.finish(errWithAddress(ErrDeserializeFailure, s.address,
			fmt.Sprintf("no such entry in bundle '%s'", s.bundle.Address())))
		return
	}
	s.data = data
	s.finish(nil)
}
