package resources

import (
	"github.com/packforge/loadstone/engine/core"
)

// Loadable is the lifecycle unit underlying every loadable kind: bundle,
// asset, scene and instantiated object. The state machine lives once, in
// LoadableCore; kinds plug in behavior through the hook methods below.
type Loadable interface {
	// Address returns the logical path this loadable was created for.
	// Immutable after creation.
	Address() string
	Status() Status
	// Progress is in [0,1] and monotone non-decreasing within one load.
	Progress() float64
	HasError() bool
	// Error returns the failure message, empty unless StatusFailed.
	Error() string

	// Load transitions Unloaded -> Loading and kicks off the kind
	// specific start hook. Idempotent: calling it while Loading or in a
	// terminal state does nothing.
	Load()
	// LoadImmediately forces an in-flight load to complete before
	// returning, spinning the driver as needed. Discouraged for
	// operations with unbounded wall-clock time (network transfers); the
	// caller stalls for as long as they take.
	LoadImmediately()
	// Update advances the load by one tick. Driven once per scheduling
	// pass; a no-op outside Loading except for flushing completion
	// callbacks that were registered after the terminal transition.
	Update()

	AddRef()
	Release()
	// FullyRelease zeroes the reference count. Used during bulk teardown.
	FullyRelease()
	RefCount() int

	// OnComplete registers fn to fire exactly once after the terminal
	// transition, in registration order. If the loadable is already
	// terminal the callback fires on the next scheduling pass, never
	// inline.
	OnComplete(fn func(Loadable))

	// Unload tears the result down and returns to Unloaded. Only the
	// cache owner calls this, after the entry has been evicted.
	Unload()
}

// hooks are the kind-specific transition points of the state machine.
type hooks interface {
	// onLoadStart begins the kind's work. May finish synchronously.
	onLoadStart()
	// onTick advances the kind's work by one scheduling pass.
	onTick()
	// onForceComplete drains the kind's work synchronously.
	onForceComplete()
	// onUnload frees the kind's result and releases owned references.
	onUnload()
	// onUnused runs once per refcount zero-crossing.
	onUnused()
}

type kindLoadable interface {
	Loadable
	hooks
}

// LoadableCore is the shared state machine. Kinds embed it and bind
// themselves so that hook dispatch and callbacks see the concrete type.
type LoadableCore struct {
	address   string
	status    Status
	progress  float64
	loadErr   error
	refCount  int
	callbacks []func(Loadable)
	// callbacks registered after the terminal transition; flushed on the
	// next Update so timing-dependent callers behave uniformly
	deferred []func(Loadable)

	self   kindLoadable
	driver Driver
}

// bind wires the concrete kind and the driver into the core. Every kind
// constructor must call it exactly once.
func (c *LoadableCore) bind(self kindLoadable, address string, driver Driver) {
	c.self = self
	c.address = address
	c.driver = driver
}

func (c *LoadableCore) Address() string {
	return c.address
}

func (c *LoadableCore) Status() Status {
	return c.status
}

func (c *LoadableCore) Progress() float64 {
	return c.progress
}

func (c *LoadableCore) HasError() bool {
	return c.loadErr != nil
}

func (c *LoadableCore) Error() string {
	if c.loadErr == nil {
		return ""
	}
	return c.loadErr.Error()
}

// Err exposes the underlying error for errors.Is checks against the
// failure kinds in errors.go.
func (c *LoadableCore) Err() error {
	return c.loadErr
}

func (c *LoadableCore) Load() {
	if c.status != StatusUnloaded {
		return
	}
	c.status = StatusLoading
	c.progress = 0
	c.loadErr = nil
	c.self.onLoadStart()
}

func (c *LoadableCore) LoadImmediately() {
	c.Load()
	if c.status == StatusLoading {
		c.self.onForceComplete()
	}
	// The force hook is expected to reach a terminal state on its own;
	// spin the driver for anything it could not drain.
	for c.status == StatusLoading {
		if c.driver == nil {
			core.LogError("loadable '%s' stuck in LoadImmediately without a driver", c.address)
			c.finish(errWithAddress(ErrDeserializeFailure, c.address, "no driver bound for synchronous load"))
			return
		}
		c.driver.Tick()
	}
}

func (c *LoadableCore) Update() {
	if c.status == StatusLoading {
		c.self.onTick()
		return
	}
	if c.status.Terminal() && len(c.deferred) > 0 {
		cbs := c.deferred
		c.deferred = nil
		for _, cb := range cbs {
			cb(c.self)
		}
	}
}

func (c *LoadableCore) AddRef() {
	c.refCount++
}

func (c *LoadableCore) Release() {
	if c.refCount <= 0 {
		core.LogWarn("release of '%s' with a reference count of zero", c.address)
		return
	}
	c.refCount--
	if c.refCount == 0 {
		c.becomeUnused()
	}
}

func (c *LoadableCore) FullyRelease() {
	if c.refCount == 0 {
		return
	}
	c.refCount = 0
	c.becomeUnused()
}

// becomeUnused clears transient subscribers; the result itself stays
// valid and the loadable can be reacquired without reloading.
func (c *LoadableCore) becomeUnused() {
	c.callbacks = nil
	c.deferred = nil
	c.self.onUnused()
}

func (c *LoadableCore) RefCount() int {
	return c.refCount
}

func (c *LoadableCore) OnComplete(fn func(Loadable)) {
	if fn == nil {
		return
	}
	if c.status.Terminal() {
		c.deferred = append(c.deferred, fn)
		return
	}
	c.callbacks = append(c.callbacks, fn)
}

func (c *LoadableCore) Unload() {
	if c.status == StatusUnloaded {
		return
	}
	if c.status == StatusLoading {
		// Bulk teardown can hit in-flight loads; drive them to a terminal
		// state so the unload hook sees consistent ownership.
		c.finish(errWithAddress(ErrDeserializeFailure, c.address, "unloaded while loading"))
	}
	c.self.onUnload()
	c.status = StatusUnloaded
	c.progress = 0
	c.loadErr = nil
	c.callbacks = nil
	c.deferred = nil
}

// finish is the single terminal transition. Kind hooks call it exactly
// once per load cycle; later calls are ignored.
func (c *LoadableCore) finish(err error) {
	if c.status.Terminal() {
		return
	}
	c.loadErr = err
	if err != nil {
		c.status = StatusFailed
		core.LogError("load of '%s' failed: %s", c.address, err.Error())
	} else {
		c.status = StatusSucceeded
		c.progress = 1
	}
	cbs := c.callbacks
	c.callbacks = nil
	for _, cb := range cbs {
		cb(c.self)
	}
}

// setProgress clamps to [0,1] and never moves backwards within one load.
func (c *LoadableCore) setProgress(p float64) {
	p = core.Clamp(p, 0.0, 1.0)
	if p > c.progress {
		c.progress = p
	}
}
