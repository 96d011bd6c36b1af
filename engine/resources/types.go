package resources

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Text resource type. */
	ResourceTypeText ResourceType = iota
	/** @brief Binary resource type. */
	ResourceTypeBinary
	/** @brief Image resource type. */
	ResourceTypeImage
	/** @brief Bitmap font resource type. */
	ResourceTypeBitmapFont
	/** @brief Scene resource type. */
	ResourceTypeScene
	/** @brief Custom resource type. Used by decoders outside the core engine. */
	ResourceTypeCustom
)

type Status int

const (
	/** @brief Initial state; also the state after an explicit unload. */
	StatusUnloaded Status = iota
	/** @brief A load is in flight and advances one tick at a time. */
	StatusLoading
	/** @brief Terminal: the result is available. */
	StatusSucceeded
	/** @brief Terminal: the load failed; the error message describes why. */
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUnloaded:
		return "unloaded"
	case StatusLoading:
		return "loading"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further progress will happen without an
// explicit new load.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Driver is one scheduling pass of the runtime: it ticks the transfer
// service and every live loadable once. LoadImmediately re-enters it in
// a blocking loop.
type Driver interface {
	Tick()
}

// Provider hands out cached, reference-counted loadables. Implemented by
// the resource system; acquiring through it is what makes dependency
// graphs share instances.
type Provider interface {
	// AcquireBundle returns the live Bundle for the id, incrementing its
	// reference count on behalf of the caller. The bundle may be in any
	// load state.
	AcquireBundle(bundleID uint32) (*Bundle, error)
	// AcquireAsset returns the live Asset for the address, incrementing
	// its reference count on behalf of the caller.
	AcquireAsset(path string, resourceType ResourceType) (*Asset, error)
}

// Decoder materializes one asset object from its raw bundle entry.
type Decoder interface {
	Decode(name string, data []byte) (interface{}, error)
}
