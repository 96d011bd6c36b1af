package engine

import (
	"github.com/packforge/loadstone/engine/systems"
)

// Game is the client hosted by the engine. The engine drives its hooks
// from the tick loop; the system manager is bound before FnInitialize
// runs.
type Game struct {
	Config        *Config
	SystemManager *systems.SystemManager
	State         interface{}
	FnInitialize  Initialize
	FnUpdate      Update
	FnShutdown    Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type Shutdown func() error
