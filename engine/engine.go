package engine

import (
	"fmt"
	"time"

	"github.com/packforge/loadstone/engine/core"
	"github.com/packforge/loadstone/engine/manifest"
	"github.com/packforge/loadstone/engine/systems"
	"github.com/packforge/loadstone/engine/transfer"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Engine is the process-lifetime runtime context: it owns the manifest
// index, the transfer service and the system manager, and runs the
// cooperative tick loop that drives every load.
type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     bool
	index         manifest.Index
	service       transfer.Service
	systemManager *systems.SystemManager
	clock         *core.Clock
	lastTime      float64
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.Config == nil {
		return nil, fmt.Errorf("engine.New requires a game with a config")
	}

	index, err := manifest.LoadIndex(g.Config.Assets.ManifestPath)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	service := transfer.Service(nil)
	if g.Config.Assets.DownloadURL != "" {
		service = transfer.NewHTTPService(&transfer.HTTPServiceConfig{
			Timeout: g.Config.Assets.DownloadTimeout(),
		})
	}

	sm, err := systems.NewSystemManager(&systems.ResourceSystemConfig{
		AssetBasePath: g.Config.Assets.BasePath,
		DownloadPath:  g.Config.Assets.DownloadPath,
		DownloadURL:   g.Config.Assets.DownloadURL,
	}, index, service)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	g.SystemManager = sm

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		clock:         core.NewClock(),
		index:         index,
		service:       service,
		systemManager: sm,
		isRunning:     true,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	cfg := e.gameInstance.Config
	if cfg.Assets.IdleCacheCapacity > 0 {
		policy, err := systems.NewLRUPolicy(cfg.Assets.IdleCacheCapacity)
		if err != nil {
			return err
		}
		e.systemManager.ResourceSystem().SetEvictionPolicy(policy)
	}
	if cfg.Assets.WatchStorage {
		if err := e.systemManager.StorageWatcher().Watch(cfg.Assets.BasePath); err != nil {
			core.LogWarn("cannot watch bundle storage: %s", err.Error())
		}
		if cfg.Assets.DownloadPath != "" {
			// The download dir may not exist until the first fetch.
			if err := e.systemManager.StorageWatcher().Watch(cfg.Assets.DownloadPath); err != nil {
				core.LogDebug("not watching download path: %s", err.Error())
			}
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// SystemManager exposes the subsystems to the hosted game.
func (e *Engine) SystemManager() *systems.SystemManager {
	return e.systemManager
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	targetTickSeconds := 1.0 / float64(e.gameInstance.Config.TicksPerSecond)

	for e.isRunning {
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		tickStart := time.Now()

		// One cooperative scheduling pass over every live loadable.
		e.systemManager.Tick()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("Game update failed, shutting down.")
				e.isRunning = false
				return err
			}
		}

		tickElapsed := time.Since(tickStart).Seconds()
		core.MetricsUpdate(tickElapsed)

		if remaining := targetTickSeconds - tickElapsed; remaining > 0 {
			time.Sleep(time.Duration(remaining * float64(time.Second)))
		}
		e.lastTime = currentTime
	}

	return nil
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			return err
		}
	}
	return e.systemManager.Shutdown()
}
