package testbed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/packforge/loadstone/engine"
	"github.com/packforge/loadstone/engine/core"
	"github.com/packforge/loadstone/engine/manifest"
	"github.com/packforge/loadstone/engine/pack"
	"github.com/packforge/loadstone/engine/resources"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	motd     *resources.Asset
	banner   *resources.InstanceObject
	level    *resources.Scene
	finished bool
}

func NewTestGame() (*TestGame, error) {
	cfg := engine.DefaultConfig()
	cfg.Name = "Loadstone Testbed"

	// The testbed ships its own tiny content set so it can run without a
	// packaging pipeline.
	if err := writeSampleContent(cfg); err != nil {
		return nil, err
	}

	tg := &TestGame{
		Game: &engine.Game{
			Config: cfg,
			State:  &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

func (g *TestGame) Initialize() error {
	core.LogInfo("initializing testbed...")
	state := g.State.(*gameState)
	rs := g.SystemManager.ResourceSystem()

	motd, err := rs.LoadAssetAsync("ui/motd.txt", resources.ResourceTypeText, func(l resources.Loadable) {
		if l.HasError() {
			core.LogError("motd failed: %s", l.Error())
			return
		}
		core.LogInfo("motd: %s", l.(*resources.Asset).Object().(string))
	})
	if err != nil {
		return err
	}
	state.motd = motd

	banner, err := g.SystemManager.ObjectSystem().Instantiate("level01/banner.txt", resources.ResourceTypeText)
	if err != nil {
		return err
	}
	state.banner = banner

	level, err := g.SystemManager.SceneSystem().LoadScene("level01/scene", false, func(l resources.Loadable) {
		core.LogInfo("scene '%s' is %s", l.Address(), l.Status())
	})
	if err != nil {
		return err
	}
	state.level = level

	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	if state.finished {
		return nil
	}
	if !state.banner.IsDone() || state.level.Status() == resources.StatusLoading {
		return nil
	}
	state.finished = true

	if state.banner.HasError() {
		core.LogError("banner spawn failed: %s", state.banner.Error())
	} else {
		inst := state.banner.Result()
		core.LogInfo("spawned banner %s: %s", inst.ID, inst.Object.(string))
	}
	core.LogInfo("scene operations in flight: %d", g.SystemManager.SceneSystem().OperationsInFlight())
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	if state.banner != nil {
		g.SystemManager.ObjectSystem().Destroy(state.banner)
	}
	if state.level != nil {
		g.SystemManager.SceneSystem().UnloadScene(state.level)
	}
	if state.motd != nil {
		state.motd.Release()
	}
	return nil
}

// writeSampleContent authors two bundles and a manifest under the
// configured asset paths: a common bundle and a level bundle depending
// on it.
func writeSampleContent(cfg *engine.Config) error {
	if _, err := os.Stat(cfg.Assets.ManifestPath); err == nil {
		return nil
	}
	if err := os.MkdirAll(cfg.Assets.BasePath, 0o755); err != nil {
		return err
	}

	common, err := pack.Encode([]pack.Entry{
		{Name: "ui/motd.txt", Data: []byte("welcome to loadstone")},
	})
	if err != nil {
		return err
	}
	level, err := pack.Encode([]pack.Entry{
		{Name: "level01/banner.txt", Data: []byte("LEVEL 01")},
		{Name: "level01/scene", Data: []byte("scene: level01")},
	})
	if err != nil {
		return err
	}

	infos := []*manifest.BundleInfo{
		{
			ID:             1,
			Name:           "common",
			AssetPaths:     []string{"ui/motd.txt"},
			Size:           int64(len(common)),
			Hash:           pack.Digest(common),
			HashedFileName: fmt.Sprintf("common_%s.bundle", pack.Digest(common)[:8]),
		},
		{
			ID:             2,
			Name:           "level01",
			AssetPaths:     []string{"level01/banner.txt", "level01/scene"},
			Size:           int64(len(level)),
			Hash:           pack.Digest(level),
			HashedFileName: fmt.Sprintf("level01_%s.bundle", pack.Digest(level)[:8]),
			DependencyIDs:  []uint32{1},
		},
	}

	for i, data := range [][]byte{common, level} {
		if err := os.WriteFile(filepath.Join(cfg.Assets.BasePath, infos[i].SaveName()), data, 0o644); err != nil {
			return err
		}
	}

	manifestData, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Assets.ManifestPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(cfg.Assets.ManifestPath, manifestData, 0o644)
}
