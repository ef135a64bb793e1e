package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/basaltengine/basalt/internal/prefab"
	"github.com/basaltengine/basalt/internal/scene"
)

const moverID uint32 = 10

type padInput struct {
	held    map[scene.Button]bool
	pressed map[scene.Button]bool
}

func (p padInput) Held(b scene.Button) bool    { return p.held[b] }
func (p padInput) Pressed(b scene.Button) bool { return p.pressed[b] }

func testCatalog() *prefab.Catalog {
	return &prefab.Catalog{
		Graphs: []prefab.Graph{
			{Nodes: []prefab.Node{
				{Name: "Mover", ScriptTypeID: moverID, Enabled: true, Transform: prefab.Transform{X: 100, Y: 50}},
			}},
			{Nodes: []prefab.Node{
				{Name: "Spark", Enabled: true},
			}},
		},
	}
}

// newLuaWorld loads src into a fresh engine, binds it to a registry and
// builds a hierarchy around the test catalog.
func newLuaWorld(t *testing.T, src string, in scene.Input) (*scene.Hierarchy, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	eng := NewEngine(log)
	t.Cleanup(eng.Close)
	require.NoError(t, eng.LoadString(src))

	reg := scene.NewRegistry()
	eng.Bind(reg)
	return scene.New(testCatalog(), reg, in, log), logs
}

func TestRegisterBehaviorFromLua(t *testing.T) {
	eng := NewEngine(nil)
	defer eng.Close()

	err := eng.LoadString(`
		register_behavior(10, "Mover", { start = function() end })
		register_behavior(11, "Idle", {})
	`)
	require.NoError(t, err)
	assert.Equal(t, 2, eng.BehaviorCount())
}

func TestRegisterBehaviorRejectsBadIDs(t *testing.T) {
	eng := NewEngine(nil)
	defer eng.Close()

	assert.Error(t, eng.LoadString(`register_behavior(0, "Zero", {})`))

	require.NoError(t, eng.LoadString(`register_behavior(10, "First", {})`))
	assert.Error(t, eng.LoadString(`register_behavior(10, "Second", {})`))
}

func TestDispatchMovesNode(t *testing.T) {
	h, _ := newLuaWorld(t, `
		register_behavior(10, "Mover", {
			start = function(ctx, state)
				ctx.y = 0
			end,
			update = function(ctx, state)
				ctx.x = ctx.x + 2
			end,
		})
	`, nil)

	hd := h.SpawnPrefabByName("Mover", h.Root())
	h.RunPendingScriptStarts()
	h.RunScriptUpdate()
	h.RunScriptUpdate()

	n := h.Borrow(hd)
	assert.Equal(t, uint32(104), n.Transform.X)
	assert.Equal(t, uint32(0), n.Transform.Y)
}

func TestStateTablePersistsAcrossFrames(t *testing.T) {
	h, _ := newLuaWorld(t, `
		register_behavior(10, "Mover", {
			start = function(ctx, state)
				state.ticks = 0
			end,
			update = function(ctx, state)
				state.ticks = state.ticks + 1
				ctx.x = state.ticks
			end,
		})
	`, nil)

	hd := h.SpawnPrefabByName("Mover", h.Root())
	h.RunPendingScriptStarts()
	for i := 0; i < 3; i++ {
		h.RunScriptUpdate()
	}
	assert.Equal(t, uint32(3), h.Borrow(hd).Transform.X)
}

func TestLuaErrorIsLoggedNotFatal(t *testing.T) {
	h, logs := newLuaWorld(t, `
		register_behavior(10, "Mover", {
			update = function(ctx, state)
				error("boom")
			end,
		})
	`, nil)

	hd := h.SpawnPrefabByName("Mover", h.Root())
	h.RunPendingScriptStarts()
	h.RunScriptUpdate()

	_, alive := h.TryBorrow(hd)
	assert.True(t, alive, "a script error must not take the node down")
	require.Equal(t, 1, logs.FilterMessage("lua behavior error").Len())
}

func TestDestroySelfFromLua(t *testing.T) {
	h, _ := newLuaWorld(t, `
		register_behavior(10, "Mover", {
			update = function(ctx, state)
				ctx.destroy_self()
			end,
		})
	`, nil)

	hd := h.SpawnPrefabByName("Mover", h.Root())
	h.RunPendingScriptStarts()
	h.RunScriptUpdate()

	_, alive := h.TryBorrow(hd)
	assert.False(t, alive)
	assert.Equal(t, 1, h.NodeCount())
}

func TestSpawnFromLua(t *testing.T) {
	h, _ := newLuaWorld(t, `
		register_behavior(10, "Mover", {
			start = function(ctx, state)
				ctx.spawn("Spark")
			end,
		})
	`, nil)

	h.SpawnPrefabByName("Mover", h.Root())
	h.RunPendingScriptStarts()

	_, ok := h.FindByName(h.Root(), "Spark")
	assert.True(t, ok)
}

func TestSpawnUnknownPrefabIsScriptError(t *testing.T) {
	h, logs := newLuaWorld(t, `
		register_behavior(10, "Mover", {
			start = function(ctx, state)
				ctx.spawn("Ghost")
			end,
		})
	`, nil)

	hd := h.SpawnPrefabByName("Mover", h.Root())
	h.RunPendingScriptStarts()

	_, alive := h.TryBorrow(hd)
	assert.True(t, alive)
	require.Equal(t, 1, logs.FilterMessage("lua behavior error").Len())
}

func TestInputReachesLua(t *testing.T) {
	in := padInput{
		held:    map[scene.Button]bool{scene.ButtonRight: true},
		pressed: map[scene.Button]bool{scene.ButtonA: true},
	}
	h, _ := newLuaWorld(t, `
		register_behavior(10, "Mover", {
			update = function(ctx, state)
				if ctx.held("RIGHT") then ctx.x = ctx.x + 1 end
				if ctx.pressed("A") then ctx.y = ctx.y + 1 end
				if ctx.held("LEFT") then ctx.x = ctx.x - 100 end
			end,
		})
	`, in)

	hd := h.SpawnPrefabByName("Mover", h.Root())
	h.RunPendingScriptStarts()
	h.RunScriptUpdate()

	n := h.Borrow(hd)
	assert.Equal(t, uint32(101), n.Transform.X)
	assert.Equal(t, uint32(51), n.Transform.Y)
}

func TestSetSceneFromLua(t *testing.T) {
	h, _ := newLuaWorld(t, `
		register_behavior(10, "Mover", {
			update = function(ctx, state)
				ctx.set_scene("Spark")
			end,
		})
	`, nil)

	h.SpawnPrefabByName("Mover", h.Root())
	h.RunPendingScriptStarts()
	h.RunScriptUpdate()

	name, ok := h.TakeSceneRequest()
	require.True(t, ok)
	assert.Equal(t, "Spark", name)
}

func TestFindChildFromLua(t *testing.T) {
	h, _ := newLuaWorld(t, `
		register_behavior(10, "Mover", {
			update = function(ctx, state)
				if ctx.find_child("Spark") then
					ctx.x = 1
				else
					ctx.x = 2
				end
			end,
		})
	`, nil)

	hd := h.SpawnPrefabByName("Mover", h.Root())
	h.RunPendingScriptStarts()
	h.RunScriptUpdate()
	assert.Equal(t, uint32(2), h.Borrow(hd).Transform.X)

	h.SpawnPrefabByName("Spark", hd)
	h.RunPendingScriptStarts()
	h.RunScriptUpdate()
	assert.Equal(t, uint32(1), h.Borrow(hd).Transform.X)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_second.lua"),
		[]byte(`register_behavior(11, "Second", {})`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_first.lua"),
		[]byte(`register_behavior(10, "First", {})`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte(`not lua`), 0o644))

	eng := NewEngine(nil)
	defer eng.Close()
	require.NoError(t, eng.LoadDir(dir))
	assert.Equal(t, 2, eng.BehaviorCount())
}

func TestLoadDirMissingIsFine(t *testing.T) {
	eng := NewEngine(nil)
	defer eng.Close()
	assert.NoError(t, eng.LoadDir(filepath.Join(t.TempDir(), "nope")))
}

func TestLoadDirBadLuaFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.lua"),
		[]byte(`this is not lua`), 0o644))

	eng := NewEngine(nil)
	defer eng.Close()
	assert.Error(t, eng.LoadDir(dir))
}
