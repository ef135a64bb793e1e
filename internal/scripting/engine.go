package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/basaltengine/basalt/internal/scene"
)

// Engine wraps a single gopher-lua VM hosting node behaviors. Lua files call
// register_behavior(id, name, {start = fn, update = fn}) at load time; Bind
// then exposes every registered behavior to the scene registry under its
// numeric id, next to the built-in Go behaviors.
//
// Single-goroutine access only (frame loop).
type Engine struct {
	vm        *lua.LState
	log       *zap.Logger
	behaviors map[uint32]*luaBehavior
}

type luaBehavior struct {
	name   string
	start  lua.LValue // LNil when the table omits the callback
	update lua.LValue
}

// NewEngine creates an empty VM with the register_behavior global installed.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:        vm,
		log:       log,
		behaviors: make(map[uint32]*luaBehavior),
	}
	vm.SetGlobal("register_behavior", vm.NewFunction(e.registerBehavior))
	return e
}

func (e *Engine) Close() { e.vm.Close() }

// LoadDir loads all .lua files in a directory, sorted by name so behavior
// registration order is stable. A missing directory is not an error; a game
// without Lua behaviors is fine.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source directly.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// BehaviorCount returns how many behaviors the loaded scripts registered.
func (e *Engine) BehaviorCount() int { return len(e.behaviors) }

// Bind registers every loaded behavior with the scene registry. Colliding
// with an id the registry already holds is fatal, same as between two Go
// behaviors.
func (e *Engine) Bind(reg *scene.Registry) {
	ids := make([]uint32, 0, len(e.behaviors))
	for id := range e.behaviors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		b := e.behaviors[id]
		reg.Register(id, b.name, func() scene.Script {
			return &nodeScript{eng: e, b: b, state: e.vm.NewTable()}
		})
	}
}

func (e *Engine) registerBehavior(L *lua.LState) int {
	id := uint32(L.CheckInt(1))
	name := L.CheckString(2)
	tbl := L.CheckTable(3)
	if id == 0 {
		L.ArgError(1, "behavior id 0 is reserved")
	}
	if prev, dup := e.behaviors[id]; dup {
		L.ArgError(1, fmt.Sprintf("behavior id %d already registered as %q", id, prev.name))
	}
	e.behaviors[id] = &luaBehavior{
		name:   name,
		start:  tbl.RawGetString("start"),
		update: tbl.RawGetString("update"),
	}
	e.log.Debug("registered lua behavior", zap.Uint32("id", id), zap.String("name", name))
	return 0
}

// nodeScript adapts one node's Lua behavior to the scene script contract.
// state is a per-node table the callbacks share across frames.
type nodeScript struct {
	eng   *Engine
	b     *luaBehavior
	state *lua.LTable
}

func (s *nodeScript) Start(ctx *scene.Context)  { s.eng.call(s.b, s.b.start, s.state, ctx) }
func (s *nodeScript) Update(ctx *scene.Context) { s.eng.call(s.b, s.b.update, s.state, ctx) }

// call dispatches one callback with a fresh context table and the node's
// state table. A Lua error is logged and the node keeps running; scripts are
// data, and bad data must not take the frame loop down.
func (e *Engine) call(b *luaBehavior, fn lua.LValue, state *lua.LTable, ctx *scene.Context) {
	if fn == lua.LNil {
		return
	}
	t := e.buildContext(ctx)
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, t, state); err != nil {
		e.log.Error("lua behavior error", zap.String("behavior", b.name), zap.Error(err))
		return
	}

	ctx.Node.Transform.X = uint32(lua.LVAsNumber(t.RawGetString("x")))
	ctx.Node.Transform.Y = uint32(lua.LVAsNumber(t.RawGetString("y")))
	ctx.Node.Enabled = lua.LVAsBool(t.RawGetString("enabled"))
}

// buildContext packs the node view and the hierarchy verbs into a table.
// x, y and enabled are read back after the call so plain assignments in Lua
// move the node.
func (e *Engine) buildContext(ctx *scene.Context) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(ctx.Node.Name))
	t.RawSetString("x", lua.LNumber(ctx.Node.Transform.X))
	t.RawSetString("y", lua.LNumber(ctx.Node.Transform.Y))
	t.RawSetString("enabled", lua.LBool(ctx.Node.Enabled))

	t.RawSetString("held", e.vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(ctx.Input.Held(e.checkButton(L, 1))))
		return 1
	}))
	t.RawSetString("pressed", e.vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(ctx.Input.Pressed(e.checkButton(L, 1))))
		return 1
	}))
	t.RawSetString("spawn", e.vm.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if _, ok := ctx.H.Catalog().GraphNamed(name); !ok {
			L.RaiseError("no prefab graph named %q", name)
		}
		ctx.Spawn(name)
		return 0
	}))
	t.RawSetString("destroy_self", e.vm.NewFunction(func(L *lua.LState) int {
		ctx.DestroySelf()
		return 0
	}))
	t.RawSetString("set_scene", e.vm.NewFunction(func(L *lua.LState) int {
		ctx.SetScene(L.CheckString(1))
		return 0
	}))
	t.RawSetString("find_child", e.vm.NewFunction(func(L *lua.LState) int {
		_, ok := ctx.FindChild(L.CheckString(1))
		L.Push(lua.LBool(ok))
		return 1
	}))
	return t
}

func (e *Engine) checkButton(L *lua.LState, arg int) scene.Button {
	b, err := scene.ParseButton(L.CheckString(arg))
	if err != nil {
		L.ArgError(arg, err.Error())
	}
	return b
}
