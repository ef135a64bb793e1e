package scene

import (
	"fmt"

	"github.com/basaltengine/basalt/internal/core/pool"
)

// Script is per-node behavior. Start runs exactly once, strictly before the
// node's first Update; Update runs every scheduling pass while the node is
// alive. Callbacks run to completion on the frame goroutine, never
// concurrently.
type Script interface {
	Start(*Context)
	Update(*Context)
}

// Factory constructs a fresh script instance for one node.
type Factory func() Script

// Registry maps the numeric script type ids found in prefab data to
// factories. It is built once at startup and handed to the Hierarchy
// constructor; prefab records store only the id, so this is the sole place
// concrete behavior types are named.
type Registry struct {
	factories map[uint32]Factory
	names     map[uint32]string
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[uint32]Factory),
		names:     make(map[uint32]string),
	}
}

// Register binds a type id to a factory. Id 0 is reserved for "no script";
// rebinding an id or passing a nil factory is a fatal misconfiguration.
func (r *Registry) Register(id uint32, name string, f Factory) {
	if id == 0 {
		panic("scene: script type id 0 is reserved")
	}
	if f == nil {
		panic(fmt.Sprintf("scene: nil factory for script type %d (%s)", id, name))
	}
	if prev, dup := r.names[id]; dup {
		panic(fmt.Sprintf("scene: script type %d registered twice (%s, then %s)", id, prev, name))
	}
	r.factories[id] = f
	r.names[id] = name
}

// New constructs a script for a type id. An id the program never registered
// means the catalog and the code disagree, which is fatal.
func (r *Registry) New(id uint32) Script {
	f, ok := r.factories[id]
	if !ok {
		panic(fmt.Sprintf("scene: no script registered for type id %d", id))
	}
	return f()
}

func (r *Registry) Has(id uint32) bool {
	_, ok := r.factories[id]
	return ok
}

// Name returns the registered name for an id, for logs and inspection.
func (r *Registry) Name(id uint32) string {
	return r.names[id]
}

// Context is what a script callback gets to see of the world. Node is the
// callback's own node, detached from the pool for the duration of the call;
// every other node is reached through H. Input is the injected peripheral
// state for this frame.
type Context struct {
	H     *Hierarchy
	Self  pool.Handle
	Node  *Node
	Input Input
}

// FindChild returns the first direct child of the calling node with the
// given name. It walks the calling node's own child list, which stays
// reachable while the node is detached.
func (ctx *Context) FindChild(name string) (pool.Handle, bool) {
	return ctx.H.findFrom(ctx.Node.Child, func(n *Node) bool { return n.Name == name })
}

// FindChildByType returns the first direct child carrying a script of the
// given type id.
func (ctx *Context) FindChildByType(id uint32) (pool.Handle, bool) {
	return ctx.H.findFrom(ctx.Node.Child, func(n *Node) bool {
		return n.Script != nil && n.Script.TypeID == id
	})
}

// Spawn instantiates a named prefab under the hierarchy root and returns the
// new subtree root.
func (ctx *Context) Spawn(name string) pool.Handle {
	return ctx.H.SpawnPrefabByName(name, ctx.H.Root())
}

// DestroySelf removes the calling node and its subtree. The node is already
// detached, so the destroy takes effect immediately and the scheduler drops
// the detached value instead of restoring it.
func (ctx *Context) DestroySelf() {
	ctx.H.DestroyNode(ctx.Self)
}

// SetScene requests a scene switch at the end of the frame.
func (ctx *Context) SetScene(name string) {
	ctx.H.SetScene(name)
}
