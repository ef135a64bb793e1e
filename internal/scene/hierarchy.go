package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/basaltengine/basalt/internal/core/pool"
	"github.com/basaltengine/basalt/internal/prefab"
)

// Hierarchy owns the node pool, the tree root, the pending-start stack and
// the prefab catalog. All tree mutation, traversal and per-frame script
// scheduling go through it.
//
// Single-goroutine access only (frame loop).
type Hierarchy struct {
	pool    *pool.Pool[Node]
	root    pool.Handle
	toStart []pool.Handle // pending start callbacks, top of stack last
	catalog *prefab.Catalog
	reg     *Registry
	input   Input
	log     *zap.Logger

	graphsByName map[string]int

	// The node currently detached for its callback. Hierarchy lookups
	// resolve it by handle so a script can reach its own node while the
	// pool slot is reserved.
	activeHandle pool.Handle
	activeNode   *Node

	pendingScene string
	sceneSet     bool
}

// New builds a hierarchy around a decoded catalog and a populated registry.
// Both are required up front; passing nil for either is a fatal
// misconfiguration. A nil input or logger falls back to NullInput and a nop
// logger. The tree root is created here: an unnamed, enabled, scriptless
// node that lives for the hierarchy's whole lifetime.
func New(catalog *prefab.Catalog, reg *Registry, input Input, log *zap.Logger) *Hierarchy {
	if catalog == nil {
		panic("scene: hierarchy constructed without a catalog")
	}
	if reg == nil {
		panic("scene: hierarchy constructed without a script registry")
	}
	if input == nil {
		input = NullInput{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	h := &Hierarchy{
		pool:         pool.New[Node](),
		catalog:      catalog,
		reg:          reg,
		input:        input,
		log:          log,
		graphsByName: make(map[string]int, len(catalog.Graphs)),
	}
	h.root = h.pool.Add(Node{Enabled: true, started: true})

	for i := range catalog.Graphs {
		ri, err := catalog.Graphs[i].RootIndex()
		if err != nil {
			continue
		}
		name := catalog.Graphs[i].Nodes[ri].Name
		if _, taken := h.graphsByName[name]; !taken {
			h.graphsByName[name] = i
		}
	}
	return h
}

func (h *Hierarchy) Root() pool.Handle { return h.root }

// NodeCount returns the number of live nodes, root included.
func (h *Hierarchy) NodeCount() int { return h.pool.Live() }

// Catalog exposes the deserialized prefab data, read-only.
func (h *Hierarchy) Catalog() *prefab.Catalog { return h.catalog }

// tryResolve is TryBorrow that also sees the currently detached node, so
// every hierarchy operation works uniformly during a callback.
func (h *Hierarchy) tryResolve(hd pool.Handle) (*Node, bool) {
	if !hd.IsNil() && hd == h.activeHandle {
		return h.activeNode, true
	}
	return h.pool.TryBorrow(hd)
}

// Borrow returns the node behind a handle. A stale or nil handle is a fatal
// programmer error; use TryBorrow when absence is expected.
func (h *Hierarchy) Borrow(hd pool.Handle) *Node {
	n, ok := h.tryResolve(hd)
	if !ok {
		panic(fmt.Sprintf("scene: borrow of invalid %v", hd))
	}
	return n
}

func (h *Hierarchy) TryBorrow(hd pool.Handle) (*Node, bool) {
	return h.tryResolve(hd)
}

// Add inserts a standalone node as the new head of parent's child list and
// queues it for start. The previous head becomes the new node's sibling.
func (h *Hierarchy) Add(n Node, parent pool.Handle) pool.Handle {
	p, ok := h.tryResolve(parent)
	if !ok {
		panic(fmt.Sprintf("scene: add under invalid %v", parent))
	}
	hd := h.pool.Add(n)
	node := h.pool.Borrow(hd)
	node.Parent = parent
	node.Sibling = p.Child
	p.Child = hd
	h.toStart = append(h.toStart, hd)
	return hd
}

// SpawnPrefab instantiates catalog graph index as a new subtree under
// parent and returns the subtree root. Instantiation is two-phase: first
// every record is allocated (so links may point forward), then the stored
// indices are resolved into real handles. Every new node is queued for
// start, the subtree root last so it starts first.
func (h *Hierarchy) SpawnPrefab(index int, parent pool.Handle) pool.Handle {
	if index < 0 || index >= len(h.catalog.Graphs) {
		panic(fmt.Sprintf("scene: prefab index %d out of range, catalog has %d graphs", index, len(h.catalog.Graphs)))
	}
	p, ok := h.tryResolve(parent)
	if !ok {
		panic(fmt.Sprintf("scene: spawn under invalid %v", parent))
	}
	g := &h.catalog.Graphs[index]
	rootIdx, err := g.RootIndex()
	if err != nil {
		panic(fmt.Sprintf("scene: prefab %d: %v", index, err))
	}

	handles := make([]pool.Handle, len(g.Nodes))
	for i := range g.Nodes {
		handles[i] = h.pool.Add(h.materialize(&g.Nodes[i]))
	}
	for i := range g.Nodes {
		rec := &g.Nodes[i]
		n := h.pool.Borrow(handles[i])
		if rec.ChildIndex.Present() {
			n.Child = handles[rec.ChildIndex.Pos()]
		}
		if rec.SiblingIndex.Present() {
			n.Sibling = handles[rec.SiblingIndex.Pos()]
		}
		if rec.ParentIndex.Present() {
			n.Parent = handles[rec.ParentIndex.Pos()]
		}
	}

	rootHd := handles[rootIdx]
	rn := h.pool.Borrow(rootHd)
	rn.Parent = parent
	rn.Sibling = p.Child
	p.Child = rootHd

	for i, hd := range handles {
		if i != rootIdx {
			h.toStart = append(h.toStart, hd)
		}
	}
	h.toStart = append(h.toStart, rootHd)
	return rootHd
}

// SpawnPrefabByName spawns the graph whose root record carries name. An
// unknown name is fatal: the catalog and the calling code disagree.
func (h *Hierarchy) SpawnPrefabByName(name string, parent pool.Handle) pool.Handle {
	gi, ok := h.graphsByName[name]
	if !ok {
		panic(fmt.Sprintf("scene: no prefab graph named %q", name))
	}
	return h.SpawnPrefab(gi, parent)
}

func (h *Hierarchy) materialize(rec *prefab.Node) Node {
	n := Node{
		Name:      rec.Name,
		Transform: Transform{X: rec.Transform.X, Y: rec.Transform.Y},
		Enabled:   rec.Enabled,
	}
	if rec.Ext.Kind == prefab.ExtSprite {
		n.Sprite = SpriteRef{Asset: rec.Ext.GraphicAsset}
	}
	if rec.ScriptTypeID != 0 {
		n.Script = &ScriptData{TypeID: rec.ScriptTypeID, Behavior: h.reg.New(rec.ScriptTypeID)}
	}
	return n
}

// Find scans the direct children of searchRoot, in list order, for the first
// node matching pred. It never recurses into grandchildren.
func (h *Hierarchy) Find(searchRoot pool.Handle, pred func(*Node) bool) (pool.Handle, bool) {
	sr, ok := h.tryResolve(searchRoot)
	if !ok {
		panic(fmt.Sprintf("scene: find under invalid %v", searchRoot))
	}
	return h.findFrom(sr.Child, pred)
}

func (h *Hierarchy) findFrom(first pool.Handle, pred func(*Node) bool) (pool.Handle, bool) {
	for cur := first; !cur.IsNil(); {
		n := h.Borrow(cur)
		if pred(n) {
			return cur, true
		}
		cur = n.Sibling
	}
	return pool.Nil, false
}

func (h *Hierarchy) FindByName(searchRoot pool.Handle, name string) (pool.Handle, bool) {
	return h.Find(searchRoot, func(n *Node) bool { return n.Name == name })
}

func (h *Hierarchy) FindByScriptType(searchRoot pool.Handle, id uint32) (pool.Handle, bool) {
	return h.Find(searchRoot, func(n *Node) bool {
		return n.Script != nil && n.Script.TypeID == id
	})
}

// RunPendingScriptStarts drains the start stack. Nodes spawned by a start
// callback are pushed while draining and therefore start in the same drain,
// most recent first. A queued node destroyed before its turn is skipped.
func (h *Hierarchy) RunPendingScriptStarts() {
	for h.runOnePendingStart() {
	}
}

func (h *Hierarchy) runOnePendingStart() bool {
	top := len(h.toStart)
	if top == 0 {
		return false
	}
	hd := h.toStart[top-1]
	h.toStart = h.toStart[:top-1]

	ticket, n, ok := h.pool.TryTake(hd)
	if !ok {
		h.log.Debug("start skipped, node destroyed before starting", zap.Stringer("handle", hd))
		return true
	}
	n.started = true
	if n.Script != nil {
		h.invoke(hd, n, n.Script.Behavior.Start)
	}
	h.pool.PutBack(ticket, n)
	return true
}

// RunScriptUpdate makes one forward pass over the pool slots as they were at
// entry, reconstructing a handle per index and dispatching Update on every
// started node with a script. This is flat slot order, not a tree walk.
// Nodes appended during the pass wait for the next one; nodes spawned into
// reused slots below the snapshot are protected by their unset started flag.
func (h *Hierarchy) RunScriptUpdate() {
	snap := h.pool.Len()
	for i := 0; i < snap; i++ {
		hd, ok := h.pool.HandleFromIndex(i)
		if !ok {
			continue
		}
		ticket, n, ok := h.pool.TryTake(hd)
		if !ok {
			continue
		}
		if n.Script != nil && n.started {
			h.invoke(hd, n, n.Script.Behavior.Update)
		}
		h.pool.PutBack(ticket, n)
	}
}

// invoke runs one script callback with the node detached from its slot. The
// callback reaches its own node through the context (or any hierarchy
// lookup, which resolves the detached handle); if it destroys its own node,
// the later PutBack quietly drops the value.
func (h *Hierarchy) invoke(hd pool.Handle, n *Node, fn func(*Context)) {
	h.activeHandle, h.activeNode = hd, n
	ctx := Context{H: h, Self: hd, Node: n, Input: h.input}
	fn(&ctx)
	h.activeHandle, h.activeNode = pool.Nil, nil
}

// DestroyNode removes a node and its whole subtree from the tree and the
// pool. The node is unlinked from its parent's child list first (head or
// mid-list), keeping the tree invariant for the survivors. Destroying the
// root is a fatal programmer error, as is a stale handle.
func (h *Hierarchy) DestroyNode(hd pool.Handle) {
	if hd == h.root {
		panic("scene: cannot destroy the root node")
	}
	n, ok := h.tryResolve(hd)
	if !ok {
		panic(fmt.Sprintf("scene: destroy of invalid %v", hd))
	}
	h.unlink(hd, n)

	// Collect the subtree before freeing anything so the links stay
	// readable during the walk.
	doomed := make([]pool.Handle, 0, 8)
	stack := []pool.Handle{hd}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		doomed = append(doomed, cur)
		cn := h.Borrow(cur)
		for c := cn.Child; !c.IsNil(); c = h.Borrow(c).Sibling {
			stack = append(stack, c)
		}
	}
	for _, d := range doomed {
		h.pool.Destroy(d)
	}
}

func (h *Hierarchy) unlink(hd pool.Handle, n *Node) {
	if n.Parent.IsNil() {
		return
	}
	p := h.Borrow(n.Parent)
	if p.Child == hd {
		p.Child = n.Sibling
	} else {
		for c := p.Child; !c.IsNil(); {
			cn := h.Borrow(c)
			if cn.Sibling == hd {
				cn.Sibling = n.Sibling
				break
			}
			c = cn.Sibling
		}
	}
	n.Parent = pool.Nil
	n.Sibling = pool.Nil
}

// SetScene records a scene switch request; the frame driver applies it
// between frames via TakeSceneRequest and SwitchScene. The last request in
// a frame wins.
func (h *Hierarchy) SetScene(name string) {
	h.pendingScene, h.sceneSet = name, true
}

// TakeSceneRequest returns and clears the pending scene request.
func (h *Hierarchy) TakeSceneRequest() (string, bool) {
	if !h.sceneSet {
		return "", false
	}
	name := h.pendingScene
	h.pendingScene, h.sceneSet = "", false
	return name, true
}

// SwitchScene tears down every subtree under the root and spawns the named
// graph in its place, returning the new scene root.
func (h *Hierarchy) SwitchScene(name string) pool.Handle {
	for {
		rn := h.pool.Borrow(h.root)
		if rn.Child.IsNil() {
			break
		}
		h.DestroyNode(rn.Child)
	}
	h.log.Info("scene switch", zap.String("scene", name))
	return h.SpawnPrefabByName(name, h.root)
}

// VisibleNodes walks the live nodes in slot order for the renderer boundary.
// The walk is read-only by contract; return false to stop early. Disabled
// nodes are reported too, with their flag, since filtering is the reader's
// business.
func (h *Hierarchy) VisibleNodes(fn func(pool.Handle, *Node) bool) {
	for i := 0; i < h.pool.Len(); i++ {
		hd, ok := h.pool.HandleFromIndex(i)
		if !ok {
			continue
		}
		if !fn(hd, h.pool.Borrow(hd)) {
			return
		}
	}
}
