// Package scene is the runtime tree: nodes in a generational pool, the
// hierarchy that links and schedules them, and the script contract their
// behaviors implement.
package scene

import (
	"fmt"

	"github.com/basaltengine/basalt/internal/core/pool"
)

type Transform struct {
	X uint32
	Y uint32
}

// SpriteRef points a node at a graphics asset in the catalog. The zero value
// means no sprite. The renderer resolves the asset; the core only carries it.
type SpriteRef struct {
	Asset string
}

func (s SpriteRef) Present() bool { return s.Asset != "" }

// ScriptData pairs a behavior with the numeric type id it was constructed
// from. The id always names the concrete type of Behavior; the registry
// enforces that at construction and As relies on it.
type ScriptData struct {
	TypeID   uint32
	Behavior Script
}

// Node is one live tree entity. Children form a singly linked list through
// Child/Sibling; Parent is nil only on the hierarchy root.
type Node struct {
	Child     pool.Handle
	Parent    pool.Handle
	Sibling   pool.Handle
	Name      string
	Transform Transform
	Sprite    SpriteRef
	Script    *ScriptData
	Enabled   bool

	// set when the start callback has been dispatched; guards nodes spawned
	// mid-pass from being updated before they start
	started bool
}

// As returns the node's behavior as a concrete *T. Calling it on a node with
// no script, or with a script of another type, is a fatal contract
// violation.
func As[T any](n *Node) *T {
	if n.Script == nil {
		panic("scene: script cast on a node with no script")
	}
	s, ok := n.Script.Behavior.(*T)
	if !ok {
		var want *T
		panic(fmt.Sprintf("scene: script cast to %T, node %q holds %T", want, n.Name, n.Script.Behavior))
	}
	return s
}
