// Package prefab holds the serialized node-graph catalog: the data model, the
// binary codec, the file container, and the YAML authoring source. The
// runtime consumes a decoded Catalog read-only; prefabconv produces it.
package prefab

import (
	"errors"
	"fmt"
)

// LinkIndex is a self-relative reference between records of one graph.
// Zero means "no link"; nonzero values are 1-based positions in the graph's
// node sequence. Addresses cannot survive serialization, so links do.
type LinkIndex uint32

func (l LinkIndex) Present() bool { return l != 0 }

// Pos returns the 0-based position a present link points at.
func (l LinkIndex) Pos() int { return int(l) - 1 }

// Link builds a LinkIndex from a 0-based position.
func Link(pos int) LinkIndex { return LinkIndex(pos + 1) }

type Transform struct {
	X uint32
	Y uint32
}

type ExtKind uint8

const (
	ExtNone ExtKind = iota
	ExtSprite
)

// Extension is the optional renderer-facing payload of a record. Only sprite
// extensions exist today; Kind leaves room for more.
type Extension struct {
	Kind         ExtKind
	GraphicAsset string // graphics table key, sprite only
}

// Node is one serialized tree record.
type Node struct {
	ChildIndex   LinkIndex
	ParentIndex  LinkIndex // saving this is redundant but makes instantiation single-lookup
	SiblingIndex LinkIndex
	Name         string
	Transform    Transform
	Ext          Extension
	ScriptTypeID uint32 // 0 = no script
	Enabled      bool
}

// Graph is one instantiable template: a flat record sequence linked by
// self-relative indices.
type Graph struct {
	Nodes []Node
}

var (
	ErrNoRoot        = errors.New("graph has no root record")
	ErrMultipleRoots = errors.New("graph has more than one root record")
)

// RootIndex returns the position of the unique parentless record. A graph
// with zero or several parentless records is malformed.
func (g *Graph) RootIndex() (int, error) {
	root := -1
	for i := range g.Nodes {
		if g.Nodes[i].ParentIndex.Present() {
			continue
		}
		if root >= 0 {
			return -1, ErrMultipleRoots
		}
		root = i
	}
	if root < 0 {
		return -1, ErrNoRoot
	}
	return root, nil
}

// Validate checks the graph's structural invariants: every link lands inside
// the node sequence and on another record, exactly one record is parentless,
// and following child/sibling links from that root visits every record
// exactly once.
func (g *Graph) Validate() error {
	nodes := g.Nodes
	checkLink := func(ni int, what string, l LinkIndex) error {
		if !l.Present() {
			return nil
		}
		if l.Pos() >= len(nodes) {
			return fmt.Errorf("node %d: %s index %d out of range", ni, what, uint32(l))
		}
		if l.Pos() == ni {
			return fmt.Errorf("node %d: %s index links to itself", ni, what)
		}
		return nil
	}
	for ni := range nodes {
		if err := checkLink(ni, "child", nodes[ni].ChildIndex); err != nil {
			return err
		}
		if err := checkLink(ni, "parent", nodes[ni].ParentIndex); err != nil {
			return err
		}
		if err := checkLink(ni, "sibling", nodes[ni].SiblingIndex); err != nil {
			return err
		}
	}

	root, err := g.RootIndex()
	if err != nil {
		return err
	}

	seen := make([]bool, len(nodes))
	seen[root] = true
	reached := 1
	stack := []int{root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for l := nodes[i].ChildIndex; l.Present(); l = nodes[l.Pos()].SiblingIndex {
			c := l.Pos()
			if seen[c] {
				return fmt.Errorf("node %d: child/sibling links form a cycle at node %d", i, c)
			}
			seen[c] = true
			reached++
			stack = append(stack, c)
		}
	}
	if reached != len(nodes) {
		return fmt.Errorf("%d of %d records unreachable from root", len(nodes)-reached, len(nodes))
	}
	return nil
}

// SpriteSize names the fixed hardware sprite shapes. The declaration order is
// the wire encoding and must not change.
type SpriteSize uint8

const (
	Size8x8 SpriteSize = iota
	Size16x16
	Size32x32
	Size64x64
	Size16x8
	Size32x8
	Size32x16
	Size64x32
	Size8x16
	Size8x32
	Size16x32
	Size32x64
	spriteSizeCount
)

var spriteSizeNames = [...]string{
	"8x8", "16x16", "32x32", "64x64",
	"16x8", "32x8", "32x16", "64x32",
	"8x16", "8x32", "16x32", "32x64",
}

func (s SpriteSize) Valid() bool { return s < spriteSizeCount }

func (s SpriteSize) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SpriteSize(%d)", uint8(s))
	}
	return spriteSizeNames[s]
}

// ParseSpriteSize maps a "WxH" name back to its SpriteSize.
func ParseSpriteSize(name string) (SpriteSize, error) {
	for i, n := range spriteSizeNames {
		if n == name {
			return SpriteSize(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sprite size %q", name)
}

// Graphic is one embedded image asset: raw tile data plus its palette.
type Graphic struct {
	Tiles   []byte
	Palette []byte
	Size    SpriteSize
}

// Catalog is the full deserialized prefab set: every instantiable graph plus
// the graphics assets their sprite extensions reference.
type Catalog struct {
	Graphs   []Graph
	Graphics map[string]Graphic
}

// GraphNamed returns the index of the graph whose root record carries the
// given name. Graph names are root-node names; there is no separate name
// table in the wire format.
func (c *Catalog) GraphNamed(name string) (int, bool) {
	for i := range c.Graphs {
		root, err := c.Graphs[i].RootIndex()
		if err != nil {
			continue
		}
		if c.Graphs[i].Nodes[root].Name == name {
			return i, true
		}
	}
	return 0, false
}
