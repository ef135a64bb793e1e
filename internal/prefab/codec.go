package prefab

import (
	"fmt"
	"sort"

	"github.com/basaltengine/basalt/internal/wire"
)

// Binary layout, little-endian throughout:
//
//	catalog  = graph_count:u32, graph*
//	graph    = node_count:u32, node*
//	node     = child:u32, parent:u32, sibling:u32, name:str,
//	           x:u32, y:u32, script_type_id:u32, enabled:u8
//	str      = len:u16, utf8 bytes
//
// A stream that ends after the last graph is a complete catalog. When sprite
// extensions or graphics are present, two trailing sections follow:
//
//	exts     = ext_count:u32, (graph:u32, node:u32, kind:u8, asset:str)*
//	graphics = gfx_count:u32, (name:str, size:u8, tiles:blob, palette:blob)*
//	blob     = len:u32, bytes
//
// Extensions live outside the node record so the node layout above stays
// fixed. Graphics entries are written in sorted name order, making Encode
// deterministic.

// minNodeSize is the smallest possible encoded node, used to reject count
// fields that could not fit in the remaining bytes.
const minNodeSize = 3*4 + 2 + 2*4 + 4 + 1

// Encode serializes a catalog. The trailing sections are omitted entirely
// when the catalog carries no extensions and no graphics.
func Encode(c *Catalog) []byte {
	w := wire.NewWriter()
	extCount := 0

	w.WriteU32(uint32(len(c.Graphs)))
	for gi := range c.Graphs {
		nodes := c.Graphs[gi].Nodes
		w.WriteU32(uint32(len(nodes)))
		for ni := range nodes {
			n := &nodes[ni]
			w.WriteU32(uint32(n.ChildIndex))
			w.WriteU32(uint32(n.ParentIndex))
			w.WriteU32(uint32(n.SiblingIndex))
			w.WriteString(n.Name)
			w.WriteU32(n.Transform.X)
			w.WriteU32(n.Transform.Y)
			w.WriteU32(n.ScriptTypeID)
			w.WriteBool(n.Enabled)
			if n.Ext.Kind != ExtNone {
				extCount++
			}
		}
	}

	if extCount == 0 && len(c.Graphics) == 0 {
		return w.Bytes()
	}

	w.WriteU32(uint32(extCount))
	for gi := range c.Graphs {
		nodes := c.Graphs[gi].Nodes
		for ni := range nodes {
			if nodes[ni].Ext.Kind == ExtNone {
				continue
			}
			w.WriteU32(uint32(gi))
			w.WriteU32(uint32(ni))
			w.WriteU8(uint8(nodes[ni].Ext.Kind))
			w.WriteString(nodes[ni].Ext.GraphicAsset)
		}
	}

	names := make([]string, 0, len(c.Graphics))
	for name := range c.Graphics {
		names = append(names, name)
	}
	sort.Strings(names)
	w.WriteU32(uint32(len(names)))
	for _, name := range names {
		g := c.Graphics[name]
		w.WriteString(name)
		w.WriteU8(uint8(g.Size))
		w.WriteBytes(g.Tiles)
		w.WriteBytes(g.Palette)
	}
	return w.Bytes()
}

// Decode parses a catalog and validates its internal references. Truncated
// input, counts that cannot fit the remaining bytes, out-of-range or
// self-referential links, unknown extension kinds, and sprite extensions
// naming a missing graphic are all errors.
func Decode(data []byte) (*Catalog, error) {
	r := wire.NewReader(data)
	c := &Catalog{}

	graphCount := int(r.ReadU32())
	if graphCount > r.Remaining()/4 {
		return nil, fmt.Errorf("prefab: graph count %d exceeds buffer", graphCount)
	}
	c.Graphs = make([]Graph, graphCount)
	for gi := 0; gi < graphCount; gi++ {
		nodeCount := int(r.ReadU32())
		if r.Err() != nil {
			break
		}
		if nodeCount > r.Remaining()/minNodeSize {
			return nil, fmt.Errorf("prefab: graph %d node count %d exceeds buffer", gi, nodeCount)
		}
		nodes := make([]Node, nodeCount)
		for ni := 0; ni < nodeCount; ni++ {
			n := &nodes[ni]
			n.ChildIndex = LinkIndex(r.ReadU32())
			n.ParentIndex = LinkIndex(r.ReadU32())
			n.SiblingIndex = LinkIndex(r.ReadU32())
			n.Name = r.ReadString()
			n.Transform.X = r.ReadU32()
			n.Transform.Y = r.ReadU32()
			n.ScriptTypeID = r.ReadU32()
			n.Enabled = r.ReadBool()
		}
		c.Graphs[gi].Nodes = nodes
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("prefab: decode catalog: %w", err)
	}
	for gi := range c.Graphs {
		if err := c.Graphs[gi].Validate(); err != nil {
			return nil, fmt.Errorf("prefab: graph %d: %w", gi, err)
		}
	}

	if r.Remaining() == 0 {
		return c, nil
	}
	if err := decodeTrailing(r, c); err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("prefab: %d trailing bytes after catalog", r.Remaining())
	}
	return c, nil
}

func decodeTrailing(r *wire.Reader, c *Catalog) error {
	extCount := int(r.ReadU32())
	if extCount > r.Remaining()/minExtSize {
		return fmt.Errorf("prefab: extension count %d exceeds buffer", extCount)
	}
	for i := 0; i < extCount; i++ {
		gi := int(r.ReadU32())
		ni := int(r.ReadU32())
		kind := ExtKind(r.ReadU8())
		asset := r.ReadString()
		if err := r.Err(); err != nil {
			return fmt.Errorf("prefab: decode extensions: %w", err)
		}
		if gi >= len(c.Graphs) || ni >= len(c.Graphs[gi].Nodes) {
			return fmt.Errorf("prefab: extension %d targets missing record %d/%d", i, gi, ni)
		}
		if kind != ExtSprite {
			return fmt.Errorf("prefab: extension %d has unknown kind %d", i, kind)
		}
		c.Graphs[gi].Nodes[ni].Ext = Extension{Kind: kind, GraphicAsset: asset}
	}

	gfxCount := int(r.ReadU32())
	if gfxCount > r.Remaining()/minGraphicSize {
		return fmt.Errorf("prefab: graphics count %d exceeds buffer", gfxCount)
	}
	c.Graphics = make(map[string]Graphic, gfxCount)
	for i := 0; i < gfxCount; i++ {
		name := r.ReadString()
		size := SpriteSize(r.ReadU8())
		tiles := r.ReadBytes()
		palette := r.ReadBytes()
		if err := r.Err(); err != nil {
			return fmt.Errorf("prefab: decode graphics: %w", err)
		}
		if !size.Valid() {
			return fmt.Errorf("prefab: graphic %q has invalid sprite size %d", name, uint8(size))
		}
		if _, dup := c.Graphics[name]; dup {
			return fmt.Errorf("prefab: duplicate graphic %q", name)
		}
		c.Graphics[name] = Graphic{Tiles: tiles, Palette: palette, Size: size}
	}

	for gi := range c.Graphs {
		for ni := range c.Graphs[gi].Nodes {
			ext := c.Graphs[gi].Nodes[ni].Ext
			if ext.Kind != ExtSprite {
				continue
			}
			if _, ok := c.Graphics[ext.GraphicAsset]; !ok {
				return fmt.Errorf("prefab: graph %d node %d references missing graphic %q", gi, ni, ext.GraphicAsset)
			}
		}
	}
	return nil
}

const (
	minExtSize     = 4 + 4 + 1 + 2
	minGraphicSize = 2 + 1 + 4 + 4
)
