package prefab

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// The YAML authoring format compiled by prefabconv. Node parents are named,
// not indexed; the compiler derives the child/sibling link indices. Children
// keep their authored order in the sibling chain, so find() visits them in
// the order they were written.
//
//	graphs:
//	  - name: GameScene        # overrides the root record's name
//	    nodes:
//	      - name: Player
//	        x: 64
//	        y: 96
//	        script: 1
//	        sprite: player_idle
//	      - name: Gun
//	        parent: Player
//	graphics:
//	  player_idle: {size: 16x16, tiles: player.bin, palette: shared.pal}

type sourceDoc struct {
	Graphs   []sourceGraph            `yaml:"graphs"`
	Graphics map[string]sourceGraphic `yaml:"graphics"`
}

type sourceGraph struct {
	Name  string       `yaml:"name"`
	Nodes []sourceNode `yaml:"nodes"`
}

type sourceNode struct {
	Name    string `yaml:"name"`
	Parent  string `yaml:"parent"` // empty or absent marks the graph root
	X       uint32 `yaml:"x"`
	Y       uint32 `yaml:"y"`
	Script  uint32 `yaml:"script"`
	Enabled *bool  `yaml:"enabled"` // absent means enabled
	Sprite  string `yaml:"sprite"`
}

type sourceGraphic struct {
	Size    string `yaml:"size"`
	Tiles   string `yaml:"tiles"`
	Palette string `yaml:"palette"`
}

// BlobLoader resolves a graphic payload reference from a source document to
// its raw bytes.
type BlobLoader func(name string) ([]byte, error)

// DirLoader is a BlobLoader reading files relative to dir.
func DirLoader(dir string) BlobLoader {
	return func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	}
}

// LoadSource reads and compiles a YAML source file, resolving graphic
// payloads relative to the file's directory.
func LoadSource(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prefab: read source: %w", err)
	}
	c, err := ParseSource(data, DirLoader(filepath.Dir(path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseSource compiles a YAML source document into a catalog. Identical
// graphic payloads are interned by content hash, so graphics sharing one
// palette file share one slice in memory.
func ParseSource(data []byte, load BlobLoader) (*Catalog, error) {
	var doc sourceDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("prefab: parse source: %w", err)
	}

	c := &Catalog{Graphs: make([]Graph, 0, len(doc.Graphs))}
	for _, sg := range doc.Graphs {
		g, err := compileGraph(sg)
		if err != nil {
			return nil, fmt.Errorf("prefab: graph %q: %w", sg.Name, err)
		}
		c.Graphs = append(c.Graphs, g)
	}

	if len(doc.Graphics) > 0 {
		c.Graphics = make(map[string]Graphic, len(doc.Graphics))
		blobs := make(map[uint64][]byte)
		for name, sgfx := range doc.Graphics {
			gfx, err := compileGraphic(sgfx, load, blobs)
			if err != nil {
				return nil, fmt.Errorf("prefab: graphic %q: %w", name, err)
			}
			c.Graphics[name] = gfx
		}
	}

	for gi := range c.Graphs {
		for ni := range c.Graphs[gi].Nodes {
			ext := c.Graphs[gi].Nodes[ni].Ext
			if ext.Kind == ExtSprite {
				if _, ok := c.Graphics[ext.GraphicAsset]; !ok {
					return nil, fmt.Errorf("prefab: node %q references unknown graphic %q",
						c.Graphs[gi].Nodes[ni].Name, ext.GraphicAsset)
				}
			}
		}
	}
	return c, nil
}

func compileGraph(sg sourceGraph) (Graph, error) {
	if len(sg.Nodes) == 0 {
		return Graph{}, ErrNoRoot
	}

	// Parents are referenced by name, so names must be unique per graph.
	byName := make(map[string]int, len(sg.Nodes))
	for i, sn := range sg.Nodes {
		if sn.Name == "" {
			return Graph{}, fmt.Errorf("node %d has no name", i)
		}
		if _, dup := byName[sn.Name]; dup {
			return Graph{}, fmt.Errorf("duplicate node name %q", sn.Name)
		}
		byName[sn.Name] = i
	}

	g := Graph{Nodes: make([]Node, len(sg.Nodes))}
	lastChild := make([]int, len(sg.Nodes)) // index of parent's most recent child, -1 if none
	for i := range lastChild {
		lastChild[i] = -1
	}

	root := -1
	for i, sn := range sg.Nodes {
		n := &g.Nodes[i]
		n.Name = sn.Name
		n.Transform = Transform{X: sn.X, Y: sn.Y}
		n.ScriptTypeID = sn.Script
		n.Enabled = sn.Enabled == nil || *sn.Enabled
		if sn.Sprite != "" {
			n.Ext = Extension{Kind: ExtSprite, GraphicAsset: sn.Sprite}
		}

		if sn.Parent == "" {
			if root >= 0 {
				return Graph{}, ErrMultipleRoots
			}
			root = i
			continue
		}
		pi, ok := byName[sn.Parent]
		if !ok {
			return Graph{}, fmt.Errorf("node %q: unknown parent %q", sn.Name, sn.Parent)
		}
		if pi == i {
			return Graph{}, fmt.Errorf("node %q is its own parent", sn.Name)
		}
		n.ParentIndex = Link(pi)

		// Append to the parent's child chain, preserving authored order.
		if lastChild[pi] < 0 {
			g.Nodes[pi].ChildIndex = Link(i)
		} else {
			g.Nodes[lastChild[pi]].SiblingIndex = Link(i)
		}
		lastChild[pi] = i
	}
	if root < 0 {
		return Graph{}, ErrNoRoot
	}
	if sg.Name != "" {
		g.Nodes[root].Name = sg.Name
	}

	if err := g.Validate(); err != nil {
		return Graph{}, err
	}
	return g, nil
}

func compileGraphic(sgfx sourceGraphic, load BlobLoader, blobs map[uint64][]byte) (Graphic, error) {
	size, err := ParseSpriteSize(sgfx.Size)
	if err != nil {
		return Graphic{}, err
	}
	if sgfx.Tiles == "" {
		return Graphic{}, fmt.Errorf("missing tiles reference")
	}
	tiles, err := loadBlob(sgfx.Tiles, load, blobs)
	if err != nil {
		return Graphic{}, err
	}
	var palette []byte
	if sgfx.Palette != "" {
		palette, err = loadBlob(sgfx.Palette, load, blobs)
		if err != nil {
			return Graphic{}, err
		}
	}
	return Graphic{Tiles: tiles, Palette: palette, Size: size}, nil
}

func loadBlob(name string, load BlobLoader, blobs map[uint64][]byte) ([]byte, error) {
	if load == nil {
		return nil, fmt.Errorf("no blob loader for %q", name)
	}
	b, err := load(name)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	key := xxhash.Sum64(b)
	if cached, ok := blobs[key]; ok {
		return cached, nil
	}
	blobs[key] = b
	return b, nil
}

// Fingerprint returns a stable content key for a graphic, used by tooling to
// spot identical payloads across catalogs.
func Fingerprint(g Graphic) uint64 {
	d := xxhash.New()
	_, _ = d.Write(g.Tiles)
	_, _ = d.Write(g.Palette)
	_, _ = d.Write([]byte{byte(g.Size)})
	return d.Sum64()
}
