// prefabconv compiles YAML prefab sources into the binary catalog the
// runtime loads, and inspects existing catalogs.
//
// Compile:
//
//	prefabconv -in assets/src/game.yaml -out assets/prefabs.bslt
//
// Sources exported by old tooling may carry a legacy text encoding:
//
//	prefabconv -in assets/legacy/game.yaml -encoding big5 -out assets/prefabs.bslt
//
// Inspect:
//
//	prefabconv -inspect assets/prefabs.bslt
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/basaltengine/basalt/internal/prefab"
)

func main() {
	in := flag.String("in", "", "YAML prefab source to compile")
	out := flag.String("out", "prefabs.bslt", "catalog file to write")
	enc := flag.String("encoding", "utf8", "source text encoding: utf8, big5, sjis")
	inspect := flag.String("inspect", "", "catalog file to dump instead of compiling")
	flag.Parse()

	switch {
	case *inspect != "":
		if err := runInspect(*inspect); err != nil {
			fail(err)
		}
	case *in != "":
		if err := runCompile(*in, *out, *enc); err != nil {
			fail(err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func runCompile(in, out, encName string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	if data, err = transcode(data, encName); err != nil {
		return err
	}

	catalog, err := prefab.ParseSource(data, prefab.DirLoader(filepath.Dir(in)))
	if err != nil {
		return err
	}
	if err := prefab.WriteFile(out, catalog); err != nil {
		return err
	}

	nodes := 0
	for i := range catalog.Graphs {
		nodes += len(catalog.Graphs[i].Nodes)
	}
	fmt.Printf("wrote %s: %d graphs, %d nodes, %d graphics\n",
		out, len(catalog.Graphs), nodes, len(catalog.Graphics))
	return nil
}

func transcode(data []byte, name string) ([]byte, error) {
	var e encoding.Encoding
	switch name {
	case "", "utf8":
		return data, nil
	case "big5":
		e = traditionalchinese.Big5
	case "sjis":
		e = japanese.ShiftJIS
	default:
		return nil, fmt.Errorf("unknown encoding %q (want utf8, big5 or sjis)", name)
	}
	decoded, err := e.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("transcode from %s: %w", name, err)
	}
	return decoded, nil
}

func runInspect(path string) error {
	catalog, err := prefab.ReadFile(path)
	if err != nil {
		return err
	}

	for gi := range catalog.Graphs {
		g := &catalog.Graphs[gi]
		name := "?"
		if ri, err := g.RootIndex(); err == nil {
			name = g.Nodes[ri].Name
		}
		fmt.Printf("graph %d %q (%d nodes)\n", gi, name, len(g.Nodes))
		for i, n := range g.Nodes {
			fmt.Printf("  [%2d] %-16q child=%s parent=%s sibling=%s script=%d pos=(%d,%d) enabled=%v%s\n",
				i, n.Name, linkStr(n.ChildIndex), linkStr(n.ParentIndex), linkStr(n.SiblingIndex),
				n.ScriptTypeID, n.Transform.X, n.Transform.Y, n.Enabled, extStr(n.Ext))
		}
	}

	names := make([]string, 0, len(catalog.Graphics))
	for name := range catalog.Graphics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		gfx := catalog.Graphics[name]
		fmt.Printf("graphic %q size=%s tiles=%dB palette=%dB\n",
			name, gfx.Size, len(gfx.Tiles), len(gfx.Palette))
	}
	return nil
}

func linkStr(l prefab.LinkIndex) string {
	if !l.Present() {
		return "-"
	}
	return fmt.Sprintf("%d", l.Pos())
}

func extStr(e prefab.Extension) string {
	if e.Kind == prefab.ExtSprite {
		return fmt.Sprintf(" sprite=%q", e.GraphicAsset)
	}
	return ""
}
