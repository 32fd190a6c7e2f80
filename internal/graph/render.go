package graph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/emicklei/dot"
)

// Renderer finalizes a graph into an artifact and returns its path.
type Renderer interface {
	Render(ctx context.Context, g *Graph, name string) (string, error)
}

// DOT returns the Graphviz description of g.
func (g *Graph) DOT() string {
	d := dot.NewGraph(dot.Directed)
	d.Attr("label", g.name)

	nodes := make(map[string]dot.Node, len(g.nodeOrder))
	for _, n := range g.Nodes() {
		dn := d.Node(n.ID).Label(n.Label()).Attr("shape", "box")
		if n.Satellite {
			dn.Attr("shape", "note").Attr("fontsize", "9")
		}
		if g.IsLeaf(n.ID) {
			dn.Attr("style", "rounded")
		}
		nodes[n.ID] = dn
	}

	for _, e := range g.Edges() {
		de := d.Edge(nodes[e.From], nodes[e.To], e.Label)
		if e.Satellite {
			de.Attr("style", "dashed")
		}
	}

	// Edges are already unique per pair; "strict" keeps Graphviz in agreement.
	return "strict " + strings.TrimLeft(d.String(), " \t\n")
}

// fileName maps every rune outside [A-Za-z0-9_-] to '_' so that a graph name
// built from user input stays a single path element.
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

// DOTRenderer writes <Dir>/<name>.dot and, when the Graphviz dot binary is
// available, converts it to <Dir>/<name>.<Format>. The name is flattened to a
// plain file name first.
type DOTRenderer struct {
	Dir    string
	Format string // png, svg, ...; empty means png
	Binary string // path to dot; empty means look it up on PATH
}

// Render implements Renderer. A missing dot binary is not an error: the .dot
// file is kept and its path returned.
func (r *DOTRenderer) Render(ctx context.Context, g *Graph, name string) (string, error) {
	dir := r.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create graph directory: %w", err)
	}

	name = fileName(name)
	dotPath := filepath.Join(dir, name+".dot")
	if err := os.WriteFile(dotPath, []byte(g.DOT()), 0o644); err != nil {
		return "", fmt.Errorf("write graph description: %w", err)
	}

	bin := r.Binary
	if bin == "" {
		var err error
		if bin, err = exec.LookPath("dot"); err != nil {
			slog.Warn("graphviz dot not found, keeping graph description only", "path", dotPath)
			return dotPath, nil
		}
	}

	format := r.Format
	if format == "" {
		format = "png"
	}
	outPath := filepath.Join(dir, name+"."+format)

	cmd := exec.CommandContext(ctx, bin, "-T"+format, "-o", outPath, dotPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("render %s: %w: %s", dotPath, err, strings.TrimSpace(string(out)))
	}

	return outPath, nil
}
