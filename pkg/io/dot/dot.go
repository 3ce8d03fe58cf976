// Package dot implements the DOT exporter collaborator (§6): it serializes
// any of the three vertex kinds (k-mer graph, id graph, DAG) to a Graphviz
// digraph block, and renders that block to SVG via go-graphviz.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/sbp-tools/sbp/pkg/core/graph"
)

// EdgeMode selects how a parallel-edge bundle is rendered.
type EdgeMode int

const (
	// WeightLabel emits one line per bundle, annotated with its weight.
	WeightLabel EdgeMode = iota
	// MultiEdge emits w separate unlabeled lines per bundle.
	MultiEdge
)

// Options configures ToDOT's output for one vertex kind.
type Options[V comparable] struct {
	// Label formats a vertex for display. Defaults to fmt.Sprint(v).
	Label func(v V) string
	// Highlight marks vertices that should render distinctly (the teacher's
	// dashed/grey styling for subdivider nodes, reused here for r and r′
	// when rendering a DAG).
	Highlight func(v V) bool
}

// ToDOT renders g as a named Graphviz digraph. One line is emitted for
// every vertex with no incident edges; every edge bundle is emitted
// according to mode.
func ToDOT[V comparable](g *graph.MultiDigraph[V], name string, mode EdgeMode, opts Options[V]) string {
	label := opts.Label
	if label == nil {
		label = func(v V) string { return fmt.Sprint(v) }
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %s {\n", quoteID(name))
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n\n")

	for _, v := range g.Vertices() {
		indeg, _ := g.InDegree(v)
		outdeg, _ := g.OutDegree(v)
		highlighted := opts.Highlight != nil && opts.Highlight(v)
		isolated := indeg == 0 && outdeg == 0
		if !isolated && !highlighted {
			continue
		}
		attrs := []string{fmt.Sprintf("label=%q", label(v))}
		if highlighted {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", quoteID(label(v)), joinAttrs(attrs))
	}

	buf.WriteString("\n")
	for _, u := range g.Vertices() {
		children, _ := g.Children(u)
		for _, v := range children {
			w, _ := g.WeightOf(u, v)
			switch mode {
			case MultiEdge:
				for i := uint64(0); i < w; i++ {
					fmt.Fprintf(&buf, "  %s -> %s;\n", quoteID(label(u)), quoteID(label(v)))
				}
			default:
				fmt.Fprintf(&buf, "  %s -> %s [label=%q];\n", quoteID(label(u)), quoteID(label(v)), strconv.FormatUint(w, 10))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func quoteID(s string) string {
	return fmt.Sprintf("%q", s)
}

func joinAttrs(attrs []string) string {
	out := attrs[0]
	for _, a := range attrs[1:] {
		out += ", " + a
	}
	return out
}

// RenderSVG renders a DOT block to SVG using Graphviz.
func RenderSVG(ctx context.Context, dotSrc string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dotSrc))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites Graphviz's SVG header to a fixed viewBox with
// explicit width/height, so embedding the output doesn't inherit Graphviz's
// point-based sizing quirks.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
