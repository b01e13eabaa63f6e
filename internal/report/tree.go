package report

import (
	"io"

	"skillsweb/cardgraph/internal/graph"
)

// WriteTreeReport writes the tree view report for a built view.
func WriteTreeReport(w io.Writer, view *graph.TreeView) error {
	return view.Render(w)
}
