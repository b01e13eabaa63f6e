package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"skillsweb/cardgraph/internal/graph"
	"skillsweb/cardgraph/internal/rules"
	"skillsweb/cardgraph/internal/store"
)

const excerptLen = 100

// WriteOrphanReport writes the orphan insight report: a header with the orphan
// total, the recommendations from the rules, then one section per non-empty
// cluster in first-encounter order.
func WriteOrphanReport(w io.Writer, cls *graph.Classification, r *rules.Rules) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("ORPHAN CARD ANALYSIS REPORT\n")
	bw.WriteString("===========================\n")
	fmt.Fprintf(bw, "Total Orphans Found: %d\n\n", cls.TotalOrphans)

	bw.WriteString("INSIGHTS & RECOMMENDATIONS\n")
	bw.WriteString("--------------------------\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(bw, "- %s\n", rec)
	}
	bw.WriteString("\n")

	for _, cl := range cls.Clusters {
		if len(cl.Cards) == 0 {
			continue
		}
		fmt.Fprintf(bw, "\nCluster: %s (%d items)\n", cl.Category, len(cl.Cards))
		bw.WriteString(strings.Repeat("-", len(cl.Category)+12) + "\n")
		for _, c := range cl.Cards {
			writeOrphanLine(bw, c)
		}
	}
	return bw.Flush()
}

func writeOrphanLine(w *bufio.Writer, c *store.Card) {
	cardType, title := "?", "No Title"
	if c.Has("type") {
		cardType = c.Type
	}
	if c.Has("title") {
		title = c.Title
	}
	fmt.Fprintf(w, "  * [%s] %s (%s)\n", cardType, title, c.ID)
	if c.Description != "" {
		fmt.Fprintf(w, "    - %s...\n", excerpt(c.Description, excerptLen))
	}
}

// excerpt cuts s to at most n characters, never splitting a rune.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
