// Package report writes the generated artifacts: the orphan insight report,
// the tree view report and the raw data debug page.
package report

import (
	"bytes"
	"fmt"
	"io"

	"skillsweb/cardgraph/internal/store"
)

// WriteFile renders into memory and replaces path atomically, so a failed
// render never truncates an existing report.
func WriteFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return store.WriteFileAtomic(path, buf.Bytes())
}
