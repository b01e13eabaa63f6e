package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
)

// Snapshot is one file shown on the debug page.
type Snapshot struct {
	Name string
	Data string
}

// ReadSnapshot reads a file for display. A read failure becomes the displayed
// text, so one broken file does not hide the other.
func ReadSnapshot(path string) Snapshot {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{Name: name, Data: fmt.Sprintf("Error reading %s: %v", name, err)}
	}
	return Snapshot{Name: name, Data: string(data)}
}

var debugPage = template.Must(template.New("raw").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Raw Data Viewer</title>
    <style>
        body { font-family: sans-serif; background-color: #0f172a; color: #f8fafc; padding: 20px; }
        h2 { color: #60a5fa; }
        textarea { width: 100%; height: 400px; background-color: #1e293b; color: #cbd5e1; border: 1px solid #334155; padding: 10px; font-family: monospace; }
        .container { display: flex; gap: 20px; flex-direction: column; }
        @media (min-width: 768px) { .container { flex-direction: row; } .box { flex: 1; } }
    </style>
</head>
<body>
    <h1>Raw Data Viewer</h1>
    <div class="container">
{{- range .}}
        <div class="box">
            <h2>{{.Name}}</h2>
            <textarea readonly>{{.Data}}</textarea>
        </div>
{{- end}}
    </div>
</body>
</html>
`))

// WriteDebugHTML writes a page showing each snapshot verbatim, HTML-escaped,
// inside a read-only textarea.
func WriteDebugHTML(w io.Writer, snapshots ...Snapshot) error {
	return debugPage.Execute(w, snapshots)
}

// GenerateDebugHTML reads the two snapshot files and writes the debug page to
// out.
func GenerateDebugHTML(cardsPath, relsPath, out string) error {
	snaps := []Snapshot{ReadSnapshot(cardsPath), ReadSnapshot(relsPath)}
	return WriteFile(out, func(w io.Writer) error {
		return WriteDebugHTML(w, snaps...)
	})
}
