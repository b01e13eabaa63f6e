package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for snapshot loading. Both abort the command that hit them.
var (
	// ErrIOFailure indicates a snapshot could not be read or written.
	ErrIOFailure = errors.New("io failure")
	// ErrMalformedInput indicates a snapshot is not parseable as the expected document.
	ErrMalformedInput = errors.New("malformed input")
)

// LoadError records where a snapshot failed to load or save.
type LoadError struct {
	Kind   error // ErrIOFailure or ErrMalformedInput
	Path   string
	Line   int // 1-based, 0 when unknown
	Column int // 1-based, 0 when unknown
	Record int // index of the offending record, -1 when not record-specific
	Err    error
}

// Error returns a human-readable string including the file and position.
func (e *LoadError) Error() string {
	var b bytes.Buffer
	if e.Path != "" {
		b.WriteString(e.Path)
	} else {
		b.WriteString("<input>")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d:%d", e.Line, e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Record >= 0 {
		fmt.Fprintf(&b, " (record %d)", e.Record)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the error's kind.
func (e *LoadError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *LoadError) Unwrap() error {
	return e.Err
}

func ioError(path string, err error) *LoadError {
	return &LoadError{Kind: ErrIOFailure, Path: path, Record: -1, Err: err}
}

func malformed(data []byte, offset int64, record int, err error) *LoadError {
	le := &LoadError{Kind: ErrMalformedInput, Record: record, Err: err}
	if offset >= 0 {
		le.Line, le.Column = position(data, offset)
	}
	return le
}

// malformedFrom converts a decode error into a LoadError. Syntax and type
// errors report the offset just past the offending byte.
func malformedFrom(data []byte, base int64, record int, err error) *LoadError {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		return malformed(data, base+max(syn.Offset-1, 0), record, err)
	case errors.As(err, &typ):
		return malformed(data, base+max(typ.Offset-1, 0), record, err)
	case base > 0:
		return malformed(data, base, record, err)
	}
	return malformed(data, -1, record, err)
}

// position converts the byte index of a character into its 1-based line and
// column.
func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	if offset < 0 {
		offset = 0
	}
	prefix := data[:offset]
	line := bytes.Count(prefix, []byte("\n")) + 1
	col := int(offset) - bytes.LastIndexByte(prefix, '\n')
	return line, col
}
