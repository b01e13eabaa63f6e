package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Conventional wrapper keys.
const (
	CardsKey         = "cards"
	RelationshipsKey = "relationships"
)

// Shape is the outer layout of a persisted collection: a bare array, or an
// object holding the array under Key alongside any other fields.
type Shape struct {
	Wrapped bool
	Key     string
	doc     *object // wrapper object as read, nil for bare arrays
}

// Wrap returns a wrapped shape for key with no sibling fields.
func Wrap(key string) Shape {
	return Shape{Wrapped: true, Key: key}
}

// splitDocument detects the document shape and returns the raw record array
// plus the byte offset of that array within data.
func splitDocument(data []byte, key string) (Shape, []byte, int64, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return Shape{}, nil, 0, malformed(data, 0, -1, errors.New("empty document"))
	}

	var probe json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Shape{}, nil, 0, malformedFrom(data, 0, -1, err)
	}

	switch trimmed[0] {
	case '[':
		return Shape{}, data, 0, nil
	case '{':
		obj, err := decodeObject(data)
		if err != nil {
			return Shape{}, nil, 0, malformedFrom(data, 0, -1, err)
		}
		if !obj.has(key) {
			return Shape{}, nil, 0, malformed(data, -1, -1, fmt.Errorf("object has no %q array", key))
		}
		raw := obj.get(key)
		if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '[' {
			return Shape{}, nil, 0, malformed(data, -1, -1, fmt.Errorf("%q is not an array", key))
		}
		offset := int64(bytes.Index(data, raw))
		return Shape{Wrapped: true, Key: key, doc: obj}, raw, offset, nil
	}
	return Shape{}, nil, 0, malformed(data, int64(len(data)-len(trimmed)), -1,
		fmt.Errorf("expected array or object with %q", key))
}

// eachRecord decodes the elements of a raw array, calling fn with each
// element's bytes and its offset within the full document.
func eachRecord(data, array []byte, base int64, fn func(i int, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(array))
	if _, err := dec.Token(); err != nil {
		return malformedFrom(data, base, -1, err)
	}
	for i := 0; dec.More(); i++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return malformedFrom(data, base+dec.InputOffset(), i, err)
		}
		start := base + dec.InputOffset() - int64(len(raw))
		if err := fn(i, raw); err != nil {
			var le *LoadError
			if errors.As(err, &le) {
				return err
			}
			return malformedFrom(data, start, i, err)
		}
	}
	return nil
}

// encodeDocument writes records in the given shape with 2-space indentation.
func encodeDocument(shape Shape, records any) ([]byte, error) {
	var payload any = records
	if shape.Wrapped {
		doc := shape.doc.clone()
		key := shape.Key
		if key == "" {
			return nil, errors.New("wrapped shape has no key")
		}
		if err := doc.setValue(key, records); err != nil {
			return nil, err
		}
		payload = doc
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers never see a partially written snapshot.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ioError(path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ioError(path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return ioError(path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return ioError(path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return ioError(path, err)
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpName, info.Mode().Perm())
	} else {
		_ = os.Chmod(tmpName, 0o644)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return ioError(path, err)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError(path, err)
	}
	return data, nil
}

func withPath(err error, path string) error {
	var le *LoadError
	if errors.As(err, &le) && le.Path == "" {
		le.Path = path
	}
	return err
}
