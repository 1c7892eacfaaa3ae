package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"todo/internal/service"
)

// Encode renders the cache document: a JSON object mapping list name to
// its ordered items, two-space indented, keys sorted, newline terminated.
// Lists with no items are written as [] rather than null.
func Encode(lists map[string][]service.Item) ([]byte, error) {
	doc := make(map[string][]service.Item, len(lists))
	for name, items := range lists {
		if items == nil {
			items = []service.Item{}
		}
		doc[name] = items
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, service.SerializationError(err.Error())
	}
	return buf.Bytes(), nil
}

// Decode parses a cache document produced by Encode.
// Syntax errors are SerializationErrors; a document of the wrong shape
// (for example an item that is not an object) is InvalidInput.
func Decode(data []byte) (map[string][]service.Item, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string][]service.Item{}, nil
	}

	var doc map[string][]service.Item
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, service.InvalidInput(fmt.Sprintf("malformed local state: %v", err))
		}
		return nil, service.SerializationError(err.Error())
	}
	if doc == nil {
		// top-level null
		return nil, service.InvalidInput("malformed local state: expected an object")
	}

	for name, items := range doc {
		if name == "" {
			return nil, service.InvalidInput("malformed local state: empty list name")
		}
		if items == nil {
			doc[name] = []service.Item{}
		}
	}
	return doc, nil
}

// writeFileAtomic replaces path with data via a temp file in the same
// directory, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, perm); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
