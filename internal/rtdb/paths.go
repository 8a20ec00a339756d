package rtdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Paths are slash-separated, e.g. "lists/{groupId}/{listId}/items/0".
// The first two segments name a document (one Redis key); any remaining
// segments address into that document's JSON tree. Numeric segments
// index arrays.

func splitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("rtdb: empty path")
	}
	segs := strings.Split(trimmed, "/")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("rtdb: empty segment in path %q", path)
		}
	}
	if len(segs) < 2 {
		return nil, fmt.Errorf("rtdb: path %q does not address a document", path)
	}
	return segs, nil
}

func docKey(segs []string) string {
	return keyPrefix + segs[0] + "/" + segs[1]
}

// pathChain returns the path itself and every ancestor, shortest first.
// Writes publish to the whole chain; watchers subscribe to the chain of
// their own path, so ancestor and descendant writes both reach them.
func pathChain(path string) []string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	chain := make([]string, 0, len(segs))
	for i := 1; i <= len(segs); i++ {
		chain = append(chain, strings.Join(segs[:i], "/"))
	}
	return chain
}

// decodeJSON unmarshals preserving number precision.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return v, nil
}

// toJSONValue normalizes an arbitrary Go value into the generic JSON
// form (maps, slices, json.Number, string, bool, nil) used inside
// document trees.
func toJSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return decodeJSON(data)
}

// getAt walks segs down the tree. The second return is false when any
// segment is absent.
func getAt(node any, segs []string) (any, bool) {
	for _, s := range segs {
		switch v := node.(type) {
		case map[string]any:
			child, ok := v[s]
			if !ok {
				return nil, false
			}
			node = child
		case []any:
			i, err := strconv.Atoi(s)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			node = v[i]
		default:
			return nil, false
		}
	}
	return node, true
}

// setAt replaces the value at segs, creating intermediate objects as
// needed, and returns the new root.
func setAt(root any, segs []string, val any) (any, error) {
	if len(segs) == 0 {
		return val, nil
	}
	s := segs[0]
	switch v := root.(type) {
	case nil:
		child, err := setAt(nil, segs[1:], val)
		if err != nil {
			return nil, err
		}
		return map[string]any{s: child}, nil
	case map[string]any:
		child, err := setAt(v[s], segs[1:], val)
		if err != nil {
			return nil, err
		}
		v[s] = child
		return v, nil
	case []any:
		i, err := strconv.Atoi(s)
		if err != nil || i < 0 || i > len(v) {
			return nil, fmt.Errorf("rtdb: invalid array index %q", s)
		}
		if i == len(v) {
			v = append(v, nil)
		}
		child, err := setAt(v[i], segs[1:], val)
		if err != nil {
			return nil, err
		}
		v[i] = child
		return v, nil
	default:
		return nil, fmt.Errorf("rtdb: cannot descend into scalar at segment %q", s)
	}
}

// mergeAt shallow-merges fields into the object at segs without touching
// sibling keys, creating the object when absent.
func mergeAt(root any, segs []string, fields map[string]any) (any, error) {
	target, ok := getAt(root, segs)
	if !ok || target == nil {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		return setAt(root, segs, copied)
	}
	obj, isObj := target.(map[string]any)
	if !isObj {
		return nil, fmt.Errorf("rtdb: cannot merge into non-object at %q", strings.Join(segs, "/"))
	}
	for k, v := range fields {
		obj[k] = v
	}
	return root, nil
}

// removeAt deletes the value at segs. Removing an array element shifts
// later elements down.
func removeAt(root any, segs []string) (any, error) {
	if len(segs) == 0 {
		return nil, nil
	}
	parent, ok := getAt(root, segs[:len(segs)-1])
	if !ok {
		return root, nil
	}
	last := segs[len(segs)-1]
	switch v := parent.(type) {
	case map[string]any:
		delete(v, last)
		return root, nil
	case []any:
		i, err := strconv.Atoi(last)
		if err != nil || i < 0 || i >= len(v) {
			return root, nil
		}
		return setAt(root, segs[:len(segs)-1], append(v[:i:i], v[i+1:]...))
	default:
		return root, nil
	}
}
