// Package normalize reshapes nested maps derived from XML into a form that is
// safe to store in a schema-rigid search index.
//
// An XML element with one child and an element with many children convert to
// different Go shapes (a map vs. a slice of maps), and a key whose value is a
// string in one document may hold an object in another. Both situations make a
// strict index reject or mis-type fields, so documents pass through two
// transforms before indexing: shape stabilization and collision-avoiding key
// renaming.
package normalize

import (
	"strings"
)

// Element kind tags used in renamed list keys. The empty tag applies when a
// list has no first element to infer a kind from.
const (
	KindDict  = "dict"
	KindStr   = "str"
	KindInt   = "int"
	KindFloat = "float"
	KindBool  = "bool"
	KindEmpty = "empty"
)

// Normalize applies shape stabilization followed by key renaming. The input is
// not mutated. Normalize is idempotent: applying it to its own output returns
// a structurally identical tree, so fragments that were normalized in an
// earlier run can be re-embedded and normalized again without drift.
func Normalize(raw map[string]any) map[string]any {
	return RenameKeys(StabilizeShapes(raw))
}

// StabilizeShapes wraps every map-valued key in a single-element list so that
// "one child" and "many children" serialize identically, recursing into nested
// maps and list elements.
func StabilizeShapes(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case map[string]any:
			out[key] = []any{StabilizeShapes(v)}
		case []any:
			out[key] = stabilizeList(v)
		default:
			out[key] = value
		}
	}
	return out
}

func stabilizeList(data []any) []any {
	out := make([]any, len(data))
	for i, value := range data {
		switch v := value.(type) {
		case map[string]any:
			out[i] = StabilizeShapes(v)
		case []any:
			out[i] = stabilizeList(v)
		default:
			out[i] = value
		}
	}
	return out
}

// RenameKeys renames keys whose values are containers so that the same key
// name never appears with incompatible value shapes across documents. A
// map-valued key gains a "_data" suffix; a list-valued key gains a suffix
// built from the kind of its first element, e.g. "_dict_list" or "_str_list".
// Keys that already carry the suffix they would receive are left alone, which
// keeps the pass idempotent.
func RenameKeys(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case map[string]any:
			out[withSuffix(key, "_data")] = RenameKeys(v)
		case []any:
			suffix := "_" + listKind(v) + "_list"
			out[withSuffix(key, suffix)] = renameListElements(v)
		default:
			out[key] = value
		}
	}
	return out
}

func renameListElements(data []any) []any {
	out := make([]any, len(data))
	for i, value := range data {
		switch v := value.(type) {
		case map[string]any:
			out[i] = RenameKeys(v)
		case []any:
			out[i] = renameListElements(v)
		default:
			out[i] = value
		}
	}
	return out
}

// listKind returns the kind tag for a list based on its first element.
func listKind(data []any) string {
	if len(data) == 0 {
		return KindEmpty
	}
	switch data[0].(type) {
	case map[string]any:
		return KindDict
	case []any:
		// A list of lists carries the kind of the inner list's elements
		// once flattened by the store; tag it as a dict list would be
		// wrong, so fall back to the generic empty tag.
		return KindEmpty
	case string:
		return KindStr
	case bool:
		return KindBool
	case int, int32, int64:
		return KindInt
	case float32, float64:
		return KindFloat
	default:
		return KindStr
	}
}

func withSuffix(key, suffix string) string {
	if strings.HasSuffix(key, suffix) {
		return key
	}
	return key + suffix
}
