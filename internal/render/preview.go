package render

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/mcncl/j2j/internal/models"
)

// PreviewObject is the shaped form of a JSON object handed to gonja. It is
// a plain map underneath so attribute and item lookups work natively;
// printing it emits the original object as indented JSON.
type PreviewObject map[string]interface{}

// PreviewArray is the shaped form of a JSON array.
type PreviewArray []interface{}

// originals maps a live shaped container to the document value it was
// built from, so printing keeps key order and number text. Entries are
// dropped by shaper.release once the render returns.
var originals sync.Map

type shapeKey struct {
	ptr uintptr
	len int
}

func keyOf(v interface{}) (shapeKey, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.Len() == 0 {
			return shapeKey{}, false
		}
		return shapeKey{ptr: rv.Pointer(), len: rv.Len()}, true
	}
	return shapeKey{}, false
}

// shaper converts a document into gonja-friendly values and records the
// originals of the containers it creates.
type shaper struct {
	record bool
	keys   []shapeKey
}

func (s *shaper) remember(view, original interface{}) {
	if !s.record {
		return
	}
	if k, ok := keyOf(view); ok {
		originals.Store(k, original)
		s.keys = append(s.keys, k)
	}
}

func (s *shaper) release() {
	for _, k := range s.keys {
		originals.Delete(k)
	}
	s.keys = nil
}

// WrapForPreview shapes a parsed document for rendering. Objects and arrays
// become PreviewObject and PreviewArray values over recursively shaped
// children, and json.Number becomes int64 or float64 so arithmetic and
// comparisons work. Strings, bools and nil come back unchanged.
//
// Values shaped here are not tracked, so Unwrap converts them element by
// element.
func WrapForPreview(value models.JSONValue) interface{} {
	s := &shaper{}
	return s.wrap(value)
}

func (s *shaper) wrap(value models.JSONValue) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case *models.JSONObject:
		keys := v.Keys()
		obj := make(PreviewObject, len(keys))
		for _, k := range keys {
			child, _ := v.Get(k)
			obj[k] = s.wrap(child)
		}
		s.remember(obj, v)
		return obj
	case map[string]interface{}:
		obj := make(PreviewObject, len(v))
		for k, child := range v {
			obj[k] = s.wrap(child)
		}
		return obj
	case models.JSONArray:
		return s.wrapArray(v, v)
	case []interface{}:
		return s.wrapArray(v, v)
	case json.Number:
		return number(v)
	default:
		return value
	}
}

func (s *shaper) wrapArray(original models.JSONValue, items []interface{}) PreviewArray {
	arr := make(PreviewArray, len(items))
	for i, item := range items {
		arr[i] = s.wrap(item)
	}
	s.remember(arr, original)
	return arr
}

// number keeps integers integral. Literals with a fraction or exponent, and
// integers too large for int64, become float64.
func number(n json.Number) interface{} {
	if !strings.ContainsAny(n.String(), ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	return f
}

// Unwrap returns the document value a shaped value stands for. Containers
// shaped by a render still in progress resolve to their original; anything
// else is converted element by element, with object keys sorted.
func Unwrap(value interface{}) models.JSONValue {
	if k, ok := keyOf(value); ok {
		if original, found := originals.Load(k); found {
			return original
		}
	}
	switch v := value.(type) {
	case PreviewObject:
		return unwrapMap(v)
	case map[string]interface{}:
		return unwrapMap(v)
	case PreviewArray:
		return unwrapSlice(v)
	case []interface{}:
		return unwrapSlice(v)
	}
	return value
}

func unwrapMap(m map[string]interface{}) models.JSONValue {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	obj := models.NewJSONObject()
	for _, k := range keys {
		obj.Set(k, Unwrap(m[k]))
	}
	return obj
}

func unwrapSlice(items []interface{}) models.JSONValue {
	arr := make(models.JSONArray, len(items))
	for i, item := range items {
		arr[i] = Unwrap(item)
	}
	return arr
}

// BindContext builds the variables handed to gonja: the top-level keys of
// an object document plus DataKey bound to the whole shaped value. Array
// and primitive documents are reachable only through DataKey, and DataKey
// wins over a document key of the same name.
func BindContext(shaped interface{}) map[string]interface{} {
	vars := make(map[string]interface{})
	if obj, ok := shaped.(PreviewObject); ok {
		for k, v := range obj {
			vars[k] = v
		}
	}
	vars[DataKey] = shaped
	return vars
}
