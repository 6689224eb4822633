package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// JSONValue is a generic type to represent any JSON value.
// This can be a string, json.Number, boolean, nil, *JSONObject, or JSONArray.
type JSONValue = interface{}

// JSONArray represents a JSON array, which is a slice of JSONValues.
type JSONArray []JSONValue

// JSONObject represents a JSON object. Unlike a Go map it remembers the order
// in which keys appeared in the source document.
type JSONObject struct {
	keys   []string
	values map[string]JSONValue
}

// NewJSONObject creates an empty ordered object.
func NewJSONObject() *JSONObject {
	return &JSONObject{values: make(map[string]JSONValue)}
}

// Set stores value under key. A key that already exists keeps its original
// position and takes the new value.
func (o *JSONObject) Set(key string, value JSONValue) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key.
func (o *JSONObject) Get(key string) (JSONValue, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the object's keys in insertion order.
func (o *JSONObject) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *JSONObject) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// MarshalJSON encodes the object with its keys in insertion order.
func (o *JSONObject) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := MarshalNoEscape(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := MarshalNoEscape(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalNoEscape encodes v as compact JSON without escaping <, > and &.
func MarshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Document holds a parsed JSON document.
type Document struct {
	Root        JSONValue
	RootIsArray bool // True if the root of the JSON is an array vs an object
}

// NodeType is the semantic kind of a JSON value.
type NodeType string

const (
	Object  NodeType = "object"
	Array   NodeType = "array"
	String  NodeType = "string"
	Number  NodeType = "number"
	Boolean NodeType = "boolean"
	Null    NodeType = "null"
)

// TreeNode is one JSON value's position in a document.
type TreeNode struct {
	// Key is the property name, the array index as a decimal string, or
	// "root" for the top-level node.
	Key  string
	Type NodeType
	// Path is the template expression addressing this value, e.g.
	// "user.address.city" or "items[0].name". Empty for the root.
	Path string
	// Value is the primitive payload; unset for objects and arrays.
	Value JSONValue
	// Children is nil for primitives and non-nil for objects and arrays.
	Children []*TreeNode
}

// IsExpandable reports whether the node owns children.
func (n *TreeNode) IsExpandable() bool {
	return n.Type == Object || n.Type == Array
}

// MarshalJSON emits "value" for primitives and "children" for containers,
// so an empty container still serializes as "children": [].
func (n *TreeNode) MarshalJSON() ([]byte, error) {
	if n.IsExpandable() {
		children := n.Children
		if children == nil {
			children = []*TreeNode{}
		}
		return MarshalNoEscape(struct {
			Key      string      `json:"key"`
			Type     NodeType    `json:"type"`
			Path     string      `json:"path"`
			Children []*TreeNode `json:"children"`
		}{n.Key, n.Type, n.Path, children})
	}
	return MarshalNoEscape(struct {
		Key   string    `json:"key"`
		Type  NodeType  `json:"type"`
		Path  string    `json:"path"`
		Value JSONValue `json:"value"`
	}{n.Key, n.Type, n.Path, n.Value})
}

// RenderErrorKind classifies a failed render.
type RenderErrorKind string

const (
	KindEmptyTemplate      RenderErrorKind = "empty_template"
	KindUndefinedReference RenderErrorKind = "undefined_reference"
	KindSyntaxError        RenderErrorKind = "syntax_error"
	KindOther              RenderErrorKind = "other"
)

// RenderResult is the outcome of rendering a template. Output is meaningful
// when Success is true, Error otherwise.
type RenderResult struct {
	Success bool
	Output  string
	Error   string
	Kind    RenderErrorKind
}

// MarshalJSON omits whichever of output/error is not meaningful.
func (r RenderResult) MarshalJSON() ([]byte, error) {
	if r.Success {
		return MarshalNoEscape(struct {
			Success bool   `json:"success"`
			Output  string `json:"output"`
		}{true, r.Output})
	}
	return MarshalNoEscape(struct {
		Success bool            `json:"success"`
		Error   string          `json:"error"`
		Kind    RenderErrorKind `json:"kind,omitempty"`
	}{false, r.Error, r.Kind})
}

// String returns Output on success and Error otherwise.
func (r RenderResult) String() string {
	if r.Success {
		return r.Output
	}
	return strings.TrimSpace(r.Error)
}
