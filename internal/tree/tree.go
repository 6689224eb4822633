// Package tree turns parsed JSON into a tree of addressable nodes. Every node
// carries the template expression path that reaches it from the document
// root, using dot notation for identifier-safe keys and bracket notation for
// array indices and all other keys.
package tree

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mcncl/j2j/internal/errors"
	"github.com/mcncl/j2j/internal/models"
)

// RootKey is the key given to the top-level node.
const RootKey = "root"

// DefaultMaxDepth is the deepest container nesting Build accepts.
const DefaultMaxDepth = 512

// ErrTooDeep is returned when a document nests deeper than the builder allows.
var ErrTooDeep = errors.ErrTooDeep

var errFound = fmt.Errorf("found")

// Classify maps a value to its NodeType. It never fails: values it cannot
// classify are reported as Null.
func Classify(value models.JSONValue) models.NodeType {
	// nil before anything else; arrays before objects.
	switch value.(type) {
	case nil:
		return models.Null
	case models.JSONArray, []interface{}:
		return models.Array
	case *models.JSONObject, map[string]interface{}:
		return models.Object
	case string:
		return models.String
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return models.Number
	case bool:
		return models.Boolean
	default:
		return models.Null
	}
}

// IsExpandable reports whether nodes of type t own children.
func IsExpandable(t models.NodeType) bool {
	return t == models.Object || t == models.Array
}

// Builder builds trees with an explicit work stack so that document depth
// is bounded by MaxDepth rather than by the goroutine stack.
type Builder struct {
	MaxDepth int
}

// NewBuilder returns a Builder with DefaultMaxDepth.
func NewBuilder() *Builder {
	return &Builder{MaxDepth: DefaultMaxDepth}
}

type frame struct {
	node  *models.TreeNode
	value models.JSONValue
	depth int
}

// Build converts a whole document into a tree rooted at a node keyed "root"
// with an empty path.
func (b *Builder) Build(value models.JSONValue) (*models.TreeNode, error) {
	return b.BuildFrom(value, RootKey, "", false)
}

// BuildFrom converts value into a subtree whose top node is addressed as
// key under parentPath. The node's own path is empty only for the very
// root, i.e. key "root" with an empty parent path.
func (b *Builder) BuildFrom(value models.JSONValue, key, parentPath string, isArrayIndex bool) (*models.TreeNode, error) {
	path := ""
	if parentPath != "" || key != RootKey {
		path = BuildPath(parentPath, key, isArrayIndex)
	}

	root := newNode(key, path, value)
	stack := []frame{{node: root, value: value}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !f.node.IsExpandable() {
			continue
		}
		if b.MaxDepth > 0 && f.depth >= b.MaxDepth && hasChildren(f.value) {
			return nil, errors.NewTreeError(
				fmt.Sprintf("document nesting exceeds %d levels at %q", b.MaxDepth, f.node.Path),
				ErrTooDeep,
			)
		}

		for _, c := range children(f.value) {
			childPath := BuildPath(f.node.Path, c.key, c.isIndex)
			child := newNode(c.key, childPath, c.value)
			f.node.Children = append(f.node.Children, child)
			stack = append(stack, frame{node: child, value: c.value, depth: f.depth + 1})
		}
	}

	return root, nil
}

// JSONToTree converts value into a tree using DefaultMaxDepth. Pass
// RootKey, "" and false to build a whole document.
func JSONToTree(value models.JSONValue, key, parentPath string, isArrayIndex bool) (*models.TreeNode, error) {
	return NewBuilder().BuildFrom(value, key, parentPath, isArrayIndex)
}

func newNode(key, path string, value models.JSONValue) *models.TreeNode {
	node := &models.TreeNode{Key: key, Type: Classify(value), Path: path}
	if IsExpandable(node.Type) {
		node.Children = []*models.TreeNode{}
	} else {
		node.Value = value
	}
	return node
}

type child struct {
	key     string
	value   models.JSONValue
	isIndex bool
}

func hasChildren(value models.JSONValue) bool {
	switch v := value.(type) {
	case *models.JSONObject:
		return v.Len() > 0
	case models.JSONArray:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	case []interface{}:
		return len(v) > 0
	}
	return false
}

// children lists a container's entries in document order. Plain Go maps
// have no order, so their keys are sorted.
func children(value models.JSONValue) []child {
	var out []child
	switch v := value.(type) {
	case *models.JSONObject:
		for _, k := range v.Keys() {
			val, _ := v.Get(k)
			out = append(out, child{key: k, value: val})
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, child{key: k, value: v[k]})
		}
	case models.JSONArray:
		for i, val := range v {
			out = append(out, child{key: fmt.Sprint(i), value: val, isIndex: true})
		}
	case []interface{}:
		for i, val := range v {
			out = append(out, child{key: fmt.Sprint(i), value: val, isIndex: true})
		}
	}
	return out
}

// Walk visits node and its descendants in pre-order, stopping at the first
// error fn returns.
func Walk(node *models.TreeNode, fn func(*models.TreeNode) error) error {
	if node == nil {
		return nil
	}
	stack := []*models.TreeNode{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := fn(n); err != nil {
			return err
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return nil
}

// Find returns the node whose path equals path, or nil.
func Find(root *models.TreeNode, path string) *models.TreeNode {
	var found *models.TreeNode
	_ = Walk(root, func(n *models.TreeNode) error {
		if n.Path == path {
			found = n
			return errFound
		}
		return nil
	})
	return found
}
