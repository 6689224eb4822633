package tree

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mcncl/j2j/internal/models"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// rootReserved are identifier-safe keys that would not resolve to the
// document property when used bare at the root: template literals,
// operators, and the data alias.
var rootReserved = map[string]bool{
	"true": true, "false": true, "True": true, "False": true,
	"none": true, "None": true, "null": true,
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"data": true,
}

// IsIdentifier reports whether key can be addressed with dot notation.
func IsIdentifier(key string) bool {
	return identifierRegex.MatchString(key)
}

// BuildPath appends one segment for key to parentPath.
//
//	BuildPath("", "name", false)     == "name"
//	BuildPath("user", "name", false) == "user.name"
//	BuildPath("items", "0", true)    == "items[0]"
//	BuildPath("", "4", false)        == `["4"]`
func BuildPath(parentPath, key string, isArrayIndex bool) string {
	if isArrayIndex {
		return parentPath + "[" + key + "]"
	}
	if !IsIdentifier(key) || (parentPath == "" && rootReserved[key]) {
		return parentPath + `["` + EscapeKey(key) + `"]`
	}
	if parentPath == "" {
		return key
	}
	return parentPath + "." + key
}

// EscapeKey backslash-escapes the characters that would end or corrupt a
// double-quoted string literal.
func EscapeKey(key string) string {
	if !strings.ContainsAny(key, `"\`) {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Segment is one step of a parsed path.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// ParsePath splits a path produced by BuildPath back into segments.
func ParsePath(path string) ([]Segment, error) {
	var segs []Segment
	i := 0
	for i < len(path) {
		switch {
		case path[i] == '.':
			if i == 0 {
				return nil, fmt.Errorf("path %q: leading dot", path)
			}
			i++
			name, n := scanIdent(path[i:])
			if n == 0 {
				return nil, fmt.Errorf("path %q: missing name after dot at %d", path, i)
			}
			segs = append(segs, Segment{Key: name})
			i += n
		case path[i] == '[':
			i++
			if i < len(path) && path[i] == '"' {
				key, n, err := scanQuoted(path[i:])
				if err != nil {
					return nil, fmt.Errorf("path %q: %w", path, err)
				}
				i += n
				segs = append(segs, Segment{Key: key})
			} else {
				end := strings.IndexByte(path[i:], ']')
				if end < 0 {
					return nil, fmt.Errorf("path %q: unterminated index", path)
				}
				idx, err := strconv.Atoi(path[i : i+end])
				if err != nil {
					return nil, fmt.Errorf("path %q: bad index %q", path, path[i:i+end])
				}
				segs = append(segs, Segment{Index: idx, IsIndex: true})
				i += end
			}
			if i >= len(path) || path[i] != ']' {
				return nil, fmt.Errorf("path %q: missing ]", path)
			}
			i++
		case i == 0:
			name, n := scanIdent(path)
			if n == 0 {
				return nil, fmt.Errorf("path %q: unexpected %q", path, path[0])
			}
			segs = append(segs, Segment{Key: name})
			i += n
		default:
			return nil, fmt.Errorf("path %q: unexpected %q at %d", path, path[i], i)
		}
	}
	return segs, nil
}

func scanIdent(s string) (string, int) {
	n := 0
	for n < len(s) {
		c := s[n]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (n > 0 && c >= '0' && c <= '9') {
			n++
			continue
		}
		break
	}
	return s[:n], n
}

// scanQuoted reads a double-quoted key starting at s[0] and returns the
// unescaped key and the number of bytes consumed.
func scanQuoted(s string) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("dangling escape")
			}
			i++
			b.WriteByte(s[i])
		case '"':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(s[i])
		}
	}
	return "", 0, fmt.Errorf("unterminated quoted key")
}

// Lookup resolves path against a document. The empty path is the document
// itself.
func Lookup(root models.JSONValue, path string) (models.JSONValue, bool) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	cur := root
	for _, seg := range segs {
		switch v := cur.(type) {
		case *models.JSONObject:
			if seg.IsIndex {
				return nil, false
			}
			next, ok := v.Get(seg.Key)
			if !ok {
				return nil, false
			}
			cur = next
		case models.JSONArray:
			if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(v) {
				return nil, false
			}
			cur = v[seg.Index]
		default:
			return nil, false
		}
	}
	return cur, true
}

// CanonicalPath rewrites path in the form BuildPath produces, so
// equivalent spellings such as ["user"]["name"] and user.name compare
// equal.
func CanonicalPath(path string) (string, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	out := ""
	for _, seg := range segs {
		if seg.IsIndex {
			out = BuildPath(out, strconv.Itoa(seg.Index), true)
		} else {
			out = BuildPath(out, seg.Key, false)
		}
	}
	return out, nil
}
