package parser

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/mcncl/j2j/internal/errors"
	"github.com/mcncl/j2j/internal/models"
)

// object builds an ordered object from alternating keys and values.
func object(kv ...interface{}) *models.JSONObject {
	obj := models.NewJSONObject()
	for i := 0; i+1 < len(kv); i += 2 {
		obj.Set(kv[i].(string), kv[i+1])
	}
	return obj
}

func TestParse_SimpleObject(t *testing.T) {
	jsonStr := `{"name": "John Doe", "age": 30, "isStudent": false, "city": null}`
	doc, err := Parse(strings.NewReader(jsonStr))
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	if doc.RootIsArray {
		t.Errorf("Parse() doc.RootIsArray = true, want false for an object")
	}

	expectedRoot := object(
		"name", "John Doe",
		"age", json.Number("30"),
		"isStudent", false,
		"city", nil,
	)

	actualRoot, ok := doc.Root.(*models.JSONObject)
	if !ok {
		t.Fatalf("Parse() root is not a *models.JSONObject, got %T", doc.Root)
	}
	if !reflect.DeepEqual(actualRoot, expectedRoot) {
		t.Errorf("Parse() root = %v, want %v", actualRoot, expectedRoot)
	}
}

func TestParse_PreservesKeyOrder(t *testing.T) {
	doc, err := ParseString(`{"zeta": 1, "alpha": 2, "mid": {"y": 1, "b": 2, "a": 3}}`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	root := doc.Root.(*models.JSONObject)
	if got := root.Keys(); !reflect.DeepEqual(got, []string{"zeta", "alpha", "mid"}) {
		t.Errorf("root keys = %v, want [zeta alpha mid]", got)
	}

	mid, _ := root.Get("mid")
	if got := mid.(*models.JSONObject).Keys(); !reflect.DeepEqual(got, []string{"y", "b", "a"}) {
		t.Errorf("nested keys = %v, want [y b a]", got)
	}
}

func TestParse_DuplicateKeysKeepFirstPosition(t *testing.T) {
	doc, err := ParseString(`{"a": 1, "b": 2, "a": 3}`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	root := doc.Root.(*models.JSONObject)
	if got := root.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("keys = %v, want [a b]", got)
	}
	if v, _ := root.Get("a"); v != json.Number("3") {
		t.Errorf("a = %v, want 3", v)
	}
}

func TestParse_SimpleArray(t *testing.T) {
	doc, err := Parse(strings.NewReader(`[1, "test", true, null, 3.14]`))
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	if !doc.RootIsArray {
		t.Errorf("Parse() doc.RootIsArray = false, want true for an array")
	}

	expectedRoot := models.JSONArray{
		json.Number("1"),
		"test",
		true,
		nil,
		json.Number("3.14"),
	}
	if !reflect.DeepEqual(doc.Root, expectedRoot) {
		t.Errorf("Parse() root = %v, want %v", doc.Root, expectedRoot)
	}
}

func TestParse_NestedObject(t *testing.T) {
	jsonStr := `{"user": {"name": "Jane Doe", "id": 123}, "active": true, "tags": ["go", "json"], "empty": [], "none": {}}`
	doc, err := Parse(strings.NewReader(jsonStr))
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	expectedRoot := object(
		"user", object("name", "Jane Doe", "id", json.Number("123")),
		"active", true,
		"tags", models.JSONArray{"go", "json"},
		"empty", models.JSONArray{},
		"none", models.NewJSONObject(),
	)
	if !reflect.DeepEqual(doc.Root, expectedRoot) {
		t.Errorf("Parse() root = %v, want %v", doc.Root, expectedRoot)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	if err == nil {
		t.Fatalf("Parse() with empty reader, err = nil, want error")
	}
	if !strings.Contains(err.Error(), "input is empty") {
		t.Errorf("Parse() with empty reader, err = %v, want error containing 'input is empty'", err)
	}
	if !stderrors.Is(err, errors.ErrEmptyInput) {
		t.Errorf("Parse() with empty reader, err = %v, want ErrEmptyInput", err)
	}
}

func TestParseString_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := ParseString(input)
		if err == nil {
			t.Errorf("ParseString(%q) err = nil, want error", input)
		} else if !strings.Contains(err.Error(), "input string is empty or consists only of whitespace") {
			t.Errorf("ParseString(%q) err = %v, want error containing 'input string is empty or consists only of whitespace'", input, err)
		}
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	testCases := []struct {
		name        string
		jsonStr     string
		wantMessage string
	}{
		{"MissingClosingBrace", `{"name": "John Doe", "age": 30`, "Invalid JSON: unexpected end of JSON input"},
		{"MissingClosingBracket", `["item1", "item2",`, "Invalid JSON: unexpected end of JSON input"},
		{"BadValue", `{"a": }`, "Invalid JSON: invalid character '}' looking for beginning of value"},
		{"Garbage", `hello`, "Invalid JSON: invalid character 'h' looking for beginning of value"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseString(tc.jsonStr)
			if err == nil {
				t.Fatalf("ParseString() with malformed JSON, err = nil, want error")
			}
			if !stderrors.Is(err, errors.ErrInvalidJSON) {
				t.Errorf("ParseString() err = %v, want ErrInvalidJSON", err)
			}
			if got := errors.InvalidJSONMessage(err); got != tc.wantMessage {
				t.Errorf("InvalidJSONMessage() = %q, want %q", got, tc.wantMessage)
			}
		})
	}
}

func TestParse_MultipleValues(t *testing.T) {
	_, err := ParseString(`{"a": 1} {"b": 2}`)
	if err == nil {
		t.Fatalf("ParseString() with two values, err = nil, want error")
	}
	if !stderrors.Is(err, errors.ErrMultipleJSON) {
		t.Errorf("ParseString() err = %v, want ErrMultipleJSON", err)
	}
}

func TestParse_TrailingWhitespace(t *testing.T) {
	doc, err := ParseString("{\"a\": 1}\n\n  ")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if _, ok := doc.Root.(*models.JSONObject); !ok {
		t.Errorf("root = %T, want *models.JSONObject", doc.Root)
	}
}

func TestParser_MaxDepth(t *testing.T) {
	p := &Parser{MaxDepth: 3}

	if _, err := p.ParseString(`[[["ok"]]]`); err != nil {
		t.Errorf("depth 3 err = %v, want nil", err)
	}

	_, err := p.ParseString(`[[[["too deep"]]]]`)
	if err == nil {
		t.Fatalf("depth 4 err = nil, want error")
	}
	if !stderrors.Is(err, errors.ErrTooDeep) {
		t.Errorf("depth 4 err = %v, want ErrTooDeep", err)
	}
}

func TestParseFile_SimpleObject(t *testing.T) {
	content := `{"product": "Laptop", "price": 1200.50}`
	tmpfile, err := os.CreateTemp("", "test_simple_*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name()) // clean up

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	doc, err := ParseFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ParseFile() error = %v, wantErr nil", err)
	}

	expectedRoot := object(
		"product", "Laptop",
		"price", json.Number("1200.50"),
	)
	if !reflect.DeepEqual(doc.Root, expectedRoot) {
		t.Errorf("ParseFile() root = %v, want %v", doc.Root, expectedRoot)
	}
}

func TestParseFile_NonExistentFile(t *testing.T) {
	_, err := ParseFile("nonexistentfile.json")
	if err == nil {
		t.Fatalf("ParseFile() with non-existent file, err = nil, want error")
	}
	if !stderrors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("ParseFile() with non-existent file, err = %v, want ErrFileNotFound", err)
	}
}

func TestParseFile_EmptyPath(t *testing.T) {
	_, err := ParseFile("")
	if err == nil {
		t.Errorf("ParseFile() with empty path, err = nil, want error")
	} else if !strings.Contains(err.Error(), "file path is empty") {
		t.Errorf("ParseFile() with empty path, err = %v, want error containing 'file path is empty'", err)
	}
}

func TestParseFile_EmptyFileContent(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_empty_*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name()) // clean up

	if err := tmpfile.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	_, err = ParseFile(tmpfile.Name())
	if err == nil {
		t.Errorf("ParseFile() with empty file content, err = nil, want error")
	} else if !stderrors.Is(err, errors.ErrFileEmpty) {
		t.Errorf("ParseFile() with empty file content, err = %v, want ErrFileEmpty", err)
	}
}

func TestParse_RootPrimitives(t *testing.T) {
	testCases := []struct {
		name        string
		jsonStr     string
		expectedVal interface{}
	}{
		{"RootString", `"hello world"`, "hello world"},
		{"RootNumber", `123.45`, json.Number("123.45")},
		{"RootBooleanTrue", `true`, true},
		{"RootBooleanFalse", `false`, false},
		{"RootNull", `null`, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse(strings.NewReader(tc.jsonStr))
			if err != nil {
				t.Fatalf("Parse() error = %v, wantErr nil for %s", err, tc.name)
			}

			if doc.RootIsArray {
				t.Errorf("Parse() doc.RootIsArray = true, want false for %s", tc.name)
			}

			if !reflect.DeepEqual(doc.Root, tc.expectedVal) {
				t.Errorf("Parse() root = %#v (type %T), want %#v (type %T)", doc.Root, doc.Root, tc.expectedVal, tc.expectedVal)
			}
		})
	}
}
