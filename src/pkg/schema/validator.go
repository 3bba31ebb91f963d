// Package schema validates contract documents against the embedded JSON
// schema. Validation is purely structural and never touches repository
// state.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
)

//go:embed schema.json
var schemaJSON string

// JSON returns the embedded contract schema document.
func JSON() string {
	return schemaJSON
}

var compiled = jsonschema.MustCompileString("schema.json", schemaJSON)

// Error is one schema violation with its document location. Line and
// Column are zero when the input carried no source positions.
type Error struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Report is the result of validating one document.
type Report struct {
	Path   string  `json:"path"`
	Valid  bool    `json:"valid"`
	Errors []Error `json:"errors"`
}

// ValidateFile validates the YAML document at path, collecting every
// violation rather than stopping at the first, with line/column locators
// resolved from the YAML node tree.
func ValidateFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var doc any
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	report := &Report{Path: path}
	report.Errors = validateValue(doc, &root)
	report.Valid = len(report.Errors) == 0
	return report, nil
}

// ValidateDocument validates an already-decoded contract. Used to check
// the merged document before reconciliation; no positions are available
// on this path.
func ValidateDocument(doc *models.Contract) []Error {
	data, err := json.Marshal(doc)
	if err != nil {
		return []Error{{Code: models.CodeSchemaViolation, Message: err.Error()}}
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return []Error{{Code: models.CodeSchemaViolation, Message: err.Error()}}
	}
	return validateValue(value, nil)
}

func validateValue(doc any, root *yaml.Node) []Error {
	normalized, err := normalize(doc)
	if err != nil {
		return []Error{{Code: models.CodeSchemaViolation, Message: err.Error()}}
	}
	err = compiled.Validate(normalized)
	if err == nil {
		return nil
	}
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Error{{Code: models.CodeSchemaViolation, Message: err.Error()}}
	}

	var errors []Error
	for _, leaf := range leafCauses(validationErr) {
		schemaErr := Error{
			Code:    models.CodeSchemaViolation,
			Path:    pointerToFieldPath(leaf.InstanceLocation),
			Message: leaf.Message,
		}
		if root != nil {
			if node := nodeAtPointer(root, leaf.InstanceLocation); node != nil {
				schemaErr.Line = node.Line
				schemaErr.Column = node.Column
			}
		}
		errors = append(errors, schemaErr)
	}
	return errors
}

// normalize round-trips the YAML-decoded value through JSON so the schema
// library sees the value shapes it expects.
func normalize(doc any) (any, error) {
	data, err := json.Marshal(stringifyKeys(doc))
	if err != nil {
		return nil, fmt.Errorf("document is not JSON-representable: %w", err)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func stringifyKeys(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, entry := range typed {
			out[key] = stringifyKeys(entry)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, entry := range typed {
			out[fmt.Sprintf("%v", key)] = stringifyKeys(entry)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, entry := range typed {
			out[i] = stringifyKeys(entry)
		}
		return out
	default:
		return value
	}
}

// leafCauses flattens the cause tree to the innermost violations.
func leafCauses(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		leaves = append(leaves, leafCauses(cause)...)
	}
	return leaves
}

// pointerToFieldPath converts "/required_files/0/severity" into the
// dotted locator "required_files[0].severity".
func pointerToFieldPath(pointer string) string {
	if pointer == "" || pointer == "/" {
		return ""
	}
	segments := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	var builder strings.Builder
	for _, segment := range segments {
		if index, err := strconv.Atoi(segment); err == nil {
			builder.WriteString(fmt.Sprintf("[%d]", index))
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString(".")
		}
		builder.WriteString(segment)
	}
	return builder.String()
}

// nodeAtPointer walks the YAML node tree by a JSON pointer and returns
// the node it lands on, or nil when the path cannot be resolved.
func nodeAtPointer(root *yaml.Node, pointer string) *yaml.Node {
	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if pointer == "" || pointer == "/" {
		return node
	}
	for _, segment := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		switch node.Kind {
		case yaml.MappingNode:
			var next *yaml.Node
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == segment {
					next = node.Content[i+1]
					break
				}
			}
			if next == nil {
				return node
			}
			node = next
		case yaml.SequenceNode:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node.Content) {
				return node
			}
			node = node.Content[index]
		default:
			return node
		}
	}
	return node
}
