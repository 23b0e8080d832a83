package validation

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed schema/ui_container.json
var schemaFiles embed.FS

// SchemaIssue represents a validation error with optional location metadata.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures validation outcomes for a container document.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

var (
	containerSchemaOnce sync.Once
	containerSchema     *openapi3.Schema
	containerSchemaErr  error
)

// ContainerSchema returns the parsed ui container contract.
func ContainerSchema() (*openapi3.Schema, error) {
	containerSchemaOnce.Do(func() {
		raw, err := schemaFiles.ReadFile("schema/ui_container.json")
		if err != nil {
			containerSchemaErr = fmt.Errorf("validation: read container schema: %w", err)
			return
		}
		var schema openapi3.Schema
		if err := json.Unmarshal(raw, &schema); err != nil {
			containerSchemaErr = fmt.Errorf("validation: parse container schema: %w", err)
			return
		}
		containerSchema = &schema
	})
	return containerSchema, containerSchemaErr
}

// ValidateContainer checks a raw ui container document against the embedded
// contract. All issues are collected rather than stopping at the first one.
func ValidateContainer(raw []byte) SchemaValidationResult {
	result := SchemaValidationResult{Valid: true}

	schema, err := ContainerSchema()
	if err != nil {
		return invalid(issueFromError(err))
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return invalid(SchemaIssue{Message: strings.TrimSpace(err.Error())})
	}
	if doc, ok := value.(map[string]any); ok {
		if ui, ok := doc["ui"].(map[string]any); ok {
			value = ui
		}
	}

	if err := schema.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		result.Valid = false
		result.Issues = collectIssues(err)
	}
	return result
}

func invalid(issue SchemaIssue) SchemaValidationResult {
	return SchemaValidationResult{Valid: false, Issues: []SchemaIssue{issue}}
}

func collectIssues(err error) []SchemaIssue {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []SchemaIssue
		for _, inner := range multi {
			out = append(out, collectIssues(inner)...)
		}
		return out
	}
	return []SchemaIssue{issueFromError(err)}
}

func issueFromError(err error) SchemaIssue {
	if err == nil {
		return SchemaIssue{Message: "unknown error"}
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		pointer := "#/" + strings.Join(schemaErr.JSONPointer(), "/")
		if len(schemaErr.JSONPointer()) == 0 {
			pointer = ""
		}
		msg := strings.TrimSpace(schemaErr.Reason)
		if msg == "" {
			msg = strings.TrimSpace(schemaErr.Error())
		}
		return SchemaIssue{
			Path:    pointer,
			Field:   fieldPathFromPointer(pointer),
			Message: msg,
		}
	}
	return SchemaIssue{Message: strings.TrimSpace(err.Error())}
}

// fieldPathFromPointer turns "#/nodes/0/attributes/node_type" into
// "nodes[0].attributes.node_type".
func fieldPathFromPointer(pointer string) string {
	trimmed := strings.TrimSpace(pointer)
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(trimmed, "/") {
		segment := strings.ReplaceAll(part, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		if segment == "" {
			continue
		}
		if isNumeric(segment) {
			b.WriteString("[" + segment + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(segment)
	}
	return b.String()
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
