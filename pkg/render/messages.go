package render

import (
	"strings"

	"github.com/goliatone/go-authui/pkg/uinode"
)

// MessageMapping splits the messages of a container into per-input messages
// keyed by input name and form-level messages.
type MessageMapping struct {
	Fields map[string][]string
	Form   []string
	// HasErrors is true when any message has the error type.
	HasErrors bool
}

// MapMessages collects node and container messages. Messages attached to
// non-input nodes are treated as form level so they are not lost.
func MapMessages(container uinode.Container) MessageMapping {
	mapping := MessageMapping{Fields: make(map[string][]string)}

	for _, msg := range container.Messages {
		mapping.Form = append(mapping.Form, msg.Text)
		mapping.HasErrors = mapping.HasErrors || msg.Type == uinode.TextError
	}

	for _, node := range container.Nodes {
		if len(node.Messages) == 0 {
			continue
		}
		texts := make([]string, 0, len(node.Messages))
		for _, msg := range node.Messages {
			texts = append(texts, msg.Text)
			mapping.HasErrors = mapping.HasErrors || msg.Type == uinode.TextError
		}
		if _, ok := node.Input(); ok && node.Name() != "" {
			mapping.Fields[node.Name()] = normalizeMessages(append(mapping.Fields[node.Name()], texts...))
			continue
		}
		mapping.Form = append(mapping.Form, texts...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// MergeMessages concatenates message slices, trimming whitespace and removing
// duplicates while preserving order.
func MergeMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(messages))
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		trimmed := strings.TrimSpace(msg)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
