package uinode

import (
	"encoding/json"
	"strconv"
	"strings"
)

// StringValue returns v when it is a string and "" otherwise. Buttons and
// text-like fields use it.
func StringValue(v any) string {
	s, _ := v.(string)
	return s
}

// BoolValue reports whether v is the literal boolean true. The string "true"
// is not accepted.
func BoolValue(v any) bool {
	b, _ := v.(bool)
	return b
}

// ScalarString renders a dynamic value for display: strings pass through,
// numbers use their decimal text, booleans become "true"/"false", arrays
// become a bracketed list such as [1, 2]. Anything else, including nil,
// renders as "".
func ScalarString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case bool:
		return strconv.FormatBool(value)
	case []any:
		return listString(value)
	default:
		return ""
	}
}

func listString(items []any) string {
	var b strings.Builder
	b.WriteByte('[')
	for idx, item := range items {
		if idx > 0 {
			b.WriteString(", ")
		}
		b.WriteString(elementString(item))
	}
	b.WriteByte(']')
	return b.String()
}

func elementString(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(value)
	case []any:
		return listString(value)
	case map[string]any:
		raw, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(raw)
	default:
		return ScalarString(value)
	}
}
