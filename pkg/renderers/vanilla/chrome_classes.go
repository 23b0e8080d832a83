package vanilla

import (
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ChromeClass is a typed identifier for a themeable class slot. Themes
// override a slot with a token of the same name, e.g. "class.button".
type ChromeClass string

const (
	ClassFieldLabel   ChromeClass = "class.field.label"
	ClassInput        ChromeClass = "class.input"
	ClassValidator    ChromeClass = "class.input.validator"
	ClassHint         ChromeClass = "class.hint"
	ClassHintList     ChromeClass = "class.hint.list"
	ClassButton       ChromeClass = "class.button"
	ClassOtherLabel   ChromeClass = "class.other.label"
	ClassImageLabel   ChromeClass = "class.image.label"
	ClassCaption      ChromeClass = "class.caption"
	ClassLink         ChromeClass = "class.link"
	ClassAlert        ChromeClass = "class.alert"
	ClassAlertError   ChromeClass = "class.alert.error"
	ClassAlertInfo    ChromeClass = "class.alert.info"
	ClassAlertSuccess ChromeClass = "class.alert.success"
	ClassFormBody     ChromeClass = "class.form.body"
	ClassFieldset     ChromeClass = "class.fieldset"
	ClassLegend       ChromeClass = "class.legend"

	ClassNodeMessage        ChromeClass = "class.node.message"
	ClassNodeMessageError   ChromeClass = "class.node.message.error"
	ClassNodeMessageInfo    ChromeClass = "class.node.message.info"
	ClassNodeMessageSuccess ChromeClass = "class.node.message.success"
)

// DefaultClasses are daisyUI class lists applied when the theme does not
// override a slot.
var DefaultClasses = map[ChromeClass]string{
	ClassFieldLabel:   "floating-label my-4",
	ClassInput:        "input w-full",
	ClassValidator:    "validator",
	ClassHint:         "validator-hint hidden",
	ClassHintList:     "list-disc list-inside",
	ClassButton:       "btn btn-primary w-full my-4",
	ClassOtherLabel:   "w-full",
	ClassImageLabel:   "text-lg mb-4",
	ClassCaption:      "text-lg",
	ClassLink:         "link-primary link-hover",
	ClassAlert:        "alert",
	ClassAlertError:   "alert-error",
	ClassAlertInfo:    "alert-info",
	ClassAlertSuccess: "alert-success",
	ClassFormBody:     "mt-2",
	ClassFieldset:     "fieldset",
	ClassLegend:       "fieldset-legend text-xl",

	ClassNodeMessage:        "text-sm -mt-2 mb-2",
	ClassNodeMessageError:   "text-error",
	ClassNodeMessageInfo:    "text-info",
	ClassNodeMessageSuccess: "text-success",
}

type classSet map[ChromeClass]string

func resolveClasses(cfg *theme.RendererConfig) classSet {
	out := make(classSet, len(DefaultClasses))
	for slot, value := range DefaultClasses {
		out[slot] = value
	}
	if cfg == nil {
		return out
	}
	for slot := range DefaultClasses {
		if value, ok := cfg.Tokens[string(slot)]; ok {
			out[slot] = sanitizeClassList(value)
		}
	}
	return out
}

func (c classSet) get(slot ChromeClass) string {
	return c[slot]
}

// join combines class lists, skipping empty ones.
func (c classSet) join(slots ...ChromeClass) string {
	parts := make([]string, 0, len(slots))
	for _, slot := range slots {
		if value := c[slot]; value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, " ")
}

func sanitizeClassList(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
