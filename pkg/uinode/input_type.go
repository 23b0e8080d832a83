package uinode

import "strings"

// InputType enumerates the input subtypes the identity API emits. The set is
// closed; values outside it decode to InputTypeUnknown and keep their raw wire
// name on the attributes.
type InputType int

const (
	InputTypeUnknown InputType = iota - 1
	InputText
	InputPassword
	InputNumber
	InputCheckbox
	InputHidden
	InputEmail
	InputTel
	InputSubmit
	InputButton
	InputDatetimeLocal
	InputDate
	InputURL

	inputTypeCount
)

// InputTypeCount is the number of known input types. Dispatch tables sized by
// it are checked at compile time.
const InputTypeCount = int(inputTypeCount)

var inputTypeWireNames = [...]string{
	InputText:          "text",
	InputPassword:      "password",
	InputNumber:        "number",
	InputCheckbox:      "checkbox",
	InputHidden:        "hidden",
	InputEmail:         "email",
	InputTel:           "tel",
	InputSubmit:        "submit",
	InputButton:        "button",
	InputDatetimeLocal: "datetime-local",
	InputDate:          "date",
	InputURL:           "url",
}

var inputTypeDisplayNames = [...]string{
	InputText:          "Text",
	InputPassword:      "Password",
	InputNumber:        "Number",
	InputCheckbox:      "Checkbox",
	InputHidden:        "Hidden",
	InputEmail:         "Email",
	InputTel:           "Tel",
	InputSubmit:        "Submit",
	InputButton:        "Button",
	InputDatetimeLocal: "DatetimeLocal",
	InputDate:          "Date",
	InputURL:           "Url",
}

// Both tables must cover every input type exactly.
var (
	_ = [1]struct{}{}[len(inputTypeWireNames)-InputTypeCount]
	_ = [1]struct{}{}[len(inputTypeDisplayNames)-InputTypeCount]
)

// ParseInputType maps a wire name to its InputType. The match is case-insensitive.
func ParseInputType(raw string) (InputType, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for idx, wire := range inputTypeWireNames {
		if wire == name {
			return InputType(idx), true
		}
	}
	return InputTypeUnknown, false
}

// InputTypes lists every known input type in declaration order.
func InputTypes() []InputType {
	out := make([]InputType, 0, InputTypeCount)
	for t := InputType(0); t < inputTypeCount; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t is one of the known input types.
func (t InputType) Valid() bool {
	return t >= 0 && t < inputTypeCount
}

// String returns the HTML type attribute value ("datetime-local", "url", ...).
func (t InputType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return inputTypeWireNames[t]
}

// DisplayName is the fallback label used when a node has no label.
func (t InputType) DisplayName() string {
	if !t.Valid() {
		return "Unknown"
	}
	return inputTypeDisplayNames[t]
}

// Validates reports whether the type gets client-side validation (pattern
// and hint). Only password and email do.
func (t InputType) Validates() bool {
	return t == InputPassword || t == InputEmail
}
