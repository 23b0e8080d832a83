package uinode

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Attributes is the closed set of node attribute variants. The unexported
// marker keeps implementations inside this package.
type Attributes interface {
	NodeType() NodeType
	ID() string
	Accept(v AttributeVisitor)
	isAttributes()
}

// AttributeVisitor receives the concrete attribute variant of a node. Every
// variant has exactly one method here; adding a variant means adding a method,
// which every visitor must then implement.
type AttributeVisitor interface {
	VisitInput(attrs InputAttributes)
	VisitImage(attrs ImageAttributes)
	VisitText(attrs TextAttributes)
	VisitAnchor(attrs AnchorAttributes)
	VisitScript(attrs ScriptAttributes)
}

// InputAttributes describe a form control.
type InputAttributes struct {
	Name           string    `json:"name"`
	Type           InputType `json:"-"`
	Required       bool      `json:"required,omitempty"`
	Disabled       bool      `json:"disabled"`
	Autocomplete   string    `json:"autocomplete,omitempty"`
	Value          any       `json:"value,omitempty"`
	Pattern        string    `json:"pattern,omitempty"`
	Label          *Text     `json:"label,omitempty"`
	OnClickTrigger string    `json:"onclickTrigger,omitempty"`
	Maxlength      int       `json:"maxlength,omitempty"`

	rawType string
}

func (InputAttributes) NodeType() NodeType { return NodeInput }
func (a InputAttributes) ID() string      { return a.Name }
func (a InputAttributes) Accept(v AttributeVisitor) {
	v.VisitInput(a)
}
func (InputAttributes) isAttributes() {}

// TypeName returns the wire name of the input type. For types outside the
// known set it returns the raw string received from the API.
func (a InputAttributes) TypeName() string {
	if a.Type.Valid() {
		return a.Type.String()
	}
	return a.rawType
}

// WithRawType returns a copy carrying an unrecognised wire type. Intended for
// fixtures that exercise the unknown-type path.
func (a InputAttributes) WithRawType(raw string) InputAttributes {
	a.Type = InputTypeUnknown
	a.rawType = raw
	return a
}

type inputAttributesWire struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Required       bool   `json:"required,omitempty"`
	Disabled       bool   `json:"disabled"`
	Autocomplete   string `json:"autocomplete,omitempty"`
	Value          any    `json:"value,omitempty"`
	Pattern        string `json:"pattern,omitempty"`
	Label          *Text  `json:"label,omitempty"`
	OnClickTrigger string `json:"onclickTrigger,omitempty"`
	Maxlength      int    `json:"maxlength,omitempty"`
}

// UnmarshalJSON decodes input attributes keeping numeric values as
// json.Number so they render exactly as received.
func (a *InputAttributes) UnmarshalJSON(data []byte) error {
	var wire inputAttributesWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&wire); err != nil {
		return fmt.Errorf("uinode: decode input attributes: %w", err)
	}

	typ, ok := ParseInputType(wire.Type)
	*a = InputAttributes{
		Name:           wire.Name,
		Type:           typ,
		Required:       wire.Required,
		Disabled:       wire.Disabled,
		Autocomplete:   wire.Autocomplete,
		Value:          wire.Value,
		Pattern:        wire.Pattern,
		Label:          wire.Label,
		OnClickTrigger: wire.OnClickTrigger,
		Maxlength:      wire.Maxlength,
	}
	if !ok {
		a.rawType = wire.Type
	}
	return nil
}

// MarshalJSON emits the wire shape including the node_type discriminator.
func (a InputAttributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		NodeType NodeType `json:"node_type"`
		inputAttributesWire
	}{
		NodeType: NodeInput,
		inputAttributesWire: inputAttributesWire{
			Name:           a.Name,
			Type:           a.TypeName(),
			Required:       a.Required,
			Disabled:       a.Disabled,
			Autocomplete:   a.Autocomplete,
			Value:          a.Value,
			Pattern:        a.Pattern,
			Label:          a.Label,
			OnClickTrigger: a.OnClickTrigger,
			Maxlength:      a.Maxlength,
		},
	})
}

// ImageAttributes describe an image such as a TOTP QR code.
type ImageAttributes struct {
	ElementID string `json:"id"`
	Src       string `json:"src"`
	Width     int64  `json:"width"`
	Height    int64  `json:"height"`
}

func (ImageAttributes) NodeType() NodeType { return NodeImage }
func (a ImageAttributes) ID() string      { return a.ElementID }
func (a ImageAttributes) Accept(v AttributeVisitor) {
	v.VisitImage(a)
}
func (ImageAttributes) isAttributes() {}

func (a ImageAttributes) MarshalJSON() ([]byte, error) {
	type plain ImageAttributes
	return json.Marshal(struct {
		NodeType NodeType `json:"node_type"`
		plain
	}{NodeImage, plain(a)})
}

// TextAttributes describe a read-only block of text such as recovery codes.
type TextAttributes struct {
	ElementID string `json:"id"`
	Text      Text   `json:"text"`
}

func (TextAttributes) NodeType() NodeType { return NodeText }
func (a TextAttributes) ID() string      { return a.ElementID }
func (a TextAttributes) Accept(v AttributeVisitor) {
	v.VisitText(a)
}
func (TextAttributes) isAttributes() {}

func (a TextAttributes) MarshalJSON() ([]byte, error) {
	type plain TextAttributes
	return json.Marshal(struct {
		NodeType NodeType `json:"node_type"`
		plain
	}{NodeText, plain(a)})
}

// AnchorAttributes describe a link.
type AnchorAttributes struct {
	ElementID string `json:"id"`
	Href      string `json:"href"`
	Title     Text   `json:"title"`
}

func (AnchorAttributes) NodeType() NodeType { return NodeAnchor }
func (a AnchorAttributes) ID() string      { return a.ElementID }
func (a AnchorAttributes) Accept(v AttributeVisitor) {
	v.VisitAnchor(a)
}
func (AnchorAttributes) isAttributes() {}

func (a AnchorAttributes) MarshalJSON() ([]byte, error) {
	type plain AnchorAttributes
	return json.Marshal(struct {
		NodeType NodeType `json:"node_type"`
		plain
	}{NodeAnchor, plain(a)})
}

// ScriptAttributes describe a script the flow needs, for example WebAuthn.
type ScriptAttributes struct {
	ElementID      string `json:"id"`
	Src            string `json:"src"`
	Type           string `json:"type"`
	Async          bool   `json:"async"`
	Crossorigin    string `json:"crossorigin,omitempty"`
	Integrity      string `json:"integrity,omitempty"`
	Nonce          string `json:"nonce,omitempty"`
	Referrerpolicy string `json:"referrerpolicy,omitempty"`
}

func (ScriptAttributes) NodeType() NodeType { return NodeScript }
func (a ScriptAttributes) ID() string      { return a.ElementID }
func (a ScriptAttributes) Accept(v AttributeVisitor) {
	v.VisitScript(a)
}
func (ScriptAttributes) isAttributes() {}

func (a ScriptAttributes) MarshalJSON() ([]byte, error) {
	type plain ScriptAttributes
	return json.Marshal(struct {
		NodeType NodeType `json:"node_type"`
		plain
	}{NodeScript, plain(a)})
}
