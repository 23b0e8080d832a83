package uinode

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrUnknownNodeType is returned when a node carries a node_type outside the
// closed attribute union.
var ErrUnknownNodeType = errors.New("uinode: unknown node type")

type nodeWire struct {
	Type       NodeType        `json:"type"`
	Group      Group           `json:"group"`
	Attributes json.RawMessage `json:"attributes"`
	Messages   []Text          `json:"messages"`
	Meta       Meta            `json:"meta"`
}

// UnmarshalJSON picks the attribute variant from attributes.node_type,
// falling back to the node's own type field.
func (n *Node) UnmarshalJSON(data []byte) error {
	var wire nodeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("uinode: decode node: %w", err)
	}

	kind := NodeType(gjson.GetBytes(data, "attributes.node_type").String())
	if kind == "" {
		kind = wire.Type
	}

	attrs, err := decodeAttributes(kind, wire.Attributes)
	if err != nil {
		return err
	}

	*n = Node{
		Type:       kind,
		Group:      wire.Group,
		Attributes: attrs,
		Messages:   wire.Messages,
		Meta:       wire.Meta,
	}
	return nil
}

// MarshalJSON emits the node in the identity API's wire shape.
func (n Node) MarshalJSON() ([]byte, error) {
	kind := n.Type
	if kind == "" && n.Attributes != nil {
		kind = n.Attributes.NodeType()
	}
	return json.Marshal(struct {
		Type       NodeType   `json:"type"`
		Group      Group      `json:"group"`
		Attributes Attributes `json:"attributes"`
		Messages   []Text     `json:"messages,omitempty"`
		Meta       Meta       `json:"meta"`
	}{
		Type:       kind,
		Group:      n.Group,
		Attributes: n.Attributes,
		Messages:   n.Messages,
		Meta:       n.Meta,
	})
}

func decodeAttributes(kind NodeType, raw json.RawMessage) (Attributes, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("uinode: node %q has no attributes", kind)
	}

	var (
		attrs Attributes
		err   error
	)
	switch kind {
	case NodeInput:
		var v InputAttributes
		err = json.Unmarshal(raw, &v)
		attrs = v
	case NodeImage:
		var v ImageAttributes
		err = json.Unmarshal(raw, &v)
		attrs = v
	case NodeText:
		var v TextAttributes
		err = json.Unmarshal(raw, &v)
		attrs = v
	case NodeAnchor:
		var v AnchorAttributes
		err = json.Unmarshal(raw, &v)
		attrs = v
	case NodeScript:
		var v ScriptAttributes
		err = json.Unmarshal(raw, &v)
		attrs = v
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownNodeType, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("uinode: decode %s attributes: %w", kind, err)
	}
	return attrs, nil
}

// DecodeContainer decodes a ui container. It accepts either the container
// itself or a whole flow document, in which case the "ui" member is used.
func DecodeContainer(data []byte) (Container, error) {
	if !gjson.ValidBytes(data) {
		return Container{}, errors.New("uinode: container is not valid JSON")
	}
	if ui := gjson.GetBytes(data, "ui"); ui.IsObject() {
		data = []byte(ui.Raw)
	}

	var out Container
	if err := json.Unmarshal(data, &out); err != nil {
		return Container{}, fmt.Errorf("uinode: decode container: %w", err)
	}
	return out, nil
}
