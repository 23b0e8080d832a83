package uinode

// NodeType is the wire discriminator stored in attributes.node_type.
type NodeType string

const (
	NodeInput  NodeType = "input"
	NodeImage  NodeType = "img"
	NodeText   NodeType = "text"
	NodeAnchor NodeType = "a"
	NodeScript NodeType = "script"
)

// TextType is the severity attached to a message or label.
type TextType string

const (
	TextInfo    TextType = "info"
	TextError   TextType = "error"
	TextSuccess TextType = "success"
)

// Text is a translatable message. Labels, node messages and container
// messages all share this shape.
type Text struct {
	ID      int64          `json:"id"`
	Text    string         `json:"text"`
	Type    TextType       `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// Message is a container-level alert rendered independently of the node tree.
type Message = Text

// Meta holds optional presentation metadata for a node.
type Meta struct {
	Label *Text `json:"label,omitempty"`
}

// Node is one schema-described element of a flow form.
type Node struct {
	Type       NodeType
	Group      Group
	Attributes Attributes
	Messages   []Text
	Meta       Meta
}

// Name returns the input name for input nodes and the element id otherwise.
func (n Node) Name() string {
	if n.Attributes == nil {
		return ""
	}
	return n.Attributes.ID()
}

// Input returns the input attributes when the node is an input.
func (n Node) Input() (InputAttributes, bool) {
	attrs, ok := n.Attributes.(InputAttributes)
	return attrs, ok
}

// Container is the ui object of a flow: where to submit, how, and what to show.
type Container struct {
	Action   string    `json:"action"`
	Method   string    `json:"method"`
	Nodes    []Node    `json:"nodes"`
	Messages []Message `json:"messages,omitempty"`
}

// Lookup returns the first input node with the given name.
func (c Container) Lookup(name string) (InputAttributes, bool) {
	for _, node := range c.Nodes {
		if attrs, ok := node.Input(); ok && attrs.Name == name {
			return attrs, true
		}
	}
	return InputAttributes{}, false
}

// CSRFToken returns the value of the csrf_token hidden input, if present.
func (c Container) CSRFToken() string {
	attrs, ok := c.Lookup(CSRFTokenName)
	if !ok {
		return ""
	}
	return StringValue(attrs.Value)
}

// Groups lists the distinct groups present, in first-seen order.
func (c Container) Groups() []Group {
	seen := make(map[Group]struct{}, len(c.Nodes))
	var out []Group
	for _, node := range c.Nodes {
		if _, ok := seen[node.Group]; ok {
			continue
		}
		seen[node.Group] = struct{}{}
		out = append(out, node.Group)
	}
	return out
}

// CSRFTokenName is the input name the identity API uses for its anti-CSRF token.
const CSRFTokenName = "csrf_token"

// Label returns the label text of meta, or the human-readable name of the
// input type when no label is present.
func Label(meta Meta, fallback InputType) string {
	if meta.Label != nil {
		return meta.Label.Text
	}
	return fallback.DisplayName()
}
