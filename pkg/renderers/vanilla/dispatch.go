package vanilla

import (
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-authui/pkg/render"
	"github.com/goliatone/go-authui/pkg/uinode"
)

type inputRenderer func(m *markup, classes classSet, meta uinode.Meta, attrs uinode.InputAttributes)

// inputRenderers maps every input subtype to exactly one renderer.
var inputRenderers = [...]inputRenderer{
	uinode.InputText: func(m *markup, c classSet, meta uinode.Meta, a uinode.InputAttributes) {
		renderField(m, c, meta, a, fieldSpec{})
	},
	uinode.InputPassword: func(m *markup, c classSet, meta uinode.Meta, a uinode.InputAttributes) {
		renderField(m, c, meta, a, passwordField())
	},
	uinode.InputNumber:   renderOther,
	uinode.InputCheckbox: renderCheckbox,
	uinode.InputHidden:   renderHidden,
	uinode.InputEmail: func(m *markup, c classSet, meta uinode.Meta, a uinode.InputAttributes) {
		renderField(m, c, meta, a, emailField())
	},
	uinode.InputTel:           renderOther,
	uinode.InputSubmit:        renderButton,
	uinode.InputButton:        renderButton,
	uinode.InputDatetimeLocal: renderOther,
	uinode.InputDate:          renderOther,
	uinode.InputURL:           renderOther,
}

// A new input type appended to uinode without a renderer here fails to compile.
var _ = [1]struct{}{}[len(inputRenderers)-uinode.InputTypeCount]

// nodeDispatcher renders nodes in order. It is the only AttributeVisitor in
// the renderer, so a new attribute variant must be handled here to build.
type nodeDispatcher struct {
	out     *markup
	classes classSet
	report  *render.Report
	logger  logrus.FieldLogger

	meta  uinode.Meta
	group uinode.Group
	// rendered is false when the current node was skipped.
	rendered bool
}

var _ uinode.AttributeVisitor = (*nodeDispatcher)(nil)

func (d *nodeDispatcher) renderNodes(nodes []uinode.Node) {
	for _, node := range nodes {
		d.meta = node.Meta
		d.group = node.Group
		if node.Attributes == nil {
			d.violation(render.Violation{Err: render.ErrMissingAttributes, Detail: "type " + string(node.Type)})
			continue
		}
		d.rendered = false
		node.Attributes.Accept(d)
		if d.rendered {
			renderNodeMessages(d.out, d.classes, node.Messages)
		}
	}
}

func (d *nodeDispatcher) VisitInput(attrs uinode.InputAttributes) {
	if !attrs.Type.Valid() {
		d.violation(render.Violation{
			Err:    render.ErrUnknownInputType,
			Node:   attrs.Name,
			Detail: "type " + attrs.TypeName(),
		})
		return
	}
	inputRenderers[attrs.Type](d.out, d.classes, d.meta, attrs)
	d.rendered = true
}

func (d *nodeDispatcher) VisitImage(attrs uinode.ImageAttributes) {
	renderImage(d.out, d.classes, d.meta, attrs)
	d.rendered = true
}

func (d *nodeDispatcher) VisitText(attrs uinode.TextAttributes) {
	renderText(d.out, d.classes, d.meta, attrs)
	d.rendered = true
}

func (d *nodeDispatcher) VisitAnchor(attrs uinode.AnchorAttributes) {
	renderLink(d.out, d.classes, d.meta, attrs)
	d.rendered = true
}

func (d *nodeDispatcher) VisitScript(attrs uinode.ScriptAttributes) {
	renderScript(d.out, d.classes, attrs)
}

func (d *nodeDispatcher) violation(v render.Violation) {
	d.report.Record(v)
	if d.logger != nil {
		d.logger.WithFields(logrus.Fields{
			"node":  v.Node,
			"group": d.group,
		}).Warn(v.Error())
	}
}
