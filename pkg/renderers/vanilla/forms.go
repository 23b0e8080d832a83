package vanilla

import (
	"github.com/goliatone/go-authui/pkg/render"
	"github.com/goliatone/go-authui/pkg/uinode"
)

// AsyncAttribute marks forms the runtime script intercepts.
const AsyncAttribute = "data-authui-async"

type formTarget struct {
	action string
	method string
	async  bool
	flow   render.FlowRef
	hidden []render.HiddenField
}

func targetFor(container uinode.Container, opts render.RenderOptions) formTarget {
	target := formTarget{
		action: container.Action,
		method: container.Method,
		hidden: render.SortedHiddenFields(opts.HiddenFields, container),
	}
	if opts.TransportOrDefault() == render.TransportAsync {
		target.async = true
		target.flow = opts.Flow
		target.action = opts.Flow.AsyncAction()
		target.method = "post"
	}
	if opts.SubmitAction != "" {
		target.action = opts.SubmitAction
	}
	return target
}

// assemble writes container messages followed by one form per group run.
// Default-group nodes are repeated at the top of every form. A container
// without default nodes renders nothing.
func assemble(d *nodeDispatcher, container uinode.Container, target formTarget) {
	common, runs := uinode.Partition(container.Nodes)
	if len(common) == 0 {
		d.violation(render.Violation{
			Err:    render.ErrMissingDefaultGroup,
			Detail: "action " + container.Action,
		})
		return
	}

	for _, msg := range container.Messages {
		renderMessage(d.out, d.classes, msg)
	}

	if len(runs) == 0 {
		writeForm(d, target, common, nil, false)
		return
	}
	for _, run := range runs {
		writeForm(d, target, common, run, true)
	}
}

func writeForm(d *nodeDispatcher, target formTarget, common, run []uinode.Node, legend bool) {
	m := d.out

	m.open("form")
	m.attr("action", target.action)
	m.attr("method", target.method)
	if target.async {
		m.flag(AsyncAttribute, true)
		m.optAttr("data-flow-kind", target.flow.Kind)
		m.optAttr("data-flow-id", target.flow.ID)
	}
	m.closeOpen()

	m.open("div")
	m.optAttr("class", d.classes.get(ClassFormBody))
	m.closeOpen()
	m.open("fieldset")
	m.optAttr("class", d.classes.get(ClassFieldset))
	m.closeOpen()

	if legend {
		m.open("legend")
		m.optAttr("class", d.classes.get(ClassLegend))
		m.closeOpen()
		if len(run) > 0 {
			m.text(run[0].Group.Legend())
		}
		m.end("legend")
	}

	for _, field := range target.hidden {
		m.open("input")
		m.attr("name", field.Name)
		m.attr("type", "hidden")
		m.attr("value", field.Value)
		m.closeOpen()
	}

	d.renderNodes(common)
	d.renderNodes(run)

	m.end("fieldset")
	m.end("div")
	m.end("form")
}
