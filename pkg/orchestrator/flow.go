package orchestrator

import (
	"context"
	"errors"

	"github.com/goliatone/go-authui/pkg/kratos"
	"github.com/goliatone/go-authui/pkg/render"
)

// FlowForms renders identity flows with a fixed transport. It satisfies the
// form renderer the async submit adapter uses to return re-rendered forms.
type FlowForms struct {
	orchestrator *Orchestrator
	transport    render.Transport
	base         render.RenderOptions
}

// FlowForms binds the orchestrator to a transport and base options.
func (o *Orchestrator) FlowForms(transport render.Transport, base render.RenderOptions) *FlowForms {
	return &FlowForms{orchestrator: o, transport: transport, base: base}
}

// Options returns the render options used for flow.
func (f *FlowForms) Options(flow *kratos.Flow) render.RenderOptions {
	opts := f.base
	opts.Transport = f.transport
	if f.transport == render.TransportAsync {
		opts.Flow = render.FlowRef{Kind: string(flow.Kind), ID: flow.ID}
	}
	return opts
}

// RenderFlow renders the flow's ui container.
func (f *FlowForms) RenderFlow(ctx context.Context, flow *kratos.Flow) ([]byte, error) {
	if flow == nil {
		return nil, errors.New("orchestrator: flow is required")
	}
	ui := flow.UI
	return f.orchestrator.Generate(ctx, Request{
		Container:     &ui,
		RenderOptions: f.Options(flow),
	})
}
