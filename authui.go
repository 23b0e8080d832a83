// Package authui renders identity self-service flows as HTML forms. The root
// package re-exports the most common entry points; the pipeline itself lives
// in pkg/orchestrator and the node renderers in pkg/renderers.
package authui

import (
	"context"

	"github.com/goliatone/go-authui/pkg/orchestrator"
	"github.com/goliatone/go-authui/pkg/render"
	"github.com/goliatone/go-authui/pkg/uinode"
)

// RenderOptions describes per-request overrides such as the submit transport,
// locale or theme.
type RenderOptions = render.RenderOptions

// GroupSubset aliases render.GroupSubset for callers rendering only some
// method groups.
type GroupSubset = render.GroupSubset

// Container is the ui container of a flow.
type Container = uinode.Container

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML renders a decoded container with the named renderer. It is the
// simplest entry point for callers that just want HTML output.
func GenerateHTML(ctx context.Context, container Container, rendererName string, opts RenderOptions, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Container:     &container,
		Renderer:      rendererName,
		RenderOptions: opts,
	})
}

// GenerateHTMLFromDocument renders a raw container or flow document. The
// document is checked against the container contract before decoding.
func GenerateHTMLFromDocument(ctx context.Context, document []byte, rendererName string, opts RenderOptions, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Document:      document,
		Renderer:      rendererName,
		RenderOptions: opts,
	})
}

// WithThemeSelector passes a theme selector through to the orchestrator so
// theme/variant choices can be resolved ahead of rendering.
func WithThemeSelector(selector render.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithThemeFallbacks forwards fallback partials used when deriving renderer
// configuration from a theme selection.
func WithThemeFallbacks(fallbacks map[string]string) orchestrator.Option {
	return orchestrator.WithThemeFallbacks(fallbacks)
}
