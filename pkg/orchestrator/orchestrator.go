package orchestrator

import (
	"context"
	"errors"
	"fmt"

	theme "github.com/goliatone/go-theme"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-authui/pkg/render"
	"github.com/goliatone/go-authui/pkg/renderers/vanilla"
	"github.com/goliatone/go-authui/pkg/uinode"
)

const defaultRendererName = "vanilla"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTransformer registers a Transformer that patches containers after
// decoding and before rendering.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithThemeSelector resolves Request.ThemeName/ThemeVariant into renderer
// configuration.
func WithThemeSelector(selector render.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithDefaultTheme names the theme and variant used when a request omits them.
func WithDefaultTheme(name, variant string) Option {
	return func(o *Orchestrator) {
		o.defaultTheme = name
		o.defaultVariant = variant
	}
}

// WithThemeFallbacks sets partials used when the selected theme does not
// define them.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.themeFallbacks = fallbacks
	}
}

// WithContractCheck toggles validation of raw documents against the
// container schema before decoding. Enabled by default.
func WithContractCheck(enabled bool) Option {
	return func(o *Orchestrator) {
		o.contractCheck = enabled
	}
}

// WithLogger sets the logger used for contract violations.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the pipeline from a container document to rendered
// output. It applies sensible defaults (vanilla renderer, embedded templates)
// while remaining open to dependency injection for advanced callers.
type Orchestrator struct {
	registry        *render.Registry
	defaultRenderer string
	transformer     Transformer
	themeSelector   render.ThemeSelector
	defaultTheme    string
	defaultVariant  string
	themeFallbacks  map[string]string
	contractCheck   bool
	logger          logrus.FieldLogger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations so callers can
// start with a single constructor call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		contractCheck:   true,
		logger:          logrus.StandardLogger(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes the inputs required to render a container. Exactly one
// source is used, in order: Container, Document, Path.
type Request struct {
	// Container is an already decoded container.
	Container *uinode.Container
	// Document is a raw container or flow document (JSON).
	Document []byte
	// Path is a JSON or YAML fixture on disk.
	Path string

	// Renderer names the renderer to use. If empty, the orchestrator falls back
	// to the configured default renderer.
	Renderer string

	ThemeName    string
	ThemeVariant string

	RenderOptions render.RenderOptions
}

// Generate resolves the container, applies the transformer and theme, and
// returns the rendered bytes (HTML for the default vanilla renderer).
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	container, err := o.resolveContainer(req)
	if err != nil {
		return nil, err
	}
	if err := o.applyTransformer(ctx, &container); err != nil {
		return nil, err
	}

	opts := req.RenderOptions
	if opts.Theme == nil {
		cfg, err := o.resolveTheme(req.ThemeName, req.ThemeVariant)
		if err != nil {
			return nil, err
		}
		opts.Theme = cfg
	}
	if opts.Report == nil {
		opts.Report = &render.Report{}
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	output, err := renderer.Render(ctx, container, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	for _, violation := range opts.Report.Violations() {
		o.logger.WithFields(logrus.Fields{
			"renderer": renderer.Name(),
			"node":     violation.Node,
		}).Warn(violation.Error())
	}

	return output, nil
}

func (o *Orchestrator) resolveContainer(req Request) (uinode.Container, error) {
	if req.Container != nil {
		return *req.Container, nil
	}

	data := req.Document
	if data == nil {
		if req.Path == "" {
			return uinode.Container{}, errors.New("orchestrator: container, document or path is required")
		}
		raw, err := uinode.ReadContainerDocument(req.Path)
		if err != nil {
			return uinode.Container{}, fmt.Errorf("orchestrator: load document: %w", err)
		}
		data = raw
	}

	if o.contractCheck {
		if err := uinode.ValidateContainer(data); err != nil {
			return uinode.Container{}, fmt.Errorf("orchestrator: %w", err)
		}
	}
	container, err := uinode.DecodeContainer(data)
	if err != nil {
		return uinode.Container{}, fmt.Errorf("orchestrator: %w", err)
	}
	return container, nil
}

// Theme resolves the renderer configuration for name and variant, falling
// back to the configured defaults. It is nil without a theme selector.
func (o *Orchestrator) Theme(name, variant string) (*theme.RendererConfig, error) {
	return o.resolveTheme(name, variant)
}

func (o *Orchestrator) resolveTheme(name, variant string) (*theme.RendererConfig, error) {
	if o.themeSelector == nil {
		return nil, nil
	}
	if name == "" {
		name = o.defaultTheme
	}
	if variant == "" {
		variant = o.defaultVariant
	}
	cfg, err := render.ResolveTheme(o.themeSelector, name, variant, o.themeFallbacks)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: resolve theme: %w", err)
	}
	return cfg, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, container *uinode.Container) error {
	if o.transformer == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, container); err != nil {
		return fmt.Errorf("orchestrator: transform container: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := vanilla.New(vanilla.WithLogger(o.logger))
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
