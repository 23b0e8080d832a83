package vanilla

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-authui/pkg/render"
	rendertemplate "github.com/goliatone/go-authui/pkg/render/template"
	gotemplate "github.com/goliatone/go-authui/pkg/render/template/gotemplate"
	"github.com/goliatone/go-authui/pkg/uinode"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	templateFuncs    map[string]any
	logger           logrus.FieldLogger
	brand            string
	stylesheet       string
	runtimeScript    string
}

// WithTemplatesFS supplies an alternate page template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads page templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTemplateFuncs exposes helpers (for example render.TemplateI18nFuncs) to
// page templates.
func WithTemplateFuncs(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFuncs == nil {
			cfg.templateFuncs = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFuncs[name] = fn
		}
	}
}

// WithLogger routes contract violations to the given logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithBrand sets the menu title shown in the page layout.
func WithBrand(brand string) Option {
	return func(cfg *config) {
		if brand != "" {
			cfg.brand = brand
		}
	}
}

// WithStylesheet overrides the stylesheet URL used when the theme has none.
func WithStylesheet(url string) Option {
	return func(cfg *config) {
		if url != "" {
			cfg.stylesheet = url
		}
	}
}

// WithRuntimeScript sets the URL of the async submit runtime script.
func WithRuntimeScript(url string) Option {
	return func(cfg *config) {
		if url != "" {
			cfg.runtimeScript = url
		}
	}
}

// Renderer renders ui containers as daisyUI-flavoured HTML fragments and
// wraps them, when asked, in full pages.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	logger    logrus.FieldLogger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:    TemplatesFS(),
		logger:        logrus.StandardLogger(),
		brand:         "Welcome",
		stylesheet:    "/assets/" + StylesheetName,
		runtimeScript: "/runtime/" + RuntimeScriptName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	for name, fn := range templateFilters {
		if err := renderer.RegisterFilter(name, fn); err != nil && !errors.Is(err, rendertemplate.ErrFilterExists) {
			return nil, fmt.Errorf("vanilla renderer: register filter %q: %w", name, err)
		}
	}
	globals := map[string]any{
		"brand":              cfg.brand,
		"stylesheet":         cfg.stylesheet,
		"runtime_script_url": cfg.runtimeScript,
		"cards":              DefaultCards,
	}
	for name, fn := range cfg.templateFuncs {
		globals[name] = fn
	}
	if err := renderer.GlobalContext(globals); err != nil {
		return nil, fmt.Errorf("vanilla renderer: seed template globals: %w", err)
	}

	return &Renderer{
		templates: renderer,
		logger:    cfg.logger,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the container's messages and forms. It never fails on
// container content: nodes that break the contract are skipped and recorded
// on options.Report.
func (r *Renderer) Render(_ context.Context, container uinode.Container, options render.RenderOptions) ([]byte, error) {
	if options.TransportOrDefault() == render.TransportAsync && (options.Flow.Kind == "" || options.Flow.ID == "") && options.SubmitAction == "" {
		return nil, fmt.Errorf("vanilla renderer: async transport requires a flow reference")
	}

	container = render.ApplySubset(container, options.Subset)
	container = render.LocalizeContainer(container, options)

	out := &markup{}
	dispatcher := &nodeDispatcher{
		out:     out,
		classes: resolveClasses(options.Theme),
		report:  options.Report,
		logger:  r.logger,
	}
	assemble(dispatcher, container, targetFor(container, options))
	return []byte(out.String()), nil
}

// RenderNodes renders nodes without grouping them into forms. Useful for
// embedding individual nodes (for example a logout link) in custom markup.
func (r *Renderer) RenderNodes(nodes []uinode.Node, options render.RenderOptions) string {
	out := &markup{}
	dispatcher := &nodeDispatcher{
		out:     out,
		classes: resolveClasses(options.Theme),
		report:  options.Report,
		logger:  r.logger,
	}
	dispatcher.renderNodes(nodes)
	return out.String()
}
