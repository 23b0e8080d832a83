package orchestrator

import (
	"context"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-authui/pkg/kratos"
	"github.com/goliatone/go-authui/pkg/render"
	"github.com/goliatone/go-authui/pkg/testsupport"
	"github.com/goliatone/go-authui/pkg/uinode"
)

type captureRenderer struct {
	container uinode.Container
	options   render.RenderOptions
	calls     int
}

func (r *captureRenderer) Name() string        { return "capture" }
func (r *captureRenderer) ContentType() string { return "text/plain" }
func (r *captureRenderer) Render(_ context.Context, container uinode.Container, options render.RenderOptions) ([]byte, error) {
	r.calls++
	r.container = container
	r.options = options
	return []byte("ok"), nil
}

func newCapture(t *testing.T, options ...Option) (*Orchestrator, *captureRenderer) {
	t.Helper()
	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)
	options = append([]Option{WithRegistry(registry), WithDefaultRenderer(renderer.Name())}, options...)
	return New(options...), renderer
}

func TestOrchestrator_GenerateFromContainer(t *testing.T) {
	container := testsupport.LoginContainer()

	output, err := New().Generate(context.Background(), Request{Container: &container})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	html := string(output)
	for _, want := range []string{`name="csrf_token"`, `name="identifier"`, `action="/login"`, "bad credentials"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
}

func TestOrchestrator_GenerateFromPath(t *testing.T) {
	output, err := New().Generate(context.Background(), Request{Path: "../uinode/testdata/login_flow.json"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(output), `value="tok-123"`) {
		t.Fatalf("expected csrf token from flow fixture, got:\n%s", output)
	}
}

func TestOrchestrator_ContractCheck(t *testing.T) {
	doc := []byte(`{"action": "/login", "nodes": [{"type": "input"}]}`)

	if _, err := New().Generate(context.Background(), Request{Document: doc}); err == nil {
		t.Fatalf("expected contract error for document without method")
	}

	orch, renderer := newCapture(t, WithContractCheck(false))
	if _, err := orch.Generate(context.Background(), Request{Document: []byte(`{"action": "/a", "method": "POST", "nodes": []}`)}); err != nil {
		t.Fatalf("generate without contract check: %v", err)
	}
	if renderer.container.Action != "/a" {
		t.Fatalf("unexpected container action %q", renderer.container.Action)
	}
}

func TestOrchestrator_RequiresSource(t *testing.T) {
	if _, err := New().Generate(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error when no source is given")
	}
}

func TestOrchestrator_UnknownRenderer(t *testing.T) {
	container := testsupport.LoginContainer()
	_, err := New().Generate(context.Background(), Request{Container: &container, Renderer: "preact"})
	if err == nil || !strings.Contains(err.Error(), `renderer "preact"`) {
		t.Fatalf("expected unknown renderer error, got %v", err)
	}
}

func TestOrchestrator_AlwaysProvidesReport(t *testing.T) {
	orch, renderer := newCapture(t)
	container := testsupport.LoginContainer()
	if _, err := orch.Generate(context.Background(), Request{Container: &container}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if renderer.options.Report == nil {
		t.Fatalf("expected a report to be attached")
	}
}

func TestOrchestrator_PresetTransformer(t *testing.T) {
	preset, err := NewJSONPresetTransformer([]byte(`{
		"messages": [{"type": "info", "text": "Welcome back"}],
		"nodes": {
			"identifier": {"label": "Work email", "autocomplete": "username"},
			"password": {"required": false}
		}
	}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}

	orch, renderer := newCapture(t, WithTransformer(preset))
	container := testsupport.LoginContainer()
	if _, err := orch.Generate(context.Background(), Request{Container: &container}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	got := renderer.container
	if len(got.Messages) != 2 || got.Messages[1].Text != "Welcome back" {
		t.Fatalf("expected appended message, got %+v", got.Messages)
	}
	identifier, _ := got.Lookup("identifier")
	if identifier.Autocomplete != "username" {
		t.Fatalf("autocomplete not patched: %+v", identifier)
	}
	if label := got.Nodes[1].Meta.Label; label == nil || label.Text != "Work email" || label.ID != 0 {
		t.Fatalf("label not patched: %+v", label)
	}
	password, _ := got.Lookup("password")
	if password.Required {
		t.Fatalf("required not patched")
	}

	if container.Nodes[1].Meta.Label.Text != "E-Mail" || len(container.Messages) != 1 {
		t.Fatalf("caller container mutated")
	}
	original, _ := container.Lookup("password")
	if !original.Required {
		t.Fatalf("caller node attributes mutated")
	}
}

func TestJSONPresetTransformer_MissingNode(t *testing.T) {
	container := testsupport.LoginContainer()

	strict, err := NewJSONPresetTransformer([]byte(`{"nodes": {"totp_code": {"label": "Code"}}}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	if err := strict.Transform(context.Background(), &container); err == nil {
		t.Fatalf("expected missing node error")
	}

	optional, err := NewJSONPresetTransformer([]byte(`{"optional": true, "nodes": {"totp_code": {"label": "Code"}}}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	if err := optional.Transform(context.Background(), &container); err != nil {
		t.Fatalf("optional preset: %v", err)
	}

	if _, err := NewJSONPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected empty document error")
	}
}

func TestOrchestrator_ResolvesTheme(t *testing.T) {
	selector, err := render.NewManifestSelector(&theme.Manifest{
		Name:    "daisy",
		Version: "1.0.0",
		Tokens:  map[string]string{"primary": "#570df8"},
		Variants: map[string]theme.Variant{
			"dark": {Tokens: map[string]string{"primary": "#661ae6"}},
		},
	})
	if err != nil {
		t.Fatalf("selector: %v", err)
	}

	orch, renderer := newCapture(t,
		WithThemeSelector(selector),
		WithDefaultTheme("daisy", "dark"),
		WithThemeFallbacks(map[string]string{"page.flow": "flow.tmpl"}),
	)
	container := testsupport.LoginContainer()
	if _, err := orch.Generate(context.Background(), Request{Container: &container}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	cfg := renderer.options.Theme
	if cfg == nil {
		t.Fatalf("expected theme config passed to renderer")
	}
	if cfg.Theme != "daisy" || cfg.Variant != "dark" {
		t.Fatalf("unexpected selection %s/%s", cfg.Theme, cfg.Variant)
	}
	if cfg.CSSVars["--primary"] != "#661ae6" {
		t.Fatalf("variant tokens not applied: %v", cfg.CSSVars)
	}
	if cfg.Partials["page.flow"] != "flow.tmpl" {
		t.Fatalf("fallback partials not merged: %v", cfg.Partials)
	}

	if _, err := orch.Generate(context.Background(), Request{Container: &container, ThemeVariant: "neon"}); err == nil {
		t.Fatalf("expected unknown variant error")
	}
}

func TestFlowForms_AsyncTransport(t *testing.T) {
	flow := &kratos.Flow{ID: "f1", Kind: kratos.FlowLogin, UI: testsupport.LoginContainer()}

	output, err := New().FlowForms(render.TransportAsync, render.RenderOptions{}).RenderFlow(context.Background(), flow)
	if err != nil {
		t.Fatalf("render flow: %v", err)
	}
	html := string(output)
	if !strings.Contains(html, `action="/api/flows/login/f1"`) || !strings.Contains(html, "data-authui-async") {
		t.Fatalf("expected async form wiring, got:\n%s", html)
	}

	output, err = New().FlowForms(render.TransportPost, render.RenderOptions{}).RenderFlow(context.Background(), flow)
	if err != nil {
		t.Fatalf("render flow: %v", err)
	}
	if !strings.Contains(string(output), `action="/login"`) {
		t.Fatalf("expected post form to target the flow action, got:\n%s", output)
	}

	if _, err := New().FlowForms(render.TransportPost, render.RenderOptions{}).RenderFlow(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil flow")
	}
}
