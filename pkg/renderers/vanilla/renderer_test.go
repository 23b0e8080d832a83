package vanilla

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-authui/pkg/render"
	"github.com/goliatone/go-authui/pkg/testsupport"
	"github.com/goliatone/go-authui/pkg/uinode"
)

func newTestRenderer(t *testing.T, options ...Option) *Renderer {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	r, err := New(append([]Option{WithLogger(logger)}, options...)...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func renderString(t *testing.T, r *Renderer, container uinode.Container, opts render.RenderOptions) string {
	t.Helper()

	out, err := r.Render(context.Background(), container, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func input(group uinode.Group, attrs uinode.InputAttributes, label *uinode.Text) uinode.Node {
	return uinode.Node{
		Type:       uinode.NodeInput,
		Group:      group,
		Attributes: attrs,
		Meta:       uinode.Meta{Label: label},
	}
}

func label(id int64, text string) *uinode.Text {
	return &uinode.Text{ID: id, Text: text, Type: uinode.TextInfo}
}

func single(nodes ...uinode.Node) uinode.Container {
	return uinode.Container{Action: "/x", Method: "post", Nodes: nodes}
}

func TestRender_LoginContainerOrder(t *testing.T) {
	r := newTestRenderer(t)
	html := renderString(t, r, testsupport.LoginContainer(), render.RenderOptions{})

	message := `<div id="4000006" role="alert" class="alert alert-error"><span>bad credentials</span></div>`
	if !strings.HasPrefix(html, message) {
		t.Fatalf("messages must come first:\n%s", html)
	}
	if got := strings.Count(html, "<form "); got != 1 {
		t.Fatalf("want one form, got %d", got)
	}
	assertOrdered(t, html, `name="csrf_token"`, `name="identifier"`, `name="password"`, `name="method"`)
}

func TestRender_OnlyPasswordAndEmailCarryHints(t *testing.T) {
	r := newTestRenderer(t)
	container := single(
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "traits.name", Type: uinode.InputText}, label(1, "Name")),
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "traits.email", Type: uinode.InputEmail}, label(2, "Email")),
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "password", Type: uinode.InputPassword}, label(3, "Password")),
	)

	html := renderString(t, r, container, render.RenderOptions{})

	if got := strings.Count(html, `class="validator-hint hidden"`); got != 2 {
		t.Fatalf("want 2 hints, got %d", got)
	}
	if got := strings.Count(html, "pattern="); got != 1 {
		t.Fatalf("want 1 pattern, got %d", got)
	}
	mustContain(t, html, `<input class="input w-full" id="1" name="traits.name" placeholder="Name" type="text" value="">`)
}

func TestRender_FieldLabelFallsBackToTypeName(t *testing.T) {
	r := newTestRenderer(t)
	html := renderString(t, r, single(
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "code", Type: uinode.InputText}, nil),
	), render.RenderOptions{})

	mustContain(t, html, `<span>Text</span>`, `placeholder="Text"`)
	mustNotContain(t, html, ` id=`)
}

func TestRender_CheckboxCheckedOnlyForLiteralTrue(t *testing.T) {
	r := newTestRenderer(t)
	cases := []struct {
		name    string
		value   any
		checked bool
	}{
		{name: "bool true", value: true, checked: true},
		{name: "bool false", value: false},
		{name: "string true", value: "true"},
		{name: "number one", value: json.Number("1")},
		{name: "missing", value: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			html := renderString(t, r, single(
				input(uinode.GroupDefault, uinode.InputAttributes{Name: "remember", Type: uinode.InputCheckbox, Value: tc.value}, nil),
			), render.RenderOptions{})
			if got := strings.Contains(html, " checked"); got != tc.checked {
				t.Fatalf("checked = %v, want %v:\n%s", got, tc.checked, html)
			}
			mustContain(t, html, `name="remember" type="checkbox"`)
		})
	}
}

func TestRender_CheckboxLabelHasNoClass(t *testing.T) {
	r := newTestRenderer(t)
	html := renderString(t, r, single(
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "terms", Type: uinode.InputCheckbox, Value: true}, label(7, "Accept")),
	), render.RenderOptions{})

	mustContain(t, html, `<label id="7">Accept<input class="input w-full" name="terms" type="checkbox" checked></label>`)
}

func TestRender_OtherInputsCoerceScalars(t *testing.T) {
	r := newTestRenderer(t)
	cases := []struct {
		name  string
		typ   uinode.InputType
		value any
		want  string
	}{
		{name: "number", typ: uinode.InputNumber, value: json.Number("42"), want: `value="42"`},
		{name: "float", typ: uinode.InputNumber, value: 1.5, want: `value="1.5"`},
		{name: "bool", typ: uinode.InputTel, value: false, want: `value="false"`},
		{name: "string", typ: uinode.InputURL, value: "https://example.com", want: `value="https://example.com"`},
		{name: "array", typ: uinode.InputDate, value: []any{json.Number("1"), "a"}, want: `value="[1, &#34;a&#34;]"`},
		{name: "object", typ: uinode.InputDatetimeLocal, value: map[string]any{"a": 1}, want: `value=""`},
		{name: "null", typ: uinode.InputNumber, value: nil, want: `value=""`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			html := renderString(t, r, single(
				input(uinode.GroupDefault, uinode.InputAttributes{Name: "field", Type: tc.typ, Value: tc.value}, nil),
			), render.RenderOptions{})
			mustContain(t, html, tc.want, `type="`+tc.typ.String()+`"`)
		})
	}
}

func TestRender_ButtonIgnoresNonStringValue(t *testing.T) {
	r := newTestRenderer(t)
	html := renderString(t, r, single(
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "resend", Type: uinode.InputButton, Value: json.Number("3"), OnClickTrigger: "oryWebAuthnLogin"}, nil),
	), render.RenderOptions{})

	mustContain(t, html, `<button class="btn btn-primary w-full my-4" name="resend" type="button" value="" data-onclick-trigger="oryWebAuthnLogin"></button>`)
}

func TestRender_NonInputNodes(t *testing.T) {
	r := newTestRenderer(t)
	container := testsupport.MustLoadContainer(t, "../../uinode/testdata/settings_container.yaml")

	html := renderString(t, r, container, render.RenderOptions{})

	mustContain(t, html,
		`<label id="1050005" class="text-lg mb-4">Authenticator app QR code<img height="256" id="totp_qr" src="data:image/png;base64,AAAA" width="256" alt="Authenticator app QR code"></label>`,
		`<p id="totp_secret_key">JBSWY3DPEHPK3PXP</p>`,
		`<a id="learn_more" class="link-primary link-hover" href="https://example.com/webauthn">Learn more</a>`,
		`<script async crossorigin="anonymous" id="webauthn_script" integrity="sha512-abc" nonce="n1" referrerpolicy="no-referrer" src="/.well-known/ory/webauthn.js" type="text/javascript"></script>`,
		`method="POST"`,
	)
}

func TestRender_LinkWithCaption(t *testing.T) {
	r := newTestRenderer(t)
	container := uinode.Container{
		Action: "/x",
		Method: "get",
		Nodes: []uinode.Node{
			{
				Type:       uinode.NodeAnchor,
				Group:      uinode.GroupDefault,
				Attributes: uinode.AnchorAttributes{ElementID: "recover", Href: "/recovery", Title: uinode.Text{ID: 9, Text: "Forgot?"}},
				Meta:       uinode.Meta{Label: label(10, "Trouble")},
			},
		},
	}

	html := renderString(t, r, container, render.RenderOptions{})
	mustContain(t, html, `<label for="recover" id="10" class="text-lg">Trouble</label><a id="recover" class="link-primary link-hover" href="/recovery">Forgot?</a>`)
}

func TestRender_NodeMessagesFollowTheirNode(t *testing.T) {
	r := newTestRenderer(t)
	email := input(uinode.GroupDefault, uinode.InputAttributes{Name: "identifier", Type: uinode.InputEmail}, label(1070004, "E-Mail"))
	email.Messages = []uinode.Text{
		{ID: 4000002, Text: `Property "identifier" is missing.`, Type: uinode.TextError},
		{ID: 1050001, Text: "Saved <ok>", Type: uinode.TextSuccess},
	}
	script := uinode.Node{
		Type:       uinode.NodeScript,
		Group:      uinode.GroupDefault,
		Attributes: uinode.ScriptAttributes{ElementID: "s", Src: "/s.js"},
		Messages:   []uinode.Text{{ID: 1, Text: "never shown"}},
	}
	unknown := input(uinode.GroupDefault, uinode.InputAttributes{Name: "color", Type: uinode.InputTypeUnknown}.WithRawType("color"), nil)
	unknown.Messages = []uinode.Text{{ID: 2, Text: "skipped with its node"}}

	html := renderString(t, r, single(email, script, unknown), render.RenderOptions{})

	errorLine := `<p id="4000002" class="text-sm -mt-2 mb-2 text-error">Property &#34;identifier&#34; is missing.</p>`
	successLine := `<p id="1050001" class="text-sm -mt-2 mb-2 text-success">Saved &lt;ok&gt;</p>`
	mustContain(t, html, errorLine, successLine)
	assertOrdered(t, html, `name="identifier"`, errorLine, successLine, `<script`)
	mustNotContain(t, html, "never shown", "skipped with its node")
}

func TestRender_NodeMessageClassesFollowTheme(t *testing.T) {
	r := newTestRenderer(t)
	field := input(uinode.GroupDefault, uinode.InputAttributes{Name: "code", Type: uinode.InputText}, nil)
	field.Messages = []uinode.Text{{ID: 4, Text: "hint", Type: uinode.TextInfo}}

	html := renderString(t, r, single(field), render.RenderOptions{Theme: &theme.RendererConfig{
		Tokens: map[string]string{string(ClassNodeMessage): "", string(ClassNodeMessageInfo): "note"},
	}})
	mustContain(t, html, `<p id="4" class="note">hint</p>`)
}

func TestRender_EscapesText(t *testing.T) {
	r := newTestRenderer(t)
	container := uinode.Container{
		Action: `/x?a=1&b="2"`,
		Method: "post",
		Nodes: []uinode.Node{
			input(uinode.GroupDefault, uinode.InputAttributes{Name: "n", Type: uinode.InputText, Value: `<script>`}, label(1, "<b>")),
		},
	}

	html := renderString(t, r, container, render.RenderOptions{})
	mustContain(t, html, `action="/x?a=1&amp;b=&#34;2&#34;"`, `<span>&lt;b&gt;</span>`, `value="&lt;script&gt;"`)
	mustNotContain(t, html, "<script>")
}

func TestRender_Idempotent(t *testing.T) {
	r := newTestRenderer(t)
	container := testsupport.LoginContainer()

	first := renderString(t, r, container, render.RenderOptions{})
	second := renderString(t, r, container, render.RenderOptions{})
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("render not idempotent (-first +second):\n%s", diff)
	}
}

func TestRender_MissingDefaultGroup(t *testing.T) {
	r := newTestRenderer(t)
	container := uinode.Container{
		Action: "/login",
		Method: "post",
		Nodes: []uinode.Node{
			input(uinode.GroupPassword, uinode.InputAttributes{Name: "password", Type: uinode.InputPassword}, nil),
		},
		Messages: []uinode.Message{{ID: 1, Text: "hidden", Type: uinode.TextInfo}},
	}

	report := &render.Report{}
	html := renderString(t, r, container, render.RenderOptions{Report: report})

	if html != "" {
		t.Fatalf("want empty output, got %q", html)
	}
	if !report.Has(render.ErrMissingDefaultGroup) {
		t.Fatalf("missing default group not reported: %v", report.Violations())
	}
}

func TestRender_UnknownInputTypeIsSkipped(t *testing.T) {
	r := newTestRenderer(t)
	container := single(
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "before", Type: uinode.InputHidden, Value: "1"}, nil),
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "color", Type: uinode.InputTypeUnknown}.WithRawType("color"), nil),
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "after", Type: uinode.InputHidden, Value: "2"}, nil),
	)

	report := &render.Report{}
	html := renderString(t, r, container, render.RenderOptions{Report: report})

	mustNotContain(t, html, `name="color"`)
	assertOrdered(t, html, `name="before"`, `name="after"`)

	violations := report.Violations()
	if len(violations) != 1 {
		t.Fatalf("want 1 violation, got %v", violations)
	}
	if !errors.Is(violations[0], render.ErrUnknownInputType) {
		t.Fatalf("want ErrUnknownInputType, got %v", violations[0])
	}
	if diff := cmp.Diff(`render: unknown input type (node "color"): type color`, violations[0].Error()); diff != "" {
		t.Fatalf("violation message mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_NodeWithoutAttributesIsSkipped(t *testing.T) {
	r := newTestRenderer(t)
	container := single(
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "a", Type: uinode.InputHidden}, nil),
		uinode.Node{Type: uinode.NodeInput, Group: uinode.GroupDefault},
	)

	report := &render.Report{}
	html := renderString(t, r, container, render.RenderOptions{Report: report})
	mustContain(t, html, `name="a"`)
	if !report.Has(render.ErrMissingAttributes) {
		t.Fatalf("missing attributes not reported: %v", report.Violations())
	}
}

// D1 and D2 are default nodes, P1 belongs to password: a single form with a
// password legend containing D1, D2 and P1 in that order.
func TestRender_DefaultNodesPrecedeGroupRun(t *testing.T) {
	r := newTestRenderer(t)
	html := renderString(t, r, single(
		input(uinode.GroupPassword, uinode.InputAttributes{Name: "P1", Type: uinode.InputHidden}, nil),
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "D1", Type: uinode.InputHidden}, nil),
		input(uinode.GroupDefault, uinode.InputAttributes{Name: "D2", Type: uinode.InputHidden}, nil),
	), render.RenderOptions{})

	if got := strings.Count(html, "<form "); got != 1 {
		t.Fatalf("want one form, got %d", got)
	}
	assertOrdered(t, html, ">Password</legend>", `name="D1"`, `name="D2"`, `name="P1"`)
}

func TestRender_OneFormPerAdjacentRun(t *testing.T) {
	r := newTestRenderer(t)
	container := uinode.Container{
		Action: "/settings",
		Method: "post",
		Nodes: []uinode.Node{
			input(uinode.GroupDefault, uinode.InputAttributes{Name: "csrf_token", Type: uinode.InputHidden, Value: "t"}, nil),
			input(uinode.GroupProfile, uinode.InputAttributes{Name: "traits.email", Type: uinode.InputEmail}, nil),
			input(uinode.GroupPassword, uinode.InputAttributes{Name: "password", Type: uinode.InputPassword}, nil),
			input(uinode.GroupProfile, uinode.InputAttributes{Name: "traits.name", Type: uinode.InputText}, nil),
			input(uinode.Group("custom"), uinode.InputAttributes{Name: "extra", Type: uinode.InputText}, nil),
		},
	}

	html := renderString(t, r, container, render.RenderOptions{})

	counts := map[string]int{}
	want := map[string]int{
		"<form ":             4,
		`name="csrf_token"`:  4,
		">Profile</legend>":  2,
		`text-xl"></legend>`: 1,
		">Password</legend>": 1,
	}
	for fragment := range want {
		counts[fragment] = strings.Count(html, fragment)
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Fatalf("form layout mismatch (-want +got):\n%s", diff)
	}
	assertOrdered(t, html, `name="traits.email"`, `name="password"`, `name="traits.name"`, `name="extra"`)
}

func TestRender_OnlyDefaultNodesHasNoLegend(t *testing.T) {
	r := newTestRenderer(t)
	container := uinode.Container{
		Action: "/logout",
		Method: "get",
		Nodes: []uinode.Node{
			input(uinode.GroupDefault, uinode.InputAttributes{Name: "token", Type: uinode.InputHidden, Value: "x"}, nil),
		},
	}

	html := renderString(t, r, container, render.RenderOptions{})
	mustNotContain(t, html, "<legend")
	mustContain(t, html, `<form action="/logout" method="get">`)
}

func TestRender_AsyncTransportEscapesFlowID(t *testing.T) {
	r := newTestRenderer(t)
	html := renderString(t, r, testsupport.LoginContainer(), render.RenderOptions{
		Transport: render.TransportAsync,
		Flow:      render.FlowRef{Kind: "login", ID: "abc 1"},
	})
	mustContain(t, html, `<form action="/api/flows/login/abc%201" method="post" data-authui-async data-flow-kind="login" data-flow-id="abc 1">`)
}

func TestRender_AsyncTransportRequiresFlow(t *testing.T) {
	r := newTestRenderer(t)

	if _, err := r.Render(context.Background(), testsupport.LoginContainer(), render.RenderOptions{Transport: render.TransportAsync}); err == nil {
		t.Fatalf("expected error without a flow reference")
	}
}

func TestRender_SubmitActionAndHiddenFields(t *testing.T) {
	r := newTestRenderer(t)
	html := renderString(t, r, testsupport.LoginContainer(), render.RenderOptions{
		SubmitAction: "/proxy/login",
		HiddenFields: map[string]string{
			"return_to":  "/home",
			"csrf_token": "should-not-duplicate",
		},
	})

	mustContain(t, html, `<form action="/proxy/login" method="post">`, `<input name="return_to" type="hidden" value="/home">`)
	if got := strings.Count(html, `name="csrf_token"`); got != 1 {
		t.Fatalf("csrf_token rendered %d times", got)
	}
}

func TestRender_SubsetKeepsDefaultGroup(t *testing.T) {
	r := newTestRenderer(t)
	container := testsupport.MustLoadContainer(t, "../../uinode/testdata/settings_container.yaml")

	html := renderString(t, r, container, render.RenderOptions{
		Subset: render.GroupSubset{Groups: []string{"totp"}},
	})
	mustContain(t, html, ">TOTP</legend>", `name="csrf_token"`)
	mustNotContain(t, html, ">Profile</legend>", ">Web Authentication</legend>")
}

func TestRender_ThemeOverridesClasses(t *testing.T) {
	r := newTestRenderer(t)
	cfg := &theme.RendererConfig{
		Tokens: map[string]string{
			string(ClassButton): "  btn   btn-accent ",
			string(ClassLegend): "",
		},
	}

	html := renderString(t, r, testsupport.LoginContainer(), render.RenderOptions{Theme: cfg})
	mustContain(t, html, `<button class="btn btn-accent" id="1010001"`, `<legend>Password</legend>`)
}

type germanTranslator struct{}

func (germanTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	switch key {
	case render.MessageKey(1010001):
		return "Anmelden", nil
	case "page.greeting":
		return "Willkommen", nil
	}
	return "", errors.New("missing")
}

func TestRender_TranslatesLabels(t *testing.T) {
	r := newTestRenderer(t)

	html := renderString(t, r, testsupport.LoginContainer(), render.RenderOptions{
		Locale:     "de",
		Translator: germanTranslator{},
	})
	mustContain(t, html, ">Anmelden</button>", "<span>E-Mail</span>")
}

func TestInputRenderersCoverEveryType(t *testing.T) {
	for _, typ := range uinode.InputTypes() {
		if inputRenderers[typ] == nil {
			t.Fatalf("input type %s has no renderer", typ)
		}
	}
}

func TestRenderNodes(t *testing.T) {
	r := newTestRenderer(t)
	nodes := []uinode.Node{
		{
			Type:       uinode.NodeText,
			Group:      uinode.GroupLookupSecret,
			Attributes: uinode.TextAttributes{ElementID: "codes", Text: uinode.Text{Text: "abc-def"}},
		},
	}

	if got := r.RenderNodes(nodes, render.RenderOptions{}); got != `<p id="codes">abc-def</p>` {
		t.Fatalf("render nodes = %q", got)
	}
}

func TestNavLinks(t *testing.T) {
	byText := func(links []Link) map[string]bool {
		out := make(map[string]bool, len(links))
		for _, link := range links {
			out[link.Text] = link.Disabled
		}
		return out
	}

	wantSignedOut := map[string]bool{
		"Sign In":              false,
		"Sign Up":              false,
		"Account Recovery":     false,
		"Account Verification": false,
		"Account Settings":     true,
		"Log out":              true,
	}
	if diff := cmp.Diff(wantSignedOut, byText(NavLinks(false))); diff != "" {
		t.Fatalf("signed out nav mismatch (-want +got):\n%s", diff)
	}

	wantSignedIn := map[string]bool{
		"Sign In":              true,
		"Sign Up":              true,
		"Account Recovery":     true,
		"Account Verification": false,
		"Account Settings":     false,
		"Log out":              false,
	}
	if diff := cmp.Diff(wantSignedIn, byText(NavLinks(true))); diff != "" {
		t.Fatalf("signed in nav mismatch (-want +got):\n%s", diff)
	}
}

func mustContain(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(html, fragment) {
			t.Fatalf("fragment %q not found in:\n%s", fragment, html)
		}
	}
}

func mustNotContain(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if strings.Contains(html, fragment) {
			t.Fatalf("unexpected fragment %q in:\n%s", fragment, html)
		}
	}
}

func assertOrdered(t *testing.T, html string, fragments ...string) {
	t.Helper()

	last := -1
	for _, fragment := range fragments {
		idx := strings.Index(html, fragment)
		if idx < 0 {
			t.Fatalf("fragment %q not found", fragment)
		}
		if idx <= last {
			t.Fatalf("fragment %q out of order", fragment)
		}
		last = idx
	}
}

func TestHumanTime(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  any
	}{
		{name: "rfc3339", input: "2026-10-17T09:30:00Z", want: "2026-10-17 09:30:00 UTC"},
		{name: "nanos", input: " 2026-10-17T09:30:00.123456789Z ", want: "2026-10-17 09:30:00 UTC"},
		{name: "not a time", input: "soon", want: "soon"},
		{name: "nil", input: nil, want: ""},
		{name: "number", input: 42.0, want: 42.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := humanTime(tc.input, nil)
			if err != nil {
				t.Fatalf("human time: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("human time mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
