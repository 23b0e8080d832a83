package vanilla

import (
	"context"
	"fmt"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-authui/pkg/render"
)

// Page templates shipped with the renderer. A theme can point any of them at
// another template through the partial "page.<name>".
const (
	PageFlow     = "flow"
	PageHome     = "home"
	PageSession  = "session"
	PageError    = "error"
	PageNotFound = "notfound"
)

// Link is a navigation entry or a secondary link under a flow form.
type Link struct {
	Href     string `json:"href"`
	Text     string `json:"text"`
	Disabled bool   `json:"disabled,omitempty"`
}

// ErrorView is what the error page shows.
type ErrorView struct {
	ID      string       `json:"id,omitempty"`
	Message string       `json:"message"`
	Reason  string       `json:"reason,omitempty"`
	Details []DetailItem `json:"details,omitempty"`
}

// DetailItem is one key/value row on the error page.
type DetailItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Card is a home page tile.
type Card struct {
	Href  string `json:"href"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Page describes one full HTML page.
type Page struct {
	Template string
	Title    string
	Heading  string
	// Body is trusted markup, normally the output of Render.
	Body  string
	Links []Link
	// Session is any JSON-serialisable whoami payload.
	Session any
	Error   *ErrorView
	Path    string
	// SessionActive switches the navigation between signed-in and
	// signed-out entries.
	SessionActive bool
	Transport     render.Transport
	Theme         *theme.RendererConfig
	Locale        string
}

// NavLinks returns the self-service navigation. Entries that make no sense in
// the current session state are disabled rather than hidden.
func NavLinks(active bool) []Link {
	return []Link{
		{Href: "/sign-in", Text: "Sign In", Disabled: active},
		{Href: "/sign-up", Text: "Sign Up", Disabled: active},
		{Href: "/account-recovery", Text: "Account Recovery", Disabled: active},
		{Href: "/verify", Text: "Account Verification"},
		{Href: "/my-settings", Text: "Account Settings", Disabled: !active},
		{Href: "/logout", Text: "Log out", Disabled: !active},
	}
}

// DefaultCards are the home page tiles.
var DefaultCards = []Card{
	{
		Href:  "https://www.ory.sh/docs/getting-started/integrate-auth/expressjs",
		Title: "Getting Started",
		Text:  "Jump start your project and complete the quickstart tutorial to get a broader overview of Ory Network.",
	},
	{
		Href:  "https://www.ory.sh/docs/kratos/self-service",
		Title: "User flows",
		Text:  "Implement flows that users perform themselves as opposed to administrative intervention.",
	},
	{
		Href:  "https://www.ory.sh/docs/kratos/manage-identities/identity-schema",
		Title: "Identities 101",
		Text:  "Every identity can have its own model - get to know the ins and outs of Identity Schemas.",
	},
	{
		Href:  "https://www.ory.sh/docs/kratos/session-management/overview",
		Title: "Sessions",
		Text:  "Ory Network manages sessions for you - get to know how sessions work.",
	},
	{
		Href:  "https://www.ory.sh/docs/kratos/bring-your-own-ui/configure-ory-to-use-your-ui",
		Title: "Custom UI",
		Text:  "Implementing these pages in your language and framework of choice is straightforward using our SDKs.",
	},
}

// RenderPage renders a full page using the layout templates.
func (r *Renderer) RenderPage(_ context.Context, page Page) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}

	name := strings.TrimSpace(page.Template)
	if name == "" {
		name = PageFlow
	}
	if page.Theme != nil {
		if override := page.Theme.Partials["page."+name]; override != "" {
			if r.templates.Has(override) {
				name = override
			} else {
				r.logger.WithFields(logrus.Fields{
					"page":    name,
					"partial": override,
				}).Warn("theme page partial not found, using default template")
			}
		}
	}

	result, err := r.templates.RenderTemplate(name, r.pageContext(page))
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render page %q: %w", name, err)
	}
	return []byte(result), nil
}

// pageContext holds the per-page values. Brand, default stylesheet, runtime
// script URL and cards are template globals seeded by New.
func (r *Renderer) pageContext(page Page) map[string]any {
	heading := page.Heading
	if heading == "" {
		heading = page.Title
	}

	ctx := map[string]any{
		"title":   page.Title,
		"heading": heading,
		"body":    page.Body,
		"links":   page.Links,
		"session": page.Session,
		"error":   page.Error,
		"path":    page.Path,
		"nav":     NavLinks(page.SessionActive),
		"locale":  page.Locale,
		"async":   page.Transport == render.TransportAsync,
	}

	themeCtx := map[string]any{}
	if page.Theme != nil {
		if page.Theme.AssetURL != nil {
			if url := page.Theme.AssetURL("stylesheet"); url != "" {
				ctx["stylesheet"] = url
			}
		}
		themeCtx = map[string]any{
			"name":           page.Theme.Theme,
			"variant":        page.Theme.Variant,
			"css_vars_style": render.CSSVarsStyle(page.Theme.CSSVars),
		}
	}

	ctx["theme"] = themeCtx
	return ctx
}

// templateFilters are registered on the page template renderer by New.
var templateFilters = map[string]func(input any, param any) (any, error){
	"humantime": humanTime,
}

// humanTime formats RFC 3339 timestamps, the shape times take in template
// data, as "2006-01-02 15:04:05 MST". Other input passes through.
func humanTime(input any, _ any) (any, error) {
	raw, ok := input.(string)
	if !ok {
		if input == nil {
			return "", nil
		}
		return input, nil
	}
	raw = strings.TrimSpace(raw)
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return raw, nil
	}
	return parsed.Format("2006-01-02 15:04:05 MST"), nil
}
