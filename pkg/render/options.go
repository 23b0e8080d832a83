package render

import (
	"net/url"

	theme "github.com/goliatone/go-theme"
)

// Transport selects how a rendered form reaches the identity API.
type Transport string

const (
	// TransportPost renders forms that post straight to the container action.
	TransportPost Transport = "post"
	// TransportAsync renders forms that are intercepted in the page and sent
	// through this server's flow API.
	TransportAsync Transport = "async"
)

// Valid reports whether t names a supported transport.
func (t Transport) Valid() bool {
	return t == TransportPost || t == TransportAsync
}

// FlowRef identifies the flow a container belongs to.
type FlowRef struct {
	Kind string
	ID   string
}

// AsyncPathPrefix is where this server accepts intercepted submissions.
const AsyncPathPrefix = "/api/flows/"

// AsyncAction is the endpoint async forms post to: /api/flows/{kind}/{id}.
func (f FlowRef) AsyncAction() string {
	return AsyncPathPrefix + url.PathEscape(f.Kind) + "/" + url.PathEscape(f.ID)
}

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the container.
type RenderOptions struct {
	// Transport defaults to TransportPost when empty.
	Transport Transport
	// SubmitAction replaces the container action on every generated form. The
	// async transport sets it to the flow endpoint served by this process.
	SubmitAction string
	// Flow is required for the async transport.
	Flow FlowRef
	// HiddenFields are emitted inside every form in addition to the
	// container's own hidden inputs.
	HiddenFields map[string]string
	// Subset restricts which groups are rendered.
	Subset GroupSubset
	// Theme carries class tokens, partial overrides and asset URLs.
	Theme *theme.RendererConfig

	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler

	// Report collects contract violations found while rendering. Optional.
	Report *Report
}

// TransportOrDefault returns the configured transport, falling back to post.
func (o RenderOptions) TransportOrDefault() Transport {
	if o.Transport.Valid() {
		return o.Transport
	}
	return TransportPost
}
