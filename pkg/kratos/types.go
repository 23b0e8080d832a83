package kratos

import (
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-authui/pkg/uinode"
)

// FlowKind names a self-service flow.
type FlowKind string

const (
	FlowLogin        FlowKind = "login"
	FlowRegistration FlowKind = "registration"
	FlowSettings     FlowKind = "settings"
	FlowRecovery     FlowKind = "recovery"
	FlowVerification FlowKind = "verification"
)

var flowKinds = []FlowKind{FlowLogin, FlowRegistration, FlowSettings, FlowRecovery, FlowVerification}

// FlowKinds lists every supported flow kind.
func FlowKinds() []FlowKind {
	return append([]FlowKind(nil), flowKinds...)
}

// ParseFlowKind matches raw case-insensitively against the known kinds.
func ParseFlowKind(raw string) (FlowKind, bool) {
	candidate := FlowKind(strings.ToLower(strings.TrimSpace(raw)))
	for _, kind := range flowKinds {
		if kind == candidate {
			return kind, true
		}
	}
	return "", false
}

// Flow is a self-service flow as returned by the frontend API.
type Flow struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	State      string           `json:"state,omitempty"`
	ExpiresAt  time.Time        `json:"expires_at"`
	IssuedAt   time.Time        `json:"issued_at"`
	RequestURL string           `json:"request_url"`
	ReturnTo   string           `json:"return_to,omitempty"`
	UI         uinode.Container `json:"ui"`

	// Kind is filled in by the client; the API does not echo it.
	Kind FlowKind `json:"-"`
	// Cookies are the Set-Cookie headers of the response that produced the
	// flow. Browser flows carry the anti-CSRF cookie here.
	Cookies []*http.Cookie `json:"-"`
}

// Identity is the subset of an identity the UI displays.
type Identity struct {
	ID       string         `json:"id"`
	SchemaID string         `json:"schema_id"`
	State    string         `json:"state,omitempty"`
	Traits   map[string]any `json:"traits,omitempty"`
}

// AuthenticationMethod describes one factor completed for a session.
type AuthenticationMethod struct {
	AAL          string     `json:"aal,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Method       string     `json:"method,omitempty"`
	Organization string     `json:"organization,omitempty"`
	Provider     string     `json:"provider,omitempty"`
}

// Session is the whoami payload.
type Session struct {
	ID                          string                 `json:"id"`
	Active                      bool                   `json:"active"`
	AuthenticatedAt             *time.Time             `json:"authenticated_at,omitempty"`
	AuthenticationMethods       []AuthenticationMethod `json:"authentication_methods,omitempty"`
	AuthenticatorAssuranceLevel string                 `json:"authenticator_assurance_level,omitempty"`
	ExpiresAt                   *time.Time             `json:"expires_at,omitempty"`
	IssuedAt                    *time.Time             `json:"issued_at,omitempty"`
	Tokenized                   bool                   `json:"tokenized,omitempty"`
	Identity                    *Identity              `json:"identity,omitempty"`
}

// ActiveAt reports whether the session is active and not yet expired at now.
func (s Session) ActiveAt(now time.Time) bool {
	if !s.Active {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// ContinueWith is a follow-up action suggested after a successful update.
type ContinueWith struct {
	Action            string            `json:"action"`
	RedirectBrowserTo string            `json:"redirect_browser_to,omitempty"`
	OrySessionToken   string            `json:"ory_session_token,omitempty"`
	Flow              *ContinueWithFlow `json:"flow,omitempty"`
}

// ContinueWithFlow points at a flow to continue with, for example the
// verification flow started after registration.
type ContinueWithFlow struct {
	ID                string `json:"id"`
	URL               string `json:"url,omitempty"`
	VerifiableAddress string `json:"verifiable_address,omitempty"`
}

// UpdateResult is the outcome of a successful flow update. Login and
// registration return a session, the other flows return the updated flow.
type UpdateResult struct {
	Session      *Session       `json:"session,omitempty"`
	SessionToken string         `json:"session_token,omitempty"`
	Identity     *Identity      `json:"identity,omitempty"`
	ContinueWith []ContinueWith `json:"continue_with,omitempty"`

	Flow    *Flow          `json:"-"`
	Cookies []*http.Cookie `json:"-"`
}

// RedirectTo returns the first browser redirect suggested by continue_with.
func (r UpdateResult) RedirectTo() string {
	for _, item := range r.ContinueWith {
		if item.RedirectBrowserTo != "" {
			return item.RedirectBrowserTo
		}
		if item.Flow != nil && item.Flow.URL != "" {
			return item.Flow.URL
		}
	}
	return ""
}

// LogoutFlow holds the URL that ends a browser session.
type LogoutFlow struct {
	LogoutURL   string `json:"logout_url"`
	LogoutToken string `json:"logout_token"`
}

// FlowError is a stored self-service error, looked up by id.
type FlowError struct {
	ID        string       `json:"id"`
	Error     GenericError `json:"error"`
	CreatedAt *time.Time   `json:"created_at,omitempty"`
}

// GenericError is the error object the API returns on failures.
type GenericError struct {
	ID      string         `json:"id,omitempty"`
	Code    int            `json:"code,omitempty"`
	Status  string         `json:"status,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Message string         `json:"message"`
	Request string         `json:"request,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Status reports the health and version endpoints.
type Status struct {
	Alive   bool   `json:"alive"`
	Ready   bool   `json:"ready"`
	Version string `json:"version,omitempty"`
}

// Credentials carry the caller's identity to the API: the browser's Cookie
// header for browser flows or a session token for API flows.
type Credentials struct {
	Cookie       string
	SessionToken string
}

func (c Credentials) apply(req *http.Request) {
	if c.Cookie != "" {
		req.Header.Set("Cookie", c.Cookie)
	}
	if c.SessionToken != "" {
		req.Header.Set("X-Session-Token", c.SessionToken)
	}
}
