package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/moogar0880/problems"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-authui/pkg/kratos"
	"github.com/goliatone/go-authui/pkg/session"
)

// FlowUpdater is the part of the identity API client the adapter needs.
type FlowUpdater interface {
	UpdateFlow(ctx context.Context, kind kratos.FlowKind, id string, body any, creds kratos.Credentials) (kratos.UpdateResult, error)
}

// FormRenderer re-renders a flow returned with validation messages.
type FormRenderer interface {
	RenderFlow(ctx context.Context, flow *kratos.Flow) ([]byte, error)
}

// Request is one intercepted form submission.
type Request struct {
	Kind        kratos.FlowKind
	FlowID      string
	Values      url.Values
	Credentials kratos.Credentials
}

// Result is what the page script receives after a successful update.
type Result struct {
	RedirectTo string          `json:"redirect_to,omitempty"`
	Session    *kratos.Session `json:"session,omitempty"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	// HTML is the re-rendered form for flows that stay on the page after a
	// successful update (settings, recovery, verification).
	HTML string `json:"html,omitempty"`

	Cookies []*http.Cookie `json:"-"`
}

// Failure is a submission the API or the adapter rejected.
type Failure struct {
	Status int
	Type   string
	Detail string
	// HTML is the re-rendered form carrying the API's messages, when the API
	// returned the flow.
	HTML       string
	RedirectTo string
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("submit: %s: %v", f.Type, f.Err)
	}
	return "submit: " + f.Type + ": " + f.Detail
}

func (f *Failure) Unwrap() error { return f.Err }

// AsyncOption customises the adapter.
type AsyncOption func(*Async)

// WithRecorder receives session transitions after successful logins and
// registrations.
func WithRecorder(rec session.Recorder) AsyncOption {
	return func(a *Async) {
		if rec != nil {
			a.recorder = rec
		}
	}
}

// WithFormRenderer enables re-rendering of rejected flows.
func WithFormRenderer(renderer FormRenderer) AsyncOption {
	return func(a *Async) {
		a.renderer = renderer
	}
}

// WithLifetime sets how long a session started by a submission is treated as
// active. The expiry reported by the API is not used here.
func WithLifetime(lifetime time.Duration) AsyncOption {
	return func(a *Async) {
		if lifetime > 0 {
			a.lifetime = lifetime
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) AsyncOption {
	return func(a *Async) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) AsyncOption {
	return func(a *Async) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Async handles submissions intercepted by the page runtime: it builds the
// update body, calls the identity API, records the resulting session and
// answers with JSON.
type Async struct {
	updater  FlowUpdater
	renderer FormRenderer
	recorder session.Recorder
	guard    *Guard
	lifetime time.Duration
	now      func() time.Time
	logger   logrus.FieldLogger
}

// NewAsync returns an adapter using updater for API calls.
func NewAsync(updater FlowUpdater, options ...AsyncOption) *Async {
	a := &Async{
		updater:  updater,
		guard:    NewGuard(),
		lifetime: session.DefaultLifetime,
		now:      time.Now,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Submit performs one submission. Errors are always *Failure.
func (a *Async) Submit(ctx context.Context, req Request) (Result, error) {
	if req.FlowID == "" {
		return Result{}, &Failure{Status: http.StatusBadRequest, Type: "invalid_flow", Detail: "flow id is required"}
	}
	if _, ok := kratos.ParseFlowKind(string(req.Kind)); !ok {
		return Result{}, &Failure{Status: http.StatusNotFound, Type: "unknown_flow", Detail: fmt.Sprintf("unknown flow kind %q", req.Kind)}
	}

	release, err := a.guard.Acquire(req.FlowID)
	if err != nil {
		return Result{}, &Failure{Status: http.StatusConflict, Type: "in_flight", Detail: err.Error(), Err: err}
	}
	defer release()

	payload, err := BuildPayload(req.Kind, req.Values)
	if err != nil {
		return Result{}, &Failure{Status: http.StatusBadRequest, Type: "validation_error", Detail: err.Error(), Err: err}
	}

	log := a.logger.WithFields(logrus.Fields{
		"flow_kind": req.Kind,
		"flow_id":   req.FlowID,
		"method":    payload[MethodField],
	})

	result, err := a.updater.UpdateFlow(ctx, req.Kind, req.FlowID, payload, req.Credentials)
	if err != nil {
		log.WithError(err).Info("flow update rejected")
		return Result{}, a.failure(ctx, err)
	}

	out := Result{
		RedirectTo: result.RedirectTo(),
		Session:    result.Session,
		Cookies:    result.Cookies,
	}
	if result.Session != nil && a.recorder != nil {
		expiresAt := a.now().Add(a.lifetime)
		out.ExpiresAt = &expiresAt
		a.recorder.RecordActive(ctx, expiresAt)
	}
	if result.Flow != nil && a.renderer != nil {
		html, err := a.renderer.RenderFlow(ctx, result.Flow)
		if err != nil {
			log.WithError(err).Warn("render updated flow")
		} else {
			out.HTML = string(html)
		}
	}
	if out.RedirectTo == "" && result.Session != nil {
		out.RedirectTo = "/"
	}

	log.Info("flow updated")
	return out, nil
}

func (a *Async) failure(ctx context.Context, err error) *Failure {
	apiErr, ok := kratos.AsAPIError(err)
	if !ok {
		return &Failure{Status: http.StatusBadGateway, Type: "upstream_error", Detail: "identity service unavailable", Err: err}
	}

	failure := &Failure{
		Status:     apiErr.Status,
		Type:       "flow_error",
		Detail:     apiErr.Generic.Message,
		RedirectTo: apiErr.RedirectBrowserTo,
		Err:        err,
	}
	if apiErr.Generic.ID != "" {
		failure.Type = apiErr.Generic.ID
	}
	if apiErr.HasFlow() {
		failure.Type = "validation_error"
		failure.Detail = firstMessage(apiErr.Flow)
		if a.renderer != nil {
			if html, renderErr := a.renderer.RenderFlow(ctx, apiErr.Flow); renderErr == nil {
				failure.HTML = string(html)
			}
		}
	}
	if failure.Status < 400 {
		// Redirect responses reach here because the client never follows them.
		failure.Status = http.StatusUnprocessableEntity
		failure.Type = kratos.ErrorIDBrowserLocationChanged
	}
	return failure
}

func firstMessage(flow *kratos.Flow) string {
	if len(flow.UI.Messages) > 0 {
		return flow.UI.Messages[0].Text
	}
	for _, node := range flow.UI.Nodes {
		if len(node.Messages) > 0 {
			return node.Messages[0].Text
		}
	}
	return "the submission was rejected"
}

const problemContentType = "application/problem+json"

type problemBody struct {
	*problems.Problem
	HTML       string `json:"html,omitempty"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// Handler answers intercepted submissions. The flow kind and id come from
// resolve, so the adapter stays independent of the router.
func (a *Async) Handler(resolve func(*http.Request) (kind, id string)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			WriteProblem(w, r, &Failure{Status: http.StatusBadRequest, Type: "invalid_form", Detail: err.Error(), Err: err})
			return
		}
		kind, id := resolve(r)
		result, err := a.Submit(r.Context(), Request{
			Kind:        kratos.FlowKind(kind),
			FlowID:      id,
			Values:      r.PostForm,
			Credentials: kratos.Credentials{Cookie: r.Header.Get("Cookie")},
		})
		if err != nil {
			WriteProblem(w, r, err)
			return
		}

		for _, cookie := range result.Cookies {
			http.SetCookie(w, cookie)
		}
		if result.ExpiresAt != nil {
			http.SetCookie(w, session.ExpiryCookie(*result.ExpiresAt, a.now()))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(result)
	})
}

// WriteProblem writes err as an RFC 7807 problem document.
func WriteProblem(w http.ResponseWriter, r *http.Request, err error) {
	var failure *Failure
	if !errors.As(err, &failure) {
		failure = &Failure{Status: http.StatusInternalServerError, Type: "internal_error", Detail: "internal error", Err: err}
	}

	problem := problems.NewStatusProblem(failure.Status).
		WithInstance(r.URL.Path).
		WithType(failure.Type).
		WithDetail(failure.Detail)

	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(failure.Status)
	_ = json.NewEncoder(w).Encode(problemBody{
		Problem:    problem,
		HTML:           failure.HTML,
		RedirectTo:     failure.RedirectTo,
	})
}
