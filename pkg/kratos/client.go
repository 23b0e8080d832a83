package kratos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/goliatone/go-authui/pkg/kratos"

var (
	attrFlowKind   = attribute.Key("kratos.flow_kind")
	attrFlowID     = attribute.Key("kratos.flow_id")
	attrHTTPStatus = attribute.Key("http.response.status_code")
)

// Option customises the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Redirects are never
// followed regardless of the client's own policy.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds every call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger routes request logging to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer overrides the global otel tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// Client talks to the frontend (public) API.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	logger  logrus.FieldLogger
	tracer  trace.Tracer
}

// New returns a client for the public API at publicURL.
func New(publicURL string, options ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(publicURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("kratos: parse public url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("kratos: public url %q must be absolute", publicURL)
	}

	c := &Client{
		base:    base,
		http:    &http.Client{},
		timeout: 10 * time.Second,
		logger:  logrus.StandardLogger(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}

	httpClient := *c.http
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.http = &httpClient
	return c, nil
}

// PublicURL returns the configured base URL.
func (c *Client) PublicURL() string {
	return c.base.String()
}

// BrowserURL returns the URL a browser should be sent to in order to start a
// flow without this server proxying the call.
func (c *Client) BrowserURL(kind FlowKind, returnTo string) string {
	query := url.Values{}
	if returnTo != "" {
		query.Set("return_to", returnTo)
	}
	return c.endpoint("/self-service/"+string(kind)+"/browser", query)
}

// CreateBrowserFlow starts a browser flow. The returned flow's Cookies must
// be forwarded to the browser.
func (c *Client) CreateBrowserFlow(ctx context.Context, kind FlowKind, creds Credentials, returnTo string) (*Flow, error) {
	if _, ok := ParseFlowKind(string(kind)); !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFlowKind, kind)
	}
	query := url.Values{}
	if returnTo != "" {
		query.Set("return_to", returnTo)
	}
	return c.flowCall(ctx, "kratos.CreateBrowserFlow", kind, "", http.MethodGet,
		c.endpoint("/self-service/"+string(kind)+"/browser", query), creds, nil)
}

// CreateAPIFlow starts a flow for a non-browser client such as the CLI.
func (c *Client) CreateAPIFlow(ctx context.Context, kind FlowKind, creds Credentials) (*Flow, error) {
	if _, ok := ParseFlowKind(string(kind)); !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFlowKind, kind)
	}
	return c.flowCall(ctx, "kratos.CreateAPIFlow", kind, "", http.MethodGet,
		c.endpoint("/self-service/"+string(kind)+"/api", nil), creds, nil)
}

// GetFlow fetches an existing flow by id.
func (c *Client) GetFlow(ctx context.Context, kind FlowKind, id string, creds Credentials) (*Flow, error) {
	if _, ok := ParseFlowKind(string(kind)); !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFlowKind, kind)
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrFlowIDRequired
	}
	return c.flowCall(ctx, "kratos.GetFlow", kind, id, http.MethodGet,
		c.endpoint("/self-service/"+string(kind)+"/flows", url.Values{"id": {id}}), creds, nil)
}

// UpdateFlow submits body to the flow. A 400 response is returned as an
// *APIError whose Flow carries the messages to re-render.
func (c *Client) UpdateFlow(ctx context.Context, kind FlowKind, id string, body any, creds Credentials) (UpdateResult, error) {
	if _, ok := ParseFlowKind(string(kind)); !ok {
		return UpdateResult{}, fmt.Errorf("%w %q", ErrUnknownFlowKind, kind)
	}
	if strings.TrimSpace(id) == "" {
		return UpdateResult{}, ErrFlowIDRequired
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("kratos: encode update body: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "kratos.UpdateFlow", trace.WithAttributes(
		attrFlowKind.String(string(kind)),
		attrFlowID.String(id),
	))
	defer span.End()

	resp, err := c.do(ctx, http.MethodPost, c.endpoint("/self-service/"+string(kind), url.Values{"flow": {id}}), creds, payload, kind)
	if err != nil {
		endSpan(span, err)
		return UpdateResult{}, err
	}

	result := UpdateResult{Cookies: resp.cookies}
	if gjson.GetBytes(resp.body, "ui").IsObject() {
		var flow Flow
		if err := json.Unmarshal(resp.body, &flow); err != nil {
			endSpan(span, err)
			return UpdateResult{}, fmt.Errorf("kratos: decode %s flow: %w", kind, err)
		}
		flow.Kind = kind
		flow.Cookies = resp.cookies
		result.Flow = &flow
		if continueWith := gjson.GetBytes(resp.body, "continue_with"); continueWith.IsArray() {
			_ = json.Unmarshal([]byte(continueWith.Raw), &result.ContinueWith)
		}
		return result, nil
	}

	if err := json.Unmarshal(resp.body, &result); err != nil {
		endSpan(span, err)
		return UpdateResult{}, fmt.Errorf("kratos: decode %s result: %w", kind, err)
	}
	result.Cookies = resp.cookies
	return result, nil
}

// ToSession returns the session for the given credentials (whoami).
func (c *Client) ToSession(ctx context.Context, creds Credentials) (*Session, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.ToSession")
	defer span.End()

	resp, err := c.do(ctx, http.MethodGet, c.endpoint("/sessions/whoami", nil), creds, nil, "")
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(resp.body, &sess); err != nil {
		endSpan(span, err)
		return nil, fmt.Errorf("kratos: decode session: %w", err)
	}
	return &sess, nil
}

// CreateLogoutFlow returns the logout URL for a browser session.
func (c *Client) CreateLogoutFlow(ctx context.Context, creds Credentials, returnTo string) (*LogoutFlow, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.CreateLogoutFlow")
	defer span.End()

	query := url.Values{}
	if returnTo != "" {
		query.Set("return_to", returnTo)
	}
	resp, err := c.do(ctx, http.MethodGet, c.endpoint("/self-service/logout/browser", query), creds, nil, "")
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	var flow LogoutFlow
	if err := json.Unmarshal(resp.body, &flow); err != nil {
		endSpan(span, err)
		return nil, fmt.Errorf("kratos: decode logout flow: %w", err)
	}
	return &flow, nil
}

// PerformAPILogout revokes a session token.
func (c *Client) PerformAPILogout(ctx context.Context, sessionToken string) error {
	ctx, span := c.tracer.Start(ctx, "kratos.PerformAPILogout")
	defer span.End()

	payload, err := json.Marshal(map[string]string{"session_token": sessionToken})
	if err != nil {
		return fmt.Errorf("kratos: encode logout body: %w", err)
	}
	if _, err := c.do(ctx, http.MethodDelete, c.endpoint("/self-service/logout/api", nil), Credentials{}, payload, ""); err != nil {
		endSpan(span, err)
		return err
	}
	return nil
}

// GetFlowError looks up a stored self-service error.
func (c *Client) GetFlowError(ctx context.Context, id string) (*FlowError, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("kratos: error id is required")
	}
	ctx, span := c.tracer.Start(ctx, "kratos.GetFlowError")
	defer span.End()

	resp, err := c.do(ctx, http.MethodGet, c.endpoint("/self-service/errors", url.Values{"id": {id}}), Credentials{}, nil, "")
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	var flowErr FlowError
	if err := json.Unmarshal(resp.body, &flowErr); err != nil {
		endSpan(span, err)
		return nil, fmt.Errorf("kratos: decode flow error: %w", err)
	}
	return &flowErr, nil
}

// Status checks liveness and readiness and reads the server version. Health
// failures are reported in the result, not as an error; only a failing
// version call returns one.
func (c *Client) Status(ctx context.Context) (Status, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Status")
	defer span.End()

	var status Status
	if _, err := c.do(ctx, http.MethodGet, c.endpoint("/health/alive", nil), Credentials{}, nil, ""); err == nil {
		status.Alive = true
	} else {
		c.logger.WithError(err).Warn("kratos liveness check failed")
	}
	if _, err := c.do(ctx, http.MethodGet, c.endpoint("/health/ready", nil), Credentials{}, nil, ""); err == nil {
		status.Ready = true
	} else {
		c.logger.WithError(err).Warn("kratos readiness check failed")
	}

	resp, err := c.do(ctx, http.MethodGet, c.endpoint("/version", nil), Credentials{}, nil, "")
	if err != nil {
		endSpan(span, err)
		return status, err
	}
	status.Version = gjson.GetBytes(resp.body, "version").String()
	return status, nil
}

func (c *Client) flowCall(ctx context.Context, name string, kind FlowKind, id, method, target string, creds Credentials, payload []byte) (*Flow, error) {
	attrs := []attribute.KeyValue{attrFlowKind.String(string(kind))}
	if id != "" {
		attrs = append(attrs, attrFlowID.String(id))
	}
	ctx, span := c.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	resp, err := c.do(ctx, method, target, creds, payload, kind)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}

	var flow Flow
	if err := json.Unmarshal(resp.body, &flow); err != nil {
		endSpan(span, err)
		return nil, fmt.Errorf("kratos: decode %s flow: %w", kind, err)
	}
	flow.Kind = kind
	flow.Cookies = resp.cookies
	span.SetAttributes(attrFlowID.String(flow.ID))
	return &flow, nil
}

type response struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

func (c *Client) do(ctx context.Context, method, target string, creds Credentials, payload []byte, kind FlowKind) (response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return response{}, fmt.Errorf("kratos: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	creds.apply(req)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("kratos: %s %s: %w", method, req.URL.Path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("kratos: read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(started).String(),
	}).Debug("kratos call")

	trace.SpanFromContext(ctx).SetAttributes(attrHTTPStatus.Int(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return response{}, newAPIError(resp.StatusCode, resp.Header.Get("Location"), data, kind)
	}
	return response{status: resp.StatusCode, body: data, cookies: resp.Cookies()}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
