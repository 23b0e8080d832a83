package kratos

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnknownFlowKind is returned for flow kinds outside FlowKinds.
	ErrUnknownFlowKind = errors.New("kratos: unknown flow kind")
	// ErrFlowIDRequired is returned when a flow operation has no id.
	ErrFlowIDRequired = errors.New("kratos: flow id is required")
)

// Error ids the UI reacts to.
const (
	ErrorIDFlowExpired            = "self_service_flow_expired"
	ErrorIDBrowserLocationChanged = "browser_location_change_required"
	ErrorIDSessionAlreadyActive   = "session_already_available"
	ErrorIDNoActiveSession        = "session_inactive"
	ErrorIDSecurityCSRFViolation  = "security_csrf_violation"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Generic GenericError
	// Flow is set when the API rejected an update and returned the flow with
	// field and form messages attached (HTTP 400).
	Flow *Flow
	// RedirectBrowserTo is set for 303 and 422 responses.
	RedirectBrowserTo string
	// UseFlowID is set when an expired flow has a replacement.
	UseFlowID string
	Raw       []byte
}

func (e *APIError) Error() string {
	msg := e.Generic.Message
	if e.Generic.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Generic.Reason)
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Generic.ID != "" {
		return fmt.Sprintf("kratos: %d %s (%s)", e.Status, msg, e.Generic.ID)
	}
	return fmt.Sprintf("kratos: %d %s", e.Status, msg)
}

// HasFlow reports whether the error carries a re-renderable flow.
func (e *APIError) HasFlow() bool {
	return e != nil && e.Flow != nil
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusNotFound
}

// IsFlowExpired reports whether the flow expired and has to be recreated.
func IsFlowExpired(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && (apiErr.Status == http.StatusGone || apiErr.Generic.ID == ErrorIDFlowExpired)
}

// IsUnauthorized reports whether the caller has no valid session.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusUnauthorized
}

func newAPIError(status int, location string, body []byte, kind FlowKind) *APIError {
	apiErr := &APIError{
		Status:            status,
		RedirectBrowserTo: location,
		Raw:               body,
	}
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return apiErr
	}

	if ui := gjson.GetBytes(body, "ui"); ui.IsObject() {
		var flow Flow
		if err := json.Unmarshal(body, &flow); err == nil {
			flow.Kind = kind
			apiErr.Flow = &flow
		}
		return apiErr
	}

	if errObj := gjson.GetBytes(body, "error"); errObj.IsObject() {
		_ = json.Unmarshal([]byte(errObj.Raw), &apiErr.Generic)
	}
	if redirect := gjson.GetBytes(body, "redirect_browser_to").String(); redirect != "" {
		apiErr.RedirectBrowserTo = redirect
	}
	apiErr.UseFlowID = gjson.GetBytes(body, "use_flow_id").String()
	return apiErr
}
