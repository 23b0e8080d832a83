package transport

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-authui/pkg/kratos"
	"github.com/goliatone/go-authui/pkg/renderers/vanilla"
)

const genericErrorMessage = "Oops! We've encountered an error."

var strictPolicy = bluemonday.StrictPolicy()

// sanitize strips markup from text the identity API echoes back. Templates
// escape the result, so entities are decoded to avoid double escaping.
func sanitize(value string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(value)))
}

// errorView turns an API error into what the error page shows.
func errorView(id string, generic kratos.GenericError) *vanilla.ErrorView {
	view := &vanilla.ErrorView{
		ID:      sanitize(id),
		Message: sanitize(generic.Message),
		Reason:  sanitize(generic.Reason),
	}
	if view.ID == "" {
		view.ID = sanitize(generic.ID)
	}
	if view.Message == "" {
		view.Message = genericErrorMessage
	}

	keys := make([]string, 0, len(generic.Details))
	for key := range generic.Details {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		view.Details = append(view.Details, vanilla.DetailItem{
			Key:   sanitize(key),
			Value: sanitize(detailString(generic.Details[key])),
		})
	}
	return view
}

func detailString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(raw)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, view *vanilla.ErrorView) {
	s.renderPage(w, r, status, vanilla.Page{
		Template: vanilla.PageError,
		Title:    "Error",
		Error:    view,
	})
}

// upstreamError renders the error page for a failed identity API call.
func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithError(err).WithField("request_id", RequestID(r.Context())).Error("identity api call failed")

	apiErr, ok := kratos.AsAPIError(err)
	if !ok {
		s.renderError(w, r, http.StatusBadGateway, &vanilla.ErrorView{
			Message: genericErrorMessage,
			Reason:  "The identity service could not be reached.",
		})
		return
	}
	status := apiErr.Status
	if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
		status = http.StatusBadGateway
	}
	s.renderError(w, r, status, errorView("", apiErr.Generic))
}
