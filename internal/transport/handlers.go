package transport

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-authui/pkg/kratos"
	"github.com/goliatone/go-authui/pkg/renderers/vanilla"
	"github.com/goliatone/go-authui/pkg/session"
)

// flowRoute pairs the route that starts a flow with the route that shows it.
type flowRoute struct {
	kind  kratos.FlowKind
	start string
	page  string
	title string
	links []vanilla.Link
}

var flowRoutes = []flowRoute{
	{
		kind: kratos.FlowLogin, start: "/sign-in", page: "/login", title: "Sign In",
		links: []vanilla.Link{
			{Href: "/account-recovery", Text: "Forgot your password?"},
			{Href: "/sign-up", Text: "Don't have an account? Get started"},
		},
	},
	{
		kind: kratos.FlowRegistration, start: "/sign-up", page: "/registration", title: "Sign Up",
		links: []vanilla.Link{{Href: "/sign-in", Text: "Already have an account? Sign in"}},
	},
	{kind: kratos.FlowVerification, start: "/verify", page: "/verification", title: "Account Verification"},
	{kind: kratos.FlowSettings, start: "/my-settings", page: "/settings", title: "Account Settings"},
	{
		kind: kratos.FlowRecovery, start: "/account-recovery", page: "/recovery", title: "Account Recovery",
		links: []vanilla.Link{{Href: "/sign-in", Text: "Back to sign in"}},
	},
}

func credentials(r *http.Request) kratos.Credentials {
	return kratos.Credentials{Cookie: r.Header.Get("Cookie")}
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// browserFlowURL is where the browser starts a flow. The identity API sets
// its anti-CSRF cookie there and sends the browser back with ?flow=<id>.
func (s *Server) browserFlowURL(kind kratos.FlowKind, returnTo string) string {
	base := s.cfg.Kratos.BrowserURL
	if base == "" {
		return s.api.BrowserURL(kind, returnTo)
	}
	target := strings.TrimRight(base, "/") + "/self-service/" + string(kind) + "/browser"
	if returnTo != "" {
		target += "?" + url.Values{"return_to": {returnTo}}.Encode()
	}
	return target
}

func (s *Server) startFlow(route flowRoute) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		redirect(w, r, s.browserFlowURL(route.kind, r.URL.Query().Get("return_to")))
	})
}

func (s *Server) showFlow(route flowRoute) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("flow")
		if id == "" {
			redirect(w, r, route.start)
			return
		}

		log := s.logger.WithFields(logrus.Fields{
			"request_id": RequestID(r.Context()),
			"flow_kind":  route.kind,
			"flow_id":    id,
		})
		flow, err := s.api.GetFlow(r.Context(), route.kind, id, credentials(r))
		if err != nil {
			if apiErr, ok := kratos.AsAPIError(err); ok {
				switch {
				case apiErr.RedirectBrowserTo != "":
					redirect(w, r, apiErr.RedirectBrowserTo)
					return
				case apiErr.Status < http.StatusInternalServerError:
					// Expired, unknown or foreign flows start over.
					log.WithError(err).Info("flow unavailable, starting a new one")
					redirect(w, r, route.start)
					return
				}
			}
			s.upstreamError(w, r, err)
			return
		}
		if flow.Kind == "" {
			flow.Kind = route.kind
		}
		for _, cookie := range flow.Cookies {
			http.SetCookie(w, cookie)
		}

		body, err := s.forms.RenderFlow(r.Context(), flow)
		if err != nil {
			log.WithError(err).Error("render flow")
			s.renderError(w, r, http.StatusInternalServerError, &vanilla.ErrorView{
				Message: "Oops! We could not display this form.",
			})
			return
		}
		s.renderPage(w, r, http.StatusOK, vanilla.Page{
			Template: vanilla.PageFlow,
			Title:    route.title,
			Body:     string(body),
			Links:    route.links,
		})
	})
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, vanilla.Page{Template: vanilla.PageHome, Title: "Home"})
}

func (s *Server) sessionInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now()

	sess, err := s.api.ToSession(ctx, credentials(r))
	if err != nil && !kratos.IsUnauthorized(err) {
		s.upstreamError(w, r, err)
		return
	}

	page := vanilla.Page{Template: vanilla.PageSession, Title: "Session Information"}
	if session.FromKratos(ctx, s.tracker, sess, now) {
		state := s.tracker.Snapshot(ctx, now)
		http.SetCookie(w, session.ExpiryCookie(state.ExpiresAt, now))
		page.Session = sess
	} else {
		http.SetCookie(w, session.ClearExpiryCookie())
	}
	s.renderPage(w, r, http.StatusOK, page)
}

func (s *Server) flowError(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.renderError(w, r, http.StatusBadRequest, &vanilla.ErrorView{Message: "An error id is required."})
		return
	}

	flowErr, err := s.api.GetFlowError(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).WithField("error_id", id).Warn("fetch flow error")
		s.renderError(w, r, http.StatusBadGateway, &vanilla.ErrorView{
			ID:      sanitize(id),
			Message: "Failed to get error",
			Reason:  sanitize(err.Error()),
		})
		return
	}

	status := flowErr.Error.Code
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusInternalServerError
	}
	s.renderError(w, r, status, errorView(flowErr.ID, flowErr.Error))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow, err := s.api.CreateLogoutFlow(ctx, credentials(r), "/")

	s.tracker.RecordInactive(ctx)
	http.SetCookie(w, session.ClearExpiryCookie())

	if err != nil {
		if kratos.IsUnauthorized(err) {
			redirect(w, r, "/")
			return
		}
		s.upstreamError(w, r, err)
		return
	}
	redirect(w, r, flow.LogoutURL)
}

type healthBody struct {
	Status string        `json:"status"`
	Kratos kratos.Status `json:"kratos"`
	Error  string        `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status, err := s.api.Status(r.Context())
	body := healthBody{Status: "ok", Kratos: status}
	code := http.StatusOK
	if err != nil || !status.Alive {
		body.Status = "degraded"
		code = http.StatusServiceUnavailable
		if err != nil {
			body.Error = err.Error()
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusNotFound, vanilla.Page{Template: vanilla.PageNotFound, Title: "Page not found"})
}

// renderPage fills in the per-request chrome and writes the page.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page vanilla.Page) {
	now := s.now()
	page.Path = r.URL.Path
	page.Transport = s.transport
	page.SessionActive = s.tracker.Snapshot(r.Context(), now).Active || session.ExpiryCookieValid(r, now)
	if page.Theme == nil {
		cfg, err := s.orchestrator.Theme("", "")
		if err != nil {
			s.logger.WithError(err).Warn("resolve page theme")
		}
		page.Theme = cfg
	}

	out, err := s.pages.RenderPage(r.Context(), page)
	if err != nil {
		s.logger.WithError(err).WithField("template", page.Template).Error("render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.pages.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(out)
}
