package kratos_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-authui/pkg/kratos"
	"github.com/goliatone/go-authui/pkg/uinode"
)

const loginFlow = `{
  "id": "f-1",
  "type": "browser",
  "expires_at": "2030-01-01T00:00:00Z",
  "issued_at": "2029-12-31T23:00:00Z",
  "request_url": "http://127.0.0.1:4433/self-service/login/browser",
  "ui": {
    "action": "http://127.0.0.1:4433/self-service/login?flow=f-1",
    "method": "POST",
    "nodes": [
      {"type": "input", "group": "default", "attributes": {"name": "csrf_token", "type": "hidden", "value": "tok", "node_type": "input"}, "messages": [], "meta": {}},
      {"type": "input", "group": "password", "attributes": {"name": "password", "type": "password", "node_type": "input"}, "messages": [], "meta": {"label": {"id": 1070001, "text": "Password", "type": "info"}}}
    ]
  }
}`

func newClient(t *testing.T, handler http.HandlerFunc) *kratos.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := kratos.New(server.URL)
	require.NoError(t, err)
	return client
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := kratos.New("/relative")
	require.Error(t, err)
}

func TestCreateBrowserFlow(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/self-service/login/browser", r.URL.Path)
		assert.Equal(t, "/home", r.URL.Query().Get("return_to"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "a=b", r.Header.Get("Cookie"))

		http.SetCookie(w, &http.Cookie{Name: "csrf_token_x", Value: "c"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, loginFlow)
	})

	flow, err := client.CreateBrowserFlow(context.Background(), kratos.FlowLogin, kratos.Credentials{Cookie: "a=b"}, "/home")
	require.NoError(t, err)

	assert.Equal(t, "f-1", flow.ID)
	assert.Equal(t, kratos.FlowLogin, flow.Kind)
	assert.Equal(t, "tok", flow.UI.CSRFToken())
	require.Len(t, flow.UI.Nodes, 2)
	assert.Equal(t, uinode.GroupPassword, flow.UI.Nodes[1].Group)
	require.Len(t, flow.Cookies, 1)
	assert.Equal(t, "csrf_token_x", flow.Cookies[0].Name)
}

func TestCreateBrowserFlow_UnknownKind(t *testing.T) {
	client := newClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.CreateBrowserFlow(context.Background(), kratos.FlowKind("nope"), kratos.Credentials{}, "")
	require.ErrorIs(t, err, kratos.ErrUnknownFlowKind)
}

func TestGetFlow_NotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/self-service/settings/flows", r.URL.Path)
		assert.Equal(t, "missing", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": {"code": 404, "status": "Not Found", "message": "The requested resource could not be found"}}`)
	})

	_, err := client.GetFlow(context.Background(), kratos.FlowSettings, "missing", kratos.Credentials{})
	require.Error(t, err)
	assert.True(t, kratos.IsNotFound(err))

	apiErr, ok := kratos.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "The requested resource could not be found", apiErr.Generic.Message)
	assert.Equal(t, "kratos: 404 The requested resource could not be found", apiErr.Error())
}

func TestGetFlow_RequiresID(t *testing.T) {
	client := newClient(t, func(http.ResponseWriter, *http.Request) {})

	_, err := client.GetFlow(context.Background(), kratos.FlowLogin, " ", kratos.Credentials{})
	require.ErrorIs(t, err, kratos.ErrFlowIDRequired)
}

func TestUpdateFlow_LoginSuccess(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/self-service/login", r.URL.Path)
		assert.Equal(t, "f-1", r.URL.Query().Get("flow"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "password", body["method"])
		assert.Equal(t, "ada@example.com", body["identifier"])

		http.SetCookie(w, &http.Cookie{Name: "ory_kratos_session", Value: "s"})
		_, _ = io.WriteString(w, `{
		  "session": {"id": "s-1", "active": true, "expires_at": "2030-01-01T00:00:00Z"},
		  "continue_with": [{"action": "redirect_browser_to", "redirect_browser_to": "/welcome"}]
		}`)
	})

	result, err := client.UpdateFlow(context.Background(), kratos.FlowLogin, "f-1", map[string]any{
		"method":     "password",
		"identifier": "ada@example.com",
		"password":   "secret",
	}, kratos.Credentials{})
	require.NoError(t, err)

	require.NotNil(t, result.Session)
	assert.Equal(t, "s-1", result.Session.ID)
	assert.True(t, result.Session.ActiveAt(time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, result.Session.ActiveAt(time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "/welcome", result.RedirectTo())
	assert.Nil(t, result.Flow)
	require.Len(t, result.Cookies, 1)
}

func TestUpdateFlow_SettingsReturnsFlow(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, loginFlow)
	})

	result, err := client.UpdateFlow(context.Background(), kratos.FlowSettings, "f-1", map[string]any{"method": "profile"}, kratos.Credentials{})
	require.NoError(t, err)
	require.NotNil(t, result.Flow)
	assert.Equal(t, kratos.FlowSettings, result.Flow.Kind)
	assert.Nil(t, result.Session)
}

func TestUpdateFlow_ValidationErrorCarriesFlow(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, loginFlow)
	})

	_, err := client.UpdateFlow(context.Background(), kratos.FlowLogin, "f-1", map[string]any{}, kratos.Credentials{})
	apiErr, ok := kratos.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.True(t, apiErr.HasFlow())
	assert.Equal(t, "f-1", apiErr.Flow.ID)
	assert.Equal(t, kratos.FlowLogin, apiErr.Flow.Kind)
}

func TestUpdateFlow_BrowserLocationChange(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error": {"id": "browser_location_change_required", "code": 422, "message": "browser location change required"}, "redirect_browser_to": "/self-service/login/browser?aal=aal2"}`)
	})

	_, err := client.UpdateFlow(context.Background(), kratos.FlowLogin, "f-1", map[string]any{}, kratos.Credentials{})
	apiErr, ok := kratos.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, kratos.ErrorIDBrowserLocationChanged, apiErr.Generic.ID)
	assert.Equal(t, "/self-service/login/browser?aal=aal2", apiErr.RedirectBrowserTo)
}

func TestUpdateFlow_Expired(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
		_, _ = io.WriteString(w, `{"error": {"id": "self_service_flow_expired", "message": "expired"}, "use_flow_id": "f-2"}`)
	})

	_, err := client.UpdateFlow(context.Background(), kratos.FlowLogin, "f-1", map[string]any{}, kratos.Credentials{})
	assert.True(t, kratos.IsFlowExpired(err))
	apiErr, _ := kratos.AsAPIError(err)
	assert.Equal(t, "f-2", apiErr.UseFlowID)
}

func TestRedirectsAreNotFollowed(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "/elsewhere")
		w.WriteHeader(http.StatusSeeOther)
	})

	_, err := client.CreateBrowserFlow(context.Background(), kratos.FlowRegistration, kratos.Credentials{}, "")
	apiErr, ok := kratos.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusSeeOther, apiErr.Status)
	assert.Equal(t, "/elsewhere", apiErr.RedirectBrowserTo)
}

func TestToSession(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/whoami", r.URL.Path)
		if r.Header.Get("X-Session-Token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error": {"id": "session_inactive", "code": 401, "message": "No valid session"}}`)
			return
		}
		_, _ = io.WriteString(w, `{
		  "id": "s-1",
		  "active": true,
		  "authenticator_assurance_level": "aal1",
		  "authentication_methods": [{"method": "password", "aal": "aal1"}],
		  "identity": {"id": "i-1", "schema_id": "default", "traits": {"email": "ada@example.com"}}
		}`)
	})

	sess, err := client.ToSession(context.Background(), kratos.Credentials{SessionToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "aal1", sess.AuthenticatorAssuranceLevel)
	require.Len(t, sess.AuthenticationMethods, 1)
	assert.Equal(t, "ada@example.com", sess.Identity.Traits["email"])

	_, err = client.ToSession(context.Background(), kratos.Credentials{})
	assert.True(t, kratos.IsUnauthorized(err))
}

func TestCreateLogoutFlow(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/self-service/logout/browser", r.URL.Path)
		_, _ = io.WriteString(w, `{"logout_url": "http://kratos/self-service/logout?token=x", "logout_token": "x"}`)
	})

	flow, err := client.CreateLogoutFlow(context.Background(), kratos.Credentials{Cookie: "s=1"}, "")
	require.NoError(t, err)
	assert.Equal(t, "x", flow.LogoutToken)
}

func TestPerformAPILogout(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/self-service/logout/api", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["session_token"] != "tok-1" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error": {"code": 403, "status": "Forbidden", "message": "The requested action was forbidden"}}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.PerformAPILogout(context.Background(), "tok-1"))

	err := client.PerformAPILogout(context.Background(), "stale")
	apiErr, ok := kratos.AsAPIError(err)
	require.True(t, ok, "want APIError, got %v", err)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestGetFlowError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "e-1", r.URL.Query().Get("id"))
		_, _ = io.WriteString(w, `{"id": "e-1", "error": {"code": 500, "message": "boom", "reason": "db down"}}`)
	})

	flowErr, err := client.GetFlowError(context.Background(), "e-1")
	require.NoError(t, err)
	assert.Equal(t, "boom", flowErr.Error.Message)
	assert.Equal(t, "db down", flowErr.Error.Reason)
}

func TestStatus(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health/alive":
			_, _ = io.WriteString(w, `{"status": "ok"}`)
		case "/health/ready":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/version":
			_, _ = io.WriteString(w, `{"version": "v1.3.0"}`)
		}
	})

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Alive)
	assert.False(t, status.Ready)
	assert.Equal(t, "v1.3.0", status.Version)
}

func TestParseFlowKind(t *testing.T) {
	kind, ok := kratos.ParseFlowKind(" Recovery ")
	assert.True(t, ok)
	assert.Equal(t, kratos.FlowRecovery, kind)

	_, ok = kratos.ParseFlowKind("logout")
	assert.False(t, ok)
	assert.Len(t, kratos.FlowKinds(), 5)
}
