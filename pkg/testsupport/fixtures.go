package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-authui/pkg/uinode"
)

// MustLoadContainer loads a container fixture (JSON, YAML or a whole flow
// document), failing the test on error.
func MustLoadContainer(t *testing.T, path string) uinode.Container {
	t.Helper()

	container, err := uinode.LoadContainer(path)
	if err != nil {
		t.Fatalf("load container: %v", err)
	}
	return container
}

// MustDecodeContainer decodes an inline container document.
func MustDecodeContainer(t *testing.T, raw string) uinode.Container {
	t.Helper()

	container, err := uinode.DecodeContainer([]byte(raw))
	if err != nil {
		t.Fatalf("decode container: %v", err)
	}
	return container
}

// LoginContainer builds the canonical password login container: csrf token,
// identifier, password, submit button and one error message.
func LoginContainer() uinode.Container {
	return uinode.Container{
		Action: "/login",
		Method: "post",
		Nodes: []uinode.Node{
			{
				Type:  uinode.NodeInput,
				Group: uinode.GroupDefault,
				Attributes: uinode.InputAttributes{
					Name:  uinode.CSRFTokenName,
					Type:  uinode.InputHidden,
					Value: "csrf-123",
				},
			},
			{
				Type:  uinode.NodeInput,
				Group: uinode.GroupDefault,
				Attributes: uinode.InputAttributes{
					Name:     "identifier",
					Type:     uinode.InputEmail,
					Required: true,
				},
				Meta: uinode.Meta{Label: &uinode.Text{ID: 1070004, Text: "E-Mail", Type: uinode.TextInfo}},
			},
			{
				Type:  uinode.NodeInput,
				Group: uinode.GroupPassword,
				Attributes: uinode.InputAttributes{
					Name:         "password",
					Type:         uinode.InputPassword,
					Required:     true,
					Autocomplete: "Current-Password",
				},
				Meta: uinode.Meta{Label: &uinode.Text{ID: 1070001, Text: "Password", Type: uinode.TextInfo}},
			},
			{
				Type:  uinode.NodeInput,
				Group: uinode.GroupPassword,
				Attributes: uinode.InputAttributes{
					Name:  "method",
					Type:  uinode.InputSubmit,
					Value: "password",
				},
				Meta: uinode.Meta{Label: &uinode.Text{ID: 1010001, Text: "Sign in", Type: uinode.TextInfo}},
			},
		},
		Messages: []uinode.Message{
			{ID: 4000006, Text: "bad credentials", Type: uinode.TextError},
		},
	}
}

// WriteGolden writes arbitrary data to a golden file as indented JSON when
// UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	WriteMaybeGolden(t, path, payload)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
