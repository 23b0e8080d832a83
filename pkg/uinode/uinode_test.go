package uinode

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeContainer_FlowDocument(t *testing.T) {
	container, err := LoadContainer(filepath.Join("testdata", "login_flow.json"))
	if err != nil {
		t.Fatalf("load container: %v", err)
	}

	if container.Method != "POST" {
		t.Fatalf("method = %q", container.Method)
	}
	if len(container.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(container.Nodes))
	}
	if got := container.CSRFToken(); got != "tok-123" {
		t.Fatalf("csrf token = %q", got)
	}

	password, ok := container.Nodes[2].Input()
	if !ok {
		t.Fatalf("expected input attributes, got %T", container.Nodes[2].Attributes)
	}
	want := InputAttributes{
		Name:         "password",
		Type:         InputPassword,
		Required:     true,
		Autocomplete: "current-password",
	}
	if diff := cmp.Diff(want, password, cmp.AllowUnexported(InputAttributes{})); diff != "" {
		t.Fatalf("password attributes mismatch (-want +got):\n%s", diff)
	}

	if len(container.Messages) != 1 || container.Messages[0].Type != TextError {
		t.Fatalf("unexpected messages: %#v", container.Messages)
	}
}

func TestDecodeContainer_YAMLVariants(t *testing.T) {
	container, err := LoadContainer(filepath.Join("testdata", "settings_container.yaml"))
	if err != nil {
		t.Fatalf("load container: %v", err)
	}

	var kinds []NodeType
	for _, node := range container.Nodes {
		kinds = append(kinds, node.Attributes.NodeType())
	}
	wantKinds := []NodeType{NodeInput, NodeInput, NodeImage, NodeText, NodeAnchor, NodeScript}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("node kinds mismatch (-want +got):\n%s", diff)
	}

	img := container.Nodes[2].Attributes.(ImageAttributes)
	if img.Width != 256 || img.Src == "" {
		t.Fatalf("unexpected image attributes: %#v", img)
	}
	script := container.Nodes[5].Attributes.(ScriptAttributes)
	if !script.Async || script.Nonce != "n1" || script.Type != "text/javascript" {
		t.Fatalf("unexpected script attributes: %#v", script)
	}
	if got := container.Groups(); !cmp.Equal(got, []Group{GroupDefault, GroupProfile, GroupTOTP, GroupWebAuthn}) {
		t.Fatalf("groups = %v", got)
	}
}

func TestDecodeContainer_UnknownNodeType(t *testing.T) {
	raw := []byte(`{"action":"/x","method":"POST","nodes":[{"type":"select","group":"default","attributes":{"node_type":"select"}}]}`)
	_, err := DecodeContainer(raw)
	if !errors.Is(err, ErrUnknownNodeType) {
		t.Fatalf("expected ErrUnknownNodeType, got %v", err)
	}
}

func TestDecodeContainer_UnknownInputTypeKeepsRawName(t *testing.T) {
	raw := []byte(`{"action":"/x","method":"POST","nodes":[{"type":"input","group":"default","attributes":{"node_type":"input","name":"color","type":"color"}}]}`)
	container, err := DecodeContainer(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	attrs, _ := container.Nodes[0].Input()
	if attrs.Type.Valid() {
		t.Fatalf("expected unknown input type, got %v", attrs.Type)
	}
	if attrs.TypeName() != "color" {
		t.Fatalf("type name = %q", attrs.TypeName())
	}
}

func TestDecodeContainer_NumbersKeepTheirText(t *testing.T) {
	raw := []byte(`{"action":"/x","method":"POST","nodes":[{"type":"input","group":"default","attributes":{"node_type":"input","name":"age","type":"number","value":5}}]}`)
	container, err := DecodeContainer(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	attrs, _ := container.Nodes[0].Input()
	if got := ScalarString(attrs.Value); got != "5" {
		t.Fatalf("scalar value = %q, want 5", got)
	}
}

func TestNode_MarshalRoundTrip(t *testing.T) {
	container, err := LoadContainer(filepath.Join("testdata", "settings_container.yaml"))
	if err != nil {
		t.Fatalf("load container: %v", err)
	}
	raw, err := json.Marshal(container)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := DecodeContainer(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(container, again, cmp.AllowUnexported(InputAttributes{})); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestScalarString(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "x", "x"},
		{"number", json.Number("5"), "5"},
		{"float", 2.5, "2.5"},
		{"bool", true, "true"},
		{"array", []any{json.Number("1"), json.Number("2")}, "[1, 2]"},
		{"array of strings", []any{"a", "b"}, `["a", "b"]`},
		{"null", nil, ""},
		{"object", map[string]any{"a": 1}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScalarString(tc.value); got != tc.want {
				t.Fatalf("ScalarString(%#v) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestBoolValue_OnlyLiteralTrue(t *testing.T) {
	if !BoolValue(true) {
		t.Fatalf("expected literal true to be checked")
	}
	for _, v := range []any{"true", json.Number("1"), false, nil} {
		if BoolValue(v) {
			t.Fatalf("expected %#v to be unchecked", v)
		}
	}
}

func TestStringValue(t *testing.T) {
	if StringValue("password") != "password" {
		t.Fatalf("expected string passthrough")
	}
	if StringValue(json.Number("3")) != "" || StringValue(true) != "" {
		t.Fatalf("expected non-strings to render empty")
	}
}

func TestLabel_FallsBackToTypeName(t *testing.T) {
	if got := Label(Meta{}, InputDatetimeLocal); got != "DatetimeLocal" {
		t.Fatalf("fallback label = %q", got)
	}
	if got := Label(Meta{Label: &Text{Text: "E-Mail"}}, InputEmail); got != "E-Mail" {
		t.Fatalf("label = %q", got)
	}
}

func TestParseInputType(t *testing.T) {
	for _, typ := range InputTypes() {
		parsed, ok := ParseInputType(typ.String())
		if !ok || parsed != typ {
			t.Fatalf("ParseInputType(%q) = %v, %v", typ.String(), parsed, ok)
		}
	}
	if _, ok := ParseInputType("range"); ok {
		t.Fatalf("expected range to be unknown")
	}
	if typ, _ := ParseInputType("DATETIME-LOCAL"); typ != InputDatetimeLocal {
		t.Fatalf("expected case-insensitive parse")
	}
}

func TestPartition(t *testing.T) {
	node := func(group Group, name string) Node {
		return Node{Type: NodeInput, Group: group, Attributes: InputAttributes{Name: name, Type: InputText}}
	}
	nodes := []Node{
		node(GroupDefault, "d1"),
		node(GroupPassword, "p1"),
		node(GroupDefault, "d2"),
		node(GroupPassword, "p2"),
		node(GroupOIDC, "o1"),
		node(GroupPassword, "p3"),
	}

	common, runs := Partition(nodes)

	names := func(in []Node) []string {
		out := make([]string, 0, len(in))
		for _, n := range in {
			out = append(out, n.Name())
		}
		return out
	}
	if diff := cmp.Diff([]string{"d1", "d2"}, names(common)); diff != "" {
		t.Fatalf("common mismatch (-want +got):\n%s", diff)
	}

	var got [][]string
	for _, run := range runs {
		got = append(got, names(run))
	}
	want := [][]string{{"p1", "p2"}, {"o1"}, {"p3"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("runs mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupLegend(t *testing.T) {
	cases := map[Group]string{
		GroupPassword:        "Password",
		GroupOIDC:            "OIDC",
		GroupProfile:         "Profile",
		GroupCode:            "Code",
		GroupTOTP:            "TOTP",
		GroupLookupSecret:    "Recovery",
		GroupWebAuthn:        "Web Authentication",
		GroupPasskey:         "Passkey",
		GroupCaptcha:         "Captcha",
		GroupSAML:            "SAML",
		GroupDefault:         "",
		GroupIdentifierFirst: "",
		Group("custom"):      "",
	}
	for group, want := range cases {
		if got := group.Legend(); got != want {
			t.Fatalf("%s legend = %q, want %q", group, got, want)
		}
	}
}

func TestValidateContainer(t *testing.T) {
	raw, err := ReadContainerDocument(filepath.Join("testdata", "settings_container.yaml"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := ValidateContainer(raw); err != nil {
		t.Fatalf("validate: %v", err)
	}

	err = ValidateContainer([]byte(`{"method":"POST","nodes":[]}`))
	var contractErr *ContractError
	if !errors.As(err, &contractErr) || len(contractErr.Issues) == 0 {
		t.Fatalf("expected contract error, got %v", err)
	}
}
