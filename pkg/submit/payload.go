package submit

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-authui/pkg/kratos"
	"github.com/goliatone/go-authui/pkg/uinode"
)

// MethodField is the form field that names the submitted method.
const MethodField = "method"

// MethodPassword is the password strategy.
const MethodPassword = "password"

var (
	// ErrMissingMethod is returned when the submission names no method.
	ErrMissingMethod = errors.New("submit: method is required")

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// passwordLogin is the login body for the password method.
type passwordLogin struct {
	Method     string `json:"method" validate:"required,eq=password"`
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
	CSRFToken  string `json:"csrf_token,omitempty"`
}

// passwordRegistration is the registration body for the password method.
type passwordRegistration struct {
	Method    string         `json:"method" validate:"required,eq=password"`
	Password  string         `json:"password" validate:"required"`
	Traits    map[string]any `json:"traits" validate:"required"`
	CSRFToken string         `json:"csrf_token,omitempty"`
}

// ValidationError lists the fields that failed payload validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "submit: invalid payload: " + strings.Join(e.Fields, ", ")
}

// BuildPayload maps submitted form values onto the update body for the flow.
// The password method builds the typed login or registration body. Every
// other method sends all submitted fields with method set; dotted names such
// as traits.email become nested objects.
func BuildPayload(kind kratos.FlowKind, values url.Values) (map[string]any, error) {
	method := strings.TrimSpace(values.Get(MethodField))
	if method == "" {
		return nil, ErrMissingMethod
	}

	if method == MethodPassword {
		switch kind {
		case kratos.FlowLogin:
			body := passwordLogin{
				Method:     method,
				Identifier: values.Get("identifier"),
				Password:   values.Get("password"),
				CSRFToken:  values.Get(uinode.CSRFTokenName),
			}
			if err := check(body); err != nil {
				return nil, err
			}
			return structToMap(body.Method, map[string]any{
				"identifier": body.Identifier,
				"password":   body.Password,
			}, body.CSRFToken), nil
		case kratos.FlowRegistration:
			nested := nest(values)
			traits, _ := nested["traits"].(map[string]any)
			body := passwordRegistration{
				Method:    method,
				Password:  values.Get("password"),
				Traits:    traits,
				CSRFToken: values.Get(uinode.CSRFTokenName),
			}
			if err := check(body); err != nil {
				return nil, err
			}
			return structToMap(body.Method, map[string]any{
				"password": body.Password,
				"traits":   body.Traits,
			}, body.CSRFToken), nil
		}
	}

	payload := nest(values)
	payload[MethodField] = method
	return payload, nil
}

func structToMap(method string, fields map[string]any, csrf string) map[string]any {
	fields[MethodField] = method
	if csrf != "" {
		fields[uinode.CSRFTokenName] = csrf
	}
	return fields
}

func check(body any) error {
	err := validate.Struct(body)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("submit: validate payload: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, strings.ToLower(fe.Field()))
	}
	sort.Strings(out.Fields)
	return out
}

// nest turns dotted form names into nested objects. Single values become
// strings, repeated values stay lists. A name that is both a leaf and a
// parent keeps the object.
func nest(values url.Values) map[string]any {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]any, len(values))
	for _, name := range names {
		vals := values[name]
		if len(vals) == 0 {
			continue
		}
		var value any = vals[0]
		if len(vals) > 1 {
			value = append([]string(nil), vals...)
		}

		segments := strings.Split(name, ".")
		target := out
		for _, segment := range segments[:len(segments)-1] {
			child, ok := target[segment].(map[string]any)
			if !ok {
				child = make(map[string]any)
				target[segment] = child
			}
			target = child
		}
		leaf := segments[len(segments)-1]
		if _, isObject := target[leaf].(map[string]any); isObject {
			continue
		}
		target[leaf] = value
	}
	return out
}
