package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-authui/pkg/render"
	"github.com/goliatone/go-authui/pkg/uinode"
)

var fieldValidator = validator.New()

// Renderer implements render.Renderer for terminal-driven sessions. Instead
// of markup it walks the container's nodes, prompts for every input the
// chosen method needs and emits the collected values.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) *Renderer {
	r := &Renderer{
		driver:       NewSurveyDriver(nil),
		outputFormat: OutputFormatJSON,
		theme:        DefaultTheme,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the content type of the serialized values.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for the container and serializes the collected values.
func (r *Renderer) Render(ctx context.Context, container uinode.Container, options render.RenderOptions) ([]byte, error) {
	values, err := r.Collect(ctx, container, options)
	if err != nil {
		return nil, err
	}
	return r.serialize(values)
}

// Collect prompts for the container and returns the values a browser would
// have posted: hidden inputs keep their value, the chosen submit button adds
// its name and value, and every visible input of the chosen method group is
// asked for.
func (r *Renderer) Collect(ctx context.Context, container uinode.Container, options render.RenderOptions) (url.Values, error) {
	container = render.ApplySubset(container, options.Subset)
	container = render.LocalizeContainer(container, options)
	state := NewState(container)

	for _, msg := range container.Messages {
		if err := r.driver.Info(ctx, r.prefix(msg.Type)+msg.Text); err != nil {
			return nil, err
		}
	}

	chosen, err := r.chooseMethod(ctx, container.Nodes)
	if err != nil {
		return nil, err
	}
	group := container.Nodes[chosen].Group

	for idx, node := range container.Nodes {
		if node.Group != uinode.GroupDefault && node.Group != group {
			continue
		}
		if err := r.visit(ctx, state, node, idx == chosen); err != nil {
			return nil, err
		}
	}
	return state.Values(), nil
}

func (r *Renderer) visit(ctx context.Context, state *State, node uinode.Node, chosen bool) error {
	switch attrs := node.Attributes.(type) {
	case uinode.InputAttributes:
		return r.prompt(ctx, state, node, attrs, chosen)
	case uinode.TextAttributes:
		return r.driver.Info(ctx, r.prefix(attrs.Text.Type)+attrs.Text.Text)
	case uinode.AnchorAttributes:
		return r.driver.Info(ctx, r.theme.InfoPrefix+attrs.Title.Text+": "+attrs.Href)
	case uinode.ImageAttributes:
		caption := "Image"
		if node.Meta.Label != nil {
			caption = node.Meta.Label.Text
		}
		return r.driver.Info(ctx, r.theme.InfoPrefix+caption+": "+attrs.Src)
	default:
		// Scripts only make sense in a browser.
		return nil
	}
}

func (r *Renderer) prompt(ctx context.Context, state *State, node uinode.Node, attrs uinode.InputAttributes, chosen bool) error {
	switch attrs.Type {
	case uinode.InputHidden:
		state.Set(attrs.Name, uinode.ScalarString(attrs.Value))
		return nil
	case uinode.InputSubmit, uinode.InputButton:
		if chosen {
			state.Set(attrs.Name, uinode.StringValue(attrs.Value))
		}
		return nil
	}
	if attrs.Disabled || attrs.Name == "" {
		return nil
	}

	for _, msg := range state.ErrorsFor(attrs.Name) {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
			return err
		}
	}

	label := uinode.Label(node.Meta, attrs.Type)
	switch attrs.Type {
	case uinode.InputCheckbox:
		yes, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: uinode.BoolValue(attrs.Value)})
		if err != nil {
			return err
		}
		state.Set(attrs.Name, fmt.Sprint(yes))
	case uinode.InputPassword:
		value, err := r.driver.Password(ctx, InputConfig{Message: label, Validator: passwordValidator(attrs)})
		if err != nil {
			return err
		}
		state.Set(attrs.Name, value)
	default:
		value, err := r.driver.Input(ctx, InputConfig{
			Message:   label,
			Default:   uinode.ScalarString(attrs.Value),
			Validator: InputValidator(attrs),
		})
		if err != nil {
			return err
		}
		state.Set(attrs.Name, value)
	}
	return nil
}

// chooseMethod returns the index of the submit node to use. A single
// candidate is picked without asking.
func (r *Renderer) chooseMethod(ctx context.Context, nodes []uinode.Node) (int, error) {
	var candidates []int
	for idx, node := range nodes {
		attrs, ok := node.Input()
		if !ok || attrs.Name == "" || attrs.Disabled {
			continue
		}
		if attrs.Type == uinode.InputSubmit || attrs.Type == uinode.InputButton {
			candidates = append(candidates, idx)
		}
	}
	switch len(candidates) {
	case 0:
		return 0, ErrNoMethod
	case 1:
		return candidates[0], nil
	}

	options := make([]string, len(candidates))
	seen := make(map[string]int, len(candidates))
	for i, idx := range candidates {
		node := nodes[idx]
		attrs, _ := node.Input()
		options[i] = uinode.Label(node.Meta, attrs.Type)
		seen[options[i]]++
	}
	for i, idx := range candidates {
		if seen[options[i]] > 1 {
			options[i] += " (" + nodes[idx].Group.Legend() + ")"
		}
	}

	picked, err := r.driver.Select(ctx, SelectConfig{Message: "Continue with", Options: options})
	if err != nil {
		return 0, err
	}
	if picked < 0 || picked >= len(candidates) {
		return 0, fmt.Errorf("tui: invalid method choice %d", picked)
	}
	return candidates[picked], nil
}

func (r *Renderer) prefix(kind uinode.TextType) string {
	switch kind {
	case uinode.TextError:
		return r.theme.ErrorPrefix
	case uinode.TextSuccess:
		return r.theme.SuccessPrefix
	default:
		return r.theme.InfoPrefix
	}
}

func (r *Renderer) serialize(values url.Values) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(values.Encode()), nil
	case OutputFormatPrettyText:
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		var b strings.Builder
		for _, name := range names {
			value := values.Get(name)
			if name == "password" || strings.HasSuffix(name, ".password") {
				value = "********"
			}
			fmt.Fprintf(&b, "%s: %s\n", name, value)
		}
		return []byte(b.String()), nil
	default:
		flat := make(map[string]any, len(values))
		for name, vals := range values {
			if len(vals) == 1 {
				flat[name] = vals[0]
				continue
			}
			flat[name] = vals
		}
		out, err := json.Marshal(flat)
		if err != nil {
			return nil, fmt.Errorf("tui: encode values: %w", err)
		}
		return out, nil
	}
}

// InputValidator returns the client-side checks a browser would apply to the
// input: required, maxlength, pattern and the type's value format.
func InputValidator(attrs uinode.InputAttributes) func(string) error {
	var pattern *regexp.Regexp
	if attrs.Pattern != "" {
		// Browser patterns may use syntax RE2 lacks; those are left to the
		// identity API.
		if re, err := regexp.Compile("^(?:" + attrs.Pattern + ")$"); err == nil {
			pattern = re
		}
	}

	return func(value string) error {
		if value == "" {
			if attrs.Required {
				return fmt.Errorf("%s is required", attrs.Name)
			}
			return nil
		}
		if attrs.Maxlength > 0 && utf8.RuneCountInString(value) > attrs.Maxlength {
			return fmt.Errorf("at most %d characters", attrs.Maxlength)
		}
		if pattern != nil && !pattern.MatchString(value) {
			return errors.New("value does not match the expected format")
		}
		switch attrs.Type {
		case uinode.InputEmail:
			return checkVar(value, "email", "a valid email address is required")
		case uinode.InputURL:
			return checkVar(value, "url", "a valid URL is required")
		case uinode.InputNumber:
			return checkVar(value, "number", "a number is required")
		case uinode.InputDate:
			if _, err := time.Parse("2006-01-02", value); err != nil {
				return errors.New("use the YYYY-MM-DD format")
			}
		case uinode.InputDatetimeLocal:
			if _, err := time.Parse("2006-01-02T15:04", value); err != nil {
				return errors.New("use the YYYY-MM-DDTHH:MM format")
			}
		}
		return nil
	}
}

func checkVar(value, tag, message string) error {
	if err := fieldValidator.Var(value, tag); err != nil {
		return errors.New(message)
	}
	return nil
}

// passwordValidator requires a value and, for new passwords, the strength
// rule the HTML form carries as its pattern.
func passwordValidator(attrs uinode.InputAttributes) func(string) error {
	return func(value string) error {
		if value == "" {
			if attrs.Required {
				return fmt.Errorf("%s is required", attrs.Name)
			}
			return nil
		}
		if strings.EqualFold(attrs.Autocomplete, "new-password") {
			return CheckPasswordRule(value)
		}
		return nil
	}
}

// CheckPasswordRule enforces at least 8 characters with a digit, a lowercase
// and an uppercase letter.
func CheckPasswordRule(value string) error {
	var digit, lower, upper bool
	for _, r := range value {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	if utf8.RuneCountInString(value) < 8 || !digit || !lower || !upper {
		return ErrPasswordRule
	}
	return nil
}
