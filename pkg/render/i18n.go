package render

import (
	"errors"
	"strconv"
	"strings"

	"github.com/goliatone/go-authui/pkg/uinode"
)

// ErrMissingTranslator is passed to the missing-translation handler when no
// translator is configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides what to show when a key cannot be
// translated. args[0] is a map carrying the original text under "default".
type MissingTranslationHandler func(locale, key string, args []any, err error) string

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	if len(args) > 0 {
		if m, ok := args[0].(map[string]any); ok {
			if fallback, ok := m["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}

// MessageKey is the translation key for an identity API message id, for
// example "ui.1010001".
func MessageKey(id int64) string {
	return "ui." + strconv.FormatInt(id, 10)
}

// LocalizeContainer returns a copy of container whose labels and messages are
// translated by message id. Texts without a translation keep their original
// wording. Without a translator the container is returned unchanged.
func LocalizeContainer(container uinode.Container, opts RenderOptions) uinode.Container {
	if opts.Translator == nil {
		return container
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	tr := func(text uinode.Text) uinode.Text {
		if text.ID == 0 {
			return text
		}
		text.Text = translate(opts.Locale, MessageKey(text.ID), text.Text, opts.Translator, onMissing)
		return text
	}

	out := container
	out.Messages = translateTexts(container.Messages, tr)
	out.Nodes = make([]uinode.Node, len(container.Nodes))
	for idx, node := range container.Nodes {
		if node.Meta.Label != nil {
			label := tr(*node.Meta.Label)
			node.Meta.Label = &label
		}
		node.Messages = translateTexts(node.Messages, tr)
		switch attrs := node.Attributes.(type) {
		case uinode.TextAttributes:
			attrs.Text = tr(attrs.Text)
			node.Attributes = attrs
		case uinode.AnchorAttributes:
			attrs.Title = tr(attrs.Title)
			node.Attributes = attrs
		}
		out.Nodes[idx] = node
	}
	return out
}

func translateTexts(in []uinode.Text, tr func(uinode.Text) uinode.Text) []uinode.Text {
	if in == nil {
		return nil
	}
	out := make([]uinode.Text, len(in))
	for idx, text := range in {
		out[idx] = tr(text)
	}
	return out
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	args := []any{map[string]any{"default": fallback}}
	if t == nil {
		return onMissing(locale, key, args, ErrMissingTranslator)
	}
	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, args, err)
}

// TemplateI18nFuncs returns helpers for page templates: translate(locale,
// key, default) and message(locale, id, default).
func TemplateI18nFuncs(t Translator, onMissing MissingTranslationHandler) map[string]any {
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	return map[string]any{
		"translate": func(locale, key, fallback string) string {
			return translate(locale, strings.TrimSpace(key), fallback, t, onMissing)
		},
		"message": func(locale string, id int64, fallback string) string {
			return translate(locale, MessageKey(id), fallback, t, onMissing)
		},
	}
}
