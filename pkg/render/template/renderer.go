package template

import (
	"errors"
	"io"
)

// ErrFilterExists is returned by RegisterFilter when the name is taken.
// pongo2 filters are process wide, so a second renderer registering the same
// helper sees this error and can ignore it.
var ErrFilterExists = errors.New("template: filter already registered")

// TemplateRenderer renders named page templates. Renderers accept it so
// deployments can swap the page layout engine.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	// Has reports whether name resolves to a loadable template.
	Has(name string) bool
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	// GlobalContext merges data into the values every template sees. Page
	// data wins over globals with the same key.
	GlobalContext(data map[string]any) error
}
