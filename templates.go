package authui

import (
	"io/fs"

	vanilla "github.com/goliatone/go-authui/pkg/renderers/vanilla"
)

// EmbeddedTemplates exposes the built-in page templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// EmbeddedAssets exposes the built-in stylesheet.
func EmbeddedAssets() fs.FS {
	return vanilla.AssetsFS()
}
