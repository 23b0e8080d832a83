package render

import (
	"context"

	"github.com/goliatone/go-authui/pkg/uinode"
)

// Renderer converts a flow's ui container into a byte representation (HTML
// markup, terminal output, ...). Implementations must not mutate the container
// and must not fail on malformed node values; contract breaches are recorded on
// options.Report instead.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, container uinode.Container, options RenderOptions) ([]byte, error)
}
