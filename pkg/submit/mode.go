package submit

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-authui/pkg/render"
)

// Mode selects how forms reach the identity API.
type Mode = render.Transport

const (
	// ModePost lets the browser post straight to the flow action.
	ModePost Mode = render.TransportPost
	// ModeAsync intercepts the submit in the page and routes it through
	// this server.
	ModeAsync Mode = render.TransportAsync
)

// ParseMode accepts "post" or "async" in any case. Empty means post.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ModePost):
		return ModePost, nil
	case string(ModeAsync):
		return ModeAsync, nil
	default:
		return "", fmt.Errorf("submit: unknown mode %q", raw)
	}
}

// Options returns render options wiring the forms of flow for mode.
func Options(mode Mode, flow render.FlowRef, base render.RenderOptions) render.RenderOptions {
	opts := base
	opts.Transport = mode
	if mode == ModeAsync {
		opts.Flow = flow
	}
	return opts
}
