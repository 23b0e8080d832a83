package tui

import (
	"net/url"

	"github.com/goliatone/go-authui/pkg/render"
	"github.com/goliatone/go-authui/pkg/uinode"
)

// State tracks collected values and the messages the identity API attached
// to the container. It is intentionally small; the prompt walk lives in the
// renderer.
type State struct {
	values   url.Values
	messages render.MessageMapping
}

// NewState seeds the state with the container's field and form messages.
func NewState(container uinode.Container) *State {
	return &State{
		values:   url.Values{},
		messages: render.MapMessages(container),
	}
}

// Values returns the collected values (mutable).
func (s *State) Values() url.Values {
	if s == nil {
		return nil
	}
	return s.values
}

// Set records the value submitted for name, replacing earlier ones.
func (s *State) Set(name, value string) {
	if s == nil || name == "" {
		return
	}
	s.values.Set(name, value)
}

// ErrorsFor returns the messages attached to the named input.
func (s *State) ErrorsFor(name string) []string {
	if s == nil || len(s.messages.Fields) == 0 {
		return nil
	}
	return s.messages.Fields[name]
}
