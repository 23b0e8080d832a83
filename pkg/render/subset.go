package render

import (
	"strings"

	"github.com/goliatone/go-authui/pkg/uinode"
)

// GroupSubset restricts rendering to some authentication methods. Groups
// lists the groups to keep (empty keeps all); Exclude removes groups. The
// default group is always kept because every form needs it.
type GroupSubset struct {
	Groups  []string
	Exclude []string
}

// Empty reports whether the subset filters nothing.
func (s GroupSubset) Empty() bool {
	return len(normaliseTokens(s.Groups)) == 0 && len(normaliseTokens(s.Exclude)) == 0
}

// ApplySubset returns a copy of container without the nodes filtered out by
// subset. The input container is not modified.
func ApplySubset(container uinode.Container, subset GroupSubset) uinode.Container {
	if subset.Empty() {
		return container
	}

	include := normaliseTokens(subset.Groups)
	exclude := normaliseTokens(subset.Exclude)

	out := container
	out.Nodes = make([]uinode.Node, 0, len(container.Nodes))
	for _, node := range container.Nodes {
		if keepGroup(node.Group, include, exclude) {
			out.Nodes = append(out.Nodes, node)
		}
	}
	return out
}

func keepGroup(group uinode.Group, include, exclude map[string]struct{}) bool {
	if group == uinode.GroupDefault {
		return true
	}
	token := normaliseToken(string(group))
	if _, ok := exclude[token]; ok {
		return false
	}
	if len(include) == 0 {
		return true
	}
	_, ok := include[token]
	return ok
}

func normaliseTokens(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if token := normaliseToken(part); token != "" {
				out[token] = struct{}{}
			}
		}
	}
	return out
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
