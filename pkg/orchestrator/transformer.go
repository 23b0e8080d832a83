package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-authui/pkg/uinode"
)

// Transformer patches a container before it is rendered. Implementations must
// not mutate slices shared with the caller; CloneNodes gives them a private
// copy.
type Transformer interface {
	Transform(ctx context.Context, container *uinode.Container) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, container *uinode.Container) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, container *uinode.Container) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, container)
}

// Chain runs transformers in order and stops at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, container *uinode.Container) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, container); err != nil {
				return err
			}
		}
		return nil
	})
}

// JSONPresetTransformer applies declarative overrides loaded from a JSON file.
// The document shape supports container messages and per-node patches keyed
// by input name or element id:
//
//	{
//	  "messages": [{"id": 1080001, "type": "info", "text": "Welcome back"}],
//	  "nodes": {
//	    "identifier": {"label": "Work email", "autocomplete": "username"},
//	    "totp_qr": {"label": "Scan me"}
//	  }
//	}
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	Messages []uinode.Message        `json:"messages"`
	Nodes    map[string]jsonNodePatch `json:"nodes"`
	// Optional skips node patches whose target is absent, so one preset can
	// serve several flows.
	Optional bool `json:"optional"`
}

type jsonNodePatch struct {
	Label        string `json:"label"`
	Autocomplete string `json:"autocomplete"`
	Required     *bool  `json:"required"`
	Disabled     *bool  `json:"disabled"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the declarative patches onto the supplied container.
func (t *JSONPresetTransformer) Transform(ctx context.Context, container *uinode.Container) error {
	if container == nil {
		return errors.New("json preset transformer: container is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	CloneNodes(container)
	if len(t.document.Messages) > 0 {
		container.Messages = append(append([]uinode.Message(nil), container.Messages...), t.document.Messages...)
	}

	names := make([]string, 0, len(t.document.Nodes))
	for name := range t.document.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		idx := indexOfNode(container.Nodes, name)
		if idx < 0 {
			if t.document.Optional {
				continue
			}
			return fmt.Errorf("json preset transformer: node %q not found", name)
		}
		applyNodePatch(&container.Nodes[idx], t.document.Nodes[name])
	}
	return nil
}

// CloneNodes replaces the container's node slice with a private copy.
func CloneNodes(container *uinode.Container) {
	if container == nil || container.Nodes == nil {
		return
	}
	container.Nodes = append([]uinode.Node(nil), container.Nodes...)
}

func indexOfNode(nodes []uinode.Node, name string) int {
	for idx, node := range nodes {
		if node.Name() == name {
			return idx
		}
	}
	return -1
}

func applyNodePatch(node *uinode.Node, patch jsonNodePatch) {
	if patch.Label != "" {
		// No id: a translator must not override the preset text.
		node.Meta.Label = &uinode.Text{Text: patch.Label, Type: uinode.TextInfo}
	}

	input, ok := node.Attributes.(uinode.InputAttributes)
	if !ok {
		return
	}
	if patch.Autocomplete != "" {
		input.Autocomplete = patch.Autocomplete
	}
	if patch.Required != nil {
		input.Required = *patch.Required
	}
	if patch.Disabled != nil {
		input.Disabled = *patch.Disabled
	}
	node.Attributes = input
}
