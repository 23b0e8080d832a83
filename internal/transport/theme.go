package transport

import (
	"fmt"
	"os"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-authui/pkg/render"
)

// DaisyTheme is the built-in theme. Its variants only switch the color
// scheme; class lists come from the renderer defaults.
func DaisyTheme() *theme.Manifest {
	return &theme.Manifest{
		Name:    "daisy",
		Version: "1.0.0",
		Tokens:  map[string]string{"color-scheme": "light"},
		Variants: map[string]theme.Variant{
			"light": {Tokens: map[string]string{"color-scheme": "light"}},
			"dark":  {Tokens: map[string]string{"color-scheme": "dark"}},
		},
	}
}

// LoadThemeManifest reads a YAML theme manifest from disk.
func LoadThemeManifest(path string) (*theme.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transport: read theme manifest: %w", err)
	}
	var manifest theme.Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("transport: parse theme manifest %s: %w", path, err)
	}
	return &manifest, nil
}

// NewThemeSelector registers the built-in theme and, when manifestPath is
// set, the manifest it points at.
func NewThemeSelector(manifestPath string) (*render.ManifestSelector, error) {
	selector, err := render.NewManifestSelector(DaisyTheme())
	if err != nil {
		return nil, err
	}
	if manifestPath == "" {
		return selector, nil
	}
	manifest, err := LoadThemeManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	if err := selector.Register(manifest); err != nil {
		return nil, fmt.Errorf("transport: register theme: %w", err)
	}
	return selector, nil
}
