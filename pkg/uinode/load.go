package uinode

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-authui/pkg/validation"
)

// LoadContainer reads a container (or flow) fixture from disk. Files ending in
// .yaml or .yml are converted to JSON first so both formats share one decoder.
func LoadContainer(path string) (Container, error) {
	data, err := ReadContainerDocument(path)
	if err != nil {
		return Container{}, err
	}
	return DecodeContainer(data)
}

// ReadContainerDocument returns the raw JSON for a fixture file.
func ReadContainerDocument(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("uinode: container path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("uinode: read container: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlToJSON(data)
	default:
		return data, nil
	}
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("uinode: parse yaml container: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("uinode: convert yaml container: %w", err)
	}
	return out, nil
}

// ValidateContainer checks a raw container document against the ui container
// contract before decoding. The returned error lists every issue found.
func ValidateContainer(data []byte) error {
	result := validation.ValidateContainer(data)
	if result.Valid {
		return nil
	}
	return &ContractError{Issues: result.Issues}
}

// ContractError reports a container that breaks the ui container contract.
type ContractError struct {
	Issues []validation.SchemaIssue
}

func (e *ContractError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "uinode: container contract violated"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Field != "" {
			parts = append(parts, issue.Field+": "+issue.Message)
			continue
		}
		parts = append(parts, issue.Message)
	}
	return "uinode: container contract violated: " + strings.Join(parts, "; ")
}
