package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dukex/stepwise/pkg/persistence"
	"gopkg.in/yaml.v3"
)

const jsonExt = ".json"

// Looked up in this order; the first existing file wins.
var definitionExts = []string{jsonExt, ".yaml", ".yml"}

// WorkflowRepository handles workflow definition file operations.
type WorkflowRepository struct {
	root string // File system root holding <name>.<ext> files
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

// GetByName reads the definition stored under name and returns it as JSON.
// YAML files are converted so callers only ever see JSON.
func (wr *WorkflowRepository) GetByName(_ context.Context, name string) ([]byte, error) {
	err := persistence.ValidateName(name)
	if err != nil {
		return nil, err
	}

	for _, ext := range definitionExts {
		filePath := wr.path(name, ext)

		body, err := os.ReadFile(filePath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("failed to read workflow %s: %w", name, err)
		}

		if ext == jsonExt {
			return body, nil
		}

		return yamlToJSON(name, body)
	}

	return nil, persistence.NewWorkflowError("GetByName", name, persistence.ErrWorkflowNotFound)
}

// Names lists the stored workflow names, sorted and deduplicated across extensions.
func (wr *WorkflowRepository) Names(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(wr.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make([]string, 0), nil
		}

		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if !isDefinitionExt(ext) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ext)
		if seen[name] {
			continue
		}

		seen[name] = true
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

// Save writes the definition as <root>/<name>.json, replacing any previous version.
func (wr *WorkflowRepository) Save(ctx context.Context, name string, definition []byte) error {
	err := persistence.ValidateName(name)
	if err != nil {
		return err
	}

	err = os.MkdirAll(wr.root, 0750)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	err = wr.removeAll(name, ".yaml", ".yml")
	if err != nil {
		return err
	}

	err = os.WriteFile(wr.path(name, jsonExt), definition, 0600)
	if err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", name, err)
	}

	return nil
}

// Delete removes every file stored under name.
func (wr *WorkflowRepository) Delete(ctx context.Context, name string) error {
	_, err := wr.GetByName(ctx, name)
	if err != nil {
		return err
	}

	return wr.removeAll(name, definitionExts...)
}

func (wr *WorkflowRepository) removeAll(name string, exts ...string) error {
	for _, ext := range exts {
		err := os.Remove(wr.path(name, ext))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete workflow %s: %w", name, err)
		}
	}

	return nil
}

func (wr *WorkflowRepository) path(name, ext string) string {
	return filepath.Clean(filepath.Join(wr.root, name+ext))
}

func isDefinitionExt(ext string) bool {
	for _, known := range definitionExts {
		if ext == known {
			return true
		}
	}

	return false
}

func yamlToJSON(name string, body []byte) ([]byte, error) {
	var document yaml.Node

	err := yaml.Unmarshal(body, &document)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByName", name,
			fmt.Errorf("%w: %w", persistence.ErrMalformedDefinition, err))
	}

	var buf bytes.Buffer

	err = writeJSON(&buf, &document)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByName", name,
			fmt.Errorf("%w: %w", persistence.ErrMalformedDefinition, err))
	}

	return buf.Bytes(), nil
}

// writeJSON emits node as JSON, keeping mapping keys in document order.
func writeJSON(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case 0:
		buf.WriteString("null")

		return nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")

			return nil
		}

		return writeJSON(buf, node.Content[0])
	case yaml.AliasNode:
		return writeJSON(buf, node.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')

		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}

			key, err := json.Marshal(node.Content[i].Value)
			if err != nil {
				return err
			}

			buf.Write(key)
			buf.WriteByte(':')

			err = writeJSON(buf, node.Content[i+1])
			if err != nil {
				return err
			}
		}

		buf.WriteByte('}')

		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')

		for i, item := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}

			err := writeJSON(buf, item)
			if err != nil {
				return err
			}
		}

		buf.WriteByte(']')

		return nil
	default:
		var value any

		err := node.Decode(&value)
		if err != nil {
			return err
		}

		out, err := json.Marshal(value)
		if err != nil {
			return err
		}

		buf.Write(out)

		return nil
	}
}
