package category

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML category file. The document is a mapping from
// category name to either a sequence of extensions or a comma-separated
// string. Categories keep their document order:
//
//	Images: [".jpg", ".png"]
//	Code: ".go, .py"
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML parses the category file format described on LoadFile.
func ParseYAML(data []byte) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode category file: %w", err)
	}

	t := &Table{}

	// An empty document has no content node.
	if len(doc.Content) == 0 {
		return t, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: category file must be a mapping (line %d)", ErrInvalidCategory, root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]

		if keyNode.Value == "" {
			return nil, fmt.Errorf("%w: empty name (line %d)", ErrInvalidCategory, keyNode.Line)
		}

		exts, err := decodeExtensions(valueNode)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", keyNode.Value, err)
		}

		t.Set(keyNode.Value, exts)
	}

	return t, nil
}

func decodeExtensions(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		// "Name:" with no value lists no extensions; "Name: ''" claims
		// extensionless files.
		if node.Tag == "!!null" {
			return nil, nil
		}
		return ParseExtensions(node.Value), nil
	case yaml.SequenceNode:
		var exts []string
		if err := node.Decode(&exts); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidCategory, node.Line, err)
		}
		return exts, nil
	default:
		return nil, fmt.Errorf("%w: line %d: expected a list or a comma-separated string", ErrInvalidCategory, node.Line)
	}
}
