package document

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse reads a document. Empty input yields an empty mapping; any other root
// must be a mapping.
func Parse(id string, data []byte) (*Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewMapping(id), nil
	}

	var raw yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", id, err)
	}

	root := &raw
	if root.Kind == 0 {
		return NewMapping(id), nil
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return NewMapping(id), nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document %s: root must be a mapping, found line %d holding a %s", id, root.Line, yamlKind(root.Kind))
	}
	return fromYAML(id, root)
}

func fromYAML(id string, y *yaml.Node) (*Node, error) {
	switch y.Kind {
	case yaml.AliasNode:
		if y.Alias == nil {
			return nil, fmt.Errorf("%s: dangling alias at line %d", id, y.Line)
		}
		return fromYAML(id, y.Alias)
	case yaml.ScalarNode:
		n := NewScalar(y.Value)
		n.id = id
		return n, nil
	case yaml.SequenceNode:
		n := &Node{kind: SequenceKind, id: id}
		for i, item := range y.Content {
			child, err := fromYAML(fmt.Sprintf("%s[%d]", id, i), item)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, child)
		}
		return n, nil
	case yaml.MappingNode:
		n := NewMapping(id)
		for i := 0; i+1 < len(y.Content); i += 2 {
			keyNode, valueNode := y.Content[i], y.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%s: non-scalar key at line %d", id, keyNode.Line)
			}
			if n.Has(keyNode.Value) {
				return nil, fmt.Errorf("%s: duplicate key %q at line %d", id, keyNode.Value, keyNode.Line)
			}
			child, err := fromYAML(childID(id, keyNode.Value), valueNode)
			if err != nil {
				return nil, err
			}
			n.Set(keyNode.Value, child)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%s: unsupported node at line %d", id, y.Line)
	}
}

// Marshal renders the node in the document text format.
func (n *Node) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if n.IsMapping() && n.Len() == 0 {
		return nil, nil
	}
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n.toYAML()); err != nil {
		return nil, fmt.Errorf("failed to render document %s: %w", n.id, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String renders the node, returning the error text on failure.
func (n *Node) String() string {
	out, err := n.Marshal()
	if err != nil {
		return err.Error()
	}
	return string(out)
}

func (n *Node) toYAML() *yaml.Node {
	switch n.kind {
	case ScalarKind:
		y := &yaml.Node{Kind: yaml.ScalarNode, Value: n.value}
		if strings.Contains(n.value, "\n") {
			y.Style = yaml.LiteralStyle
		}
		return y
	case SequenceKind:
		y := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range n.items {
			y.Content = append(y.Content, item.toYAML())
		}
		return y
	default:
		y := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range n.keys {
			y.Content = append(y.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, n.children[k].toYAML())
		}
		return y
	}
}

func yamlKind(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "node"
	}
}
