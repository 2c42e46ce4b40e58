// Package yaml loads harvest manifests.
//
// Manifests are JSON or YAML documents of the form
//
//	modules:
//	  <category name>:
//	    directory: <path segment>
//	    sub_modules:
//	      <sub-item name>:
//	        module_name: <artifact name>
//	        url: <page url>
//
// JSON documents are read with encoding/json and converted into the same
// node tree YAML produces, so both keep the order of categories and
// sub-items.
package yaml

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fwojciec/harvest"
	"gopkg.in/yaml.v3"
)

// LoadManifest parses a manifest. It returns ECONFIG when the document
// cannot be parsed or the top-level "modules" key is absent or not a
// mapping. Other shape problems are left for Manifest.Problems to report.
func LoadManifest(r io.Reader) (*harvest.Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, harvest.Errorf(harvest.ECONFIG, "read manifest: %v", err)
	}

	root, err := parse(data)
	if err != nil {
		return nil, err
	}
	if root.Kind != yaml.MappingNode {
		return nil, harvest.Errorf(harvest.ECONFIG, "manifest must be a mapping")
	}

	modules := lookup(root, "modules")
	if modules == nil {
		return nil, harvest.Errorf(harvest.ECONFIG, "manifest is missing required key %q", "modules")
	}
	if modules.Kind != yaml.MappingNode {
		return nil, harvest.Errorf(harvest.ECONFIG, "manifest key %q must be a mapping", "modules")
	}

	m := &harvest.Manifest{}
	for i := 0; i+1 < len(modules.Content); i += 2 {
		m.Categories = append(m.Categories, loadCategory(modules.Content[i].Value, modules.Content[i+1]))
	}
	return m, nil
}

// parse returns the root node of a JSON or YAML document.
func parse(data []byte) (*yaml.Node, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 {
		return nil, harvest.Errorf(harvest.ECONFIG, "manifest is empty")
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		root, err := jsonNode(dec)
		if err == nil {
			if _, terr := dec.Token(); terr != io.EOF {
				err = errors.New("unexpected data after the top-level object")
			}
		}
		if err != nil {
			return nil, harvest.Errorf(harvest.ECONFIG, "parse manifest: %v", err)
		}
		return root, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, harvest.Errorf(harvest.ECONFIG, "parse manifest: %v", err)
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0], nil
	}
	return &doc, nil
}

// jsonNode reads the next JSON value from dec as a YAML node. Object keys
// keep their document order.
func jsonNode(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	} else if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if t == '[' {
			n = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		}
		for dec.More() {
			if n.Kind == yaml.MappingNode {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content, scalarNode("!!str", fmt.Sprint(key)))
			}
			v, err := jsonNode(dec)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, v)
		}
		if _, err := dec.Token(); err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		} else if err != nil {
			return nil, err
		}
		return n, nil
	case string:
		return scalarNode("!!str", t), nil
	case json.Number:
		return scalarNode("!!float", t.String()), nil
	case bool:
		return scalarNode("!!bool", fmt.Sprint(t)), nil
	default:
		return scalarNode("!!null", ""), nil
	}
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// LoadManifestFile parses the manifest at path.
func LoadManifestFile(path string) (*harvest.Manifest, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, harvest.Errorf(harvest.ECONFIG, "manifest %s not found", path)
	} else if err != nil {
		return nil, harvest.Errorf(harvest.ECONFIG, "open manifest: %v", err)
	}
	defer f.Close()

	return LoadManifest(f)
}

func loadCategory(name string, node *yaml.Node) *harvest.Category {
	c := &harvest.Category{Name: name}
	if node.Kind != yaml.MappingNode {
		return c
	}

	c.Directory = scalar(node, "directory")

	subs := lookup(node, "sub_modules")
	if subs == nil || subs.Kind != yaml.MappingNode {
		return c
	}
	for i := 0; i+1 < len(subs.Content); i += 2 {
		s := &harvest.SubItem{Name: subs.Content[i].Value}
		if v := subs.Content[i+1]; v.Kind == yaml.MappingNode {
			s.ModuleName = scalar(v, "module_name")
			s.SourceURL = scalar(v, "url")
		}
		c.SubItems = append(c.SubItems, s)
	}
	return c
}

// lookup returns the value node for key in a mapping node.
func lookup(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func scalar(node *yaml.Node, key string) string {
	v := lookup(node, key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return ""
	}
	return v.Value
}
