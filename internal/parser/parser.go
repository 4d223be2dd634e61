// Package parser splits Markdown files into YAML frontmatter and body, and
// renders them back in a stable key order.
package parser

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/readlog/internal/apperr"
)

const delim = "---"

// KeyOrder is the order known frontmatter keys are written in. Unknown keys
// follow, sorted alphabetically.
var KeyOrder = []string{"title", "author", "finished", "coverImage", "audiobook", "favorite"}

// TextKeys are always read as their source text, even when YAML would type
// the value as a number: `title: 007` stays "007", never 7.
var TextKeys = []string{"title", "author"}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
}

// Parse separates YAML frontmatter (between leading --- delimiters) from the
// Markdown body. A file without frontmatter yields a nil map and the whole
// content as body. Frontmatter that is not valid YAML, or not a mapping, is
// a validation error: the file is never silently treated as body-only.
func Parse(data []byte) (*Result, error) {
	trimmed := bytes.TrimLeft(data, "\ufeff\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return &Result{Body: string(data)}, nil
	}

	rest := trimmed[len(delim):]
	var yamlBlock, afterDelim []byte
	if bytes.HasPrefix(rest, []byte("\n"+delim)) || bytes.HasPrefix(rest, []byte("\r\n"+delim)) {
		// Empty frontmatter block.
		idx := bytes.Index(rest, []byte(delim))
		afterDelim = rest[idx+len(delim):]
	} else {
		idx := bytes.Index(rest, []byte("\n"+delim))
		if idx < 0 {
			return nil, fmt.Errorf("parser: %w: frontmatter is not closed", apperr.ErrValidation)
		}
		yamlBlock = rest[:idx]
		afterDelim = rest[idx+1+len(delim):]
	}
	body := strings.TrimLeft(string(afterDelim), "\r\n")

	var doc yaml.Node
	if err := yaml.Unmarshal(yamlBlock, &doc); err != nil {
		return nil, fmt.Errorf("parser: %w: invalid frontmatter: %v", apperr.ErrValidation, err)
	}
	fm := map[string]any{}
	if len(doc.Content) > 0 {
		if err := doc.Content[0].Decode(&fm); err != nil {
			return nil, fmt.Errorf("parser: %w: invalid frontmatter: %v", apperr.ErrValidation, err)
		}
		if fm == nil {
			fm = map[string]any{}
		}
		keepText(doc.Content[0], fm)
	}

	return &Result{Frontmatter: fm, Body: body}, nil
}

// Render serializes frontmatter and body into a Markdown document. Keys are
// emitted in KeyOrder first, then the remaining keys sorted, so repeated
// writes of the same data are byte-identical.
func Render(fm map[string]any, body string) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range orderedKeys(fm) {
		var val yaml.Node
		if err := val.Encode(fm[key]); err != nil {
			return nil, fmt.Errorf("parser: encode %q: %w", key, err)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, &val)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	if len(doc.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
		}
	}
	buf.WriteString(delim + "\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

func keepText(mapping *yaml.Node, fm map[string]any) {
	if mapping.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k, v := mapping.Content[i], mapping.Content[i+1]
		if v.Kind != yaml.ScalarNode || !slices.Contains(TextKeys, k.Value) {
			continue
		}
		switch v.ShortTag() {
		case "!!int", "!!float":
			fm[k.Value] = v.Value
		}
	}
}

func orderedKeys(fm map[string]any) []string {
	known := make(map[string]struct{}, len(KeyOrder))
	keys := make([]string, 0, len(fm))
	for _, k := range KeyOrder {
		known[k] = struct{}{}
		if _, ok := fm[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range fm {
		if _, ok := known[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
