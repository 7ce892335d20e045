package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/storyboard/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Document formats understood by Decode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFromPath infers the document format from a file name or URL path.
func FormatFromPath(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}

// Decode parses a raw scenario document. JSON numbers are kept as json.Number
// so large integers survive.
func Decode(data []byte, format string) (any, error) {
	var doc any
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: yaml: %v", domain.ErrLoadFailed, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: json: %v", domain.ErrLoadFailed, err)
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, fmt.Errorf("%w: json: trailing data after document", domain.ErrLoadFailed)
		}
	}
	return doc, nil
}

// CompileBytes decodes and compiles a raw document. Undecodable input
// compiles as an empty document and is reported as a warning.
func (c *Compiler) CompileBytes(data []byte, format string) (*domain.Graph, []Warning) {
	doc, err := Decode(data, format)
	if err != nil {
		g, warnings := c.Compile(nil)
		return g, append([]Warning{{Code: WarnDecodeFailed, Message: err.Error()}}, warnings...)
	}
	return c.Compile(doc)
}

// Title reads a document's display title without compiling it. It returns ""
// when the document cannot be decoded or names no title.
func Title(data []byte, format string) string {
	doc, err := Decode(data, format)
	if err != nil {
		return ""
	}
	root, ok := asMap(doc)
	if !ok {
		return ""
	}
	tc := textCoercer{locales: DefaultLocales}
	return first(root, []string{"title", "name"}, tc.Text)
}
