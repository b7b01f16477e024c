package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"fmfc/common"
	"fmfc/fmf"
)

// WriteOptions control output document layout.
type WriteOptions struct {
	// Documents adds decoded archive entries to the output.
	Documents bool
	// Indent is number of spaces per nesting level, 2 when not set.
	Indent int
}

// skipped describes an archive entry which could not be decoded.
type skipped struct {
	Entry string `json:"entry" yaml:"entry"`
	Error string `json:"error" yaml:"error"`
}

func skippedEntries(data *fmf.Data) []skipped {
	out := make([]skipped, 0, len(data.Skipped))
	for _, e := range data.Skipped {
		out = append(out, skipped{Entry: e.Entry, Error: e.Err.Error()})
	}
	return out
}

// Write encodes parse result in requested format. Decoded documents keep
// archive structure and key order, they are listed in natural order of entry
// names.
func Write(w io.Writer, data *fmf.Data, format common.OutputFmt, opts WriteOptions) error {
	if opts.Indent <= 0 {
		opts.Indent = 2
	}
	switch format {
	case common.OutputFmtYaml:
		return writeYAML(w, data, opts)
	case common.OutputFmtJson:
		return writeJSON(w, data, opts)
	default:
		return fmt.Errorf("unsupported output format %s", format)
	}
}

func writeYAML(w io.Writer, data *fmf.Data, opts WriteOptions) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
	}
	encode := func(key string, v any) error {
		var n yaml.Node
		if err := n.Encode(v); err != nil {
			return fmt.Errorf("unable to encode %s: %w", key, err)
		}
		add(key, &n)
		return nil
	}

	if err := encode("summary", data.Summary()); err != nil {
		return err
	}
	if err := encode("players", data.Players); err != nil {
		return err
	}
	if err := encode("clubs", data.Clubs); err != nil {
		return err
	}
	if err := encode("competitions", data.Competitions); err != nil {
		return err
	}
	if len(data.Skipped) > 0 {
		if err := encode("skipped", skippedEntries(data)); err != nil {
			return err
		}
	}
	if opts.Documents {
		docs := &yaml.Node{Kind: yaml.MappingNode}
		for _, name := range data.DocumentNames() {
			docs.Content = append(docs.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}, yamlNode(data.Documents[name]))
		}
		add("documents", docs)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(opts.Indent)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}

// yamlNode converts document tree keeping key order. Repeated elements become
// sequences, empty elements are empty strings.
func yamlNode(n *fmf.Node) *yaml.Node {
	switch n.Kind() {
	case fmf.KindText:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.Text()}
	case fmf.KindNumber:
		v, _ := n.Int()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
	case fmf.KindMapping:
		out := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range n.Fields() {
			var value *yaml.Node
			if f.IsSequence() {
				value = &yaml.Node{Kind: yaml.SequenceNode}
				for _, c := range f.Nodes {
					value.Content = append(value.Content, yamlNode(c))
				}
			} else {
				value = yamlNode(f.Nodes[0])
			}
			out.Content = append(out.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key}, value)
		}
		return out
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ""}
	}
}

type jsonOutput struct {
	Summary      fmf.Summary       `json:"summary"`
	Players      []fmf.Player      `json:"players"`
	Clubs        []fmf.Club        `json:"clubs"`
	Competitions []fmf.Competition `json:"competitions"`
	Skipped      []skipped         `json:"skipped,omitempty"`
	Documents    jsonDocuments     `json:"documents,omitempty"`
}

type jsonDocument struct {
	name string
	node *fmf.Node
}

// jsonDocuments is an object of documents in the listed order.
type jsonDocuments []jsonDocument

func (docs jsonDocuments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := appendString(&buf, d.name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := appendNode(&buf, d.node); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func appendString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

func appendNode(buf *bytes.Buffer, n *fmf.Node) error {
	switch n.Kind() {
	case fmf.KindText:
		return appendString(buf, n.Text())
	case fmf.KindNumber:
		v, _ := n.Int()
		buf.WriteString(strconv.FormatInt(v, 10))
	case fmf.KindMapping:
		buf.WriteByte('{')
		for i, f := range n.Fields() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendString(buf, f.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if !f.IsSequence() {
				if err := appendNode(buf, f.Nodes[0]); err != nil {
					return err
				}
				continue
			}
			buf.WriteByte('[')
			for j, c := range f.Nodes {
				if j > 0 {
					buf.WriteByte(',')
				}
				if err := appendNode(buf, c); err != nil {
					return err
				}
			}
			buf.WriteByte(']')
		}
		buf.WriteByte('}')
	default:
		buf.WriteString(`""`)
	}
	return nil
}

func writeJSON(w io.Writer, data *fmf.Data, opts WriteOptions) error {
	out := jsonOutput{
		Summary:      data.Summary(),
		Players:      data.Players,
		Clubs:        data.Clubs,
		Competitions: data.Competitions,
	}
	if len(data.Skipped) > 0 {
		out.Skipped = skippedEntries(data)
	}
	if opts.Documents {
		for _, name := range data.DocumentNames() {
			out.Documents = append(out.Documents, jsonDocument{name: name, node: data.Documents[name]})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", strings.Repeat(" ", opts.Indent))
	return enc.Encode(out)
}
