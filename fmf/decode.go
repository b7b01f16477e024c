package fmf

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

var errNoRoot = errors.New("document has no root element")

// Decode converts XML text of a single archive entry into document tree. The
// returned root is a mapping with a single key - the root element name.
func Decode(name string, data []byte) (*Node, error) {
	if err := wellFormed(data); err != nil {
		return nil, &MalformedDocumentError{Entry: name, Err: err}
	}

	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charsetReader,
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &MalformedDocumentError{Entry: name, Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &MalformedDocumentError{Entry: name, Err: errNoRoot}
	}

	top := newMapping()
	top.add(root.Tag, convertElement(root))
	return top, nil
}

// wellFormed runs strict tokenizer over the whole input. DOM builder does not
// check that end tags match start tags and silently ignores everything after
// the first root element.
func wellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	depth, root := 0, false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 && root {
				line, _ := dec.InputPos()
				return fmt.Errorf("line %d: second root element <%s>", line, t.Name.Local)
			}
			depth++
			root = true
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				line, _ := dec.InputPos()
				return fmt.Errorf("line %d: content outside root element", line)
			}
		}
	}
	if !root {
		return errNoRoot
	}
	return nil
}

// charsetReader handles declared encodings. Archive reader already converted
// content with UTF-16 byte order marks, so declarations of unicode encodings
// are passed through as is.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	l := strings.ToLower(strings.TrimSpace(label))
	if strings.HasPrefix(l, "utf-16") || strings.HasPrefix(l, "utf16") ||
		strings.HasPrefix(l, "utf-32") || strings.HasPrefix(l, "utf32") {
		return input, nil
	}
	return charset.NewReaderLabel(label, input)
}

func convertElement(el *etree.Element) *Node {
	var (
		attrs    []etree.Attr
		children []*etree.Element
		text     strings.Builder
	)
	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		attrs = append(attrs, a)
	}
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			children = append(children, t)
		case *etree.CharData:
			text.WriteString(t.Data)
		}
	}
	value := strings.TrimSpace(text.String())

	if len(attrs) == 0 && len(children) == 0 {
		if len(value) == 0 {
			return emptyNode
		}
		return newText(value)
	}

	n := newMapping()
	for _, a := range attrs {
		// namespace prefix is kept so xml:id and id stay distinct
		n.add(AttrPrefix+a.FullKey(), scalar(a.Value))
	}
	for _, c := range children {
		n.add(c.Tag, convertElement(c))
	}
	if len(value) > 0 {
		n.add(TextKey, newText(value))
	}
	return n
}

// scalar returns the most specific representation of attribute value.
func scalar(raw string) *Node {
	if v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
		return newNumber(raw, v)
	}
	return newText(raw)
}
