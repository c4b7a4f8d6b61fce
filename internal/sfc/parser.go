// Package sfc splits single-file components into script, template and style
// sub-resources and compiles templates to render functions.
package sfc

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Block is one top-level section of a component file.
type Block struct {
	Type    string
	Content string
	Attrs   map[string]string
	// Offset is the byte offset of Content in the source.
	Offset int
}

// Attr returns the value of a block attribute and whether it is present.
func (b *Block) Attr(name string) (string, bool) {
	if b == nil {
		return "", false
	}
	v, ok := b.Attrs[name]
	return v, ok
}

// Descriptor is the parsed form of a component file.
type Descriptor struct {
	Filename    string
	Script      *Block
	ScriptSetup *Block
	Template    *Block
	Styles      []Block
	Custom      []Block
}

// Parser turns component source into a Descriptor.
type Parser interface {
	Parse(src, filename string) (*Descriptor, error)
}

// HTMLParser finds top-level blocks with the x/net/html tokenizer. Block
// contents are sliced from the source unmodified.
type HTMLParser struct{}

func (HTMLParser) Parse(src, filename string) (*Descriptor, error) {
	d := &Descriptor{Filename: filename}
	z := html.NewTokenizer(strings.NewReader(src))

	offset := 0
	var open *Block
	depth := 0
	for {
		tt := z.Next()
		raw := len(z.Raw())
		start := offset
		offset += raw

		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				if open != nil {
					return nil, fmt.Errorf("%s: unclosed <%s> block", filename, open.Type)
				}
				return d, nil
			}
			return nil, fmt.Errorf("%s: %w", filename, z.Err())

		case html.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if open != nil {
				if tag == open.Type {
					depth++
				}
				continue
			}
			open = &Block{Type: tag, Attrs: readAttrs(z, hasAttr), Offset: offset}
			depth = 1

		case html.EndTagToken:
			if open == nil {
				continue
			}
			name, _ := z.TagName()
			if string(name) != open.Type {
				continue
			}
			depth--
			if depth > 0 {
				continue
			}
			open.Content = src[open.Offset:start]
			if err := d.add(*open); err != nil {
				return nil, err
			}
			open = nil

		case html.SelfClosingTagToken:
			if open != nil {
				continue
			}
			name, hasAttr := z.TagName()
			b := Block{Type: string(name), Attrs: readAttrs(z, hasAttr), Offset: offset}
			if err := d.add(b); err != nil {
				return nil, err
			}
		}
	}
}

func (d *Descriptor) add(b Block) error {
	switch b.Type {
	case "script":
		if _, setup := b.Attrs["setup"]; setup {
			if d.ScriptSetup != nil {
				return fmt.Errorf("%s: multiple <script setup> blocks", d.Filename)
			}
			d.ScriptSetup = &b
			return nil
		}
		if d.Script != nil {
			return fmt.Errorf("%s: multiple <script> blocks", d.Filename)
		}
		d.Script = &b
	case "template":
		if d.Template != nil {
			return fmt.Errorf("%s: multiple <template> blocks", d.Filename)
		}
		d.Template = &b
	case "style":
		d.Styles = append(d.Styles, b)
	default:
		d.Custom = append(d.Custom, b)
	}
	return nil
}

func readAttrs(z *html.Tokenizer, more bool) map[string]string {
	attrs := map[string]string{}
	for more {
		var k, v []byte
		k, v, more = z.TagAttr()
		attrs[string(k)] = string(v)
	}
	return attrs
}
