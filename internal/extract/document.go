// Package extract implements the concordance-driven extraction engine:
// schema version resolution, ordered-fallback path evaluation, type
// coercion, and record assembly for the filing and donation-schedule
// entities.
package extract

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// ParseDocument reads one e-filed return into an element tree. The reader
// is permissive and charset-tolerant: vendor documents occasionally
// declare legacy encodings or carry minor structural sloppiness that
// should not cost us the whole filing.
func ParseDocument(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel

	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, errors.New("parse XML: document has no root element")
	}
	return doc, nil
}

// findDescendants returns all descendants of el with the given local name,
// in document order. Matching ignores namespace prefixes: schema years
// disagree on prefixing but not on local names.
func findDescendants(el *etree.Element, name string) []*etree.Element {
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, ch := range e.ChildElements() {
			if ch.Tag == name {
				out = append(out, ch)
			}
			walk(ch)
		}
	}
	walk(el)
	return out
}

// firstDescendant returns the first document-order descendant with the
// given local name, or nil.
func firstDescendant(el *etree.Element, name string) *etree.Element {
	var found *etree.Element
	var walk func(e *etree.Element) bool
	walk = func(e *etree.Element) bool {
		for _, ch := range e.ChildElements() {
			if ch.Tag == name {
				found = ch
				return true
			}
			if walk(ch) {
				return true
			}
		}
		return false
	}
	walk(el)
	return found
}
