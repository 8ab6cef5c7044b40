// Package concordance holds the declarative field map: for every canonical
// field and schema version group, an ordered list of candidate document
// locations. The map is the structural replacement for per-year conditional
// lookups: all inter-year and inter-vendor schema drift is absorbed here,
// not in the extraction code.
//
// The map is built once at process start and is read-only afterwards, so
// concurrent workers share it without synchronization.
package concordance

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// SemanticType declares how a raw matched value must be coerced.
type SemanticType string

const (
	TypeString  SemanticType = "string"
	TypeInt     SemanticType = "int"
	TypeMoney   SemanticType = "money" // whole currency units, int64
	TypeBool    SemanticType = "bool"
	TypeDate    SemanticType = "date"
	TypePercent SemanticType = "percent"
)

// Version groups understood by the map. Documents bucket into one of these
// by schema-year conventions; VersionDefault is the best-effort fallback
// for documents with unusable version metadata.
const (
	VersionV2016 = "v2016" // 2016+ conventions
	VersionV2013 = "v2013" // 2013-2015
	VersionV2009 = "v2009" // pre-2013 legacy element names

	VersionDefault = VersionV2016
)

// VersionGroups lists the closed set of supported groups, newest first.
var VersionGroups = []string{VersionV2016, VersionV2013, VersionV2009}

// UnknownFieldError means a canonical field was never registered for any
// version group. This is a mapping-definition bug, fatal at startup.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("concordance: unknown field %q", e.Field)
}

// UnknownVersionGroupError means the version group has no entries at all,
// so the document belongs to an unsupported era. Callers may skip such documents rather than
// abort.
type UnknownVersionGroupError struct {
	Group string
}

func (e *UnknownVersionGroupError) Error() string {
	return fmt.Sprintf("concordance: unknown version group %q", e.Group)
}

// Candidate is one location to try for a field. Absolute candidates (the
// declared form starts with "//") are compiled etree paths evaluated from
// the document root. Relative candidates are local-name chains evaluated
// by descendant walk from a context element, which keeps them namespace-
// and nesting-tolerant the way vendor documents require.
type Candidate struct {
	Raw      string
	path     etree.Path // valid when absolute
	absolute bool
	segments []string // valid when relative
}

// Absolute reports whether the candidate is evaluated from the document root.
func (c *Candidate) Absolute() bool { return c.absolute }

// Path returns the compiled path of an absolute candidate.
func (c *Candidate) Path() etree.Path { return c.path }

// Segments returns the local-name chain of a relative candidate.
func (c *Candidate) Segments() []string { return c.segments }

func compileCandidate(raw string) (Candidate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Candidate{}, fmt.Errorf("empty location expression")
	}
	if strings.HasPrefix(raw, "//") {
		p, err := etree.CompilePath(raw)
		if err != nil {
			return Candidate{}, fmt.Errorf("compile path %q: %w", raw, err)
		}
		return Candidate{Raw: raw, path: p, absolute: true}, nil
	}
	segs := strings.Split(strings.Trim(raw, "/"), "/")
	for _, s := range segs {
		if s == "" {
			return Candidate{}, fmt.Errorf("bad relative location %q", raw)
		}
	}
	return Candidate{Raw: raw, segments: segs}, nil
}

// Entry is the concordance row for one canonical field.
type Entry struct {
	Name       string
	Type       SemanticType
	candidates map[string][]Candidate // version group -> ordered locations
}

// Map is the complete read-only field map.
type Map struct {
	entries map[string]*Entry
	order   []string        // declaration order, for deterministic iteration
	groups  map[string]bool // groups with at least one entry
}

// Lookup returns the ordered candidate locations for a field under a
// version group. The two error kinds are distinguished deliberately: an
// unknown field is a definition bug, an unknown group is an unsupported
// document era.
func (m *Map) Lookup(field, group string) ([]Candidate, error) {
	e, ok := m.entries[field]
	if !ok {
		return nil, &UnknownFieldError{Field: field}
	}
	if !m.groups[group] {
		return nil, &UnknownVersionGroupError{Group: group}
	}
	return e.candidates[group], nil
}

// Type returns the declared semantic type of a field.
func (m *Map) Type(field string) (SemanticType, error) {
	e, ok := m.entries[field]
	if !ok {
		return "", &UnknownFieldError{Field: field}
	}
	return e.Type, nil
}

// Fields returns all canonical field names in declaration order.
func (m *Map) Fields() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Has reports whether the field is registered.
func (m *Map) Has(field string) bool {
	_, ok := m.entries[field]
	return ok
}

func (m *Map) add(e *Entry) error {
	if _, dup := m.entries[e.Name]; dup {
		return fmt.Errorf("duplicate field %q", e.Name)
	}
	for g, cands := range e.candidates {
		if len(cands) == 0 {
			return fmt.Errorf("field %q has no candidates for group %q", e.Name, g)
		}
		m.groups[g] = true
	}
	m.entries[e.Name] = e
	m.order = append(m.order, e.Name)
	return nil
}

// appendCandidates adds extra locations after the built-in ones. Used by
// the master concordance CSV overlay; unknown fields are ignored by the
// caller, bad paths are not.
func (m *Map) appendCandidates(field, group, raw string) error {
	e, ok := m.entries[field]
	if !ok {
		return &UnknownFieldError{Field: field}
	}
	c, err := compileCandidate(raw)
	if err != nil {
		return err
	}
	for _, existing := range e.candidates[group] {
		if existing.Raw == c.Raw {
			return nil // already declared
		}
	}
	e.candidates[group] = append(e.candidates[group], c)
	return nil
}
