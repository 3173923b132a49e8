// Package manifest reads preservation METS documents: namespace-aware path
// queries over the parsed tree, conversion of subtrees to nested maps for
// indexing, and removal of bulky characterization tool output.
package manifest

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/afero"
)

// Manifest is a parsed METS document.
type Manifest struct {
	doc *etree.Document
}

// Parse reads and parses the METS file at path.
func Parse(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parsing manifest %s: no root element", path)
	}
	return &Manifest{doc: doc}, nil
}

// Root returns the document's root element.
func (m *Manifest) Root() *etree.Element {
	return m.doc.Root()
}

// FindAll evaluates a slash-separated path from the root. Steps take the form
// "prefix:name" or "prefix:name[@ATTR='value']"; a step without a prefix
// matches elements in no namespace. Prefixes resolve through the canonical
// namespace map, not the prefixes the document happens to declare.
func (m *Manifest) FindAll(path string) []*etree.Element {
	return FindAll(m.Root(), path)
}

// FindFirst returns the first element matching path, or nil.
func (m *Manifest) FindFirst(path string) *etree.Element {
	return FindFirst(m.Root(), path)
}

// Text returns the text of the first element matching any of the given paths,
// trying them in order. Missing elements yield "".
func (m *Manifest) Text(paths ...string) string {
	return Text(m.Root(), paths...)
}

// FindAll evaluates path relative to start.
func FindAll(start *etree.Element, path string) []*etree.Element {
	steps, err := parsePath(path)
	if err != nil || start == nil {
		return nil
	}
	current := []*etree.Element{start}
	for _, step := range steps {
		var next []*etree.Element
		for _, el := range current {
			for _, child := range el.ChildElements() {
				if step.matches(child) {
					next = append(next, child)
				}
			}
		}
		current = next
	}
	return current
}

// FindFirst evaluates path relative to start and returns the first match.
func FindFirst(start *etree.Element, path string) *etree.Element {
	matches := FindAll(start, path)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// Text returns the text of the first element matching any path, or "".
func Text(start *etree.Element, paths ...string) string {
	for _, path := range paths {
		if el := FindFirst(start, path); el != nil {
			return strings.TrimSpace(el.Text())
		}
	}
	return ""
}

// Attr returns the value of the named attribute, resolving the attribute's
// namespace prefix against the canonical map. An empty ns matches unprefixed
// attributes.
func Attr(el *etree.Element, ns, name string) string {
	for _, attr := range el.Attr {
		if attr.Key != name {
			continue
		}
		if ns == "" && attr.Space == "" {
			return attr.Value
		}
		if attr.Space != "" && resolvePrefix(el, attr.Space) == ns {
			return attr.Value
		}
	}
	return ""
}

type pathStep struct {
	prefix    string
	name      string
	attrName  string
	attrValue string
}

func parsePath(path string) ([]pathStep, error) {
	parts := strings.Split(path, "/")
	steps := make([]pathStep, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("empty step in path %q", path)
		}
		step := pathStep{}
		if i := strings.Index(part, "["); i >= 0 {
			pred := strings.TrimSuffix(part[i+1:], "]")
			pred = strings.TrimPrefix(pred, "@")
			name, value, ok := strings.Cut(pred, "=")
			if !ok {
				return nil, fmt.Errorf("bad predicate in path step %q", part)
			}
			step.attrName = name
			step.attrValue = strings.Trim(value, "'\"")
			part = part[:i]
		}
		if prefix, name, ok := strings.Cut(part, ":"); ok {
			step.prefix = prefix
			step.name = name
		} else {
			step.name = part
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (s pathStep) matches(el *etree.Element) bool {
	if el.Tag != s.name {
		return false
	}
	want := nsmap[s.prefix] // "" for unprefixed steps
	if resolveNamespace(el) != want {
		return false
	}
	if s.attrName != "" && el.SelectAttrValue(s.attrName, "") != s.attrValue {
		return false
	}
	return true
}

// resolveNamespace returns the namespace URI governing el, honoring both
// prefixed names and default-namespace declarations on ancestors.
func resolveNamespace(el *etree.Element) string {
	if el.Space != "" {
		return resolvePrefix(el, el.Space)
	}
	for cur := el; cur != nil; cur = cur.Parent() {
		for _, attr := range cur.Attr {
			if attr.Space == "" && attr.Key == "xmlns" {
				return attr.Value
			}
		}
	}
	return ""
}

// resolvePrefix resolves a namespace prefix by walking xmlns declarations up
// from el.
func resolvePrefix(el *etree.Element, prefix string) string {
	for cur := el; cur != nil; cur = cur.Parent() {
		for _, attr := range cur.Attr {
			if attr.Space == "xmlns" && attr.Key == prefix {
				return attr.Value
			}
		}
	}
	return ""
}

// StripToolOutput empties every characterization-tool output element
// (premis objectCharacteristicsExtension). The embedded tool reports can grow
// far past what a search document should carry; the enclosing structure is
// kept so the document shape stays stable.
func (m *Manifest) StripToolOutput() int {
	nodes := m.FindAll("mets:amdSec/mets:techMD/mets:mdWrap/mets:xmlData/" +
		"premis:object/premis:objectCharacteristics/premis:objectCharacteristicsExtension")
	for _, el := range nodes {
		for _, child := range el.ChildElements() {
			el.RemoveChild(child)
		}
		el.SetText("")
	}
	return len(nodes)
}
