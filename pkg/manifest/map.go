package manifest

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/clbanning/mxj/v2"
)

func init() {
	// Attributes convert to "@"-prefixed keys and element text to "#text",
	// the shape the index mappings were built around.
	mxj.SetAttrPrefix("@")
}

// ElementToMap serializes the subtree rooted at el and converts it to a nested
// map keyed by element name. Attributes appear as "@name" keys and mixed text
// as "#text". Repeated sibling elements convert to lists and single children
// to maps; the normalize package resolves that asymmetry before indexing.
func ElementToMap(el *etree.Element) (map[string]any, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing element %s: %w", el.Tag, err)
	}
	m, err := mxj.NewMapXml(data)
	if err != nil {
		return nil, fmt.Errorf("converting element %s to map: %w", el.Tag, err)
	}
	return map[string]any(m), nil
}

// RootToMap converts the whole manifest to a nested map.
func (m *Manifest) RootToMap() (map[string]any, error) {
	return ElementToMap(m.Root())
}
