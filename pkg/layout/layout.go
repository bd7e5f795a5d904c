// Package layout extracts fully-qualified class references from UI layout
// descriptors.
//
// Two sources count as references: element tags that are themselves
// qualified class names (custom views), and attribute values that pass a
// conservative class-shape heuristic. The heuristic requires an FQCN
// shape (at least one dot, every segment a valid identifier); attributes
// whose local name is known to carry classes (class, name, context, or
// anything ending in Class) need nothing more, while all other attributes
// additionally need a lowercase-initial first segment and an
// uppercase-initial, not-all-caps last segment. That keeps
// com.example.CustomView and rejects dotted constants such as
// android.intent.action.MAIN.
package layout

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/refscan/refscan/pkg/classname"
)

// ErrMalformed reports an XML parse failure. Layout failures never abort
// class-file analysis for the same batch; that policy lives with callers.
var ErrMalformed = errors.New("malformed layout")

// Extract parses XML content and returns the sorted, deduplicated class
// names it references. It performs no filesystem access.
func Extract(content []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	refs := make(map[string]struct{})
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if classname.IsQualified(start.Name.Local) {
			refs[start.Name.Local] = struct{}{}
		}
		for _, attr := range start.Attr {
			if isClassValued(attr.Name.Local, attr.Value) {
				refs[attr.Value] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(refs))
	for name := range refs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// classAttrNames are attribute local names that carry class references by
// convention, regardless of value casing.
var classAttrNames = map[string]bool{
	"class":   true,
	"name":    true,
	"context": true,
}

func isClassValued(attrName, value string) bool {
	if !classname.IsQualified(value) {
		return false
	}
	if classAttrNames[attrName] || strings.HasSuffix(attrName, "Class") {
		return true
	}
	segs := strings.Split(value, ".")
	first, last := segs[0], segs[len(segs)-1]
	return startsLower(first) && startsUpper(last) && last != strings.ToUpper(last)
}

func startsLower(s string) bool {
	for _, r := range s {
		return unicode.IsLower(r)
	}
	return false
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
