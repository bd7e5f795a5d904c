// Package stubs reconciles annotation-processor-generated stub sources
// against decoded references.
//
// Annotation processing re-declares or references types purely as a
// mechanical artifact of code generation. A reference from a class file to
// the stub's own type, or to a sibling type emitted by the same
// generation pass, says nothing about external dependencies. This package
// parses stub sources and yields the set of declared type names (top
// level and lexically nested) to exclude from aggregate results.
package stubs

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/refscan/refscan/pkg/classname"
)

// Reconciler parses generated Java sources. It owns a tree-sitter parser
// and is not safe for concurrent use; create one per worker.
type Reconciler struct {
	parser *sitter.Parser
}

// New creates a reconciler with a Java grammar loaded.
func New() *Reconciler {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &Reconciler{parser: p}
}

// Close releases the underlying parser.
func (r *Reconciler) Close() {
	r.parser.Close()
}

// typeDeclarations are the Java grammar node types that declare a type.
var typeDeclarations = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

// DeclaredTypes returns the canonical names of every type a stub source
// declares, nested types spelled with the binary `$` separator.
func (r *Reconciler) DeclaredTypes(content []byte) ([]string, error) {
	tree, err := r.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse stub source: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	pkg := packageName(root, content)

	var declared []string
	collectTypes(root, content, pkg, "", &declared)
	return declared, nil
}

// ExclusionSet folds many stub sources into one exclusion set.
func (r *Reconciler) ExclusionSet(sources [][]byte) (map[string]struct{}, error) {
	excluded := make(map[string]struct{})
	for _, src := range sources {
		names, err := r.DeclaredTypes(src)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			excluded[n] = struct{}{}
		}
	}
	return excluded, nil
}

func packageName(root *sitter.Node, src []byte) string {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "package_declaration" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			id := child.NamedChild(j)
			if id.Type() == "scoped_identifier" || id.Type() == "identifier" {
				return id.Content(src)
			}
		}
	}
	return ""
}

// collectTypes walks declarations depth-first, tracking the enclosing
// type so nested declarations get their binary names.
func collectTypes(node *sitter.Node, src []byte, pkg, outer string, out *[]string) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if !typeDeclarations[child.Type()] {
			collectTypes(child, src, pkg, outer, out)
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		nested := classname.Nested(outer, nameNode.Content(src))
		full := nested
		if pkg != "" {
			full = pkg + "." + nested
		}
		*out = append(*out, full)
		collectTypes(child, src, pkg, nested, out)
	}
}
