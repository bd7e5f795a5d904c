// Package descriptor resolves JVM type descriptors and generic signatures
// into the class names they denote.
//
// Field and method descriptors follow the compact grammar of JVMS §4.3
// (primitive codes, `L<name>;` object types, `[` array prefixes). Generic
// signatures (JVMS §4.7.9.1) extend that grammar with type parameters,
// parameterized and nested types, wildcards, and type variables. In every
// case the resolver emits only real class names: primitives and array
// depth contribute nothing, and type variable names are never emitted.
//
// All entry points are pure functions over their input string.
package descriptor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/refscan/refscan/pkg/classname"
)

// ErrMalformed reports a descriptor or signature that does not conform to
// the grammar. It is narrower than a whole-file decode failure; callers
// may drop the offending attribute's contribution and continue.
var ErrMalformed = errors.New("malformed descriptor")

// Field resolves a field descriptor to the class names it references.
// A primitive descriptor yields an empty result.
func Field(desc string) ([]string, error) {
	p := &parser{s: desc}
	if err := p.fieldType(); err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("trailing input")
	}
	return p.names, nil
}

// Method resolves a method descriptor of the form (<params>)<return>.
// Every parameter type and the return type contribute references.
func Method(desc string) ([]string, error) {
	p := &parser{s: desc}
	if !p.consume('(') {
		return nil, p.errorf("expected '('")
	}
	for !p.peekIs(')') {
		if p.done() {
			return nil, p.errorf("unterminated parameter list")
		}
		if err := p.fieldType(); err != nil {
			return nil, err
		}
	}
	p.consume(')')
	if err := p.returnType(); err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("trailing input")
	}
	return p.names, nil
}

// Return resolves a return descriptor: a field descriptor or `V`. Annotation
// class-valued elements are encoded this way.
func Return(desc string) ([]string, error) {
	p := &parser{s: desc}
	if err := p.returnType(); err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("trailing input")
	}
	return p.names, nil
}

// Signature resolves a generic class, method, or field signature. The kind
// is detected from the shape of the input: an optional leading type
// parameter section, then either a method parameter list or a run of
// reference type signatures (superclass plus superinterfaces for a class
// signature, a single type for a field signature).
func Signature(sig string) ([]string, error) {
	p := &parser{s: sig}
	if p.peekIs('<') {
		if err := p.typeParams(); err != nil {
			return nil, err
		}
	}
	if p.peekIs('(') {
		if err := p.methodRest(); err != nil {
			return nil, err
		}
	} else {
		// Class signature: superclass followed by superinterfaces.
		// A plain field signature is the one-element case of the same loop.
		if err := p.referenceType(); err != nil {
			return nil, err
		}
		for !p.done() {
			if err := p.referenceType(); err != nil {
				return nil, err
			}
		}
	}
	if !p.done() {
		return nil, p.errorf("trailing input")
	}
	return p.names, nil
}

type parser struct {
	s     string
	pos   int
	names []string
}

func (p *parser) done() bool { return p.pos >= len(p.s) }

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) peekIs(c byte) bool { return !p.done() && p.s[p.pos] == c }

func (p *parser) consume(c byte) bool {
	if p.peekIs(c) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s at offset %d in %q", ErrMalformed, msg, p.pos, p.s)
}

func (p *parser) emit(internal string) {
	p.names = append(p.names, classname.Normalize(internal))
}

func isPrimitive(c byte) bool {
	switch c {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return true
	}
	return false
}

// fieldType parses BaseType | ObjectType | ArrayType. Array depth is
// consumed but contributes no reference; only the element type counts.
func (p *parser) fieldType() error {
	for p.consume('[') {
	}
	c := p.peek()
	switch {
	case isPrimitive(c):
		p.pos++
		return nil
	case c == 'L':
		return p.objectType()
	default:
		return p.errorf("expected type, got %q", c)
	}
}

func (p *parser) returnType() error {
	if p.consume('V') {
		return nil
	}
	return p.fieldType()
}

// objectType parses L<internal-name>; without generic type arguments.
func (p *parser) objectType() error {
	p.consume('L')
	start := p.pos
	for !p.done() && p.s[p.pos] != ';' {
		p.pos++
	}
	if p.done() {
		return p.errorf("unterminated object type")
	}
	name := p.s[start:p.pos]
	p.pos++ // ';'
	if name == "" {
		return p.errorf("empty class name")
	}
	p.emit(name)
	return nil
}

// identifier consumes a signature identifier, which runs until one of the
// grammar's delimiter characters.
func (p *parser) identifier() (string, error) {
	start := p.pos
	for !p.done() && !strings.ContainsRune(".;[/<>:", rune(p.s[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("expected identifier")
	}
	return p.s[start:p.pos], nil
}

// typeParams parses <Identifier:ClassBound InterfaceBound*...>. Bounds are
// reference type signatures and contribute their class names; the type
// parameter names themselves never do.
func (p *parser) typeParams() error {
	p.consume('<')
	for !p.peekIs('>') {
		if p.done() {
			return p.errorf("unterminated type parameters")
		}
		if _, err := p.identifier(); err != nil {
			return err
		}
		if !p.consume(':') {
			return p.errorf("expected ':' after type parameter")
		}
		// Class bound may be empty (interface-only bounds follow).
		if !p.peekIs(':') && !p.peekIs('>') {
			if err := p.referenceType(); err != nil {
				return err
			}
		}
		for p.consume(':') {
			if err := p.referenceType(); err != nil {
				return err
			}
		}
	}
	p.consume('>')
	return nil
}

func (p *parser) methodRest() error {
	p.consume('(')
	for !p.peekIs(')') {
		if p.done() {
			return p.errorf("unterminated parameter list")
		}
		if err := p.typeSignature(); err != nil {
			return err
		}
	}
	p.consume(')')
	if !p.consume('V') {
		if err := p.typeSignature(); err != nil {
			return err
		}
	}
	for p.consume('^') {
		if err := p.referenceType(); err != nil {
			return err
		}
	}
	return nil
}

// typeSignature parses JavaTypeSignature: a base type or a reference type.
func (p *parser) typeSignature() error {
	if isPrimitive(p.peek()) {
		p.pos++
		return nil
	}
	return p.referenceType()
}

// referenceType parses ClassTypeSignature, TypeVariableSignature, or
// ArrayTypeSignature.
func (p *parser) referenceType() error {
	switch p.peek() {
	case 'L':
		return p.classType()
	case 'T':
		return p.typeVariable()
	case '[':
		for p.consume('[') {
		}
		return p.typeSignature()
	default:
		return p.errorf("expected reference type, got %q", p.peek())
	}
}

// typeVariable parses T<name>; and emits nothing: a type variable resolves
// to whatever its declaration's bound contributed when the bound was parsed.
func (p *parser) typeVariable() error {
	p.consume('T')
	if _, err := p.identifier(); err != nil {
		return err
	}
	if !p.consume(';') {
		return p.errorf("unterminated type variable")
	}
	return nil
}

// classType parses a possibly parameterized, possibly nested class type
// signature. For Lcom/ex/Outer<TT;>.Inner; both com.ex.Outer and the
// nested binary name com.ex.Outer$Inner are emitted.
func (p *parser) classType() error {
	p.consume('L')
	var parts []string
	for {
		id, err := p.identifier()
		if err != nil {
			return err
		}
		parts = append(parts, id)
		if !p.consume('/') {
			break
		}
	}
	name := strings.Join(parts, "/")
	p.emit(name)
	if p.peekIs('<') {
		if err := p.typeArgs(); err != nil {
			return err
		}
	}
	for p.consume('.') {
		id, err := p.identifier()
		if err != nil {
			return err
		}
		name = name + "$" + id
		p.emit(name)
		if p.peekIs('<') {
			if err := p.typeArgs(); err != nil {
				return err
			}
		}
	}
	if !p.consume(';') {
		return p.errorf("unterminated class type")
	}
	return nil
}

// typeArgs parses <TypeArgument+> where each argument is `*` or an
// optionally variance-prefixed reference type.
func (p *parser) typeArgs() error {
	p.consume('<')
	for !p.peekIs('>') {
		if p.done() {
			return p.errorf("unterminated type arguments")
		}
		if p.consume('*') {
			continue
		}
		if p.peekIs('+') || p.peekIs('-') {
			p.pos++
		}
		if err := p.referenceType(); err != nil {
			return err
		}
	}
	p.consume('>')
	return nil
}
