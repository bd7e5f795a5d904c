package classfile

import (
	"fmt"

	"github.com/refscan/refscan/pkg/descriptor"
)

// parseAttributes decodes one attributes section (class, field, or
// method). Each attribute's payload is parsed through its own sub-reader
// so an unknown kind is skipped by length and a malformed known kind
// cannot desynchronize the outer cursor.
func (d *decoder) parseAttributes() error {
	count := int(d.r.u2("attribute count"))
	for i := 0; i < count; i++ {
		nameIdx := d.r.u2("attribute name")
		length := int(d.r.u4("attribute length"))
		if d.r.err != nil {
			return d.r.err
		}
		name, err := d.pool.utf8At(nameIdx)
		if err != nil {
			return err
		}
		payload := d.r.bytes(length, "attribute payload")
		if d.r.err != nil {
			return d.r.err
		}
		if err := d.parseAttribute(name, &reader{buf: payload}); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) parseAttribute(name string, r *reader) error {
	switch name {
	case "Exceptions":
		return d.parseExceptions(r)
	case "Signature":
		return d.parseSignature(r)
	case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
		return d.parseAnnotations(r)
	case "RuntimeVisibleParameterAnnotations", "RuntimeInvisibleParameterAnnotations":
		return d.parseParameterAnnotations(r)
	case "RuntimeVisibleTypeAnnotations", "RuntimeInvisibleTypeAnnotations":
		return d.parseTypeAnnotations(r)
	default:
		// Forward compatibility: anything else is skipped, not failed.
		return nil
	}
}

// parseExceptions records every class in a method's throws clause.
func (d *decoder) parseExceptions(r *reader) error {
	count := int(r.u2("exception count"))
	for i := 0; i < count; i++ {
		idx := r.u2("exception index")
		if r.err != nil {
			return r.err
		}
		name, err := d.pool.classNameAt(idx)
		if err != nil {
			return err
		}
		d.addInternal(name)
	}
	return nil
}

// parseSignature decodes a generic signature attribute. A grammar failure
// here is attribute-scoped: by default only this attribute's contribution
// is dropped and the issue recorded; WithStrictSignatures escalates it to
// a file failure.
func (d *decoder) parseSignature(r *reader) error {
	idx := r.u2("signature index")
	if r.err != nil {
		return r.err
	}
	sig, err := d.pool.utf8At(idx)
	if err != nil {
		return err
	}
	names, err := descriptor.Signature(sig)
	if err != nil {
		if d.strictSignatures {
			return fmt.Errorf("%w: signature attribute: %v", ErrMalformed, err)
		}
		d.file.SignatureIssues = append(d.file.SignatureIssues, err)
		return nil
	}
	d.addAll(names)
	return nil
}

func (d *decoder) parseAnnotations(r *reader) error {
	count := int(r.u2("annotation count"))
	for i := 0; i < count; i++ {
		if err := d.parseAnnotation(r); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) parseParameterAnnotations(r *reader) error {
	params := int(r.u1("parameter count"))
	for i := 0; i < params; i++ {
		if err := d.parseAnnotations(r); err != nil {
			return err
		}
	}
	return nil
}

// parseAnnotation decodes one annotation structure: its own type plus
// every element value, recursively.
func (d *decoder) parseAnnotation(r *reader) error {
	typeIdx := r.u2("annotation type")
	if r.err != nil {
		return r.err
	}
	typeDesc, err := d.pool.utf8At(typeIdx)
	if err != nil {
		return err
	}
	if err := d.addFieldDescriptor(typeDesc); err != nil {
		return err
	}
	pairs := int(r.u2("annotation element count"))
	for i := 0; i < pairs; i++ {
		r.skip(2, "element name")
		if err := d.parseElementValue(r); err != nil {
			return err
		}
	}
	return r.err
}

// parseElementValue decodes one element_value union. Only enum constants
// (their type) and Class values contribute references; primitive and
// string constants are skipped by index.
func (d *decoder) parseElementValue(r *reader) error {
	tag := r.u1("element value tag")
	if r.err != nil {
		return r.err
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		r.skip(2, "constant value index")
	case 'e':
		typeIdx := r.u2("enum type index")
		r.skip(2, "enum constant index")
		if r.err != nil {
			return r.err
		}
		desc, err := d.pool.utf8At(typeIdx)
		if err != nil {
			return err
		}
		return d.addFieldDescriptor(desc)
	case 'c':
		classIdx := r.u2("class info index")
		if r.err != nil {
			return r.err
		}
		desc, err := d.pool.utf8At(classIdx)
		if err != nil {
			return err
		}
		// A Class element value is a return descriptor; Void.class is legal.
		names, err := descriptor.Return(desc)
		if err != nil {
			return fmt.Errorf("%w: class element value: %v", ErrMalformed, err)
		}
		d.addAll(names)
	case '@':
		return d.parseAnnotation(r)
	case '[':
		n := int(r.u2("array element count"))
		for i := 0; i < n; i++ {
			if err := d.parseElementValue(r); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown element value tag %q", ErrMalformed, tag)
	}
	return r.err
}

// parseTypeAnnotations decodes RuntimeVisible/InvisibleTypeAnnotations.
// The target_info union is consumed per JVMS §4.7.20 so the cursor lands
// on the annotation itself, which is what actually carries references.
func (d *decoder) parseTypeAnnotations(r *reader) error {
	count := int(r.u2("type annotation count"))
	for i := 0; i < count; i++ {
		if err := d.skipTypeAnnotationTarget(r); err != nil {
			return err
		}
		pathLen := int(r.u1("type path length"))
		r.skip(pathLen*2, "type path")
		if err := d.parseAnnotation(r); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) skipTypeAnnotationTarget(r *reader) error {
	targetType := r.u1("target type")
	if r.err != nil {
		return r.err
	}
	switch targetType {
	case 0x00, 0x01: // type parameter of class / method
		r.skip(1, "type parameter index")
	case 0x10: // supertype
		r.skip(2, "supertype index")
	case 0x11, 0x12: // type parameter bound
		r.skip(2, "type parameter bound")
	case 0x13, 0x14, 0x15: // field, return type, receiver
	case 0x16: // formal parameter
		r.skip(1, "formal parameter index")
	case 0x17: // throws
		r.skip(2, "throws index")
	case 0x40, 0x41: // local variable, resource variable
		n := int(r.u2("localvar table length"))
		r.skip(n*6, "localvar table")
	case 0x42: // exception parameter
		r.skip(2, "catch index")
	case 0x43, 0x44, 0x45, 0x46: // instanceof, new, method references
		r.skip(2, "bytecode offset")
	case 0x47, 0x48, 0x49, 0x4A, 0x4B: // cast, type arguments
		r.skip(2, "bytecode offset")
		r.skip(1, "type argument index")
	default:
		return fmt.Errorf("%w: unknown type annotation target 0x%02X", ErrMalformed, targetType)
	}
	return r.err
}
