// Package classfile decodes single JVM class files and recovers every
// class name the compiled unit references.
//
// A decode walks the constant pool, the class header (this/super/
// interfaces), every field and method descriptor, declared exceptions,
// generic signature attributes, and annotations (including parameter and
// type annotations). Unknown attributes and constant kinds that carry no
// class reference are skipped, never failed: the decoder has to stay
// forward-compatible with newer compilers.
//
// Decoders are stateless: Parse is safe to call concurrently from many
// goroutines over different buffers.
package classfile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/refscan/refscan/pkg/classname"
	"github.com/refscan/refscan/pkg/descriptor"
)

// ErrMalformed reports a buffer that is not a decodable class file: bad
// magic, truncation, an out-of-range constant pool index, or an
// unsupported mandatory structure. The error is fatal to that one file;
// batch policy belongs to the caller.
var ErrMalformed = errors.New("malformed class file")

const magic = 0xCAFEBABE

// File is one decoded class file. It is constructed from a single byte
// buffer, carries an immutable reference set, and is not retained across
// files.
type File struct {
	MinorVersion uint16
	MajorVersion uint16

	// ThisClass is the canonical name of the type this file defines.
	ThisClass string
	// SuperClass is empty only for java.lang.Object.
	SuperClass string
	Interfaces []string

	// References holds every canonical class name the file mentions,
	// sorted and deduplicated. It includes ThisClass; self-exclusion is
	// aggregation policy, not decode policy.
	References []string

	// SignatureIssues records generic-signature attributes that failed to
	// decode and were skipped under the default lenient policy.
	SignatureIssues []error
}

type decoder struct {
	r    *reader
	pool *constantPool
	refs map[string]struct{}
	file *File

	strictSignatures bool
}

// Option configures a decode.
type Option func(*decoder)

// WithStrictSignatures escalates a malformed generic-signature attribute
// from a skipped contribution to a whole-file failure.
func WithStrictSignatures() Option {
	return func(d *decoder) { d.strictSignatures = true }
}

// Parse decodes one class-file buffer.
func Parse(data []byte, opts ...Option) (*File, error) {
	d := &decoder{
		r:    &reader{buf: data},
		refs: make(map[string]struct{}),
		file: &File{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.parse(); err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(d.refs))
	for name := range d.refs {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	d.file.References = refs
	return d.file, nil
}

func (d *decoder) parse() error {
	if m := d.r.u4("magic"); d.r.err != nil {
		return d.r.err
	} else if m != magic {
		return fmt.Errorf("%w: bad magic 0x%08X", ErrMalformed, m)
	}

	// Version is recorded for diagnostics; no behavior branches on it.
	d.file.MinorVersion = d.r.u2("minor version")
	d.file.MajorVersion = d.r.u2("major version")

	pool, err := parsePool(d.r)
	if err != nil {
		return err
	}
	d.pool = pool

	if err := d.collectPoolReferences(); err != nil {
		return err
	}

	d.r.skip(2, "access flags")
	thisIdx := d.r.u2("this class")
	superIdx := d.r.u2("super class")
	if d.r.err != nil {
		return d.r.err
	}

	thisName, err := d.pool.classNameAt(thisIdx)
	if err != nil {
		return err
	}
	d.file.ThisClass = classname.Normalize(thisName)
	d.addInternal(thisName)

	if superIdx != 0 { // zero only for java.lang.Object
		superName, err := d.pool.classNameAt(superIdx)
		if err != nil {
			return err
		}
		d.file.SuperClass = classname.Normalize(superName)
		d.addInternal(superName)
	}

	ifaceCount := int(d.r.u2("interface count"))
	for i := 0; i < ifaceCount; i++ {
		idx := d.r.u2("interface index")
		if d.r.err != nil {
			return d.r.err
		}
		name, err := d.pool.classNameAt(idx)
		if err != nil {
			return err
		}
		d.file.Interfaces = append(d.file.Interfaces, classname.Normalize(name))
		d.addInternal(name)
	}

	if err := d.parseMembers(false); err != nil { // fields
		return err
	}
	if err := d.parseMembers(true); err != nil { // methods
		return err
	}
	if err := d.parseAttributes(); err != nil { // class-level attributes
		return err
	}
	return d.r.err
}

// collectPoolReferences walks every pool entry that can denote a class:
// Class entries (method-body references surface only here), NameAndType
// descriptors, and MethodType descriptors. MethodHandle entries point at
// ref entries whose Class and NameAndType parts are already covered.
func (d *decoder) collectPoolReferences() error {
	for i := 1; i < len(d.pool.entries); i++ {
		c := d.pool.entries[i]
		switch c.tag {
		case tagClass:
			name, err := d.pool.utf8At(c.index)
			if err != nil {
				return err
			}
			if err := d.addClassConstant(name); err != nil {
				return err
			}
		case tagNameAndType:
			desc, err := d.pool.utf8At(c.index2)
			if err != nil {
				return err
			}
			if err := d.addDescriptor(desc); err != nil {
				return err
			}
		case tagMethodType:
			desc, err := d.pool.utf8At(c.index)
			if err != nil {
				return err
			}
			if err := d.addMethodDescriptor(desc); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseMembers decodes the fields or methods section.
func (d *decoder) parseMembers(methods bool) error {
	count := int(d.r.u2("member count"))
	for i := 0; i < count; i++ {
		d.r.skip(2, "member access flags")
		d.r.skip(2, "member name")
		descIdx := d.r.u2("member descriptor")
		if d.r.err != nil {
			return d.r.err
		}
		desc, err := d.pool.utf8At(descIdx)
		if err != nil {
			return err
		}
		if methods {
			err = d.addMethodDescriptor(desc)
		} else {
			err = d.addFieldDescriptor(desc)
		}
		if err != nil {
			return err
		}
		if err := d.parseAttributes(); err != nil {
			return err
		}
	}
	return nil
}

// addInternal records one internal (slash-separated) class name.
func (d *decoder) addInternal(name string) {
	d.refs[classname.Normalize(name)] = struct{}{}
}

func (d *decoder) addAll(names []string) {
	for _, n := range names {
		d.refs[n] = struct{}{}
	}
}

// addClassConstant handles a CONSTANT_Class name, which is either an
// internal class name or, for array classes, a field descriptor.
func (d *decoder) addClassConstant(name string) error {
	if strings.HasPrefix(name, "[") {
		names, err := descriptor.Field(name)
		if err != nil {
			return fmt.Errorf("%w: array class constant: %v", ErrMalformed, err)
		}
		d.addAll(names)
		return nil
	}
	d.addInternal(name)
	return nil
}

// addDescriptor resolves a descriptor that may describe a field or a
// method, as found in NameAndType entries.
func (d *decoder) addDescriptor(desc string) error {
	if strings.HasPrefix(desc, "(") {
		return d.addMethodDescriptor(desc)
	}
	return d.addFieldDescriptor(desc)
}

func (d *decoder) addFieldDescriptor(desc string) error {
	names, err := descriptor.Field(desc)
	if err != nil {
		return fmt.Errorf("%w: field descriptor: %v", ErrMalformed, err)
	}
	d.addAll(names)
	return nil
}

func (d *decoder) addMethodDescriptor(desc string) error {
	names, err := descriptor.Method(desc)
	if err != nil {
		return fmt.Errorf("%w: method descriptor: %v", ErrMalformed, err)
	}
	d.addAll(names)
	return nil
}
