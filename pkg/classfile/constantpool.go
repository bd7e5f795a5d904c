package classfile

import (
	"fmt"
)

// Constant pool tags defined by the class-file format.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// constant is one decoded pool entry. The pool is a tagged union: which
// payload fields are meaningful depends on Tag. A zero Tag marks the
// unusable slot that follows a Long or Double entry, plus index 0.
type constant struct {
	tag     uint8
	utf8    string // tagUtf8
	index   uint16 // name/class/descriptor index, kind depends on tag
	index2  uint16 // second index for two-index entries
	refKind uint8  // tagMethodHandle
}

// constantPool is an append-only arena populated in one sequential pass.
// Entries are resolved by 1-based index for the lifetime of a single
// file's decode.
type constantPool struct {
	entries []constant
}

func (cp *constantPool) at(idx uint16) (constant, error) {
	if idx == 0 || int(idx) >= len(cp.entries) {
		return constant{}, fmt.Errorf("%w: constant pool index %d out of range (pool size %d)",
			ErrMalformed, idx, len(cp.entries))
	}
	c := cp.entries[idx]
	if c.tag == 0 {
		return constant{}, fmt.Errorf("%w: constant pool index %d addresses the unusable slot of an 8-byte constant",
			ErrMalformed, idx)
	}
	return c, nil
}

// utf8At resolves a CONSTANT_Utf8 entry.
func (cp *constantPool) utf8At(idx uint16) (string, error) {
	c, err := cp.at(idx)
	if err != nil {
		return "", err
	}
	if c.tag != tagUtf8 {
		return "", fmt.Errorf("%w: constant pool index %d has tag %d, expected Utf8", ErrMalformed, idx, c.tag)
	}
	return c.utf8, nil
}

// classNameAt resolves a CONSTANT_Class entry to its internal name string.
// The name may itself be an array descriptor such as [Ljava/lang/String;
// when the class constant denotes an array type.
func (cp *constantPool) classNameAt(idx uint16) (string, error) {
	c, err := cp.at(idx)
	if err != nil {
		return "", err
	}
	if c.tag != tagClass {
		return "", fmt.Errorf("%w: constant pool index %d has tag %d, expected Class", ErrMalformed, idx, c.tag)
	}
	return cp.utf8At(c.index)
}

// reader is a bounds-checked big-endian cursor over one class-file buffer.
// The first failed read sticks; callers check err at section boundaries.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: truncated buffer reading %s at offset %d", ErrMalformed, what, r.off)
	}
}

func (r *reader) u1(what string) uint8 {
	if r.err != nil {
		return 0
	}
	if r.off+1 > len(r.buf) {
		r.fail(what)
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u2(what string) uint16 {
	if r.err != nil {
		return 0
	}
	if r.off+2 > len(r.buf) {
		r.fail(what)
		return 0
	}
	v := uint16(r.buf[r.off])<<8 | uint16(r.buf[r.off+1])
	r.off += 2
	return v
}

func (r *reader) u4(what string) uint32 {
	if r.err != nil {
		return 0
	}
	if r.off+4 > len(r.buf) {
		r.fail(what)
		return 0
	}
	v := uint32(r.buf[r.off])<<24 | uint32(r.buf[r.off+1])<<16 |
		uint32(r.buf[r.off+2])<<8 | uint32(r.buf[r.off+3])
	r.off += 4
	return v
}

func (r *reader) bytes(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.fail(what)
		return nil
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v
}

func (r *reader) skip(n int, what string) {
	r.bytes(n, what)
}

// parsePool decodes count-1 entries, honoring the format quirk that Long
// and Double constants occupy two pool slots: the slot after them is left
// with a zero tag and must never be dereferenced.
func parsePool(r *reader) (*constantPool, error) {
	count := int(r.u2("constant pool count"))
	if r.err != nil {
		return nil, r.err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: constant pool count is zero", ErrMalformed)
	}
	cp := &constantPool{entries: make([]constant, count)}
	for i := 1; i < count; i++ {
		tag := r.u1("constant tag")
		if r.err != nil {
			return nil, r.err
		}
		c := constant{tag: tag}
		switch tag {
		case tagUtf8:
			n := int(r.u2("utf8 length"))
			c.utf8 = string(r.bytes(n, "utf8 bytes"))
		case tagInteger, tagFloat:
			r.skip(4, "4-byte constant")
		case tagLong, tagDouble:
			r.skip(8, "8-byte constant")
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			c.index = r.u2("constant index")
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType,
			tagDynamic, tagInvokeDynamic:
			c.index = r.u2("constant index")
			c.index2 = r.u2("constant index")
		case tagMethodHandle:
			c.refKind = r.u1("method handle kind")
			c.index = r.u2("method handle reference")
		default:
			return nil, fmt.Errorf("%w: unsupported constant pool tag %d at index %d", ErrMalformed, tag, i)
		}
		if r.err != nil {
			return nil, r.err
		}
		cp.entries[i] = c
		if tag == tagLong || tag == tagDouble {
			i++ // the next slot is unusable
		}
	}
	return cp, nil
}
