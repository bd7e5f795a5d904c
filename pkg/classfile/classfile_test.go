package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classBuilder assembles synthetic class files for decoder tests. Pool
// entries are appended eagerly so indices are assigned in call order,
// including the two-slot Long/Double quirk.
type classBuilder struct {
	pool       bytes.Buffer
	next       uint16
	utf8s      map[string]uint16
	thisClass  uint16
	superClass uint16
	interfaces []uint16
	fields     []member
	methods    []member
	attrs      []attrDef
}

type member struct {
	name  uint16
	desc  uint16
	attrs []attrDef
}

type attrDef struct {
	name    uint16
	payload []byte
}

func newClassBuilder(thisName, superName string) *classBuilder {
	b := &classBuilder{next: 1, utf8s: make(map[string]uint16)}
	b.thisClass = b.class(thisName)
	if superName != "" {
		b.superClass = b.class(superName)
	}
	return b
}

func u2(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }

func (b *classBuilder) utf8(s string) uint16 {
	if idx, ok := b.utf8s[s]; ok {
		return idx
	}
	b.pool.WriteByte(tagUtf8)
	b.pool.Write(u2(uint16(len(s))))
	b.pool.WriteString(s)
	idx := b.next
	b.next++
	b.utf8s[s] = idx
	return idx
}

func (b *classBuilder) class(name string) uint16 {
	nameIdx := b.utf8(name)
	b.pool.WriteByte(tagClass)
	b.pool.Write(u2(nameIdx))
	idx := b.next
	b.next++
	return idx
}

// rawClass writes a Class entry with an arbitrary name index, valid or not.
func (b *classBuilder) rawClass(nameIdx uint16) uint16 {
	b.pool.WriteByte(tagClass)
	b.pool.Write(u2(nameIdx))
	idx := b.next
	b.next++
	return idx
}

func (b *classBuilder) long(v int64) uint16 {
	b.pool.WriteByte(tagLong)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	b.pool.Write(buf[:])
	idx := b.next
	b.next += 2 // occupies two slots
	return idx
}

func (b *classBuilder) nameAndType(name, desc string) uint16 {
	nameIdx := b.utf8(name)
	descIdx := b.utf8(desc)
	b.pool.WriteByte(tagNameAndType)
	b.pool.Write(u2(nameIdx))
	b.pool.Write(u2(descIdx))
	idx := b.next
	b.next++
	return idx
}

func (b *classBuilder) methodType(desc string) uint16 {
	descIdx := b.utf8(desc)
	b.pool.WriteByte(tagMethodType)
	b.pool.Write(u2(descIdx))
	idx := b.next
	b.next++
	return idx
}

func (b *classBuilder) addInterface(name string) {
	b.interfaces = append(b.interfaces, b.class(name))
}

func (b *classBuilder) addField(name, desc string, attrs ...attrDef) {
	b.fields = append(b.fields, member{name: b.utf8(name), desc: b.utf8(desc), attrs: attrs})
}

func (b *classBuilder) addMethod(name, desc string, attrs ...attrDef) {
	b.methods = append(b.methods, member{name: b.utf8(name), desc: b.utf8(desc), attrs: attrs})
}

func (b *classBuilder) addClassAttr(a attrDef) {
	b.attrs = append(b.attrs, a)
}

func (b *classBuilder) signatureAttr(sig string) attrDef {
	return attrDef{name: b.utf8("Signature"), payload: u2(b.utf8(sig))}
}

func (b *classBuilder) exceptionsAttr(names ...string) attrDef {
	var payload bytes.Buffer
	payload.Write(u2(uint16(len(names))))
	for _, n := range names {
		payload.Write(u2(b.class(n)))
	}
	return attrDef{name: b.utf8("Exceptions"), payload: payload.Bytes()}
}

// annotationAttr builds a RuntimeVisibleAnnotations attribute holding one
// annotation with the given element values.
func (b *classBuilder) annotationAttr(typeDesc string, elements ...[]byte) attrDef {
	var payload bytes.Buffer
	payload.Write(u2(1)) // one annotation
	payload.Write(u2(b.utf8(typeDesc)))
	payload.Write(u2(uint16(len(elements))))
	for _, el := range elements {
		payload.Write(u2(b.utf8("value")))
		payload.Write(el)
	}
	return attrDef{name: b.utf8("RuntimeVisibleAnnotations"), payload: payload.Bytes()}
}

func (b *classBuilder) classElement(desc string) []byte {
	return append([]byte{'c'}, u2(b.utf8(desc))...)
}

func (b *classBuilder) enumElement(typeDesc, constName string) []byte {
	out := []byte{'e'}
	out = append(out, u2(b.utf8(typeDesc))...)
	out = append(out, u2(b.utf8(constName))...)
	return out
}

func (b *classBuilder) build() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(magic))
	buf.Write(u2(0))  // minor
	buf.Write(u2(52)) // major (Java 8)
	buf.Write(u2(b.next))
	buf.Write(b.pool.Bytes())
	buf.Write(u2(0x0021)) // ACC_PUBLIC | ACC_SUPER
	buf.Write(u2(b.thisClass))
	buf.Write(u2(b.superClass))
	buf.Write(u2(uint16(len(b.interfaces))))
	for _, idx := range b.interfaces {
		buf.Write(u2(idx))
	}
	writeMembers := func(members []member) {
		buf.Write(u2(uint16(len(members))))
		for _, m := range members {
			buf.Write(u2(0x0001))
			buf.Write(u2(m.name))
			buf.Write(u2(m.desc))
			writeAttrs(&buf, m.attrs)
		}
	}
	writeMembers(b.fields)
	writeMembers(b.methods)
	writeAttrs(&buf, b.attrs)
	return buf.Bytes()
}

func writeAttrs(buf *bytes.Buffer, attrs []attrDef) {
	buf.Write(u2(uint16(len(attrs))))
	for _, a := range attrs {
		buf.Write(u2(a.name))
		binary.Write(buf, binary.BigEndian, uint32(len(a.payload)))
		buf.Write(a.payload)
	}
}

func TestParseMinimal(t *testing.T) {
	b := newClassBuilder("com/example/Foo", "java/lang/Object")
	f, err := Parse(b.build())
	require.NoError(t, err)

	assert.Equal(t, "com.example.Foo", f.ThisClass)
	assert.Equal(t, "java.lang.Object", f.SuperClass)
	assert.Equal(t, uint16(52), f.MajorVersion)
	assert.ElementsMatch(t, []string{"com.example.Foo", "java.lang.Object"}, f.References)
}

func TestParseBadMagic(t *testing.T) {
	data := newClassBuilder("Foo", "java/lang/Object").build()
	data[0] = 0xDE
	_, err := Parse(data)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseTruncated(t *testing.T) {
	data := newClassBuilder("Foo", "java/lang/Object").build()
	for _, n := range []int{0, 3, 7, 9, len(data) / 2, len(data) - 1} {
		_, err := Parse(data[:n])
		assert.ErrorIs(t, err, ErrMalformed, "truncated at %d", n)
	}
}

func TestParseInterfaces(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.addInterface("java/io/Serializable")
	b.addInterface("java/lang/Comparable")
	f, err := Parse(b.build())
	require.NoError(t, err)
	assert.Equal(t, []string{"java.io.Serializable", "java.lang.Comparable"}, f.Interfaces)
	assert.Contains(t, f.References, "java.io.Serializable")
	assert.Contains(t, f.References, "java.lang.Comparable")
}

func TestParseDualSlotConstants(t *testing.T) {
	// A Long entry occupies two pool slots; entries defined after it must
	// still resolve. A decoder that walks indices without honoring the
	// quirk would misread everything past the Long.
	b := newClassBuilder("Foo", "java/lang/Object")
	b.long(42)
	b.class("com/example/AfterLong")
	f, err := Parse(b.build())
	require.NoError(t, err)
	assert.Contains(t, f.References, "com.example.AfterLong")
}

func TestParseUnusableSlotDereference(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	longIdx := b.long(42)
	b.rawClass(longIdx + 1) // points into the Long's shadow slot
	_, err := Parse(b.build())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParsePoolIndexOutOfRange(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.rawClass(999)
	_, err := Parse(b.build())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseFieldAndMethodDescriptors(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.addField("names", "Ljava/util/List;")
	b.addField("count", "I")
	b.addMethod("lookup", "(Ljava/lang/String;)Lcom/example/Result;")
	f, err := Parse(b.build())
	require.NoError(t, err)
	assert.Contains(t, f.References, "java.util.List")
	assert.Contains(t, f.References, "java.lang.String")
	assert.Contains(t, f.References, "com.example.Result")
	assert.NotContains(t, f.References, "I")
}

func TestParseExceptionsAttribute(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.addMethod("load", "()V", b.exceptionsAttr("java/io/IOException", "com/example/LoadException"))
	f, err := Parse(b.build())
	require.NoError(t, err)
	assert.Contains(t, f.References, "java.io.IOException")
	assert.Contains(t, f.References, "com.example.LoadException")
}

func TestParseSignatureAttribute(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.addClassAttr(b.signatureAttr("<T:Ljava/lang/Number;>Ljava/lang/Object;"))
	b.addField("items", "Ljava/util/List;", b.signatureAttr("Ljava/util/List<Lcom/example/Item;>;"))
	f, err := Parse(b.build())
	require.NoError(t, err)
	assert.Contains(t, f.References, "java.lang.Number")
	assert.Contains(t, f.References, "java.util.List")
	assert.Contains(t, f.References, "com.example.Item")
	assert.Empty(t, f.SignatureIssues)
}

func TestParseMalformedSignatureLenient(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.addField("ok", "Lcom/example/Kept;", b.signatureAttr("Lnot-terminated"))
	f, err := Parse(b.build())
	require.NoError(t, err)
	// The bad attribute is dropped, the rest of the file still counts.
	assert.Contains(t, f.References, "com.example.Kept")
	assert.Len(t, f.SignatureIssues, 1)
}

func TestParseMalformedSignatureStrict(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.addField("ok", "Lcom/example/Kept;", b.signatureAttr("Lnot-terminated"))
	_, err := Parse(b.build(), WithStrictSignatures())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseAnnotations(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.addClassAttr(b.annotationAttr("Lcom/example/Component;",
		b.classElement("Lcom/example/Module;"),
		b.enumElement("Lcom/example/Scope;", "SINGLETON"),
	))
	f, err := Parse(b.build())
	require.NoError(t, err)
	assert.Contains(t, f.References, "com.example.Component")
	assert.Contains(t, f.References, "com.example.Module")
	assert.Contains(t, f.References, "com.example.Scope")
}

func TestParseUnknownAttributeSkipped(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.addClassAttr(attrDef{name: b.utf8("SomeFutureAttribute"), payload: []byte{0xFF, 0x00, 0xAB}})
	f, err := Parse(b.build())
	require.NoError(t, err)
	assert.Equal(t, "Foo", f.ThisClass)
}

func TestParseArrayClassConstant(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.class("[[Ljava/lang/String;")
	f, err := Parse(b.build())
	require.NoError(t, err)
	assert.Contains(t, f.References, "java.lang.String")
	assert.NotContains(t, f.References, "[[Ljava.lang.String;")
}

func TestParsePoolDescriptorEntries(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.nameAndType("handle", "(Lcom/example/Request;)Lcom/example/Response;")
	b.methodType("(Lcom/example/Event;)V")
	f, err := Parse(b.build())
	require.NoError(t, err)
	assert.Contains(t, f.References, "com.example.Request")
	assert.Contains(t, f.References, "com.example.Response")
	assert.Contains(t, f.References, "com.example.Event")
}

func TestParseReferencesSortedAndUnique(t *testing.T) {
	b := newClassBuilder("com/b/B", "java/lang/Object")
	b.addField("a1", "Lcom/a/A;")
	b.addField("a2", "Lcom/a/A;")
	f, err := Parse(b.build())
	require.NoError(t, err)
	assert.Equal(t, []string{"com.a.A", "com.b.B", "java.lang.Object"}, f.References)
}

func TestParseDeterministic(t *testing.T) {
	b := newClassBuilder("Foo", "java/lang/Object")
	b.addField("items", "Ljava/util/List;")
	data := b.build()
	first, err := Parse(data)
	require.NoError(t, err)
	second, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, first.References, second.References)
}
