package descriptor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want []string
	}{
		{"object", "Ljava/lang/String;", []string{"java.lang.String"}},
		{"primitive", "I", nil},
		{"array of primitive", "[[I", nil},
		{"array of object", "[Ljava/lang/String;", []string{"java.lang.String"}},
		{"deep array", "[[Ljava/lang/String;", []string{"java.lang.String"}},
		{"nested class", "Lcom/example/Outer$Inner;", []string{"com.example.Outer$Inner"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Field(tt.desc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldMalformed(t *testing.T) {
	for _, desc := range []string{"", "Ljava/lang/String", "X", "[", "L;", "IJ", "Ljava/lang/String;;"} {
		_, err := Field(desc)
		assert.ErrorIs(t, err, ErrMalformed, "descriptor %q", desc)
	}
}

func TestMethod(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want []string
	}{
		{"primitives only", "(IJZ)V", nil},
		{"params and return", "(Ljava/lang/String;I)Ljava/util/List;",
			[]string{"java.lang.String", "java.util.List"}},
		{"array param", "([Ljava/lang/Object;)V", []string{"java.lang.Object"}},
		{"no params", "()V", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Method(tt.desc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMethodMalformed(t *testing.T) {
	for _, desc := range []string{"", "()", "(V)V", "Ljava/lang/String;", "(I", "(I)VV"} {
		_, err := Method(desc)
		assert.ErrorIs(t, err, ErrMalformed, "descriptor %q", desc)
	}
}

func TestReturn(t *testing.T) {
	got, err := Return("V")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Return("Ljava/lang/Class;")
	require.NoError(t, err)
	assert.Equal(t, []string{"java.lang.Class"}, got)
}

func TestSignatureField(t *testing.T) {
	got, err := Signature("Ljava/util/List<Ljava/lang/String;>;")
	require.NoError(t, err)
	assert.Equal(t, []string{"java.util.List", "java.lang.String"}, got)
}

func TestSignatureClass(t *testing.T) {
	// class Foo<T extends Number> extends AbstractList<T> implements Serializable
	sig := "<T:Ljava/lang/Number;>Ljava/util/AbstractList<TT;>;Ljava/io/Serializable;"
	got, err := Signature(sig)
	require.NoError(t, err)
	assert.Equal(t, []string{"java.lang.Number", "java.util.AbstractList", "java.io.Serializable"}, got)
}

func TestSignatureMethod(t *testing.T) {
	// <T> T convert(List<? extends T> in) throws IOException
	sig := "<T:Ljava/lang/Object;>(Ljava/util/List<+TT;>;)TT;^Ljava/io/IOException;"
	got, err := Signature(sig)
	require.NoError(t, err)
	assert.Equal(t, []string{"java.lang.Object", "java.util.List", "java.io.IOException"}, got)
}

func TestSignatureWildcards(t *testing.T) {
	got, err := Signature("Ljava/util/Map<*+Ljava/lang/Number;>;")
	require.NoError(t, err)
	assert.Equal(t, []string{"java.util.Map", "java.lang.Number"}, got)
}

func TestSignatureNestedType(t *testing.T) {
	got, err := Signature("Lcom/ex/Outer<TT;>.Inner;")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.ex.Outer", "com.ex.Outer$Inner"}, got)
}

func TestSignatureInterfaceOnlyBound(t *testing.T) {
	// <T::Ljava/lang/Comparable;> has an empty class bound.
	sig := "<T::Ljava/lang/Comparable<TT;>;>Ljava/lang/Object;"
	got, err := Signature(sig)
	require.NoError(t, err)
	assert.Equal(t, []string{"java.lang.Comparable", "java.lang.Object"}, got)
}

func TestSignatureTypeVariablesNotEmitted(t *testing.T) {
	got, err := Signature("(TT;)TT;")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSignatureMalformed(t *testing.T) {
	for _, sig := range []string{"", "<T:", "Ljava/util/List<", "(TT;", "Lcom/ex/Foo<TT;>", "^"} {
		_, err := Signature(sig)
		assert.ErrorIs(t, err, ErrMalformed, "signature %q", sig)
	}
}

func TestSignatureIsPure(t *testing.T) {
	sig := "Ljava/util/List<Ljava/lang/String;>;"
	first, err := Signature(sig)
	require.NoError(t, err)
	second, err := Signature(sig)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestErrorsAreDescriptive(t *testing.T) {
	_, err := Field("Ljava/lang/String")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.Contains(t, err.Error(), "Ljava/lang/String")
}
