// Package classname normalizes JVM class identifiers to one canonical form.
//
// The class-file constant pool spells names with slashes (java/lang/String),
// descriptors embed them the same way, while layout descriptors and generated
// sources use dots. Everything downstream of the decoders compares and sorts
// names, so a single canonical spelling matters: this package settles on
// dot-separated binary names (java.lang.String, com.example.Outer$Inner).
package classname

import "strings"

// Normalize converts an internal (slash-separated) or source (dot-separated)
// class name to the canonical dot form. Nested-class `$` separators are kept
// as-is since they are part of the binary name.
func Normalize(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// Internal converts a canonical name back to the slash-separated internal
// form used by descriptors and the constant pool.
func Internal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// Nested joins an outer class name with a lexically nested type's simple
// name using the binary `$` separator.
func Nested(outer, inner string) string {
	if outer == "" {
		return inner
	}
	return outer + "$" + inner
}

// isIdentStart reports whether r can begin a Java identifier. The check is
// ASCII-conservative on purpose: names seen in layouts and manifests that
// rely on exotic identifier characters are not worth a false positive.
func isIdentStart(r rune) bool {
	return r == '_' || r == '$' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

// IsIdentifier reports whether s is a syntactically valid Java identifier.
// Reserved words are not rejected; callers here only ever see compiler- or
// tool-produced names, never hand-written keywords in identifier position.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isIdentStart(r) {
				return false
			}
			continue
		}
		if !isIdentPart(r) {
			return false
		}
	}
	return true
}

// IsQualified reports whether s looks like a fully-qualified class name:
// at least one dot, and every dot-delimited segment a valid identifier.
func IsQualified(s string) bool {
	if !strings.Contains(s, ".") {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if !IsIdentifier(seg) {
			return false
		}
	}
	return true
}

// Package returns the package portion of a canonical name, or "" for a
// default-package class.
func Package(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[:i]
}

// Simple returns the final segment of a canonical name.
func Simple(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return name
	}
	return name[i+1:]
}
