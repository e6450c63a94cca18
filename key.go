package memoize

import (
	"crypto/md5" //nolint:gosec // key derivation, not a security boundary
	"encoding/hex"
	"fmt"
	"strings"
)

// Named is a keyword-style argument. Go has no keyword arguments, so named
// values are passed among the regular arguments and recognized by type. The
// order in which Named arguments appear is part of the cache key: the same
// names in a different order produce a different key. This mirrors the
// reference behavior and is not a guarantee of order independence.
type Named struct {
	Name  string
	Value any
}

// kwdMark separates positional values from name/value pairs in the
// composite key, so f("a") and f(Named{"a", ...}) cannot collide.
const kwdMark = "\x00kwd"

// keySep joins composite parts. A non-printing byte keeps adjacent values
// from running together ("ab"+"c" vs "a"+"bc").
const keySep = "\x1f"

// cacheKey derives the fixed-width storage key for one call. The composite
// is the positional values, then a marker plus name/value pairs if any named
// arguments exist, then (when typed) the runtime type of every value. The
// composite is reduced to a 128-bit hex digest; collisions are treated as
// improbable rather than defended against.
//
// Values are rendered with %v, so with typed=false simple arguments collapse
// across types: f(1) and f("1") share a key. Arguments that cannot be
// JSON-serialized are not rejected here; they fail later when the result is
// written.
func cacheKey(args []any, typed bool) string {
	positional, named := splitArgs(args)

	parts := make([]string, 0, len(args)*2+1)
	for _, a := range positional {
		parts = append(parts, fmt.Sprintf("%v", a))
	}
	if len(named) > 0 {
		parts = append(parts, kwdMark)
		for _, n := range named {
			parts = append(parts, n.Name, fmt.Sprintf("%v", n.Value))
		}
	}
	if typed {
		for _, a := range positional {
			parts = append(parts, fmt.Sprintf("%T", a))
		}
		for _, n := range named {
			parts = append(parts, fmt.Sprintf("%T", n.Value))
		}
	}

	sum := md5.Sum([]byte(strings.Join(parts, keySep))) //nolint:gosec // see import comment
	return hex.EncodeToString(sum[:])
}

// splitArgs separates positional values from Named values, each in order of
// appearance.
func splitArgs(args []any) ([]any, []Named) {
	var positional []any
	var named []Named
	for _, a := range args {
		if n, ok := a.(Named); ok {
			named = append(named, n)
			continue
		}
		positional = append(positional, a)
	}
	return positional, named
}
