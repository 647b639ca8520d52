// Package entitypath implements the entity path: an ordered sequence of
// path parts identifying a logical object in a recording. Paths are
// interned process-wide so that equality and hashing reduce to pointer and
// integer comparisons on the hot insert/query path.
package entitypath

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Path is an ordered sequence of path parts. The zero value is the root
// path (no parts). Path is comparable and safe to use as a map key; two
// Paths built from the same parts via New are guaranteed equal because
// construction always goes through the process-wide intern cache.
type Path struct {
	parts []string
	hash  uint64
}

// New builds a Path from its ordered parts, interning the result.
func New(parts ...string) Path {
	return intern(parts)
}

// Parse splits a "/"-delimited string into a Path. Leading and trailing
// slashes are ignored; empty segments are dropped ("a//b" == "a/b").
func Parse(s string) Path {
	raw := strings.Split(strings.Trim(s, "/"), "/")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return Path{}
	}
	return New(parts...)
}

// Parts returns the path's parts. The returned slice must not be mutated.
func (p Path) Parts() []string { return p.parts }

// Hash returns the stable 64-bit hash carried alongside the path for fast
// map keys, computed once at intern time.
func (p Path) Hash() uint64 { return p.hash }

// String renders the path in its canonical "/"-delimited form. The root
// path renders as "/".
func (p Path) String() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// Len returns the number of parts.
func (p Path) Len() int { return len(p.parts) }

// Equal reports whether p and other name the same entity. Because both
// sides are always produced by the intern cache, this degrades to a hash
// comparison plus a part-by-part fallback (belt-and-suspenders against a
// hash collision).
func (p Path) Equal(other Path) bool {
	if p.hash != other.hash || len(p.parts) != len(other.parts) {
		return false
	}
	for i := range p.parts {
		if p.parts[i] != other.parts[i] {
			return false
		}
	}
	return true
}

// IsRoot reports whether p has no parts.
func (p Path) IsRoot() bool { return len(p.parts) == 0 }

// Parent returns the path with its last part removed, and whether a parent
// exists (false for the root path).
func (p Path) Parent() (Path, bool) {
	if len(p.parts) == 0 {
		return Path{}, false
	}
	return New(p.parts[:len(p.parts)-1]...), true
}

// IsPrefixOf reports whether p names an ancestor of (or is equal to) other.
func (p Path) IsPrefixOf(other Path) bool {
	if len(p.parts) > len(other.parts) {
		return false
	}
	for i := range p.parts {
		if p.parts[i] != other.parts[i] {
			return false
		}
	}
	return true
}

// Join appends parts to p and returns the interned result.
func (p Path) Join(parts ...string) Path {
	combined := make([]string, 0, len(p.parts)+len(parts))
	combined = append(combined, p.parts...)
	combined = append(combined, parts...)
	return New(combined...)
}

func hashParts(parts []string) uint64 {
	h := xxhash.New()
	for _, part := range parts {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
