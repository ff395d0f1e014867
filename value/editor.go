package value

import (
	"fmt"
	"strings"

	"github.com/arloliu/pksave/errs"
)

// index returns the position of the first pair whose key is the string key, or -1.
// Pairs with non-string keys never match.
func (t *Table) index(key string) int {
	for i, p := range t.Pairs {
		if s, ok := p.Key.(String); ok && string(s) == key {
			return i
		}
	}

	return -1
}

// Get returns the value stored under key.
func (t *Table) Get(key string) (Value, bool) {
	i := t.index(key)
	if i < 0 {
		return nil, false
	}

	return t.Pairs[i].Value, true
}

// Lookup descends one table per path segment and returns a pointer to the
// slot holding the last segment's value. Assigning through the pointer
// replaces the value in place.
//
// Lookup returns nil if the path is empty, a segment is missing, or a
// segment other than the last names a value that is not a table.
func (t *Table) Lookup(path ...string) *Value {
	if len(path) == 0 {
		return nil
	}

	cur := t
	for depth, seg := range path {
		i := cur.index(seg)
		if i < 0 {
			return nil
		}
		slot := &cur.Pairs[i].Value
		if depth == len(path)-1 {
			return slot
		}
		next, ok := (*slot).(*Table)
		if !ok {
			return nil
		}
		cur = next
	}

	return nil
}

// Set replaces the value of an existing key in place, or appends a new pair
// at the end when the key is absent. Setting the same key twice never
// introduces a duplicate.
func (t *Table) Set(key string, v Value) {
	if i := t.index(key); i >= 0 {
		t.Pairs[i].Value = v
		return
	}
	t.Pairs = append(t.Pairs, Pair{Key: String(key), Value: v})
}

// SetField calls Set on target, which must be a *Table.
// Passing anything else is a programming error and panics.
func SetField(target Value, key string, v Value) {
	t, ok := target.(*Table)
	if !ok {
		panic(fmt.Sprintf("value: SetField on %T, want *Table", target))
	}
	t.Set(key, v)
}

// SetPath sets the last segment of path inside the table named by the
// preceding segments. Intermediate tables are not created.
func SetPath(root *Table, path []string, v Value) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", errs.ErrPathNotFound)
	}

	parent := root
	if len(path) > 1 {
		slot := root.Lookup(path[:len(path)-1]...)
		if slot == nil {
			return fmt.Errorf("%w: %s", errs.ErrPathNotFound, JoinPath(path[:len(path)-1]))
		}
		t, ok := (*slot).(*Table)
		if !ok {
			return fmt.Errorf("%w: %s is %s, not a table", errs.ErrPathNotFound,
				JoinPath(path[:len(path)-1]), (*slot).Tag())
		}
		parent = t
	}
	parent.Set(path[len(path)-1], v)

	return nil
}

// SplitPath splits a dotted path ("player.flags.hardcore") into segments.
func SplitPath(p string) []string {
	if p == "" {
		return nil
	}

	return strings.Split(p, ".")
}

// JoinPath is the inverse of SplitPath.
func JoinPath(path []string) string {
	return strings.Join(path, ".")
}
