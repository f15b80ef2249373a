package permission

import "sort"

// Set is an immutable set of permission tokens.
type Set struct {
	items []Permission
}

// NewSet builds a set from ps, dropping duplicates.
func NewSet(ps ...Permission) Set {
	seen := make(map[Permission]struct{}, len(ps))
	items := make([]Permission, 0, len(ps))
	for _, p := range ps {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return Set{items: items}
}

// Has reports whether p is in the set.
func (s Set) Has(p Permission) bool {
	i := sort.Search(len(s.items), func(i int) bool { return s.items[i] >= p })
	return i < len(s.items) && s.items[i] == p
}

// Len returns the number of tokens.
func (s Set) Len() int {
	return len(s.items)
}

// Slice returns the tokens in sorted order. The caller owns the result.
func (s Set) Slice() []Permission {
	return append([]Permission(nil), s.items...)
}
