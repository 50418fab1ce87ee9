package validate

import "strings"

// OrderedSet keeps the first occurrence of each string in insertion order.
type OrderedSet struct {
	seen  map[string]struct{}
	items []string
}

// Add trims s and appends it unless empty or already present. It reports whether s was added.
func (o *OrderedSet) Add(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if o.seen == nil {
		o.seen = make(map[string]struct{})
	}
	if _, ok := o.seen[s]; ok {
		return false
	}
	o.seen[s] = struct{}{}
	o.items = append(o.items, s)
	return true
}

// AddAll adds each value in order.
func (o *OrderedSet) AddAll(values ...string) {
	for _, v := range values {
		o.Add(v)
	}
}

// Items returns the items in discovery order. The slice is never nil.
func (o *OrderedSet) Items() []string {
	out := make([]string, len(o.items))
	copy(out, o.items)
	return out
}
