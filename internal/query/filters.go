package query

import (
	"net/url"
	"strconv"
	"strings"
)

// FilterSet holds the active facet constraints, the duplicate toggle and the
// free-text search. The zero value has no constraints. Methods never mutate
// the receiver.
type FilterSet struct {
	facets    map[Key]string
	duplicate *bool
	search    string
}

// Apply returns a copy of f with key set to value. An empty value or All
// removes the key. The duplicate toggle is true only for the literal "true".
// Unknown keys return f unchanged.
func (f FilterSet) Apply(key Key, value string) FilterSet {
	value = strings.TrimSpace(value)
	unset := value == "" || value == All

	out := f.clone()
	switch {
	case key == KeySearch:
		if unset {
			out.search = ""
		} else {
			out.search = value
		}
	case key == KeyDuplicate:
		if unset {
			out.duplicate = nil
		} else {
			dup := value == "true"
			out.duplicate = &dup
		}
	case isFacet(key):
		if unset {
			delete(out.facets, key)
		} else {
			out.facets[key] = value
		}
	default:
		return f
	}
	return out
}

// WithDuplicate returns a copy of f with the duplicate toggle set.
func (f FilterSet) WithDuplicate(v bool) FilterSet {
	return f.Apply(KeyDuplicate, strconv.FormatBool(v))
}

// Get returns the value stored for key in its address-query form.
func (f FilterSet) Get(key Key) (string, bool) {
	switch key {
	case KeySearch:
		return f.search, f.search != ""
	case KeyDuplicate:
		if f.duplicate == nil {
			return "", false
		}
		return strconv.FormatBool(*f.duplicate), true
	}
	v, ok := f.facets[key]
	return v, ok
}

// Duplicate returns the duplicate toggle and whether it is set.
func (f FilterSet) Duplicate() (value, ok bool) {
	if f.duplicate == nil {
		return false, false
	}
	return *f.duplicate, true
}

// Search returns the active search term.
func (f FilterSet) Search() string {
	return f.search
}

// Len returns the number of active constraints.
func (f FilterSet) Len() int {
	n := len(f.facets)
	if f.duplicate != nil {
		n++
	}
	if f.search != "" {
		n++
	}
	return n
}

// IsEmpty reports whether no constraint is active.
func (f FilterSet) IsEmpty() bool {
	return f.Len() == 0
}

// Equal reports whether f and o hold the same constraints.
func (f FilterSet) Equal(o FilterSet) bool {
	if f.Len() != o.Len() || f.search != o.search {
		return false
	}
	if (f.duplicate == nil) != (o.duplicate == nil) {
		return false
	}
	if f.duplicate != nil && *f.duplicate != *o.duplicate {
		return false
	}
	for k, v := range f.facets {
		if o.facets[k] != v {
			return false
		}
	}
	return true
}

// Values returns every active constraint keyed by its parameter name.
func (f FilterSet) Values() url.Values {
	values := url.Values{}
	for _, facet := range Facets {
		if v, ok := f.facets[facet.Key]; ok {
			values.Set(string(facet.Key), v)
		}
	}
	if v, ok := f.Get(KeyDuplicate); ok {
		values.Set(string(KeyDuplicate), v)
	}
	if f.search != "" {
		values.Set(string(KeySearch), f.search)
	}
	return values
}

func (f FilterSet) clone() FilterSet {
	out := FilterSet{
		facets: make(map[Key]string, len(f.facets)+1),
		search: f.search,
	}
	for k, v := range f.facets {
		out.facets[k] = v
	}
	if f.duplicate != nil {
		dup := *f.duplicate
		out.duplicate = &dup
	}
	return out
}
