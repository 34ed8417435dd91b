package query

// Key names a filter dimension in the address query and the listing API.
type Key string

// Facet keys.
const (
	KeyDaytime   Key = "daytime"
	KeyLocation  Key = "location"
	KeyType      Key = "type"
	KeyMaterial  Key = "material"
	KeyPanes     Key = "panes"
	KeyCovering  Key = "covering"
	KeyOpenState Key = "openState"
)

// Reserved keys that are not facets but still travel with the filters.
const (
	KeyDuplicate Key = "isDuplicate"
	KeySearch    Key = "search"
)

// All is the option value that means "no constraint" for any facet.
const All = "all"

const (
	pageParam  = "page"
	limitParam = "limit"
)

// Option is one selectable value of a facet.
type Option struct {
	Label string
	Value string
}

// Facet describes one filterable structured-data dimension.
type Facet struct {
	Key     Key
	Title   string
	Options []Option
}

// Allows reports whether value is one of the facet's options.
func (f Facet) Allows(value string) bool {
	for _, opt := range f.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Label returns the display label for value, or value itself when unknown.
func (f Facet) Label(value string) string {
	if value == "" {
		value = All
	}
	for _, opt := range f.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

// Facets is the facet configuration table, in display order.
var Facets = []Facet{
	{
		Key:   KeyDaytime,
		Title: "Daytime",
		Options: []Option{
			{"All", All},
			{"Day", "day"},
			{"Night", "night"},
			{"Unknown", "unknown"},
		},
	},
	{
		Key:   KeyLocation,
		Title: "Location",
		Options: []Option{
			{"All", All},
			{"Interior", "interior"},
			{"Exterior", "exterior"},
			{"Unknown", "unknown"},
		},
	},
	{
		Key:   KeyType,
		Title: "Window Type",
		Options: []Option{
			{"All", All},
			{"Fixed", "fixed"},
			{"Sliding", "sliding"},
			{"Casement", "casement"},
			{"Awning", "awning"},
			{"Hung", "hung"},
			{"Pivot", "pivot"},
			{"Unknown", "unknown"},
		},
	},
	{
		Key:   KeyMaterial,
		Title: "Material",
		Options: []Option{
			{"All", All},
			{"Wood", "wood"},
			{"Aluminum", "aluminum"},
			{"PVC", "pvc"},
			{"Unknown", "unknown"},
		},
	},
	{
		Key:   KeyPanes,
		Title: "Panes",
		Options: []Option{
			{"All", All},
			{"1", "1"},
			{"2", "2"},
			{"3", "3"},
			{"Unknown", "unknown"},
		},
	},
	{
		Key:   KeyCovering,
		Title: "Covering",
		Options: []Option{
			{"All", All},
			{"Curtains", "curtains"},
			{"Blinds", "blins"},
			{"None", "none"},
			{"Unknown", "unknown"},
		},
	},
	{
		Key:   KeyOpenState,
		Title: "Open State",
		Options: []Option{
			{"All", All},
			{"Open", "open"},
			{"Closed", "closed"},
			{"Ajar", "ajar"},
			{"Unknown", "unknown"},
		},
	},
}

// DuplicateFacet is the selectable form of the duplicate-only toggle.
var DuplicateFacet = Facet{
	Key:   KeyDuplicate,
	Title: "Duplicate",
	Options: []Option{
		{"All", All},
		{"Duplicates only", "true"},
		{"Non-duplicates only", "false"},
	},
}

// Selectable returns every facet a user can pick a value for, duplicate
// toggle last.
func Selectable() []Facet {
	out := make([]Facet, 0, len(Facets)+1)
	out = append(out, Facets...)
	return append(out, DuplicateFacet)
}

// Lookup returns the facet for key.
func Lookup(key Key) (Facet, bool) {
	if key == KeyDuplicate {
		return DuplicateFacet, true
	}
	for _, f := range Facets {
		if f.Key == key {
			return f, true
		}
	}
	return Facet{}, false
}

func isFacet(key Key) bool {
	for _, f := range Facets {
		if f.Key == key {
			return true
		}
	}
	return false
}
