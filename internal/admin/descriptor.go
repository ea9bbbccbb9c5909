// Package admin declares how entities are presented in the back office and
// keeps the registry of those declarations.
package admin

import "strings"

// Descriptor declares list, filter, search and edit behaviour for one entity.
// It is built once at startup and never mutated after registration.
type Descriptor struct {
	ListDisplay       []string `json:"listDisplay"`
	ListFilter        []string `json:"listFilter"`
	SearchFields      []string `json:"searchFields"`
	Ordering          []string `json:"ordering"`
	ReadonlyFields    []string `json:"readonlyFields"`
	Fields            []string `json:"fields"`
	ListPerPage       int      `json:"listPerPage"`
	ListMaxShowAll    int      `json:"listMaxShowAll"`
	ListEditable      []string `json:"listEditable"`
	ListDisplayLinks  []string `json:"listDisplayLinks"`
	ListSelectRelated []string `json:"listSelectRelated"`
}

// Clone returns a deep copy.
func (d Descriptor) Clone() Descriptor {
	return Descriptor{
		ListDisplay:       cloneStrings(d.ListDisplay),
		ListFilter:        cloneStrings(d.ListFilter),
		SearchFields:      cloneStrings(d.SearchFields),
		Ordering:          cloneStrings(d.Ordering),
		ReadonlyFields:    cloneStrings(d.ReadonlyFields),
		Fields:            cloneStrings(d.Fields),
		ListPerPage:       d.ListPerPage,
		ListMaxShowAll:    d.ListMaxShowAll,
		ListEditable:      cloneStrings(d.ListEditable),
		ListDisplayLinks:  cloneStrings(d.ListDisplayLinks),
		ListSelectRelated: cloneStrings(d.ListSelectRelated),
	}
}

// Overlap returns the names present in both ReadonlyFields and ListEditable,
// in ListEditable order.
func (d Descriptor) Overlap() []string {
	var out []string
	for _, f := range d.ListEditable {
		if contains(d.ReadonlyFields, f) {
			out = append(out, f)
		}
	}
	return out
}

// WithoutOverlap returns a copy in which read-only fields are removed from
// ListEditable.
func (d Descriptor) WithoutOverlap() Descriptor {
	out := d.Clone()
	editable := make([]string, 0, len(out.ListEditable))
	for _, f := range out.ListEditable {
		if !contains(out.ReadonlyFields, f) {
			editable = append(editable, f)
		}
	}
	out.ListEditable = editable
	return out
}

// IsEditable reports whether field may be changed from the list view.
func (d Descriptor) IsEditable(field string) bool {
	return contains(d.ListEditable, field) && !contains(d.ReadonlyFields, field)
}

// IsReadonly reports whether field is read-only on the detail view.
func (d Descriptor) IsReadonly(field string) bool {
	return contains(d.ReadonlyFields, field)
}

// IsFilterable reports whether field is a list filter.
func (d Descriptor) IsFilterable(field string) bool {
	return contains(d.ListFilter, field)
}

// IsDisplayed reports whether field is a list column.
func (d Descriptor) IsDisplayed(field string) bool {
	return contains(d.ListDisplay, field)
}

// OrderField splits an ordering entry into column name and direction.
func OrderField(entry string) (field string, desc bool) {
	if strings.HasPrefix(entry, "-") {
		return entry[1:], true
	}
	return entry, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
