package admin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GTDGit/accounts_admin/internal/models"
)

// Descriptor validation errors. Issues wrap one of these so callers can use errors.Is.
var (
	ErrFieldOverlap         = errors.New("field is both read-only and list-editable")
	ErrUnknownField         = errors.New("unknown field")
	ErrEditableNotDisplayed = errors.New("list-editable field is not in list_display")
	ErrLinkEditable         = errors.New("field is both a display link and list-editable")
	ErrPagination           = errors.New("invalid pagination settings")
)

// Issue is a single descriptor problem.
type Issue struct {
	Option string
	Field  string
	Err    error
}

func (i Issue) Error() string {
	if i.Field == "" {
		return fmt.Sprintf("%s: %v", i.Option, i.Err)
	}
	return fmt.Sprintf("%s[%q]: %v", i.Option, i.Field, i.Err)
}

func (i Issue) Unwrap() error { return i.Err }

// ValidationError collects every issue found in a descriptor.
type ValidationError struct {
	Entity string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = is.Error()
	}
	return fmt.Sprintf("admin descriptor for %s is invalid: %s", e.Entity, strings.Join(msgs, "; "))
}

// Is matches any sentinel carried by one of the issues.
func (e *ValidationError) Is(target error) bool {
	for _, is := range e.Issues {
		if errors.Is(is.Err, target) {
			return true
		}
	}
	return false
}

// OnlyOverlap reports whether every issue is a read-only/editable overlap.
func (e *ValidationError) OnlyOverlap() bool {
	for _, is := range e.Issues {
		if !errors.Is(is.Err, ErrFieldOverlap) {
			return false
		}
	}
	return len(e.Issues) > 0
}

// Validate checks d against the entity's known fields. It returns nil or a
// *ValidationError listing all issues.
func (d Descriptor) Validate(entity string, known map[string]models.FieldKind) error {
	var issues []Issue

	checkKnown := func(option string, fields []string) {
		for _, f := range fields {
			if _, ok := known[f]; !ok {
				issues = append(issues, Issue{Option: option, Field: f, Err: ErrUnknownField})
			}
		}
	}
	checkKnown("list_display", d.ListDisplay)
	checkKnown("list_filter", d.ListFilter)
	checkKnown("search_fields", d.SearchFields)
	checkKnown("readonly_fields", d.ReadonlyFields)
	checkKnown("fields", d.Fields)
	checkKnown("list_editable", d.ListEditable)
	checkKnown("list_display_links", d.ListDisplayLinks)
	for _, o := range d.Ordering {
		f, _ := OrderField(o)
		if _, ok := known[f]; !ok {
			issues = append(issues, Issue{Option: "ordering", Field: o, Err: ErrUnknownField})
		}
	}

	for _, f := range d.Overlap() {
		issues = append(issues, Issue{Option: "list_editable", Field: f, Err: ErrFieldOverlap})
	}
	for _, f := range d.ListEditable {
		if !contains(d.ListDisplay, f) {
			issues = append(issues, Issue{Option: "list_editable", Field: f, Err: ErrEditableNotDisplayed})
		}
		if contains(d.ListDisplayLinks, f) {
			issues = append(issues, Issue{Option: "list_editable", Field: f, Err: ErrLinkEditable})
		}
	}

	if d.ListPerPage <= 0 {
		issues = append(issues, Issue{Option: "list_per_page", Err: ErrPagination})
	}
	if d.ListMaxShowAll < d.ListPerPage {
		issues = append(issues, Issue{Option: "list_max_show_all", Err: ErrPagination})
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Entity: entity, Issues: issues}
}
