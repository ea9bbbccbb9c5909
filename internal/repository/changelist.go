package repository

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/GTDGit/accounts_admin/internal/admin"
	"github.com/GTDGit/accounts_admin/internal/models"
	"github.com/GTDGit/accounts_admin/internal/utils"
)

// ChangeListQuery holds the request parameters of a list view.
type ChangeListQuery struct {
	Search  string
	Filters map[string]string
	Order   string
	Page    int
	ShowAll bool
}

// changeListPlan is the WHERE/ORDER BY part of a list query, built only from
// descriptor-approved columns.
type changeListPlan struct {
	where   string
	args    []interface{}
	orderBy string
}

// planChangeList turns q into SQL fragments. Filters must name list_filter
// fields, search runs over search_fields, and an explicit order must name a
// list_display field.
func planChangeList(fields map[string]models.FieldKind, d admin.Descriptor, q ChangeListQuery) (*changeListPlan, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	// Sorted for stable SQL text and argument order.
	for _, name := range sortedKeys(q.Filters) {
		raw := q.Filters[name]
		if !d.IsFilterable(name) {
			return nil, fmt.Errorf("%w: %s is not a list filter", utils.ErrInvalidFilter, name)
		}
		kind, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %s", utils.ErrInvalidFilter, name)
		}
		switch kind {
		case models.FieldBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s expects true or false", utils.ErrInvalidFilter, name)
			}
			where += fmt.Sprintf(" AND %s = $%d", name, argIdx)
			args = append(args, b)
		case models.FieldTime:
			day, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s expects YYYY-MM-DD", utils.ErrInvalidFilter, name)
			}
			where += fmt.Sprintf(" AND %s::date = $%d", name, argIdx)
			args = append(args, day)
		default:
			where += fmt.Sprintf(" AND %s = $%d", name, argIdx)
			args = append(args, raw)
		}
		argIdx++
	}

	// Every search term must match at least one search field.
	if len(d.SearchFields) > 0 {
		for _, term := range strings.Fields(q.Search) {
			ors := make([]string, len(d.SearchFields))
			for i, f := range d.SearchFields {
				col := f
				if fields[f] != models.FieldString {
					col += "::text"
				}
				ors[i] = fmt.Sprintf("%s ILIKE $%d", col, argIdx)
			}
			where += " AND (" + strings.Join(ors, " OR ") + ")"
			args = append(args, "%"+escapeLike(term)+"%")
			argIdx++
		}
	}

	ordering := d.Ordering
	if q.Order != "" {
		f, _ := admin.OrderField(q.Order)
		if !d.IsDisplayed(f) {
			return nil, fmt.Errorf("%w: %s is not a list column", utils.ErrInvalidOrdering, f)
		}
		ordering = []string{q.Order}
	}
	parts := make([]string, 0, len(ordering)+1)
	hasID := false
	for _, o := range ordering {
		f, desc := admin.OrderField(o)
		if f == "id" {
			hasID = true
		}
		dir := "ASC"
		if desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s", f, dir))
	}
	// id keeps pagination deterministic when the ordering has ties.
	if !hasID {
		parts = append(parts, "id ASC")
	}

	return &changeListPlan{
		where:   where,
		args:    args,
		orderBy: "ORDER BY " + strings.Join(parts, ", "),
	}, nil
}

func (p *changeListPlan) countQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(1) FROM %s %s", table, p.where)
}

// listQuery returns the page query. limit <= 0 means no LIMIT/OFFSET.
func (p *changeListPlan) listQuery(table, columns string, limit, offset int) (string, []interface{}) {
	query := fmt.Sprintf("SELECT %s FROM %s %s %s", columns, table, p.where, p.orderBy)
	args := append([]interface{}{}, p.args...)
	if limit > 0 {
		n := len(args) + 1
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", n, n+1)
		args = append(args, limit, offset)
	}
	return query, args
}

// pageWindow resolves page size and offset. Show-all is honoured only when
// total fits in list_max_show_all. Pages past the end are clamped to the
// last page, which keeps offset within [0, total).
func pageWindow(d admin.Descriptor, q ChangeListQuery, total int) (page, limit, offset int, showAll bool) {
	if q.ShowAll && total <= d.ListMaxShowAll {
		return 1, 0, 0, true
	}
	limit = d.ListPerPage
	last := 1
	if total > 0 {
		last = (total-1)/limit + 1
	}
	page = q.Page
	if page < 1 {
		page = 1
	}
	if page > last {
		page = last
	}
	return page, limit, (page - 1) * limit, false
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
