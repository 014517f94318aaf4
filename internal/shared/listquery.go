package shared

import (
	"fmt"
	"strings"
)

// Filter accumulates SQL predicates with numbered placeholders. The list pages
// build one Filter per request and hand the identical predicate set to both the
// paged SELECT and the COUNT, so the two can never disagree about which rows
// match.
type Filter struct {
	clauses []string
	args    []any
}

// NewFilter returns a Filter seeded with the mandatory owner-scope predicate.
func NewFilter(ownerColumn string, ownerID int64) *Filter {
	f := &Filter{}
	f.Equals(ownerColumn, ownerID)
	return f
}

// Equals adds a column = value predicate.
func (f *Filter) Equals(column string, value any) *Filter {
	f.clauses = append(f.clauses, fmt.Sprintf("%s = $%d", column, len(f.args)+1))
	f.args = append(f.args, value)
	return f
}

// EqualsIf adds the predicate only when the string value is set. Absent filter
// values mean "no constraint", never "match null".
func (f *Filter) EqualsIf(column, value string) *Filter {
	if value == "" {
		return f
	}
	return f.Equals(column, value)
}

// EqualsIfID adds the predicate only when id is positive.
func (f *Filter) EqualsIfID(column string, id int64) *Filter {
	if id <= 0 {
		return f
	}
	return f.Equals(column, id)
}

// Search adds a case-insensitive substring match across the given columns.
func (f *Filter) Search(term string, columns ...string) *Filter {
	if term == "" || len(columns) == 0 {
		return f
	}
	f.args = append(f.args, "%"+strings.ToLower(term)+"%")
	placeholder := fmt.Sprintf("$%d", len(f.args))
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("LOWER(%s) LIKE %s", col, placeholder)
	}
	f.clauses = append(f.clauses, "("+strings.Join(parts, " OR ")+")")
	return f
}

// OnDay restricts a timestamp column to a single calendar day in the given zone.
func (f *Filter) OnDay(column, day string) *Filter {
	if day == "" {
		return f
	}
	f.clauses = append(f.clauses, fmt.Sprintf("%s::date = $%d::date", column, len(f.args)+1))
	f.args = append(f.args, day)
	return f
}

// Where renders the predicate set as a WHERE clause.
func (f *Filter) Where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// Args returns the accumulated placeholder values.
func (f *Filter) Args() []any {
	return f.args
}

// WithPage appends LIMIT/OFFSET arguments and returns the SQL fragment.
func (f *Filter) WithPage(p Pagination) (string, []any) {
	args := append(append([]any{}, f.args...), p.PerPage, p.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
