// Package database builds parameterized list queries with sanitized identifiers.
package database

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal        ConditionType = "="
	defaultLimit               = -1
)

type Condition struct {
	Field string
	Type  ConditionType
	Value any
}

func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

type ListQueryOptions struct {
	Table      string
	Columns    []string
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table: table,
		Limit: defaultLimit,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Columns = cols
	}
}

// WithCondition adds a single condition. Conditions on an empty field are dropped.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Conditions = append(o.Conditions, cond)
	}
}

// WithOrderBy sets the ordering column and direction.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// sanitizeIdentifier quotes identifiers like "column" or "table.column".
func sanitizeIdentifier(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

func buildSelectClause(options *ListQueryOptions) string {
	if len(options.Columns) == 0 {
		return "SELECT * "
	}
	cols := make([]string, len(options.Columns))
	for i, col := range options.Columns {
		cols[i] = sanitizeIdentifier(col)
	}
	return fmt.Sprintf("SELECT %s ", strings.Join(cols, ", "))
}

// buildWhereClause generates the WHERE part of the query and returns the next parameter index.
func buildWhereClause(conds []Condition, start int) (string, []any, int) {
	parts := make([]string, 0, len(conds))
	args := []any{}
	n := start
	for _, cond := range conds {
		if cond.Field == "" || cond.Type != Equal {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s $%d", sanitizeIdentifier(cond.Field), cond.Type, n))
		args = append(args, cond.Value)
		n++
	}
	if len(parts) == 0 {
		return "", args, n
	}
	return "WHERE " + strings.Join(parts, " AND "), args, n
}

// buildOrderAndLimitClause generates the ORDER BY and LIMIT parts.
func buildOrderAndLimitClause(options *ListQueryOptions, n int, args []any) (string, []any) {
	var clause strings.Builder
	if options.OrderBy != "" {
		clause.WriteString(" ORDER BY ")
		clause.WriteString(sanitizeIdentifier(options.OrderBy))
		if dir := strings.ToUpper(options.OrderDir); dir == "ASC" || dir == "DESC" {
			clause.WriteString(" ")
			clause.WriteString(dir)
		}
	}
	if options.Limit != defaultLimit {
		fmt.Fprintf(&clause, " LIMIT $%d", n)
		args = append(args, options.Limit)
	}
	return clause.String(), args
}

// BuildListQuery constructs a SQL query string and arguments from options.
//
//	query, args := BuildListQuery(NewListQueryOptions("reconcile_runs",
//		WithCondition(WhereCond("target_kind", Equal, "instance")),
//		WithOrderBy("finished_at", "DESC"),
//		WithLimit(20),
//	))
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder
	query.WriteString(buildSelectClause(options))
	query.WriteString("FROM ")
	query.WriteString(sanitizeIdentifier(options.Table))

	where, args, next := buildWhereClause(options.Conditions, 1)
	if where != "" {
		query.WriteString(" ")
		query.WriteString(where)
	}

	tail, args := buildOrderAndLimitClause(options, next, args)
	query.WriteString(tail)
	return query.String(), args
}
