// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query helps handlers and repositories assemble dynamic SQL and
// parse list-style query parameters.
package query

import (
	"fmt"
	"strings"
)

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}

// # Partial Updates

// Assignments collects "column = $n" pairs for a dynamic UPDATE statement.
//
//	set := query.Assignments{}
//	set.Add("title", "Solo Leveling")
//	set.Raw("updated_at = NOW()")
//	sql := fmt.Sprintf("UPDATE core.series SET %s WHERE id = %s", set.SQL(), set.Next(id))
type Assignments struct {
	parts []string
	args  []any
}

// Add binds value to column as the next positional argument.
func (set *Assignments) Add(column string, value any) {
	set.parts = append(set.parts, fmt.Sprintf("%s = %s", column, set.Next(value)))
}

// Raw appends an expression that needs no argument, e.g. "updated_at = NOW()".
func (set *Assignments) Raw(expression string) {
	set.parts = append(set.parts, expression)
}

// Next registers value and returns its placeholder. Used for the WHERE clause.
func (set *Assignments) Next(value any) string {
	set.args = append(set.args, value)
	return fmt.Sprintf("$%d", len(set.args))
}

// Len is the number of assignments (not arguments).
func (set *Assignments) Len() int { return len(set.parts) }

// SQL joins the assignments for a SET clause.
func (set *Assignments) SQL() string { return strings.Join(set.parts, ", ") }

// Args returns the positional arguments in placeholder order.
func (set *Assignments) Args() []any { return set.args }
