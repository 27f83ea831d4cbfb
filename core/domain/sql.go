package domain

import "strings"

// TemplateExt is the suffix that marks a SQL value as a reference to a template file
const TemplateExt = ".sql"

// SQL is an ordered list of statements executed one after another.
// A single statement is a one-element list.
type SQL []string

// Statements builds SQL from one or more statements
func Statements(stmts ...string) SQL {
	return SQL(stmts)
}

// String returns the literal SQL text. A single statement is returned as-is,
// multiple statements are joined with "; ".
func (s SQL) String() string {
	if len(s) == 1 {
		return s[0]
	}
	return strings.Join(s, "; ")
}

// IsTemplateRef reports whether a raw SQL value refers to a template file
func IsTemplateRef(value string) bool {
	return strings.HasSuffix(strings.TrimSpace(value), TemplateExt)
}
