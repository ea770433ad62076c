package entity

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// Underscore converts a type or field name to snake_case. Punctuation that
// shows up in reflected names (pointers, generic suffixes) is collapsed so the
// result is usable as a column or table name.
func Underscore(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	lastUnderscore := false
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if b.Len() > 0 && !lastUnderscore {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (nextLower && unicode.IsUpper(prev)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false

		case unicode.IsLower(r), unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false

		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	return strings.Trim(b.String(), "_")
}

// Camelize converts snake_case to CamelCase.
func Camelize(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Classify derives a type name from an association name: "projects" becomes
// "Project", "account" stays "Account".
func Classify(associationName string) string {
	return Camelize(inflection.Singular(Underscore(associationName)))
}

// Tableize derives the default table name for a type: "BlogPost" becomes
// "blog_posts".
func Tableize(typeName string) string {
	return inflection.Plural(Underscore(typeName))
}

// ForeignKey derives the default foreign key column referencing typeName.
func ForeignKey(typeName string) string {
	return inflection.Singular(Underscore(typeName)) + "_id"
}

// JoinTable derives the default many-to-many join table from two table
// names, ordered lexically: "users" and "projects" give "projects_users".
func JoinTable(tableA, tableB string) string {
	tables := []string{tableA, tableB}
	sort.Strings(tables)
	return tables[0] + "_" + tables[1]
}
