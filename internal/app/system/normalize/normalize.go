// Package normalize canonicalizes user input before it is stored or queried.
package normalize

import "strings"

// maxQueryParam caps filter/search values taken from the URL.
const maxQueryParam = 200

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses internal whitespace.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CourseCode trims and upper-cases a course code ("cs 101" stays "CS 101").
func CourseCode(s string) string {
	return strings.ToUpper(Name(s))
}

// Role lowercases a role; unknown values are returned as-is for validation
// to reject.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value and caps its length.
func QueryParam(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxQueryParam {
		s = s[:maxQueryParam]
	}
	return s
}

// SplitName splits a display name into first and last name: the first
// whitespace-separated token, and the remaining tokens joined by one space.
// Either part may be empty.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
