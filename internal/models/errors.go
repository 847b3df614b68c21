package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound indicates the requested record does not exist. Handlers map it
// to a 404 and services return it instead of raising.
var ErrNotFound = errors.New("record does not exist")

// ValidationErrors collects field-scoped validation messages. Validation never
// short-circuits: every failing check adds its message and the caller receives
// the full map or an empty one.
type ValidationErrors map[string][]string

// Add appends a message for the given field.
func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

// Any reports whether at least one validation error was collected.
func (v ValidationErrors) Any() bool {
	return len(v) > 0
}

// Error renders the collected errors deterministically, fields sorted.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", field, strings.Join(v[field], ", "))
	}
	return b.String()
}
