package core

import (
	"fmt"
	"strings"
)

// validatePathClosure establishes I5: every dotted column path "a.b.c"
// has every strict prefix ("a", "a.b") also present as a column.
func validatePathClosure(t *Table) error {
	present := make(map[string]bool, len(t.Schema))
	for _, c := range t.Schema {
		present[c.Name] = true
	}

	for _, c := range t.Schema {
		segments := strings.Split(c.Name, ".")
		for i := 1; i < len(segments); i++ {
			prefix := strings.Join(segments[:i], ".")
			if !present[prefix] {
				return &InvalidModelError{
					Reason: fmt.Sprintf("table %q: column %q is missing required prefix %q", t.Name, c.Name, prefix),
				}
			}
		}
	}
	return nil
}
