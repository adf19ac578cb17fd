package core

import "fmt"

// validatePrimaryKeyPositions establishes I4: if PrimaryKeyPosition is set
// on any primary-key column, every primary-key column has a unique
// positive position, and together they form the contiguous set {1..k}
// for the k primary-key columns.
func validatePrimaryKeyPositions(t *Table) error {
	pk := t.PrimaryKeyColumns()
	if len(pk) == 0 {
		return nil
	}

	anyPositioned := false
	for _, c := range pk {
		if c.PrimaryKeyPosition != 0 {
			anyPositioned = true
			break
		}
	}
	if !anyPositioned {
		return nil
	}

	seen := make(map[int]string, len(pk))
	for _, c := range pk {
		if c.PrimaryKeyPosition <= 0 {
			return &InvalidModelError{
				Reason: fmt.Sprintf("table %q: primary key column %q has no position while others do", t.Name, c.Name),
			}
		}
		if other, ok := seen[c.PrimaryKeyPosition]; ok {
			return &InvalidModelError{
				Reason: fmt.Sprintf("table %q: primary key columns %q and %q share position %d", t.Name, other, c.Name, c.PrimaryKeyPosition),
			}
		}
		seen[c.PrimaryKeyPosition] = c.Name
	}

	for pos := 1; pos <= len(pk); pos++ {
		if _, ok := seen[pos]; !ok {
			return &InvalidModelError{
				Reason: fmt.Sprintf("table %q: primary key positions must form {1..%d}; position %d is missing", t.Name, len(pk), pos),
			}
		}
	}
	return nil
}

// ValidateRelationships establishes I6: every relationship's endpoints
// must refer to existing tables. Orphaned relationships are returned
// rather than silently dropped, so callers can surface them separately.
func ValidateRelationships(tables []*Table, rels []*Relationship) []OrphanedRelationship {
	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[t.ID.String()] = true
	}

	var orphaned []OrphanedRelationship
	for _, r := range rels {
		missingFrom := !known[r.FromTableID.String()]
		missingTo := !known[r.ToTableID.String()]
		if missingFrom || missingTo {
			orphaned = append(orphaned, OrphanedRelationship{
				Relationship: r,
				MissingFrom:  missingFrom,
				MissingTo:    missingTo,
			})
		}
	}
	return orphaned
}
