package core

// Validate runs the structural invariants I1-I5 (spec.md §3) against a
// built Table. It is called by every importer immediately after it
// finishes converting TableData into a *Table, and by NewTable.
//
// It returns the first violation found, wrapped in *InvalidModelError.
func Validate(t *Table) error {
	if t == nil {
		return &InvalidModelError{Reason: "table is nil"}
	}
	if err := validateRequiredFields(t); err != nil {
		return err
	}
	if err := validateColumnUniqueness(t); err != nil {
		return err
	}
	if err := validatePrimaryKeyNullability(t); err != nil {
		return err
	}
	if err := validatePrimaryKeyPositions(t); err != nil {
		return err
	}
	if err := validatePathClosure(t); err != nil {
		return err
	}
	return nil
}

func validateRequiredFields(t *Table) error {
	if t.Name == "" {
		return &InvalidModelError{Reason: "table name is required"}
	}
	// A zero-column table is legal: the SQL importer produces one for
	// CREATE VIEW statements (spec.md §4.4.1).
	return nil
}
