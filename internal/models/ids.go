package models

import "github.com/google/uuid"

// ValidID reports whether id is a canonical UUID string, the only form
// the repositories ever assign. Upper and lower case are both accepted.
func ValidID(id string) bool {
	return len(id) == 36 && uuid.Validate(id) == nil
}
