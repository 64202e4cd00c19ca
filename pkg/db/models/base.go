package models

import "github.com/google/uuid"

// ensureID assigns a fresh identifier when the caller left it empty. Postgres
// also defaults ids, but assigning them here keeps RETURNING-free drivers and
// in-transaction references consistent.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
