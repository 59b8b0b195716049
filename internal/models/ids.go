package models

import "github.com/google/uuid"

// ensureUUID assigns a random UUID to *id unless the caller preset one.
func ensureUUID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
