// Package models holds the gorm row types for the storefront tables.
// Primary keys are assigned client side so rows can be referenced (for
// example by an outbox event) before the insert is flushed.
package models

import "github.com/google/uuid"

func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
