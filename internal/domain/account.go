package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Account is the authenticated identity a dashboard session belongs to.
// AccountID is the canonical foreign key on every domain table.
type Account struct {
	AccountID uuid.UUID
	Email     string
	// ClientID is the id of the upstream accounts row, opaque to callers.
	ClientID uuid.UUID
}

// DisplayName returns the local part of the email, used for the user menu.
func (a Account) DisplayName() string {
	name, _, _ := strings.Cut(a.Email, "@")
	return name
}
