package provision

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// LibrariesAll is the sentinel meaning "grant access to every library
// folder". When used it must be the only element of Account.Libraries.
const LibrariesAll = "all"

// Account describes one account to provision. Immutable once read from
// input.
type Account struct {
	Username  string
	Email     string
	Password  string
	AvatarURL string
	// Libraries holds library IDs to grant, or the single LibrariesAll
	// sentinel. Empty skips library assignment.
	Libraries []string
	Roles     []string
}

func (a Account) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Username, validation.Required),
		validation.Field(&a.Email, validation.Required),
		validation.Field(&a.Password, validation.Required),
	)
}

// allLibraries reports whether Libraries is the "all" sentinel.
func (a Account) allLibraries() bool {
	return len(a.Libraries) == 1 && a.Libraries[0] == LibrariesAll
}

// Provisioned is a successfully created remote account. RemoteID is never
// empty.
type Provisioned struct {
	Account  Account
	RemoteID string
	Created  bool
}

// Tally accumulates per-row outcomes across a batch run.
type Tally struct {
	Succeeded int
	Failed    int
}
