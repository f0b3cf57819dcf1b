package models

// Group represents a set of people sharing expenses. All balances within a
// group are denominated in the group's base currency.
//
// Groups are owned by the application layer; the ledger engine reads them.
// Members may be appended after creation, and a new member's balance
// materializes lazily at zero on first reference.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string `json:"name"`

	// Members is the list of member identities in this group.
	Members []MemberID `json:"members"`

	// BaseCurrency is the ISO-4217 code all group balances are kept in.
	BaseCurrency string `json:"base_currency"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}

// HasMember reports whether m is in the group's member list.
func (g *Group) HasMember(m MemberID) bool {
	for _, member := range g.Members {
		if member == m {
			return true
		}
	}
	return false
}
