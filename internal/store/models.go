package store

// User is the identity read model synced from the wiki host.
type User struct {
	ID        string
	Name      string
	IsBlocked bool
	CanEdit   bool
}
