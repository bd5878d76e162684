// Package directory maps connection identities to the player identifiers
// clients announce after joining a room.
package directory

// Directory holds one entry per connection that has sent an identifier
// since its last join. Entries are removed on disconnect. Not safe for
// concurrent use on its own; the session controller serializes all access.
type Directory struct {
	ids map[string]int
}

func New() *Directory {
	return &Directory{ids: make(map[string]int)}
}

// Set records or replaces the player identifier for identity.
func (d *Directory) Set(identity string, playerID int) {
	d.ids[identity] = playerID
}

// Get returns the identifier for identity, if one has been recorded.
func (d *Directory) Get(identity string) (int, bool) {
	id, ok := d.ids[identity]
	return id, ok
}

// Remove deletes the entry for identity, if any.
func (d *Directory) Remove(identity string) {
	delete(d.ids, identity)
}

// Snapshot returns the identifier entries for the given members, leaving
// out the excluded identity and any member without an entry. The result
// is never nil.
func (d *Directory) Snapshot(members []string, exclude string) map[string]int {
	out := make(map[string]int, len(members))
	for _, identity := range members {
		if identity == exclude {
			continue
		}
		if id, ok := d.ids[identity]; ok {
			out[identity] = id
		}
	}
	return out
}
