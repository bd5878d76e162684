// Package rooms tracks which connections are members of which room.
//
// A room has no record of its own: it exists exactly while its member set
// is non-empty. Adding the first member creates the entry, removing the
// last one deletes it.
package rooms

// Rooms is the membership index. It is not safe for concurrent use on its
// own; the session controller serializes all access.
type Rooms struct {
	members map[string]map[string]struct{} // room code -> member identities
	joined  map[string]map[string]struct{} // identity -> room codes
}

func New() *Rooms {
	return &Rooms{
		members: make(map[string]map[string]struct{}),
		joined:  make(map[string]map[string]struct{}),
	}
}

// Join adds identity to the room's member set, creating the room if this
// is its first member.
func (r *Rooms) Join(identity, code string) {
	set, ok := r.members[code]
	if !ok {
		set = make(map[string]struct{})
		r.members[code] = set
	}
	set[identity] = struct{}{}

	codes, ok := r.joined[identity]
	if !ok {
		codes = make(map[string]struct{})
		r.joined[identity] = codes
	}
	codes[code] = struct{}{}
}

// Leave removes identity from the room's member set, destroying the room
// if it was the last member. Leaving a room the identity is not in is a
// no-op.
func (r *Rooms) Leave(identity, code string) {
	if set, ok := r.members[code]; ok {
		delete(set, identity)
		if len(set) == 0 {
			delete(r.members, code)
		}
	}
	if codes, ok := r.joined[identity]; ok {
		delete(codes, code)
		if len(codes) == 0 {
			delete(r.joined, identity)
		}
	}
}

// LeaveAll removes identity from every room it is in.
func (r *Rooms) LeaveAll(identity string) {
	for _, code := range r.RoomsOf(identity) {
		r.Leave(identity, code)
	}
}

// MembersOf returns the identities currently in the room. The order is
// unspecified.
func (r *Rooms) MembersOf(code string) []string {
	set := r.members[code]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for identity := range set {
		out = append(out, identity)
	}
	return out
}

// RoomsOf returns every room the identity is a member of. Under the join
// protocol that is at most one, but the index does not assume it.
func (r *Rooms) RoomsOf(identity string) []string {
	codes := r.joined[identity]
	if len(codes) == 0 {
		return nil
	}
	out := make([]string, 0, len(codes))
	for code := range codes {
		out = append(out, code)
	}
	return out
}

// Contains reports whether identity is in the room.
func (r *Rooms) Contains(identity, code string) bool {
	_, ok := r.members[code][identity]
	return ok
}

// Count returns the number of distinct non-empty rooms.
func (r *Rooms) Count() int {
	return len(r.members)
}

// Sizes returns the member count of every non-empty room.
func (r *Rooms) Sizes() map[string]int {
	out := make(map[string]int, len(r.members))
	for code, set := range r.members {
		out[code] = len(set)
	}
	return out
}
