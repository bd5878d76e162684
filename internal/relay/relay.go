// Package relay implements the signaling relay's session protocol: room
// membership, player identifier propagation, and point-to-point signal
// forwarding between connected peers.
package relay

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/crewlink/relay/internal/directory"
	"github.com/crewlink/relay/internal/presence"
	"github.com/crewlink/relay/internal/protocol"
	"github.com/crewlink/relay/internal/rooms"
)

// Peer is the transport handle for one live connection. Send hands a
// message to the transport for asynchronous delivery; it must not block
// and delivery is not acknowledged.
type Peer interface {
	ID() string
	Send(msg any)
}

// Relay owns all shared session state. A single mutex serializes every
// mutation, so events from different connections never interleave inside
// an operation; the transport guarantees per-connection ordering.
type Relay struct {
	mu        sync.Mutex
	peers     map[string]Peer // connection registry
	rooms     *rooms.Rooms
	ids       *directory.Directory
	connected int

	mirror *presence.Mirror // optional, nil when reporting is disabled
}

// New returns a Relay. mirror may be nil.
func New(mirror *presence.Mirror) *Relay {
	return &Relay{
		peers:  make(map[string]Peer),
		rooms:  rooms.New(),
		ids:    directory.New(),
		mirror: mirror,
	}
}

// Connect registers a new connection. The peer starts outside any room.
func (r *Relay) Connect(p Peer) {
	r.mu.Lock()
	r.peers[p.ID()] = p
	r.connected++
	count := r.connected
	r.mu.Unlock()

	r.mirror.Connected(context.Background())
	log.Printf("Total connected: %d", count)
}

// Join moves the peer into the given room, leaving its current room first
// if it is in one. Existing members are told about the new peer, and the
// peer receives a snapshot of every other member's player identifier.
//
// Structural validation happens at decode time in the transport; by the
// time an event reaches here its shape is known good.
func (r *Relay) Join(p Peer, code string, playerID int) {
	r.mu.Lock()
	left := r.leaveLocked(p)

	identity := p.ID()
	r.rooms.Join(identity, code)
	r.ids.Set(identity, playerID)

	members := r.rooms.MembersOf(code)
	r.broadcastLocked(code, identity, protocol.NewJoinBroadcast(identity, playerID))
	snapshot := r.ids.Snapshot(members, identity)
	p.Send(protocol.NewSetIDsReply(snapshot))
	r.mu.Unlock()

	for _, old := range left {
		r.mirror.Left(context.Background(), old, identity)
	}
	r.mirror.Joined(context.Background(), code, identity)
	log.Printf("Join broadcast in room %s: %s %d", code, identity, playerID)
}

// SetIdentifier updates the peer's player identifier and tells the rest of
// its room. A peer that is not in a room has no audience, so the event is
// silently ignored.
func (r *Relay) SetIdentifier(p Peer, playerID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity := p.ID()
	codes := r.rooms.RoomsOf(identity)
	if len(codes) == 0 {
		return
	}
	r.ids.Set(identity, playerID)
	for _, code := range codes {
		r.broadcastLocked(code, identity, protocol.NewSetIDBroadcast(identity, playerID))
		log.Printf("ID broadcast to room %s: %s %d", code, identity, playerID)
	}
}

// Leave exits the peer's current room, if any. The rest of the room sees a
// deleteId carrying the identity only.
func (r *Relay) Leave(p Peer) {
	r.mu.Lock()
	left := r.leaveLocked(p)
	r.mu.Unlock()

	for _, code := range left {
		r.mirror.Left(context.Background(), code, p.ID())
	}
}

// leaveLocked is shared by explicit leaves and the implicit leave at the
// start of a new join. Caller holds r.mu and returns the rooms left so the
// presence mirror can be updated after the lock is released.
func (r *Relay) leaveLocked(p Peer) []string {
	identity := p.ID()
	left := r.rooms.RoomsOf(identity)
	for _, code := range left {
		r.broadcastLocked(code, identity, protocol.NewDeleteIDBroadcast(identity))
		r.rooms.Leave(identity, code)
		log.Printf("Leave room %s: %s", code, identity)
	}
	return left
}

// Signal forwards an opaque payload directly to the named target if it is
// connected. Signaling is point-to-point by identity: no room membership
// check, and an unknown target is silently dropped.
func (r *Relay) Signal(p Peer, to string, data json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliverLocked(to, protocol.NewSignalForward(p.ID(), data))
}

// deliverLocked is the signaling router: one registry lookup and a
// fire-and-forget send. Reports whether the target was connected.
func (r *Relay) deliverLocked(to string, msg any) bool {
	target, ok := r.peers[to]
	if !ok {
		return false
	}
	target.Send(msg)
	return true
}

// Disconnecting runs before teardown, while the peer is still a member of
// its rooms. If the peer has a recorded identifier, each of those rooms
// receives a deleteId carrying both the identity and the identifier.
func (r *Relay) Disconnecting(p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity := p.ID()
	playerID, ok := r.ids.Get(identity)
	if !ok {
		return
	}
	for _, code := range r.rooms.RoomsOf(identity) {
		r.broadcastLocked(code, identity, protocol.NewDeleteIDBroadcastWithID(identity, playerID))
		log.Printf("Leave room %s: %s", code, identity)
	}
}

// Disconnect is final teardown: the registry entry, directory entry, and
// all room memberships are purged. The peer must not be used afterwards.
func (r *Relay) Disconnect(p Peer) {
	identity := p.ID()

	r.mu.Lock()
	codes := r.rooms.RoomsOf(identity)
	r.rooms.LeaveAll(identity)
	r.ids.Remove(identity)
	delete(r.peers, identity)
	r.connected--
	count := r.connected
	r.mu.Unlock()

	for _, code := range codes {
		r.mirror.Left(context.Background(), code, identity)
	}
	r.mirror.Disconnected(context.Background())
	log.Printf("Total connected: %d", count)
}

// broadcastLocked sends msg to every member of the room except exclude.
// Caller holds r.mu.
func (r *Relay) broadcastLocked(code, exclude string, msg any) {
	for _, identity := range r.rooms.MembersOf(code) {
		if identity == exclude {
			continue
		}
		if peer, ok := r.peers[identity]; ok {
			peer.Send(msg)
		}
	}
}

// Counts returns the number of open rooms and connected clients, for the
// status page and stats API.
func (r *Relay) Counts() (openRooms, connected int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms.Count(), r.connected
}

// RoomSizes returns the member count of every open room.
func (r *Relay) RoomSizes() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms.Sizes()
}

// RoomMembers returns the identifier entries of everyone in the room, or
// false if the room does not exist.
func (r *Relay) RoomMembers(code string) (map[string]int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.rooms.MembersOf(code)
	if members == nil {
		return nil, false
	}
	return r.ids.Snapshot(members, ""), true
}
