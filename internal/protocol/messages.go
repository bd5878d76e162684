// Package protocol defines the relay's wire messages and their validation.
//
// The relay never interprets signaling payloads; everything here models the
// envelope only. Decoding is strict: a frame that does not match one of the
// documented client message shapes is an error, and the transport responds
// to that error by dropping the connection.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Client message types.
const (
	TypeJoin   = "join"
	TypeSetID  = "id"
	TypeLeave  = "leave"
	TypeSignal = "signal"
)

// Server message types. Outbound join and signal frames reuse the client
// type names; an identifier update goes out as "setId", not "id".
const (
	TypeSetIDs   = "setIds"
	TypeSetIDOut = "setId"
	TypeDeleteID = "deleteId"
)

var (
	ErrUnknownType = errors.New("protocol: unknown message type")
	ErrMissingRoom = errors.New("protocol: join requires a non-empty room code")
	ErrInvalidID   = errors.New("protocol: player id must be an integer")
	ErrMissingTo   = errors.New("protocol: signal requires a target identity")
	ErrMissingData = errors.New("protocol: signal requires a non-empty data payload")
)

// Event is an inbound client message after validation.
type Event interface{ event() }

// Join asks to enter a room, announcing the client's player identifier.
type Join struct {
	Room     string
	PlayerID int
}

// SetID updates the client's player identifier within its current room.
type SetID struct {
	PlayerID int
}

// Leave exits the current room. Carries no payload.
type Leave struct{}

// Signal forwards an opaque negotiation payload to one target connection.
type Signal struct {
	To   string
	Data json.RawMessage
}

func (Join) event()   {}
func (SetID) event()  {}
func (Leave) event()  {}
func (Signal) event() {}

// envelope is the raw inbound frame. Fields stay raw so validation can
// distinguish a wrong type from an absent field.
type envelope struct {
	Type string          `json:"type"`
	Room *string         `json:"room"`
	ID   json.RawMessage `json:"id"`
	To   *string         `json:"to"`
	Data json.RawMessage `json:"data"`
}

// Parse decodes and validates one inbound frame.
//
// Any structural problem (malformed JSON, an unknown type, a player id
// that is not an integer, an empty room code or signal target) is returned
// as an error. Callers treat every error as a protocol violation.
func Parse(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("protocol: malformed frame: %w", err)
	}

	switch env.Type {
	case TypeJoin:
		if env.Room == nil || *env.Room == "" {
			return nil, ErrMissingRoom
		}
		id, err := parsePlayerID(env.ID)
		if err != nil {
			return nil, err
		}
		return Join{Room: *env.Room, PlayerID: id}, nil

	case TypeSetID:
		id, err := parsePlayerID(env.ID)
		if err != nil {
			return nil, err
		}
		return SetID{PlayerID: id}, nil

	case TypeLeave:
		return Leave{}, nil

	case TypeSignal:
		if env.To == nil || *env.To == "" {
			return nil, ErrMissingTo
		}
		if emptyPayload(env.Data) {
			return nil, ErrMissingData
		}
		return Signal{To: *env.To, Data: env.Data}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// parsePlayerID accepts JSON integers only. Floats, strings, and absent
// values are all protocol violations.
func parsePlayerID(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, ErrInvalidID
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, ErrInvalidID
	}
	v, err := n.Int64()
	if err != nil {
		return 0, ErrInvalidID
	}
	return int(v), nil
}

// emptyPayload reports whether a raw signal payload is absent or falsy
// (JSON null or the empty string), which the relay refuses to forward.
func emptyPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 ||
		bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte(`""`))
}

// JoinBroadcast tells existing room members about a new peer.
type JoinBroadcast struct {
	Type     string `json:"type"`
	From     string `json:"from"`
	PlayerID int    `json:"id"`
}

// SetIDsReply is the snapshot sent to a joining connection: the player
// identifiers of every other current room member. Always present, even
// when empty.
type SetIDsReply struct {
	Type string         `json:"type"`
	IDs  map[string]int `json:"ids"`
}

// SetIDBroadcast announces a peer's updated player identifier to its room.
type SetIDBroadcast struct {
	Type     string `json:"type"`
	From     string `json:"from"`
	PlayerID int    `json:"id"`
}

// DeleteIDBroadcast announces that a peer left. The player identifier is
// included on disconnect teardown but not on an ordinary leave.
type DeleteIDBroadcast struct {
	Type     string `json:"type"`
	From     string `json:"from"`
	PlayerID *int   `json:"id,omitempty"`
}

// SignalForward is a point-to-point signaling payload relayed verbatim.
type SignalForward struct {
	Type string          `json:"type"`
	From string          `json:"from"`
	Data json.RawMessage `json:"data"`
}

func NewJoinBroadcast(from string, playerID int) JoinBroadcast {
	return JoinBroadcast{Type: TypeJoin, From: from, PlayerID: playerID}
}

func NewSetIDsReply(ids map[string]int) SetIDsReply {
	if ids == nil {
		ids = map[string]int{}
	}
	return SetIDsReply{Type: TypeSetIDs, IDs: ids}
}

func NewSetIDBroadcast(from string, playerID int) SetIDBroadcast {
	return SetIDBroadcast{Type: TypeSetIDOut, From: from, PlayerID: playerID}
}

func NewDeleteIDBroadcast(from string) DeleteIDBroadcast {
	return DeleteIDBroadcast{Type: TypeDeleteID, From: from}
}

func NewDeleteIDBroadcastWithID(from string, playerID int) DeleteIDBroadcast {
	return DeleteIDBroadcast{Type: TypeDeleteID, From: from, PlayerID: &playerID}
}

func NewSignalForward(from string, data json.RawMessage) SignalForward {
	return SignalForward{Type: TypeSignal, From: from, Data: data}
}
