package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crewlink/relay/internal/relay"
)

// StatsResponse is the operator-facing summary of relay state.
type StatsResponse struct {
	OpenRooms        int            `json:"openRooms"`
	ConnectedPlayers int            `json:"connectedPlayers"`
	Rooms            map[string]int `json:"rooms"`
}

// RoomResponse is the membership snapshot of one room: connection
// identities and the player identifiers they have announced.
type RoomResponse struct {
	Code    string         `json:"code"`
	Members map[string]int `json:"members"`
}

// Stats returns room and connection counts (requires JWT).
func Stats(r *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		openRooms, connected := r.Counts()
		c.JSON(http.StatusOK, StatsResponse{
			OpenRooms:        openRooms,
			ConnectedPlayers: connected,
			Rooms:            r.RoomSizes(),
		})
	}
}

// GetRoom returns one room's membership snapshot (requires JWT).
func GetRoom(r *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		members, ok := r.RoomMembers(code)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusOK, RoomResponse{Code: code, Members: members})
	}
}
