package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crewlink/relay/internal/relay"
)

// Status serves the public landing page with the open-room and connected-
// player counts. Read-only: it never touches session state beyond the
// counters.
func Status(r *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		openRooms, connected := r.Counts()
		body := fmt.Sprintf(`<!doctype html>
<html>
<head><title>Relay Server</title></head>
<body>
<p>Currently %d open room%s and %d online player%s.</p>
</body>
</html>
`, openRooms, plural(openRooms), connected, plural(connected))
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
