package server

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/auto/pkg/stream"
)

// feedClient is one feed connection. Every emission of Ticks marks the
// client for check, and its change detector writes the current count.
type feedClient struct {
	Ticks *stream.Behavior[int] `auto:"subscribe"`
	Conn  *websocket.Conn       `auto:"unsubscribe"`

	logger *slog.Logger

	// lifeMu serializes OnCheck and OnDestroy of the client's host.
	lifeMu  sync.Mutex
	writeMu sync.Mutex
	last    int
	sent    bool
}

// push writes the current count unless it was already sent.
func (c *feedClient) push() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	n := c.Ticks.Value()
	if c.sent && n == c.last {
		return
	}
	if err := c.Conn.WriteMessage(websocket.TextMessage, []byte(strconv.Itoa(n))); err != nil {
		c.logger.Debug("feed write failed", "error", err)
		return
	}
	c.last, c.sent = n, true
}
