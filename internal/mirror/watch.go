package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
)

// Watch connects to a mirror at url and calls emit for every line until
// ctx is cancelled or the mirror closes. A normal close is not an error.
func Watch(ctx context.Context, url string, emit func(line string) error) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, NormalizeURL(url), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to mirror %s: %w", url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("mirror connection lost: %w", err)
		}
		if err := emit(string(msg)); err != nil {
			return err
		}
	}
}

// NormalizeURL accepts "host:port", http(s) URLs and ws(s) URLs and returns
// a WebSocket URL with the mirror path.
func NormalizeURL(raw string) string {
	u := raw
	switch {
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://"):
		u = "ws://" + u
	}

	scheme := u[:strings.Index(u, "://")+3]
	rest := strings.TrimPrefix(u, scheme)
	if !strings.Contains(rest, "/") {
		return u + Path
	}
	return u
}
