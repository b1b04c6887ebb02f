package progress

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is a local observability surface, not an origin-sensitive API.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler returns an http.Handler that upgrades to WebSocket and streams
// JSON-encoded updates until the client disconnects.
func (b *Broadcaster) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("progress: websocket upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		id, ch := b.Subscribe()
		defer b.Unsubscribe(id)
		slog.Debug("progress: subscriber connected", "id", id, "remote", r.RemoteAddr)

		// Drain reads so close frames are processed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					b.Unsubscribe(id)
					return
				}
			}
		}()

		for u := range ch {
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		}
	})
}

// Serve runs the WebSocket feed on addr until ctx is cancelled.
func (b *Broadcaster) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/progress", b.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	slog.Info("progress: websocket feed listening", "addr", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
