package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

var acceptOptions = &websocket.AcceptOptions{
	InsecureSkipVerify: true,
	CompressionMode:    websocket.CompressionContextTakeover,
}

// watcher is a WebSocket connection receiving the game state after every
// accepted command.
type watcher struct {
	conn       *websocket.Conn
	events     chan []byte
	terminated atomic.Bool
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, acceptOptions)
	if err != nil {
		return
	}

	const bufferSize = 8
	c := &watcher{
		conn:   conn,
		events: make(chan []byte, bufferSize),
	}

	s.watchersLock.Lock()
	s.watchers = append(s.watchers, c)
	s.watchersLock.Unlock()

	if s.verbose {
		log.Info().Str("address", r.RemoteAddr).Msg("watcher connected")
	}

	// Send the current state immediately so the watcher need not wait for
	// the next command.
	s.gameLock.Lock()
	if s.game != nil {
		c.send(marshalState(s.game.Snapshot()))
	}
	s.gameLock.Unlock()

	go c.writeEvents()
	c.discardReads()

	s.removeWatcher(c)
}

func (s *Server) removeWatcher(c *watcher) {
	s.watchersLock.Lock()
	defer s.watchersLock.Unlock()

	for i, sc := range s.watchers {
		if sc == c {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			break
		}
	}
	c.terminate()
	close(c.events)
}

// broadcastLocked sends the current state to every watcher. Called with
// the game lock held.
func (s *Server) broadcastLocked() {
	if s.game == nil {
		return
	}
	message := marshalState(s.game.Snapshot())

	s.watchersLock.Lock()
	defer s.watchersLock.Unlock()

	for _, c := range s.watchers {
		c.send(message)
	}
}

func marshalState(v interface{}) []byte {
	message, err := json.Marshal(v)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to marshal game state")
	}
	return message
}

func (c *watcher) send(message []byte) {
	if c.terminated.Load() {
		return
	}
	select {
	case c.events <- message:
	default:
		// A watcher that cannot keep up is dropped.
		c.terminate()
	}
}

// discardReads drains the connection until the client disconnects.
// Watchers only receive state.
func (c *watcher) discardReads() {
	for {
		_, _, err := c.conn.Read(context.Background())
		if err != nil {
			return
		}
	}
}

func (c *watcher) writeEvents() {
	for event := range c.events {
		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, event)
		cancel()
		if err != nil {
			c.terminate()
			return
		}
	}
}

func (c *watcher) terminate() {
	if !c.terminated.CompareAndSwap(false, true) {
		return
	}
	c.conn.CloseNow()
}
