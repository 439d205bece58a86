package observer

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

type registration struct {
	conn  *websocket.Conn
	first []byte
}

type hub struct {
	logger    *log.Logger
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	register  chan registration
	remove    chan *websocket.Conn
	broadcast chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newHub(logger *log.Logger) *hub {
	h := &hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		register:  make(chan registration),
		remove:    make(chan *websocket.Conn),
		broadcast: make(chan []byte, 16),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *hub) run() {
	for {
		select {
		case <-h.done:
			for conn := range h.clients {
				conn.Close()
			}
			return
		case reg := <-h.register:
			if reg.first != nil {
				reg.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := reg.conn.WriteMessage(websocket.TextMessage, reg.first); err != nil {
					reg.conn.Close()
					continue
				}
			}
			h.clients[reg.conn] = true
		case conn := <-h.remove:
			if h.clients[conn] {
				delete(h.clients, conn)
				conn.Close()
			}
		case msg := <-h.broadcast:
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.logger.Warn("dropping frame client", "remote", conn.RemoteAddr(), "err", err)
					delete(h.clients, conn)
					conn.Close()
				}
			}
		}
	}
}

// send queues msg for every client. Frames are dropped while the hub is
// behind so the simulation never waits on a slow client.
func (h *hub) send(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Debug("frame dropped, hub busy")
	}
}

// serve upgrades the request and registers the client. The hub writes
// first to it before any broadcast. Anything the client sends is discarded.
func (h *hub) serve(w http.ResponseWriter, r *http.Request, first []byte) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	select {
	case h.register <- registration{conn: conn, first: first}:
	case <-h.done:
		conn.Close()
		return
	}

	go func() {
		defer func() {
			select {
			case h.remove <- conn:
			case <-h.done:
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Warn("websocket error", "err", err)
				}
				return
			}
		}
	}()
}

func (h *hub) close() { h.closeOnce.Do(func() { close(h.done) }) }
