package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"relay-lab/contract"
	"relay-lab/domain"
	"relay-lab/observability"
)

// Server upgrades HTTP requests and pumps inbound frames into the
// router. One goroutine reads, one writes; the read loop doubles as the
// transport-side disconnect detector.
type Server struct {
	log          *slog.Logger
	router       contract.IRouter
	stats        *observability.Stats
	upgrader     websocket.Upgrader
	sendBuffer   int
	writeTimeout time.Duration
}

func NewServer(log *slog.Logger, router contract.IRouter, stats *observability.Stats,
	sendBuffer int, writeTimeout time.Duration) *Server {
	return &Server{
		log:    log,
		router: router,
		stats:  stats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The relay has no origin policy of its own; deployments
			// front it with their own checks when they need one.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sendBuffer:   sendBuffer,
		writeTimeout: writeTimeout,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := newConn(uuid.NewString(), socket, s.log, s.stats, s.sendBuffer, s.writeTimeout)
	s.log.Debug("connection established", "conn_id", conn.ID(), "remote", r.RemoteAddr)

	go conn.writePump()
	s.readLoop(conn)
}

// readLoop decodes frames until the socket dies, then reports the
// disconnect to the router exactly once.
func (s *Server) readLoop(conn *Conn) {
	defer func() {
		conn.close()
		s.router.Disconnect(conn, false)
		s.log.Debug("connection closed", "conn_id", conn.ID())
	}()

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.log.Debug("malformed frame ignored", "conn_id", conn.ID(), "error", err)
			continue
		}
		s.dispatch(conn, frame)
	}
}

// dispatch maps one inbound frame to a router call. Malformed arguments
// degrade to zero values; they never kill the connection.
func (s *Server) dispatch(conn *Conn, frame Frame) {
	switch frame.Event {
	case domain.EventMAConnect:
		var creds domain.Credentials
		unmarshalArg(frame.Args, 0, &creds)
		s.router.Connect(conn, creds)

	case domain.EventMADisconnect:
		s.router.Disconnect(conn, true)

	case domain.EventMAList:
		var filter any
		unmarshalArg(frame.Args, 0, &filter)
		s.router.List(conn, filter)

	case domain.EventMARequest:
		var params any
		unmarshalArg(frame.Args, 0, &params)
		s.router.Request(conn, params)

	case domain.EventMAMessage:
		// Single argument holding the [payload, target] pair. A missing
		// or malformed target degrades to broadcast.
		var pair []json.RawMessage
		unmarshalArg(frame.Args, 0, &pair)

		var payload any
		var target domain.Target
		if len(pair) > 0 {
			_ = json.Unmarshal(pair[0], &payload)
		}
		if len(pair) > 1 {
			_ = json.Unmarshal(pair[1], &target)
		}
		s.router.Message(conn, payload, target)

	default:
		s.log.Debug("unknown event ignored", "conn_id", conn.ID(), "event", frame.Event)
	}
}

func unmarshalArg(args []json.RawMessage, i int, out any) {
	if i < len(args) {
		_ = json.Unmarshal(args[i], out)
	}
}
