package wsgateway

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
)

// maxClients bounds the poll set; the accept loop stops admitting new
// connections once it is full.
const maxClients = 64

// pollTimeout is how long each client read waits before the poll loop
// moves on to the next slot, emulating a 1-second select/poll tick.
const pollTimeout = 1 * time.Second

// TurnFunc runs one inbound text message to completion and returns the
// reply text.
type TurnFunc func(chatID, text string) string

// Server accepts WebSocket connections on Port, running each inbound text
// frame through Turn and writing the reply back as a single text frame.
type Server struct {
	Port      int
	AuthToken string
	Turn      TurnFunc

	listener net.Listener
	clients  []*client
}

// client pairs a connection with a stable identity that survives across a
// single session — the remote address alone is not a good session key
// (NAT/proxy setups can reuse it across distinct logical connections).
type client struct {
	id   string
	conn net.Conn
}

// ListenAndServe binds the accept socket and runs the poll loop until
// stop is closed.
func (s *Server) ListenAndServe(stop <-chan struct{}) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	defer ln.Close()

	log.Printf("[ws] listening on :%d", s.Port)

	acceptCh := make(chan net.Conn)
	go s.acceptLoop(acceptCh)

	for {
		select {
		case <-stop:
			log.Printf("[ws] stopped")
			return nil
		case conn := <-acceptCh:
			s.admit(conn)
		default:
			s.pollClients()
		}
	}
}

func (s *Server) acceptLoop(out chan<- net.Conn) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		out <- conn
	}
}

func (s *Server) admit(conn net.Conn) {
	if len(s.clients) >= maxClients {
		log.Printf("[ws] rejecting connection: at capacity (%d)", maxClients)
		conn.Close()
		return
	}
	if err := handshake(conn, s.AuthToken); err != nil {
		log.Printf("[ws] handshake failed: %v", err)
		conn.Close()
		return
	}
	c := &client{id: uuid.NewString(), conn: conn}
	s.clients = append(s.clients, c)
	log.Printf("[ws] client %s connected (%d active)", c.id, len(s.clients))
}

// pollClients gives each active client a bounded read window, dispatching
// any frame that arrives and pruning sockets that error or close.
func (s *Server) pollClients() {
	if len(s.clients) == 0 {
		time.Sleep(pollTimeout)
		return
	}

	perClientTimeout := pollTimeout / time.Duration(len(s.clients))
	if perClientTimeout <= 0 {
		perClientTimeout = time.Millisecond
	}

	live := s.clients[:0]
	for _, c := range s.clients {
		c.conn.SetReadDeadline(time.Now().Add(perClientTimeout))
		if s.serviceClient(c) {
			live = append(live, c)
		}
	}
	s.clients = live
}

// serviceClient reads at most one frame; returns false if the connection
// should be removed from the poll set.
func (s *Server) serviceClient(c *client) bool {
	f, err := readFrame(c.conn)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return true
		}
		c.conn.Close()
		log.Printf("[ws] client %s disconnected: %v", c.id, err)
		return false
	}

	switch f.Opcode {
	case OpcodeText:
		reply := s.Turn(c.id, string(f.Payload))
		if err := writeText(c.conn, reply); err != nil {
			c.conn.Close()
			return false
		}
		return true
	case OpcodePing:
		if err := writeFrame(c.conn, OpcodePong, f.Payload); err != nil {
			c.conn.Close()
			return false
		}
		return true
	case OpcodeClose:
		writeFrame(c.conn, OpcodeClose, nil)
		c.conn.Close()
		return false
	default:
		// BINARY and anything else is ignored in v1.
		return true
	}
}
