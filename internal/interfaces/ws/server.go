package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/internal/core/ports"
	"github.com/slab-network/oracled/pkg/stats"
)

const (
	DefaultMaxConnections   = 1000
	DefaultMaxSubscriptions = 50
	DefaultPingInterval     = 20 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultSendBufferSize   = 64

	// Client frames are small JSON objects; the limit only bounds memory per
	// read and sits far above any valid message.
	maxMessageSize = 64 * 1024
)

// PriceReader gives the latest accepted price of a market.
type PriceReader interface {
	CurrentPrice(marketID string) (domain.PriceEntry, bool)
}

type Config struct {
	MaxConnections   int
	MaxSubscriptions int
	PingInterval     time.Duration
	WriteTimeout     time.Duration
	SendBufferSize   int
}

func (c Config) withDefaults() Config {
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.MaxSubscriptions <= 0 {
		c.MaxSubscriptions = DefaultMaxSubscriptions
	}
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = DefaultSendBufferSize
	}
	return c
}

// Server relays price and trade events to websocket clients subscribed to
// the markets they concern.
type Server struct {
	bus      ports.EventBus
	prices   PriceReader
	cfg      Config
	upgrader websocket.Upgrader

	lock    sync.Mutex
	conns   map[string]*conn
	pending int
	closed  bool
}

func NewServer(bus ports.EventBus, prices PriceReader, cfg Config) *Server {
	return &Server{
		bus:    bus,
		prices: prices,
		cfg:    cfg.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*conn),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.reserve() {
		log.Warnf("rejecting websocket client %s: too many connections", r.RemoteAddr)
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	s.accept(w, r)
}

// accept upgrades a request that holds a reserved slot.
func (s *Server) accept(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.release()
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := newConn(uuid.New().String(), wsConn, s)
	if !s.register(c) {
		//nolint
		wsConn.Close()
		return
	}
	log.Debugf("websocket client %s connected from %s", c.id, r.RemoteAddr)

	c.enqueue(serverMessage{
		Type:    MsgConnected,
		Message: "Connected to slab oracle price feed",
	})

	go c.writePump()
	go c.readPump()
}

// ConnectionCount returns the number of registered connections.
func (s *Server) ConnectionCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.conns)
}

// Close disconnects every client and rejects new ones.
func (s *Server) Close() {
	s.lock.Lock()
	s.closed = true
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.lock.Unlock()

	for _, c := range conns {
		c.close()
	}
}

// reserve books a connection slot before the upgrade so that the cap holds
// with concurrent handshakes.
func (s *Server) reserve() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed || len(s.conns)+s.pending >= s.cfg.MaxConnections {
		return false
	}
	s.pending++
	return true
}

func (s *Server) release() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.pending--
}

// register adds the connection unless the server was closed during the
// handshake.
func (s *Server) register(c *conn) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.pending--
	if s.closed {
		return false
	}
	s.conns[c.id] = c
	stats.WSConnections.Set(float64(len(s.conns)))
	return true
}

func (s *Server) unregister(c *conn) {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.conns, c.id)
	stats.WSConnections.Set(float64(len(s.conns)))
}
