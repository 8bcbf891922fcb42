package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/pkg/stats"
)

var relayedTopics = []domain.Topic{
	domain.TopicPriceUpdated,
	domain.TopicTradeExecuted,
}

type conn struct {
	id     string
	ws     *websocket.Conn
	server *Server
	send   chan []byte

	lock          sync.Mutex
	subscriptions map[string][]func()

	awaitingPong int32
	done         chan struct{}
	closeOnce    sync.Once
}

func newConn(id string, wsConn *websocket.Conn, server *Server) *conn {
	return &conn{
		id:            id,
		ws:            wsConn,
		server:        server,
		send:          make(chan []byte, server.cfg.SendBufferSize),
		subscriptions: make(map[string][]func()),
		done:          make(chan struct{}),
	}
}

// enqueue queues the message for the write pump. Messages for a client that
// does not keep up are dropped.
func (c *conn) enqueue(msg serverMessage) {
	buf, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Warnf("failed to encode %s message", msg.Type)
		return
	}

	select {
	case <-c.done:
	case c.send <- buf:
		stats.WSMessages.WithLabelValues(msg.Type).Inc()
	default:
		log.Warnf("websocket client %s is too slow, dropping %s message", c.id, msg.Type)
	}
}

func (c *conn) readPump() {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetPongHandler(func(string) error {
		atomic.StoreInt32(&c.awaitingPong, 0)
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseGoingAway, websocket.CloseNormalClosure,
			) {
				log.WithError(err).Debugf("websocket client %s read failed", c.id)
			}
			return
		}

		msg, err := parseClientMessage(raw)
		if err != nil {
			log.Debugf("ignoring malformed message from websocket client %s", c.id)
			continue
		}
		c.handle(msg)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(c.server.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case buf := <-c.send:
			//nolint
			c.ws.SetWriteDeadline(time.Now().Add(c.server.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, buf); err != nil {
				log.WithError(err).Debugf("websocket client %s write failed", c.id)
				return
			}
		case <-ticker.C:
			if !atomic.CompareAndSwapInt32(&c.awaitingPong, 0, 1) {
				log.Debugf("websocket client %s missed a pong, terminating", c.id)
				return
			}
			deadline := time.Now().Add(c.server.cfg.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (c *conn) handle(msg clientMessage) {
	if len(msg.SlabAddress) <= 0 {
		return
	}

	switch msg.Type {
	case MsgSubscribe:
		c.subscribe(msg.SlabAddress)
	case MsgUnsubscribe:
		c.unsubscribe(msg.SlabAddress)
	}
}

func (c *conn) subscribe(market string) {
	c.lock.Lock()
	select {
	case <-c.done:
		c.lock.Unlock()
		return
	default:
	}

	if _, ok := c.subscriptions[market]; !ok {
		if limit := c.server.cfg.MaxSubscriptions; len(c.subscriptions) >= limit {
			c.lock.Unlock()
			c.enqueue(newErrorMessage("Max subscriptions (%d) reached", limit))
			return
		}

		unsubscribes := make([]func(), 0, len(relayedTopics))
		for _, topic := range relayedTopics {
			unsubscribes = append(
				unsubscribes, c.server.bus.Subscribe(topic, market, c.relay),
			)
		}
		c.subscriptions[market] = unsubscribes
	}
	c.lock.Unlock()

	c.enqueue(serverMessage{Type: MsgSubscribed, SlabAddress: market})

	if c.server.prices == nil {
		return
	}
	if entry, ok := c.server.prices.CurrentPrice(market); ok {
		c.enqueue(newPriceMessage(market, entry.PriceE6, entry.Source))
	}
}

func (c *conn) unsubscribe(market string) {
	c.lock.Lock()
	unsubscribes := c.subscriptions[market]
	delete(c.subscriptions, market)
	c.lock.Unlock()

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
	c.enqueue(serverMessage{Type: MsgUnsubscribed, SlabAddress: market})
}

func (c *conn) relay(event domain.Event) {
	if msg, ok := eventMessage(event); ok {
		c.enqueue(msg)
	}
}

// close releases the connection exactly once, whichever pump notices first.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)

		c.lock.Lock()
		subscriptions := c.subscriptions
		c.subscriptions = make(map[string][]func())
		c.lock.Unlock()

		for _, unsubscribes := range subscriptions {
			for _, unsubscribe := range unsubscribes {
				unsubscribe()
			}
		}

		//nolint
		c.ws.Close()
		c.server.unregister(c)
		log.Debugf("websocket client %s disconnected", c.id)
	})
}
