package httpinterface

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"
	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/internal/core/ports"
)

const maxWebhookBody = 1 << 20

type tradeEvent struct {
	SlabAddress string `json:"slabAddress"`
	domain.TradeExecuted
}

type tradeWebhook struct {
	bus    ports.EventBus
	secret []byte
}

// newTradeWebhook accepts trade notifications, as a single JSON object or an
// array of them, and publishes them as trade.executed events.
func newTradeWebhook(bus ports.EventBus, secret string) http.Handler {
	return &tradeWebhook{bus, []byte(secret)}
}

func (h *tradeWebhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse("method not allowed"))
		return
	}

	if len(h.secret) > 0 {
		if err := h.authorize(r); err != nil {
			log.WithError(err).Debug("rejecting unauthorized trade webhook")
			writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("unreadable body"))
		return
	}

	trades, err := parseTrades(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	for _, t := range trades {
		h.bus.Publish(domain.TopicTradeExecuted, t.SlabAddress, t.TradeExecuted)
	}
	writeJSON(w, http.StatusOK, map[string]int{"published": len(trades)})
}

func (h *tradeWebhook) authorize(r *http.Request) error {
	header := r.Header.Get("Authorization")
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if len(tokenString) <= 0 || tokenString == header {
		return fmt.Errorf("missing bearer token")
	}

	_, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return h.secret, nil
	})
	return err
}

func parseTrades(body []byte) ([]tradeEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) <= 0 {
		return nil, fmt.Errorf("empty body")
	}

	var trades []tradeEvent
	if body[0] == '[' {
		if err := json.Unmarshal(body, &trades); err != nil {
			return nil, fmt.Errorf("malformed trades: %s", err)
		}
	} else {
		var trade tradeEvent
		if err := json.Unmarshal(body, &trade); err != nil {
			return nil, fmt.Errorf("malformed trade: %s", err)
		}
		trades = append(trades, trade)
	}

	for i, t := range trades {
		if len(t.SlabAddress) <= 0 {
			return nil, fmt.Errorf("trade %d: missing slabAddress", i)
		}
	}
	return trades, nil
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}
