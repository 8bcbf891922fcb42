package ws

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/slab-network/oracled/internal/core/domain"
)

const (
	MsgConnected    = "connected"
	MsgSubscribe    = "subscribe"
	MsgUnsubscribe  = "unsubscribe"
	MsgSubscribed   = "subscribed"
	MsgUnsubscribed = "unsubscribed"
	MsgError        = "error"
)

type clientMessage struct {
	Type        string `json:"type"`
	SlabAddress string `json:"slabAddress"`
}

type serverMessage struct {
	Type        string      `json:"type"`
	SlabAddress string      `json:"slabAddress,omitempty"`
	Message     string      `json:"message,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

// priceData carries priceE6 as a decimal string so that clients parsing JSON
// numbers as doubles do not lose precision.
type priceData struct {
	PriceE6 string `json:"priceE6"`
	Source  string `json:"source"`
}

func newPriceMessage(market string, priceE6 uint64, source string) serverMessage {
	return serverMessage{
		Type:        domain.TopicPriceUpdated.String(),
		SlabAddress: market,
		Data: priceData{
			PriceE6: strconv.FormatUint(priceE6, 10),
			Source:  source,
		},
	}
}

func newErrorMessage(format string, args ...interface{}) serverMessage {
	return serverMessage{Type: MsgError, Message: fmt.Sprintf(format, args...)}
}

// eventMessage maps a bus event to its wire message.
func eventMessage(event domain.Event) (serverMessage, bool) {
	switch payload := event.Payload.(type) {
	case domain.PriceUpdate:
		return newPriceMessage(event.ResourceID, payload.PriceE6, payload.Source), true
	case domain.TradeExecuted:
		return serverMessage{
			Type:        event.Topic.String(),
			SlabAddress: event.ResourceID,
			Data:        payload,
		}, true
	default:
		return serverMessage{}, false
	}
}

func parseClientMessage(raw []byte) (clientMessage, error) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return clientMessage{}, err
	}
	return msg, nil
}
