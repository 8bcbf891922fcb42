package domain

// Topic identifies a kind of event published on the event bus.
type Topic string

const (
	TopicPriceUpdated  Topic = "price.updated"
	TopicTradeExecuted Topic = "trade.executed"
)

func (t Topic) String() string {
	return string(t)
}

// Event is what handlers receive. ResourceID is the market address.
type Event struct {
	Topic      Topic
	ResourceID string
	Payload    interface{}
}

// PriceUpdate is the payload of TopicPriceUpdated events.
type PriceUpdate struct {
	PriceE6 uint64
	Source  string
}

// TradeExecuted is the payload of TopicTradeExecuted events.
type TradeExecuted struct {
	Signature string `json:"signature"`
	Side      string `json:"side"`
	SizeE6    string `json:"size"`
	PriceE6   string `json:"price"`
	Trader    string `json:"trader"`
	Timestamp int64  `json:"timestamp"`
}
