package domain

const (
	DefaultHistoryCapacity        = 100
	DefaultTrackedMarketsCapacity = 500
)

// PriceHistory is a bounded, oldest-first sequence of accepted entries.
type PriceHistory struct {
	capacity int
	entries  []PriceEntry
}

func NewPriceHistory(capacity int) *PriceHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &PriceHistory{
		capacity: capacity,
		entries:  make([]PriceEntry, 0, capacity),
	}
}

// Append adds the entry as newest, dropping the oldest ones over capacity.
func (h *PriceHistory) Append(entry PriceEntry) {
	h.entries = append(h.entries, entry)
	if over := len(h.entries) - h.capacity; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
}

// Latest returns the newest entry, if any.
func (h *PriceHistory) Latest() (PriceEntry, bool) {
	if len(h.entries) <= 0 {
		return PriceEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

func (h *PriceHistory) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the entries, oldest first.
func (h *PriceHistory) Entries() []PriceEntry {
	out := make([]PriceEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// TrackedMarkets maps market addresses to their price history. It holds at
// most capacity markets; when a new market would overflow it, the least
// recently updated one is evicted. Not safe for concurrent use.
type TrackedMarkets struct {
	capacity        int
	historyCapacity int
	histories       map[string]*PriceHistory
}

func NewTrackedMarkets(capacity, historyCapacity int) *TrackedMarkets {
	if capacity <= 0 {
		capacity = DefaultTrackedMarketsCapacity
	}
	return &TrackedMarkets{
		capacity:        capacity,
		historyCapacity: historyCapacity,
		histories:       make(map[string]*PriceHistory),
	}
}

// Record appends the entry to the market history and returns the address of
// the evicted market, if any.
func (t *TrackedMarkets) Record(market string, entry PriceEntry) (string, bool) {
	if h, ok := t.histories[market]; ok {
		h.Append(entry)
		return "", false
	}

	var evicted string
	var didEvict bool
	if len(t.histories) >= t.capacity {
		evicted, didEvict = t.leastRecentlyUpdated(market)
		if didEvict {
			delete(t.histories, evicted)
		}
	}

	h := NewPriceHistory(t.historyCapacity)
	h.Append(entry)
	t.histories[market] = h
	return evicted, didEvict
}

// History returns the history of the market, if tracked.
func (t *TrackedMarkets) History(market string) (*PriceHistory, bool) {
	h, ok := t.histories[market]
	return h, ok
}

// Latest returns the newest entry of the market, if tracked.
func (t *TrackedMarkets) Latest(market string) (PriceEntry, bool) {
	h, ok := t.histories[market]
	if !ok {
		return PriceEntry{}, false
	}
	return h.Latest()
}

func (t *TrackedMarkets) Len() int {
	return len(t.histories)
}

// Markets returns the tracked market addresses in no particular order.
func (t *TrackedMarkets) Markets() []string {
	out := make([]string, 0, len(t.histories))
	for m := range t.histories {
		out = append(out, m)
	}
	return out
}

func (t *TrackedMarkets) leastRecentlyUpdated(exclude string) (string, bool) {
	var (
		oldest   string
		oldestTs PriceEntry
		found    bool
	)
	for market, h := range t.histories {
		if market == exclude {
			continue
		}
		latest, ok := h.Latest()
		if !ok {
			return market, true
		}
		if !found || latest.Timestamp.Before(oldestTs.Timestamp) {
			oldest, oldestTs, found = market, latest, true
		}
	}
	return oldest, found
}
