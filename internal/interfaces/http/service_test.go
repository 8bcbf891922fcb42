package httpinterface_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/internal/infrastructure/pubsub"
	httpinterface "github.com/slab-network/oracled/internal/interfaces/http"
	"github.com/stretchr/testify/require"
)

const (
	market = "8BnEgHoWFysVcuFFX7QztDmzuH8r5ZFvyP3sYwn1XTh6"
	secret = "webhook-secret"
)

type fakeWS struct{ conns int }

func (f fakeWS) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func (f fakeWS) ConnectionCount() int { return f.conns }

type fakeStatus struct{ tracked int }

func (f fakeStatus) TrackedCount() int { return f.tracked }

type recorder struct {
	lock   sync.Mutex
	trades []domain.TradeExecuted
}

func (r *recorder) handle(e domain.Event) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.trades = append(r.trades, e.Payload.(domain.TradeExecuted))
}

func newTestServer(t *testing.T, webhookSecret string) (*httptest.Server, *recorder) {
	bus := pubsub.NewService()
	rec := &recorder{}
	bus.Subscribe(domain.TopicTradeExecuted, market, rec.handle)

	handler := httpinterface.NewHandler(httpinterface.ServiceOpts{
		Address:       ":0",
		WSHandler:     fakeWS{conns: 3},
		Bus:           bus,
		Status:        fakeStatus{tracked: 2},
		WebhookSecret: webhookSecret,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, rec
}

func signedToken(t *testing.T, key string) string {
	token, err := jwt.New(jwt.SigningMethodHS256).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func postTrades(
	t *testing.T, url, body, token string,
) *http.Response {
	req, err := http.NewRequest(
		http.MethodPost, url+"/webhook/trades", strings.NewReader(body),
	)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "")

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
	require.EqualValues(t, 2, body["trackedMarkets"])
	require.EqualValues(t, 3, body["connections"])
}

func TestRoutes(t *testing.T) {
	srv, _ := newTestServer(t, "")

	res, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusTeapot, res.StatusCode)

	res, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/webhook/trades")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestTradeWebhook(t *testing.T) {
	t.Run("single trade", func(t *testing.T) {
		srv, rec := newTestServer(t, "")

		res := postTrades(t, srv.URL, `{
			"slabAddress": "`+market+`",
			"signature": "sig1",
			"side": "buy",
			"size": "1000000",
			"price": "150000000",
			"trader": "trader1",
			"timestamp": 1700000000000
		}`, "")
		require.Equal(t, http.StatusOK, res.StatusCode)

		var body map[string]int
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		require.Equal(t, 1, body["published"])

		require.Len(t, rec.trades, 1)
		require.Equal(t, domain.TradeExecuted{
			Signature: "sig1",
			Side:      "buy",
			SizeE6:    "1000000",
			PriceE6:   "150000000",
			Trader:    "trader1",
			Timestamp: 1700000000000,
		}, rec.trades[0])
	})

	t.Run("batch", func(t *testing.T) {
		srv, rec := newTestServer(t, "")

		res := postTrades(t, srv.URL, `[
			{"slabAddress": "`+market+`", "signature": "a", "side": "buy"},
			{"slabAddress": "other", "signature": "b", "side": "sell"}
		]`, "")
		require.Equal(t, http.StatusOK, res.StatusCode)

		var body map[string]int
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		require.Equal(t, 2, body["published"])
		// Only the subscribed market is relayed.
		require.Len(t, rec.trades, 1)
		require.Equal(t, "a", rec.trades[0].Signature)
	})

	t.Run("invalid", func(t *testing.T) {
		srv, rec := newTestServer(t, "")

		for _, body := range []string{
			"",
			"not json",
			`{"signature": "a"}`,
			`[{"slabAddress": "` + market + `"}, {"side": "buy"}]`,
		} {
			res := postTrades(t, srv.URL, body, "")
			require.Equal(t, http.StatusBadRequest, res.StatusCode, body)
		}
		require.Empty(t, rec.trades)
	})

	t.Run("authorization", func(t *testing.T) {
		srv, rec := newTestServer(t, secret)
		body := `{"slabAddress": "` + market + `", "signature": "a"}`

		res := postTrades(t, srv.URL, body, "")
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)

		res = postTrades(t, srv.URL, body, signedToken(t, "wrong-secret"))
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		require.Empty(t, rec.trades)

		res = postTrades(t, srv.URL, body, signedToken(t, secret))
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.Len(t, rec.trades, 1)
	})
}

func TestNewService(t *testing.T) {
	_, err := httpinterface.NewService(httpinterface.ServiceOpts{})
	require.Error(t, err)

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:   "127.0.0.1:0",
		WSHandler: fakeWS{},
		Bus:       pubsub.NewService(),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	svc.Stop()
}
