package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fuzzymenu/internal/cascade"
	"fuzzymenu/internal/config"
	"fuzzymenu/internal/database"
	"fuzzymenu/internal/evaluation"
	"fuzzymenu/internal/models"
	"fuzzymenu/internal/monitoring"
	"fuzzymenu/internal/recommender"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dessertBody = `{"sweetness": 10, "saltiness": 0, "budget": 10, "hunger": 10}`

func newTestServer(t *testing.T, secret string, withStore bool) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, err := cascade.New(config.SymmetricPreset())
	require.NoError(t, err)

	mon := monitoring.NewMonitor()
	mc := evaluation.NewMetricsCollector()
	opts := []recommender.Option{recommender.WithMonitor(mon), recommender.WithMetrics(mc), recommender.WithCacheSize(16)}
	if withStore {
		store, err := database.Open("sqlite3", ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		opts = append(opts, recommender.WithStore(store))
	}
	svc, err := recommender.NewService(c, opts...)
	require.NoError(t, err)

	return NewServer(Config{Service: svc, Monitor: mon, Metrics: mc, JWTSecret: secret})
}

func do(s *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	s.Router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "", false)
	w := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"preset":"symmetric"`)
}

func TestRecommend_Created(t *testing.T) {
	s := newTestServer(t, "", true)
	w := do(s, http.MethodPost, "/api/v1/recommendations", dessertBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec models.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Selva negra", rec.DishName)
	assert.NotEmpty(t, rec.ID)

	w = do(s, http.MethodGet, "/api/v1/recommendations/"+rec.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dishName":"Selva negra"`)

	w = do(s, http.MethodGet, "/api/v1/recommendations?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestRecommend_BadRequest(t *testing.T) {
	s := newTestServer(t, "", false)

	tests := []struct {
		name string
		body string
	}{
		{"out of range", `{"sweetness": 11, "saltiness": 0, "budget": 10, "hunger": 10}`},
		{"negative", `{"sweetness": 1, "saltiness": -3, "budget": 10, "hunger": 10}`},
		{"missing field", `{"sweetness": 1, "saltiness": 3, "budget": 10}`},
		{"not a number", `{"sweetness": "lots", "saltiness": 3, "budget": 10, "hunger": 1}`},
		{"malformed", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodPost, "/api/v1/recommendations", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestRecommend_ZeroIsValid(t *testing.T) {
	s := newTestServer(t, "", false)
	w := do(s, http.MethodPost, "/api/v1/recommendations", `{"sweetness": 0, "saltiness": 0, "budget": 0, "hunger": 0}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"dishName":"Jesuita"`)
}

func TestExplain(t *testing.T) {
	s := newTestServer(t, "", false)
	w := do(s, http.MethodPost, "/api/v1/recommendations/explain", dessertBody)
	require.Equal(t, http.StatusOK, w.Code)

	var exp struct {
		DishName string `json:"dishName"`
		Stages   []struct {
			Engine  string             `json:"engine"`
			Outputs map[string]float64 `json:"outputs"`
		} `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exp))
	assert.Equal(t, "Selva negra", exp.DishName)
	require.Len(t, exp.Stages, 3)
	assert.Equal(t, "taste", exp.Stages[0].Engine)
	assert.InDelta(t, 26.0/3.0, exp.Stages[0].Outputs[config.VarDesiredTaste], 1e-9)
}

func TestHistory(t *testing.T) {
	s := newTestServer(t, "", true)
	w := do(s, http.MethodGet, "/api/v1/recommendations?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodGet, "/api/v1/recommendations/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	disabled := newTestServer(t, "", false)
	w = do(disabled, http.MethodGet, "/api/v1/recommendations", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = do(disabled, http.MethodGet, "/api/v1/stats/dishes", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDishCounts(t *testing.T) {
	s := newTestServer(t, "", true)
	do(s, http.MethodPost, "/api/v1/recommendations", dessertBody)
	do(s, http.MethodPost, "/api/v1/recommendations", dessertBody)

	w := do(s, http.MethodGet, "/api/v1/stats/dishes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var counts map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
	assert.Equal(t, map[string]int{"Selva negra": 2}, counts)
}

func TestMenuAndPreset(t *testing.T) {
	s := newTestServer(t, "", false)

	w := do(s, http.MethodGet, "/api/v1/menu", "")
	require.Equal(t, http.StatusOK, w.Code)
	var menu MenuResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &menu))
	require.Len(t, menu.Dishes, 9)
	assert.Equal(t, "Flan", menu.Dishes[0].Name)
	assert.Equal(t, 10.0, menu.Hi)

	w = do(s, http.MethodGet, "/api/v1/preset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"symmetric"`)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, "", false)
	do(s, http.MethodPost, "/api/v1/recommendations", dessertBody)
	do(s, http.MethodPost, "/api/v1/recommendations", dessertBody)

	w := do(s, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, 2.0, snapshot["recommendations_total"])
	assert.Equal(t, 1.0, snapshot["recommendations_cached"])

	w = do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fuzzymenu_cache_hits_total")
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, "s3cret", false)

	w := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code, "health stays open")

	w = do(s, http.MethodPost, "/api/v1/recommendations", dessertBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	bad, err := NewToken("other", "guest", time.Now().Add(time.Hour).Unix())
	require.NoError(t, err)
	w = do(s, http.MethodPost, "/api/v1/recommendations", dessertBody, "Authorization", "Bearer "+bad)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := NewToken("s3cret", "guest", time.Now().Add(-time.Hour).Unix())
	require.NoError(t, err)
	w = do(s, http.MethodPost, "/api/v1/recommendations", dessertBody, "Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	good, err := NewToken("s3cret", "guest", time.Now().Add(time.Hour).Unix())
	require.NoError(t, err)
	w = do(s, http.MethodPost, "/api/v1/recommendations", dessertBody, "Authorization", "Bearer "+good)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestWebSocket(t *testing.T) {
	s := newTestServer(t, "", false)
	ts := httptest.NewServer(s.Router)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(dessertBody)))
	var rec models.Recommendation
	require.NoError(t, conn.ReadJSON(&rec))
	assert.Equal(t, "Selva negra", rec.DishName)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"sweetness": 42, "saltiness": 0, "budget": 0, "hunger": 0}`)))
	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Contains(t, reply["error"], "sweetness")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	reply = nil
	require.NoError(t, conn.ReadJSON(&reply))
	assert.NotEmpty(t, reply["error"])
}

// ctxNarrator remembers the context error seen by the last Describe call.
type ctxNarrator struct {
	err error
}

func (n *ctxNarrator) Describe(ctx context.Context, _ models.Ratings, _ cascade.Result) (string, error) {
	n.err = ctx.Err()
	return "", n.err
}

func TestWSConnection_CancelledContext(t *testing.T) {
	c, err := cascade.New(config.SymmetricPreset())
	require.NoError(t, err)
	narrator := &ctxNarrator{}
	svc, err := recommender.NewService(c, recommender.WithNarrator(narrator))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	conn := &wsConnection{server: NewServer(Config{Service: svc}), ctx: ctx, cancel: cancel}
	cancel()

	reply := conn.handleMessage([]byte(dessertBody))
	assert.ErrorIs(t, narrator.err, context.Canceled)

	var rec models.Recommendation
	require.NoError(t, json.Unmarshal(reply, &rec))
	assert.Equal(t, "Selva negra", rec.DishName)
	assert.Empty(t, rec.Narration)
}

func TestWSConnection_DeliverAfterWriterExit(t *testing.T) {
	conn := &wsConnection{send: make(chan []byte), done: make(chan struct{})}
	close(conn.done)

	delivered := make(chan bool)
	go func() { delivered <- conn.deliver([]byte("late")) }()
	select {
	case ok := <-delivered:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("deliver blocked after the writer exited")
	}
}

func TestWebSocket_RequiresToken(t *testing.T) {
	s := newTestServer(t, "s3cret", false)
	ts := httptest.NewServer(s.Router)
	defer ts.Close()
	base := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := NewToken("s3cret", "guest", time.Now().Add(time.Hour).Unix())
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+token, nil)
	require.NoError(t, err)
	conn.Close()
}

func TestRatingsRequest(t *testing.T) {
	var req RatingsRequest
	require.NoError(t, json.NewDecoder(bytes.NewBufferString(dessertBody)).Decode(&req))
	r, err := req.Ratings()
	require.NoError(t, err)
	assert.Equal(t, models.Ratings{Sweetness: 10, Budget: 10, Hunger: 10}, r)

	_, err = RatingsRequest{}.Ratings()
	assert.Error(t, err)
}
