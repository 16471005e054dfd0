package devtools_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gordonbrander/refrakt/pkg/devtools"
	"github.com/gordonbrander/refrakt/pkg/reactive"
	"github.com/gordonbrander/refrakt/pkg/store"
)

type counterModel struct {
	Count int `json:"count"`
}

type counterMsg struct {
	kind string
}

func (m counterMsg) MsgType() string { return m.kind }

func counterReducer(m counterModel, msg counterMsg) counterModel {
	if msg.kind == "increment" {
		m.Count++
	}
	return m
}

func TestStateEndpointServesJSON(t *testing.T) {
	s := store.New(counterReducer, counterModel{Count: 2})
	srv := httptest.NewServer(devtools.New[counterModel, counterMsg](s).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var m counterModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	assert.Equal(t, 2, m.Count)
}

func TestMetricsEndpointServesGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "devtools_test_total",
		Help: "test counter",
	})
	reg.MustRegister(c)
	c.Inc()

	s := store.New(counterReducer, counterModel{})
	srv := httptest.NewServer(devtools.New[counterModel, counterMsg](s,
		devtools.WithGatherer(reg),
	).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "devtools_test_total 1")
}

func TestWebSocketPushesStateChanges(t *testing.T) {
	sched := reactive.NewScheduler()
	s := store.New(counterReducer, counterModel{})
	srv := httptest.NewServer(devtools.New[counterModel, counterMsg](s,
		devtools.WithScheduler(sched),
	).Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readModel := func() counterModel {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var m counterModel
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}

	assert.Equal(t, 0, readModel().Count)

	s.Send(counterMsg{kind: "increment"})
	s.Send(counterMsg{kind: "increment"})
	sched.Settle()

	// Intermediate states may coalesce; the final one always arrives.
	deadline := time.Now().Add(5 * time.Second)
	for {
		m := readModel()
		if m.Count == 2 {
			break
		}
		require.True(t, time.Now().Before(deadline), "never observed final state")
	}
}

func TestWebSocketClientCloseTearsDownSubscription(t *testing.T) {
	sched := reactive.NewScheduler()
	s := store.New(counterReducer, counterModel{})
	srv := httptest.NewServer(devtools.New[counterModel, counterMsg](s,
		devtools.WithScheduler(sched),
	).Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	conn.Close()

	// Dispatches after the close must not wedge the scheduler.
	s.Send(counterMsg{kind: "increment"})
	sched.Settle()
	assert.Equal(t, 1, s.Get().Count)
}
