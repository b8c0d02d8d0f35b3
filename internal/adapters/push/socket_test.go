package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/tourneydeck/internal/domain/events"
	"github.com/jose-valero/tourneydeck/internal/state"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestBackoffDelayGrowsAndCaps(t *testing.T) {
	initial := 1 * time.Second
	max := 60 * time.Second

	var prev time.Duration
	for attempt := 0; attempt < 10; attempt++ {
		d := backoffDelay(attempt, initial, max)
		assert.GreaterOrEqual(t, d, prev, "delay must never shrink across attempts")
		assert.LessOrEqual(t, d, max)
		prev = d
	}
	assert.Equal(t, initial, backoffDelay(0, initial, max))
	assert.Equal(t, 2*time.Second, backoffDelay(1, initial, max))
	assert.Equal(t, max, backoffDelay(20, initial, max))
}

func TestBackoffDelayInitialAboveMax(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(0, 5*time.Second, time.Second))
}

func TestSocketURL(t *testing.T) {
	for in, want := range map[string]string{
		"https://admin.example.com":  "wss://admin.example.com/ws",
		"http://localhost:3000/":    "ws://localhost:3000/ws",
		"ws://localhost:3000":       "ws://localhost:3000/ws",
	} {
		got, err := socketURL(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := socketURL("ftp://nope")
	require.Error(t, err)
}

// wsServer upgrades one connection and hands it to fn.
func wsServer(t *testing.T, fn func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		fn(conn)
	}))
}

func TestRegisterAndMatchesUpdate(t *testing.T) {
	var registered atomic.Bool

	srv := wsServer(t, func(conn *websocket.Conn) {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		assert.Equal(t, "display:register", f.Event)

		var reg map[string]string
		require.NoError(t, json.Unmarshal(f.Data, &reg))
		assert.Equal(t, "streamdeck", reg["displayType"])
		assert.Equal(t, "deck-1", reg["displayId"])
		registered.Store(true)

		conn.WriteJSON(frame{
			Event: "matches:update",
			Data:  json.RawMessage(`{"matches":[{"id":42,"state":"open"}],"stats":{"total":8,"completed":3}}`),
		})

		// keep the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	s, err := New(srv.URL, "tok", "deck-1", 10*time.Millisecond, 100*time.Millisecond, testLogger())
	require.NoError(t, err)

	var gotID atomic.Int64
	var gotTotal atomic.Int64
	s.OnMatches = func(ms []state.RawMatch, stats *state.RawStats) {
		if len(ms) == 1 && stats != nil {
			gotID.Store(int64(ms[0].ID))
			gotTotal.Store(int64(stats.Total))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool {
		return gotID.Load() == 42 && gotTotal.Load() == 8
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, registered.Load())
	assert.Equal(t, events.PushConnected, s.Status())
	assert.False(t, s.LastEvent().IsZero())
}

func TestTickerEventPublished(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn) {
		var f frame
		conn.ReadJSON(&f) // register
		conn.WriteJSON(frame{
			Event: "ticker:message",
			Data:  json.RawMessage(`{"message":"Finals starting"}`),
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	var got atomic.Value
	unsub := events.Subscribe(func(ev events.TickerReceived) {
		got.Store(ev.Message)
	})
	defer unsub()

	s, err := New(srv.URL, "", "deck-1", 10*time.Millisecond, 100*time.Millisecond, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool {
		m, _ := got.Load().(string)
		return m == "Finals starting"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReconnectAfterServerDrop(t *testing.T) {
	var conns atomic.Int32

	srv := wsServer(t, func(conn *websocket.Conn) {
		n := conns.Add(1)
		if n == 1 {
			// drop the first connection immediately after upgrade
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	s, err := New(srv.URL, "", "deck-1", 5*time.Millisecond, 50*time.Millisecond, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool {
		return conns.Load() >= 2 && s.Status() == events.PushConnected
	}, 3*time.Second, 10*time.Millisecond)
}

func TestRequestMatchesRequiresConnection(t *testing.T) {
	s, err := New("http://localhost:1", "", "deck-1", time.Second, time.Minute, testLogger())
	require.NoError(t, err)
	require.Error(t, s.RequestMatches())
	assert.True(t, strings.Contains(s.url, "/ws"))
}
