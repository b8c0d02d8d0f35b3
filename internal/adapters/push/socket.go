// Package push maintains the WebSocket event channel to the dashboard:
// registration handshake, inbound event fan-out, and reconnection with
// bounded exponential backoff. The rest of the system only ever sees
// its Status and the bus events it publishes.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jose-valero/tourneydeck/internal/domain/events"
	"github.com/jose-valero/tourneydeck/internal/state"
)

const (
	readDeadline = 90 * time.Second
	pingEvery    = 30 * time.Second
	writeTimeout = 5 * time.Second
)

// frame is the wire envelope: {"event": "...", "data": {...}}.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type matchesPayload struct {
	Matches []state.RawMatch `json:"matches"`
	Stats   *state.RawStats  `json:"stats"`
}

type tickerPayload struct {
	Message string `json:"message"`
}

type Socket struct {
	url      string
	token    string
	deviceID string

	initialDelay time.Duration
	maxDelay     time.Duration

	status    atomic.Value // events.PushStatus
	lastEvent atomic.Int64 // unix nanos of last inbound frame

	connMu sync.Mutex
	conn   *websocket.Conn

	attempts int

	// Inbound handlers, set before Run.
	OnMatches    func([]state.RawMatch, *state.RawStats)
	OnTournament func(state.RawTournament)
	OnTicker     func(string)

	log *logrus.Entry
}

func New(baseURL, token, deviceID string, initialDelay, maxDelay time.Duration, log *logrus.Logger) (*Socket, error) {
	wsURL, err := socketURL(baseURL)
	if err != nil {
		return nil, err
	}
	s := &Socket{
		url:          wsURL,
		token:        token,
		deviceID:     deviceID,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		log:          log.WithField("component", "push"),
	}
	s.status.Store(events.PushDisconnected)
	return s, nil
}

// socketURL maps the dashboard base URL onto its websocket endpoint.
func socketURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("bad admin URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("bad admin URL scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	return u.String(), nil
}

func (s *Socket) Status() events.PushStatus {
	return s.status.Load().(events.PushStatus)
}

// LastEvent is when the last inbound frame arrived; zero before the
// first one.
func (s *Socket) LastEvent() time.Time {
	n := s.lastEvent.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *Socket) setStatus(st events.PushStatus) {
	if prev := s.status.Swap(st); prev == st {
		return
	}
	s.log.WithField("status", st).Info("push channel status")
	events.Publish(events.PushStatusChanged{Status: st})
}

// backoffDelay doubles from initial, bounded by max. attempt counts
// from zero.
func backoffDelay(attempt int, initial, max time.Duration) time.Duration {
	d := initial
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// Run owns the connect/read/reconnect loop until ctx is cancelled.
func (s *Socket) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			s.setStatus(events.PushDisconnected)
			return
		}

		if s.attempts == 0 {
			s.setStatus(events.PushConnecting)
		} else {
			s.setStatus(events.PushReconnecting)
		}

		conn, err := s.dial(ctx)
		if err != nil {
			s.setStatus(events.PushError)
			delay := backoffDelay(s.attempts, s.initialDelay, s.maxDelay)
			s.attempts++
			s.log.WithError(err).WithFields(logrus.Fields{
				"attempt": s.attempts,
				"retry":   delay,
			}).Warn("push connect failed")

			select {
			case <-ctx.Done():
				s.setStatus(events.PushDisconnected)
				return
			case <-time.After(delay):
			}
			continue
		}

		s.attempts = 0
		s.connMu.Lock()
		s.conn = conn
		s.connMu.Unlock()
		s.setStatus(events.PushConnected)

		if err := s.register(); err != nil {
			s.log.WithError(err).Warn("push register failed")
		}

		s.readLoop(ctx, conn)

		s.connMu.Lock()
		s.conn = nil
		s.connMu.Unlock()
		s.setStatus(events.PushDisconnected)

		// breathe before redialing so a flapping server cannot drive
		// a tight connect/drop loop
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.initialDelay):
		}
	}
}

func (s *Socket) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	if s.token != "" {
		header.Set("X-API-Token", s.token)
	}
	conn, _, err := dialer.DialContext(ctx, s.url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.url, err)
	}
	return conn, nil
}

// register announces this device so the dashboard targets it with
// display events.
func (s *Socket) register() error {
	return s.send(frame{
		Event: "display:register",
		Data:  mustJSON(map[string]string{"displayType": "streamdeck", "displayId": s.deviceID}),
	})
}

// RequestMatches asks the server for a fresh matches:update over the
// socket itself. Used as the liveness probe while push-driven.
func (s *Socket) RequestMatches() error {
	return s.send(frame{Event: "matches:request"})
}

func (s *Socket) send(f frame) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("push channel not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(f)
}

func (s *Socket) readLoop(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	stopPing := make(chan struct{})
	go s.pingLoop(stopPing)
	defer close(stopPing)
	defer conn.Close()

	for {
		if ctx.Err() != nil {
			return
		}
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() == nil {
				s.log.WithError(err).Warn("push read failed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		s.lastEvent.Store(time.Now().UnixNano())
		s.handle(f)
	}
}

func (s *Socket) pingLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn := s.conn
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.log.WithError(err).Debug("push ping failed")
				}
			}
			s.connMu.Unlock()
		}
	}
}

func (s *Socket) handle(f frame) {
	switch f.Event {
	case "display:registered":
		s.log.Info("push registration confirmed")

	case "matches:update":
		var p matchesPayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			s.log.WithError(err).Warn("bad matches:update payload")
			return
		}
		if s.OnMatches != nil {
			s.OnMatches(p.Matches, p.Stats)
		}

	case "tournament:update":
		var p state.RawTournament
		if err := json.Unmarshal(f.Data, &p); err != nil {
			s.log.WithError(err).Warn("bad tournament:update payload")
			return
		}
		if s.OnTournament != nil {
			s.OnTournament(p)
		}

	case "ticker:message":
		var p tickerPayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			s.log.WithError(err).Warn("bad ticker:message payload")
			return
		}
		events.Publish(events.TickerReceived{Message: p.Message})
		if s.OnTicker != nil {
			s.OnTicker(p.Message)
		}

	default:
		s.log.WithField("event", f.Event).Debug("unknown push event")
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err) // static payloads only
	}
	return b
}
