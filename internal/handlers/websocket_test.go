package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"device_controller/internal/models"
	"device_controller/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// fakeUpdates hands every subscriber the same channel.
type fakeUpdates struct {
	ch         chan models.DeviceSnapshot
	subscribed chan string
}

func (f *fakeUpdates) Subscribe(device string) (<-chan models.DeviceSnapshot, func()) {
	f.subscribed <- device
	return f.ch, func() {}
}

func dialWS(t *testing.T, s *service.Service, query url.Values) *websocket.Conn {
	t.Helper()
	r := gin.New()
	h := NewHandler(s, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestWebSocket_DeviceStream_InitialAndPeriodic(t *testing.T) {
	mon := &mockMonitoring{state: models.DeviceSnapshot{
		Device: "thermostat-1",
		Kind:   "thermostat",
		State:  "Normal",
		Facts:  map[string]any{"heater_on": true, "temperature_c": 42.5},
	}}
	conn := dialWS(t, &service.Service{Monitoring: mon}, url.Values{
		"device":      {"thermostat-1"},
		"interval_ms": {"20"}, // fast ticks for the test
	})

	env := readEnvelope(t, conn)
	if env.Type != "state" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var st models.DeviceSnapshot
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if st.State != "Normal" || st.Facts["heater_on"] != true || st.Facts["temperature_c"] != 42.5 {
		t.Fatalf("unexpected state: %+v", st)
	}

	// a subsequent tick
	env = readEnvelope(t, conn)
	if env.Type != "state" {
		t.Fatalf("expected type=state, got %+v", env)
	}
	mon.mu.Lock()
	defer mon.mu.Unlock()
	if mon.lastDevice != "thermostat-1" {
		t.Fatalf("expected lookup of thermostat-1, got %q", mon.lastDevice)
	}
}

func TestWebSocket_NoDeviceStreamsList(t *testing.T) {
	mon := &mockMonitoring{list: []models.DeviceSnapshot{
		{Device: "panel-1", State: "AwaitingCredential"},
		{Device: "thermostat-1", State: "Sleep"},
	}}
	conn := dialWS(t, &service.Service{Monitoring: mon}, url.Values{})

	env := readEnvelope(t, conn)
	if env.Type != "devices" {
		t.Fatalf("expected type=devices, got %+v", env)
	}
	var list []models.DeviceSnapshot
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list) != 2 || list[1].State != "Sleep" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestWebSocket_PushesFeedUpdates(t *testing.T) {
	mon := &mockMonitoring{state: models.DeviceSnapshot{Device: "panel-1", State: "AwaitingCredential"}}
	feed := &fakeUpdates{ch: make(chan models.DeviceSnapshot, 1), subscribed: make(chan string, 1)}
	conn := dialWS(t, &service.Service{Monitoring: mon, Updates: feed}, url.Values{
		"device":   {"panel-1"},
		"interval": {"10s"}, // keep polling out of the way
	})

	if env := readEnvelope(t, conn); env.Type != "state" {
		t.Fatalf("expected initial state, got %+v", env)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	select {
	case dev := <-feed.subscribed:
		if dev != "panel-1" {
			t.Fatalf("subscribed to %q", dev)
		}
	case <-ctx.Done():
		t.Fatal("handler never subscribed")
	}

	feed.ch <- models.DeviceSnapshot{Device: "panel-1", State: "Locked"}
	env := readEnvelope(t, conn)
	var st models.DeviceSnapshot
	_ = json.Unmarshal(env.Data, &st)
	if env.Type != "state" || st.State != "Locked" {
		t.Fatalf("expected pushed Locked state, got %+v", env)
	}
}

func TestWebSocket_InitialGetStateError_Closes(t *testing.T) {
	mon := &mockMonitoring{err: errors.New("boom")}
	conn := dialWS(t, &service.Service{Monitoring: mon}, url.Values{"device": {"thermostat-1"}})

	// The server should close immediately after failing initial GetState/WriteJSON
	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}
