package status

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStatusLast(t *testing.T) {
	b := NewBroadcaster()
	if b.Last() != nil {
		t.Fatalf("Last() before any message=%s; expected nil", b.Last())
	}

	var tests = []struct {
		send     func()
		message  string
		_type    int
		progress float32
	}{
		{func() { b.Info("loading %q", "a.glb") }, `loading "a.glb"`, INFO, 0},
		{func() { b.Progress(0.5, "sampling") }, "sampling", PROGRESS, 0.5},
		{func() { b.Progress(float32(math.NaN()), "bad") }, "bad", PROGRESS, 0},
		{func() { b.Error("failed: %v", 3) }, "failed: 3", ERROR, 0},
	}

	for _, test := range tests {
		test.send()
		var s Status
		if err := json.Unmarshal(b.Last(), &s); err != nil {
			t.Fatal(err)
		}
		if s.Message != test.message || s.Type != test._type || s.Progress != test.progress {
			t.Errorf("Last()=%+v; expected (%q,%d,%v)", s, test.message, test._type, test.progress)
		}
	}
}

func TestStatusClient(t *testing.T) {
	b := NewBroadcaster()
	b.Info("first")

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.NewClient(conn)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var s Status
	if err := conn.ReadJSON(&s); err != nil || s.Message != "first" {
		t.Fatalf("first message=%+v,%v; expected the last status", s, err)
	}

	b.Error("second")
	if err := conn.ReadJSON(&s); err != nil || s.Message != "second" || s.Type != ERROR {
		t.Errorf("broadcast message=%+v,%v; expected second error", s, err)
	}

	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for b.Clients() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if b.Clients() != 0 {
		t.Errorf("Clients()=%d after disconnect; expected 0", b.Clients())
	}
}
