package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// wsDial upgrades to the bridge using the client's auth cookie.
func wsDial(t *testing.T, ts *httptest.Server, c *http.Client, channel string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/realtime/" + channel
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPClient: c})
	if err != nil {
		t.Fatal(err)
	}
	return conn
}

func wsWrite(t *testing.T, conn *websocket.Conn, frame wsFrame) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, frame); err != nil {
		t.Fatal(err)
	}
}

func wsRead(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var frame wsFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatal(err)
	}
	return frame
}

func TestRealtimeRelaysBetweenPeers(t *testing.T) {
	ts, _ := newTestServer(t)
	host := client(t, ts, "hostuser")
	guest := client(t, ts, "guestuser")

	hc := wsDial(t, ts, host, "gomoku:room1")
	defer hc.Close(websocket.StatusNormalClosure, "")
	gc := wsDial(t, ts, guest, "gomoku:room1")
	defer gc.Close(websocket.StatusNormalClosure, "")

	wsWrite(t, gc, wsFrame{Event: "move", Payload: json.RawMessage(`{"row":7,"col":7,"color":"black"}`)})
	frame := wsRead(t, hc)
	if frame.Event != "move" {
		t.Fatalf("event = %q, want move", frame.Event)
	}
	var move struct {
		Row int `json:"row"`
	}
	if err := json.Unmarshal(frame.Payload, &move); err != nil || move.Row != 7 {
		t.Fatalf("payload = %s (%v)", frame.Payload, err)
	}
}

func TestRealtimeBridgeOutlivesRequestTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("idles past the JSON request timeout")
	}
	ts, _ := newTestServer(t)
	host := client(t, ts, "hostuser")
	guest := client(t, ts, "guestuser")

	hc := wsDial(t, ts, host, "gomoku:room1")
	defer hc.Close(websocket.StatusNormalClosure, "")
	gc := wsDial(t, ts, guest, "gomoku:room1")
	defer gc.Close(websocket.StatusNormalClosure, "")

	wsWrite(t, gc, wsFrame{Event: "move", Payload: json.RawMessage(`{"row":0,"col":0,"color":"black"}`)})
	if frame := wsRead(t, hc); frame.Event != "move" {
		t.Fatalf("event = %q, want move", frame.Event)
	}

	// A match easily idles past the JSON request timeout; the bridge
	// must still be relaying afterwards.
	time.Sleep(11 * time.Second)

	wsWrite(t, gc, wsFrame{Event: "move", Payload: json.RawMessage(`{"row":1,"col":1,"color":"white"}`)})
	if frame := wsRead(t, hc); frame.Event != "move" {
		t.Fatalf("event after idle = %q, want move", frame.Event)
	}
}

func TestRealtimeRejectsBadChannel(t *testing.T) {
	ts, _ := newTestServer(t)
	c := client(t, ts, "hostuser")

	res := do(t, c, http.MethodGet, ts.URL+"/realtime/chess:room1")
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", res.StatusCode)
	}
}
