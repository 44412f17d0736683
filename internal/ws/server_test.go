package ws

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sigrokproject/go-irdetect/internal/config"
	"github.com/sigrokproject/go-irdetect/irproto"
)

func dialTestServer(t *testing.T) (*websocket.Conn, func()) {
	t.Helper()
	s := NewServer(config.Config{})
	srv := httptest.NewServer(http.HandlerFunc(s.Handle))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestSessionDecodesLogicChunk(t *testing.T) {
	conn, done := dialTestServer(t)
	defer done()

	if err := conn.WriteJSON(map[string]any{"type": "start", "channel_id": "bench"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	started := readMessage(t, conn)
	if started["type"] != "started" {
		t.Fatalf("expected started, got %v", started)
	}

	wave := irproto.AppendIdle(nil, 300)
	wave, err := irproto.AppendFrame(wave, irproto.ProtocolNEC, 0x35, 0x42)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	wave = irproto.AppendIdle(wave, 300)

	chunk := map[string]any{
		"type":      "chunk",
		"mime_type": "application/logic",
		"data":      base64.StdEncoding.EncodeToString(wave),
		"sequence":  1,
	}
	if err := conn.WriteJSON(chunk); err != nil {
		t.Fatalf("chunk: %v", err)
	}

	frame := readMessage(t, conn)
	if frame["type"] != "frame" {
		t.Fatalf("expected frame event, got %v", frame)
	}
	if frame["protocol_name"] != "NEC" {
		t.Fatalf("protocol %v", frame["protocol_name"])
	}
	if int(frame["address"].(float64)) != 0x35 || int(frame["command"].(float64)) != 0x42 {
		t.Fatalf("decoded %v/%v", frame["address"], frame["command"])
	}
	if frame["repeat"].(bool) {
		t.Fatal("first frame flagged as repeat")
	}
	if int(frame["start_sample"].(float64)) != 300 {
		t.Fatalf("start sample %v", frame["start_sample"])
	}

	if err := conn.WriteJSON(map[string]any{"type": "stop"}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	stopped := readMessage(t, conn)
	if stopped["type"] != "stopped" {
		t.Fatalf("expected stopped, got %v", stopped)
	}
	if int(stopped["frames"].(float64)) != 1 {
		t.Fatalf("frame count %v", stopped["frames"])
	}
}

func TestSessionSplitChunksStayResumable(t *testing.T) {
	conn, done := dialTestServer(t)
	defer done()

	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if msg := readMessage(t, conn); msg["type"] != "started" {
		t.Fatalf("expected started, got %v", msg)
	}

	wave := irproto.AppendIdle(nil, 200)
	wave, err := irproto.AppendFrame(wave, irproto.ProtocolNEC, 0x10, 0x20)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	wave = irproto.AppendIdle(wave, 200)

	// Split mid-frame across two chunks; the session must carry its decode
	// state across them.
	split := 500
	for i, part := range [][]uint8{wave[:split], wave[split:]} {
		msg := map[string]any{
			"type":      "chunk",
			"mime_type": "application/logic",
			"data":      base64.StdEncoding.EncodeToString(part),
			"sequence":  i,
		}
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
	}

	frame := readMessage(t, conn)
	if frame["type"] != "frame" {
		t.Fatalf("expected frame event, got %v", frame)
	}
	if int(frame["address"].(float64)) != 0x10 || int(frame["command"].(float64)) != 0x20 {
		t.Fatalf("decoded %v/%v", frame["address"], frame["command"])
	}
}

func TestSessionRejectsBadBase64(t *testing.T) {
	conn, done := dialTestServer(t)
	defer done()

	msg := map[string]any{"type": "chunk", "data": "%%% not base64 %%%"}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("chunk: %v", err)
	}
	resp := readMessage(t, conn)
	if resp["type"] != "error" {
		t.Fatalf("expected error, got %v", resp)
	}
}

func TestSessionUnknownMessageType(t *testing.T) {
	conn, done := dialTestServer(t)
	defer done()

	if err := conn.WriteJSON(map[string]any{"type": "flush"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp := readMessage(t, conn)
	if resp["type"] != "error" {
		t.Fatalf("expected error, got %v", resp)
	}
}
