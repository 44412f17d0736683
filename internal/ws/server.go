package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	irdetect "github.com/sigrokproject/go-irdetect"
	"github.com/sigrokproject/go-irdetect/internal/audio"
	"github.com/sigrokproject/go-irdetect/internal/config"
	"github.com/sigrokproject/go-irdetect/internal/notify"
)

type Server struct {
	cfg      config.Config
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	rooms    map[string]map[*websocket.Conn]*clientMeta
	notifier *notify.Client
}

type clientMeta struct {
	peerID    string
	peerLabel string
	channelID string
}

func NewServer(cfg config.Config) *Server {
	s := &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024 * 16,
			WriteBufferSize: 1024 * 16,
		},
		rooms: make(map[string]map[*websocket.Conn]*clientMeta),
	}
	if cfg.WebhookEnabled && cfg.WebhookURL != "" {
		s.notifier = notify.New(cfg.WebhookURL, cfg.WebhookTimeoutSec)
	}
	return s
}

// Handle runs one detection session. The client streams capture chunks and
// receives a frame event for every decoded remote-control frame; one
// detector instance per connection, so concurrent sessions decode
// independent streams.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	// session state
	var (
		roomID  string
		meta    = &clientMeta{}
		det     *irdetect.Detector
		seq     int
		frames  int
		chunkSR = int(irdetect.GetSampleRate()) // rate of raw logic chunks
	)

	emitFrame := func(fd irdetect.FrameData) {
		frames++
		payload := map[string]any{
			"type":          "frame",
			"protocol":      fd.ProtocolID,
			"protocol_name": fd.ProtocolName,
			"address":       fd.Address,
			"command":       fd.Command,
			"repeat":        fd.Repeat(),
			"start_sample":  fd.StartSample,
			"end_sample":    fd.EndSample,
			"sequence":      seq,
		}
		if err := conn.WriteJSON(payload); err != nil {
			log.Warn().Err(err).Msg("failed to send frame")
		}

		// Broadcast to room if joined so monitoring clients see the
		// decoded traffic.
		if roomID != "" {
			rp := map[string]any{
				"type":          "room_frame",
				"room_id":       roomID,
				"peer_id":       meta.peerID,
				"peer_label":    meta.peerLabel,
				"channel_id":    meta.channelID,
				"protocol":      fd.ProtocolID,
				"protocol_name": fd.ProtocolName,
				"address":       fd.Address,
				"command":       fd.Command,
				"repeat":        fd.Repeat(),
				"start_sample":  fd.StartSample,
				"end_sample":    fd.EndSample,
			}
			s.broadcast(roomID, conn, meta.peerID, rp)
		}

		if s.notifier != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.WebhookTimeoutSec)*time.Second)
			if err := s.notifier.Push(ctx, notify.EventFromFrame(fd, meta.channelID)); err != nil {
				log.Warn().Err(err).Msg("webhook push failed")
			}
			cancel()
		}
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("ws read error")
			}
			s.leaveRoom(roomID, conn)
			return
		}
		// Bump read deadline on any activity
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if mt != websocket.TextMessage {
			continue
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.WriteJSON(map[string]any{"type": "error", "detail": "invalid json"})
			continue
		}
		switch msg["type"] {
		case "ping":
			// keepalive from client: reset deadline and respond
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_ = conn.WriteJSON(map[string]any{"type": "pong", "ts": msg["ts"]})
		case "start":
			if v, ok := msg["channel_id"].(string); ok {
				meta.channelID = v
			}
			if sr := int(asFloat(msg["sample_rate"])); sr > 0 {
				chunkSR = sr
			}

			// A start marks a stream boundary: discard any previous
			// session state so stale bookkeeping cannot leak in.
			det = irdetect.New()
			det.Reset()
			seq = 0
			frames = 0

			log.Info().
				Str("channel", meta.channelID).
				Int("chunk_sample_rate", chunkSR).
				Uint32("detector_rate", irdetect.GetSampleRate()).
				Msg("detection session started")
			_ = conn.WriteJSON(map[string]any{"type": "started", "sample_rate": irdetect.GetSampleRate()})
		case "join_room":
			// Idempotent room join ack
			rid, _ := msg["room_id"].(string)
			if rid == "" {
				break
			}
			if v, ok := msg["peer_id"].(string); ok {
				meta.peerID = v
			}
			if v, ok := msg["peer_label"].(string); ok {
				meta.peerLabel = v
			}
			s.joinRoom(rid, conn, meta)
			roomID = rid
			_ = conn.WriteJSON(map[string]any{"type": "room_joined", "room_id": roomID, "peer_id": meta.peerID, "peer_label": meta.peerLabel})
		case "leave_room":
			s.leaveRoom(roomID, conn)
			roomID = ""
			_ = conn.WriteJSON(map[string]any{"type": "room_left"})
		case "chunk":
			b64, _ := msg["data"].(string)
			if b64 == "" {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				_ = conn.WriteJSON(map[string]any{"type": "error", "detail": "invalid base64 data"})
				continue
			}

			var (
				levels []uint8
				sr     int
			)
			switch mime, _ := msg["mime_type"].(string); mime {
			case "application/logic", "application/octet-stream":
				// Raw receiver-line levels, one byte per sample.
				levels, sr = raw, chunkSR
			case "audio/pcm", "audio/L16", "audio/pcm16":
				pcmSR := int(asFloat(msg["sample_rate"]))
				if pcmSR <= 0 {
					pcmSR = chunkSR
				}
				levels, sr, err = audio.DecodePCM16LEToLevels(raw, pcmSR)
			default:
				levels, sr, err = audio.DecodeWAVToLevels(raw)
			}
			if err != nil {
				log.Warn().Err(err).Msg("chunk decode failed")
				_ = conn.WriteJSON(map[string]any{"type": "error", "detail": "decode chunk failed"})
				continue
			}
			if sr != int(irdetect.GetSampleRate()) {
				levels = audio.ResampleLevels(levels, sr, int(irdetect.GetSampleRate()))
			}

			// Lazy detector init for clients that skip the start message.
			if det == nil {
				det = irdetect.New()
				det.Reset()
			}
			fseq, _ := msg["sequence"].(float64)
			seq = int(fseq)

			for _, lv := range levels {
				if det.AddSample(lv) {
					var fd irdetect.FrameData
					if det.GetData(&fd) {
						emitFrame(fd)
					}
				}
			}
			log.Debug().
				Int("chunk_samples", len(levels)).
				Uint64("position", det.SamplePosition()).
				Int("frames", frames).
				Msg("chunk processed")
		case "stop":
			_ = conn.WriteJSON(map[string]any{"type": "stopped", "frames": frames})
			s.leaveRoom(roomID, conn)
			return
		default:
			_ = conn.WriteJSON(map[string]any{"type": "error", "detail": "unknown message type"})
		}
	}
}

func (s *Server) joinRoom(room string, c *websocket.Conn, meta *clientMeta) {
	if room == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.rooms[room]
	if m == nil {
		m = make(map[*websocket.Conn]*clientMeta)
		s.rooms[room] = m
	}
	m[c] = &clientMeta{peerID: meta.peerID, peerLabel: meta.peerLabel, channelID: meta.channelID}
}

func (s *Server) leaveRoom(room string, c *websocket.Conn) {
	if room == "" || c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.rooms[room]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(s.rooms, room)
		}
	}
}

func (s *Server) broadcast(room string, sender *websocket.Conn, senderPeerID string, payload map[string]any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.rooms[room]
	for c, info := range m {
		if c == sender {
			continue
		}
		if info != nil && senderPeerID != "" && info.peerID == senderPeerID {
			continue
		}
		_ = c.WriteJSON(payload)
	}
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f
	default:
		return 0
	}
}
