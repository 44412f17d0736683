package http

import (
	"encoding/json"
	"net/http"

	irdetect "github.com/sigrokproject/go-irdetect"
	"github.com/sigrokproject/go-irdetect/internal/config"
	"github.com/sigrokproject/go-irdetect/internal/ws"
)

func NewRouter(cfg config.Config) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "sample_rate": irdetect.GetSampleRate()})
	})
	// Streaming IR detection WebSocket
	wss := ws.NewServer(cfg)
	mux.HandleFunc("/ws/detect", wss.Handle)
	return mux
}
