package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sigrokproject/go-irdetect"
)

// Client forwards decoded frames to an external webhook, e.g. a home
// automation bridge reacting to remote-control keys.
type Client struct {
	url  string
	http *http.Client
}

// New returns a client posting to url. An empty url yields a client whose
// Push is a no-op.
func New(url string, timeoutSec int) *Client {
	if timeoutSec <= 0 {
		timeoutSec = 5
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Event is the webhook payload for one decoded frame.
type Event struct {
	Protocol     uint32 `json:"protocol"`
	ProtocolName string `json:"protocol_name"`
	Address      uint32 `json:"address"`
	Command      uint32 `json:"command"`
	Repeat       bool   `json:"repeat"`
	StartSample  uint64 `json:"start_sample"`
	EndSample    uint64 `json:"end_sample"`
	Session      string `json:"session,omitempty"`
}

// EventFromFrame builds the webhook payload for a decoded frame.
func EventFromFrame(fd irdetect.FrameData, session string) Event {
	return Event{
		Protocol:     fd.ProtocolID,
		ProtocolName: fd.ProtocolName,
		Address:      fd.Address,
		Command:      fd.Command,
		Repeat:       fd.Repeat(),
		StartSample:  fd.StartSample,
		EndSample:    fd.EndSample,
		Session:      session,
	}
}

// Push posts one event. Failures are the caller's to log; a decode session
// never depends on the webhook succeeding.
func (c *Client) Push(ctx context.Context, ev Event) error {
	if c == nil || c.url == "" {
		return nil
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook http %d", resp.StatusCode)
	}
	return nil
}
