package client

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/gorilla/websocket"

	"musidex/internal/models"
)

// DecodeMetadataFrame decodes one websocket payload: a raw-deflate-compressed
// JSON snapshot.
func DecodeMetadataFrame(frame []byte) (*models.RawMetadata, error) {
	r := flate.NewReader(bytes.NewReader(frame))
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate metadata frame: %w", err)
	}
	var raw models.RawMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode metadata frame: %w", err)
	}
	return &raw, nil
}

// SubscribeMetadata opens the daemon's metadata push channel and delivers
// decoded snapshots until the context is cancelled or the connection drops.
// The channel is closed on exit; reconnection policy is the caller's concern.
func (c *Client) SubscribeMetadata(ctx context.Context) (<-chan *models.RawMetadata, error) {
	wsURL, err := c.WebsocketURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, &APIError{Operation: "subscribe_metadata", URL: wsURL, Err: err}
	}

	out := make(chan *models.RawMetadata)
	go func() {
		defer close(out)
		defer conn.Close()

		// Unblock ReadMessage when the context is cancelled.
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		defer stop()

		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("metadata websocket closed", "error", err)
				}
				return
			}
			raw, err := DecodeMetadataFrame(frame)
			if err != nil {
				slog.Warn("dropping malformed metadata frame", "error", err)
				continue
			}
			select {
			case out <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
