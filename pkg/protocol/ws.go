package protocol

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// Client speaks the chat protocol over one websocket connection. Calls are
// serialized: each request waits for its reply frame.
type Client struct {
	mu      sync.Mutex
	conn    *ws.Conn
	url     string
	timeout time.Duration
}

func Dial(ctx context.Context, url string, timeout time.Duration) (*Client, error) {
	log.Debug("Dialing chat websocket", "url", url)

	conn, _, err := ws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{conn: conn, url: url, timeout: timeout}, nil
}

func (c *Client) Query(ctx context.Context, sessionID, query string) (string, error) {
	reply, err := c.roundTrip(ctx, Frame{Type: TypeQuery, Query: query, SessionID: sessionID})
	if err != nil {
		return "", err
	}
	return reply.Response, nil
}

func (c *Client) Reset(ctx context.Context, sessionID string) (string, error) {
	reply, err := c.roundTrip(ctx, Frame{Type: TypeReset, SessionID: sessionID})
	if err != nil {
		return "", err
	}
	return reply.Message, nil
}

func (c *Client) roundTrip(ctx context.Context, req Frame) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Time{}
	if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	_ = c.conn.SetReadDeadline(deadline)

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	log.Debug("Write ws", "type", req.Type, "session", req.SessionID)
	if err := c.conn.WriteJSON(req); err != nil {
		return Frame{}, fmt.Errorf("write: %w", err)
	}

	var reply Frame
	if err := c.conn.ReadJSON(&reply); err != nil {
		if ctx.Err() != nil {
			return Frame{}, ctx.Err()
		}
		if IsClosed(err) {
			return Frame{}, fmt.Errorf("connection to %s closed: %w", c.url, err)
		}
		return Frame{}, fmt.Errorf("read: %w", err)
	}
	log.Debug("Read ws", "type", reply.Type)

	if err := reply.Err(); err != nil {
		return reply, err
	}
	return reply, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func IsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
