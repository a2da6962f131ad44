package main

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// Client speaks the one-request-one-response JSON exchange over a persistent
// TCP connection.
type Client struct {
	conn net.Conn
	log  *zap.Logger
}

type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Response is the decoded server reply.
type Response struct {
	Status  string
	Message string
	Data    interface{}
}

func Dial(addr string, log *zap.Logger) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Client{conn: conn, log: log}, nil
}

func (c *Client) Call(action string, data map[string]interface{}) (*Response, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	payload, err := json.Marshal(map[string]interface{}{
		"action": action,
		"data":   data,
	})
	if err != nil {
		return nil, err
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", action, err)
	}

	var buf []byte
	chunk := make([]byte, 4096)
	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
			return nil, err
		}
		n, err := c.conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			var resp response
			if jsonErr := json.Unmarshal(buf, &resp); jsonErr == nil {
				out := &Response{Status: resp.Status, Message: resp.Message}
				if len(resp.Data) > 0 {
					var v interface{}
					if err := json.Unmarshal(resp.Data, &v); err == nil {
						out.Data = v
					}
				}
				return out, nil
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read response to %s: %w", action, err)
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}
