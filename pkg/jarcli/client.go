// Package jarcli is the client library the CLI uses to talk to the
// warmjar daemon over its local socket (named pipe on Windows), with a
// loopback TCP fallback. One request per call, synchronous.
package jarcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

// Client is a connection to the daemon. Safe for concurrent use; calls
// are serialized over the single connection.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// NewClient connects to the daemon. It does not spawn one; use
// EnsureDaemon first when the daemon should be started on demand.
func NewClient() (*Client, error) {
	conn, err := dial()
	if err != nil {
		return nil, fmt.Errorf("connecting to daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(method string, message any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, err := json.Marshal(&Request{
		Method:  method,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	if err = write(c.conn, buf); err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	buf, err = read(c.conn)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	var res Response
	if err = json.Unmarshal(buf, &res); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", method, err)
	}
	if !res.Ok {
		return nil, errors.New(res.Error)
	}
	if res.Update == nil {
		return nil, nil
	}
	return res.Update.Message, nil
}
