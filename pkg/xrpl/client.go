// Package xrpl is a client for the ledger's websocket RPC API. Connections
// are short-lived: each request dials, performs one command, and closes, so
// no connection state outlives a call.
package xrpl

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrQuery indicates a ledger read failure: network error, upstream error
// reply, or a malformed response.
var ErrQuery = errors.New("ledger query error")

const defaultRequestTimeout = 30 * time.Second

// Client issues requests against a ledger websocket endpoint.
type Client struct {
	endpoint string
	dialer   *websocket.Dialer
	timeout  time.Duration

	// confirmationInterval is the cadence for polling transaction finality.
	confirmationInterval time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithRequestTimeout bounds each single request round trip.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithConfirmationInterval sets the cadence for transaction finality polling.
func WithConfirmationInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.confirmationInterval = interval
	}
}

// NewClient creates a client for the given websocket endpoint (ws:// or wss://).
func NewClient(endpoint string, opts ...Option) *Client {
	client := &Client{
		endpoint:             endpoint,
		dialer:               websocket.DefaultDialer,
		timeout:              defaultRequestTimeout,
		confirmationInterval: time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// rpcResponse is the generic reply envelope. Status is "success" or "error";
// on error the result field is absent and the error fields are set.
type rpcResponse struct {
	Status       string          `json:"status"`
	Type         string          `json:"type"`
	Error        string          `json:"error"`
	ErrorMessage string          `json:"error_message"`
	Result       json.RawMessage `json:"result"`
}

// request performs one command over a fresh connection and decodes the
// result into out. The connection is always released, also on failure.
func (c *Client) request(ctx context.Context, command map[string]any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return errors.Wrapf(ErrQuery, "dialing ledger endpoint %s: %v", c.endpoint, err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			logrus.WithError(closeErr).Debug("closing ledger connection")
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}

	if err = conn.WriteJSON(command); err != nil {
		return errors.Wrapf(ErrQuery, "sending %s command: %v", command["command"], err)
	}

	var response rpcResponse
	if err = conn.ReadJSON(&response); err != nil {
		return errors.Wrapf(ErrQuery, "reading %s reply: %v", command["command"], err)
	}
	if response.Status != "success" {
		return errors.Wrapf(ErrQuery, "%s failed: %s %s", command["command"], response.Error, response.ErrorMessage)
	}
	if err = json.Unmarshal(response.Result, out); err != nil {
		return errors.Wrapf(ErrQuery, "decoding %s result: %v", command["command"], err)
	}
	return nil
}
