package wallet

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ledgerworks/credential-service/internal/ledger"
	"github.com/ledgerworks/credential-service/internal/util"
)

// Config carries the signing service credentials and endpoints.
type Config struct {
	APIKey    string
	APISecret string
	// BaseURL is the REST endpoint, e.g. https://xumm.app/api/v1/platform.
	BaseURL string
	// WebsocketURL is the push endpoint base, e.g. wss://xumm.app/sign.
	// Payload replies may carry their own subscription URL which takes
	// precedence.
	WebsocketURL string
}

// Client talks to the signing service. One Client is constructed per process
// and injected where needed; it is safe for concurrent use and must be
// closed explicitly (e.g. on logout). No ambient global instance exists.
type Client struct {
	config Config
	http   *http.Client
	dialer *websocket.Dialer

	closeOnce sync.Once
	closed    chan struct{}
}

// NewClient creates a signing service client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" || config.APISecret == "" {
		return nil, errors.New("signing service api key and secret are required")
	}
	if config.BaseURL == "" {
		return nil, errors.New("signing service base url is required")
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: 30 * time.Second},
		dialer: websocket.DefaultDialer,
		closed: make(chan struct{}),
	}, nil
}

// Close tears the client down. Subscriptions in flight are released; the
// client must not be reused afterwards.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}

// createPayloadRequest is the wire shape for submitting a payload.
type createPayloadRequest struct {
	TxJSON *ledger.TxDescriptor `json:"txjson"`
}

// createPayloadResponse is the signing service's create reply.
type createPayloadResponse struct {
	UUID string `json:"uuid"`
	Next struct {
		Always string `json:"always"`
	} `json:"next"`
	Refs struct {
		QRPNG           string `json:"qr_png"`
		WebsocketStatus string `json:"websocket_status"`
	} `json:"refs"`
}

// payloadStatusResponse is the signing service's status reply.
type payloadStatusResponse struct {
	Meta struct {
		Signed     *bool `json:"signed"`
		Resolved   bool  `json:"resolved"`
		Dispatched bool  `json:"dispatched"`
		Expired    bool  `json:"expired"`
	} `json:"meta"`
	Response struct {
		TxID             string `json:"txid"`
		Account          string `json:"account"`
		DispatchedResult string `json:"dispatched_result"`
	} `json:"response"`
}

// CreatePayload submits an unsigned transaction descriptor and returns the
// reference the user hand-off and the confirmation wait both consume.
func (c *Client) CreatePayload(ctx context.Context, tx *ledger.TxDescriptor) (*PayloadReference, error) {
	body, err := json.Marshal(createPayloadRequest{TxJSON: tx})
	if err != nil {
		return nil, errors.Wrap(err, "marshalling payload request")
	}

	status, reply, err := c.doRequest(ctx, http.MethodPost, c.config.BaseURL+"/payload", body)
	if err != nil {
		return nil, err
	}
	if !util.Is2xxResponse(status) {
		return nil, errors.Wrapf(ErrBroker, "signing service rejected payload: status %d: %s", status, string(reply))
	}

	var created createPayloadResponse
	if err = json.Unmarshal(reply, &created); err != nil {
		return nil, errors.Wrapf(ErrBroker, "decoding payload reply: %v", err)
	}
	if created.UUID == "" {
		return nil, errors.Wrap(ErrBroker, "payload reply carried no id")
	}

	websocketURL := created.Refs.WebsocketStatus
	if websocketURL == "" {
		websocketURL = c.config.WebsocketURL + "/" + created.UUID
	}
	return &PayloadReference{
		ID:           created.UUID,
		QRCode:       created.Refs.QRPNG,
		DeepLink:     created.Next.Always,
		websocketURL: websocketURL,
	}, nil
}

// GetPayload is a single non-blocking status fetch. A reference unknown or
// expired upstream yields (nil, nil), not an error.
func (c *Client) GetPayload(ctx context.Context, id string) (*Resolution, error) {
	status, reply, err := c.doRequest(ctx, http.MethodGet, c.config.BaseURL+"/payload/"+id, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if !util.Is2xxResponse(status) {
		return nil, errors.Wrapf(ErrBroker, "payload status fetch failed: status %d: %s", status, string(reply))
	}

	var payloadStatus payloadStatusResponse
	if err = json.Unmarshal(reply, &payloadStatus); err != nil {
		return nil, errors.Wrapf(ErrBroker, "decoding payload status: %v", err)
	}
	resolution := Resolution{
		Signed:           payloadStatus.Meta.Signed,
		Resolved:         payloadStatus.Meta.Resolved,
		Dispatched:       payloadStatus.Meta.Dispatched,
		Expired:          payloadStatus.Meta.Expired,
		TransactionID:    payloadStatus.Response.TxID,
		Account:          payloadStatus.Response.Account,
		DispatchedResult: payloadStatus.Response.DispatchedResult,
	}
	if err = resolution.Validate(); err != nil {
		return nil, err
	}
	return &resolution, nil
}

// Subscribe registers a push callback for a payload. The callback fires at
// most once, with a terminal resolution; later events for the same reference
// are ignored. Subscribe blocks until a terminal event is delivered, the
// context is cancelled, or the client is closed.
func (c *Client) Subscribe(ctx context.Context, ref *PayloadReference, onEvent func(Resolution)) error {
	conn, _, err := c.dialer.DialContext(ctx, ref.websocketURL, nil)
	if err != nil {
		return errors.Wrapf(ErrBroker, "dialing payload subscription: %v", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-c.closed:
		case <-done:
		}
		_ = conn.Close()
	}()

	var delivered sync.Once
	for {
		var event map[string]any
		if err = conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case <-c.closed:
				return errors.Wrap(ErrBroker, "client closed")
			default:
			}
			return errors.Wrapf(ErrBroker, "reading subscription event: %v", err)
		}

		signedValue, ok := event["signed"]
		if !ok {
			// keepalive or informational event
			continue
		}
		signed, ok := signedValue.(bool)
		if !ok {
			return errors.Wrap(ErrBroker, "protocol error: subscription event with non-boolean signed field")
		}

		resolution := c.terminalResolution(ctx, ref.ID, signed, event)
		delivered.Do(func() {
			onEvent(resolution)
		})
		return nil
	}
}

// terminalResolution builds the resolution delivered to subscribers. The
// authoritative status endpoint is preferred over the event's own fields;
// when it is unavailable the event still carries enough to resolve.
func (c *Client) terminalResolution(ctx context.Context, id string, signed bool, event map[string]any) Resolution {
	if fetched, err := c.GetPayload(ctx, id); err == nil && fetched != nil && fetched.Terminal() {
		return *fetched
	} else if err != nil {
		logrus.WithError(err).Warnf("could not fetch authoritative status for payload<%s>, using event data", id)
	}

	resolution := Resolution{Signed: &signed, Resolved: true}
	if txid, ok := event["txid"].(string); ok {
		resolution.TransactionID = txid
	}
	if account, ok := event["account"].(string); ok {
		resolution.Account = account
	}
	return resolution
}

func (c *Client) doRequest(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "building signing service request")
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-API-Key", c.config.APIKey)
	request.Header.Set("X-API-Secret", c.config.APISecret)

	response, err := c.http.Do(request)
	if err != nil {
		return 0, nil, errors.Wrapf(ErrBroker, "signing service unreachable: %v", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	reply, err := io.ReadAll(response.Body)
	if err != nil {
		return 0, nil, errors.Wrapf(ErrBroker, "reading signing service reply: %v", err)
	}
	return response.StatusCode, reply, nil
}
