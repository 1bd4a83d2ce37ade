// Package client is a typed Go client for the credential service HTTP API.
// It covers the endpoints an acceptance flow consumes: the issuer authority,
// server-side issuance, and payload status.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	credmodel "github.com/ledgerworks/credential-service/internal/credential"
	"github.com/ledgerworks/credential-service/internal/util"
	"github.com/ledgerworks/credential-service/pkg/wallet"
)

const defaultRequestTimeout = 30 * time.Second

// Client calls the credential service over HTTP. Safe for concurrent use.
type Client struct {
	base string
	http *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, e.g. for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New creates a client for the service at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}
	client := &Client{
		base: baseURL,
		http: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// IssueCredentialRequest is the body for PUT /v1/credentials.
type IssueCredentialRequest struct {
	Subject        string              `json:"subject"`
	CredentialType string              `json:"credentialType"`
	Metadata       *credmodel.Metadata `json:"metadata,omitempty"`
	Expire         string              `json:"expire,omitempty"`
}

// Issuance is the audit record returned by a successful issuance.
type Issuance struct {
	ID             string    `json:"id"`
	Issuer         string    `json:"issuer"`
	Subject        string    `json:"subject"`
	CredentialType string    `json:"credentialType"`
	TxHash         string    `json:"txHash"`
	LedgerIndex    uint32    `json:"ledgerIndex"`
	URI            string    `json:"uri,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type issueCredentialResponse struct {
	Issuance Issuance `json:"issuance"`
}

type getIssuerResponse struct {
	Address string `json:"address"`
}

type getPayloadStatusResponse struct {
	ID         string             `json:"id"`
	Resolution *wallet.Resolution `json:"resolution,omitempty"`
}

// errorResponse mirrors the service's error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// GetIssuer returns the classic address of the service's issuing account.
func (c *Client) GetIssuer(ctx context.Context) (string, error) {
	status, reply, err := c.doRequest(ctx, http.MethodGet, c.base+"/v1/credentials/issuer", nil)
	if err != nil {
		return "", err
	}
	if !util.Is2xxResponse(status) {
		return "", apiError(status, reply)
	}

	var resp getIssuerResponse
	if err = json.Unmarshal(reply, &resp); err != nil {
		return "", errors.Wrap(err, "decoding issuer reply")
	}
	return resp.Address, nil
}

// IssueCredential asks the service to issue a credential on ledger to the
// request's subject account.
func (c *Client) IssueCredential(ctx context.Context, request IssueCredentialRequest) (*Issuance, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling issue request")
	}

	status, reply, err := c.doRequest(ctx, http.MethodPut, c.base+"/v1/credentials", body)
	if err != nil {
		return nil, err
	}
	if !util.Is2xxResponse(status) {
		return nil, apiError(status, reply)
	}

	var resp issueCredentialResponse
	if err = json.Unmarshal(reply, &resp); err != nil {
		return nil, errors.Wrap(err, "decoding issuance reply")
	}
	return &resp.Issuance, nil
}

// GetPayloadStatus fetches the resolution of a signing payload. Unknown
// payloads return nil without error.
func (c *Client) GetPayloadStatus(ctx context.Context, id string) (*wallet.Resolution, error) {
	status, reply, err := c.doRequest(ctx, http.MethodGet, c.base+"/v1/credentials/payloads/"+id, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if !util.Is2xxResponse(status) {
		return nil, apiError(status, reply)
	}

	var resp getPayloadStatusResponse
	if err = json.Unmarshal(reply, &resp); err != nil {
		return nil, errors.Wrap(err, "decoding payload status reply")
	}
	return resp.Resolution, nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "calling %s %s", method, url)
	}
	defer func() { _ = resp.Body.Close() }()

	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "reading response body")
	}
	return resp.StatusCode, reply, nil
}

// apiError surfaces the service's error envelope when one is present.
func apiError(status int, reply []byte) error {
	var envelope errorResponse
	if err := json.Unmarshal(reply, &envelope); err == nil && envelope.Error != "" {
		return fmt.Errorf("credential service returned %d: %s", status, envelope.Error)
	}
	return fmt.Errorf("credential service returned %d", status)
}
