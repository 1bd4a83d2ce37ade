package xrpl

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ledgerworks/credential-service/internal/credential"
	"github.com/ledgerworks/credential-service/internal/ledger"
)

// The two negative outcomes of a single-credential lookup. Callers present
// different messaging for each, so they must stay distinguishable.
var (
	ErrNotFound    = errors.New("credential not found")
	ErrNotAccepted = errors.New("credential exists but has not been accepted")
)

// AccountObjectsResult is the result shape of an account_objects query
// filtered to credential entries.
type AccountObjectsResult struct {
	Account        string                  `json:"account"`
	AccountObjects []credential.Descriptor `json:"account_objects"`
	LedgerIndex    uint32                  `json:"ledger_index,omitempty"`
	Validated      bool                    `json:"validated,omitempty"`
}

// AccountObjects fetches all credential-type ledger objects for an address
// against the last validated ledger.
func (c *Client) AccountObjects(ctx context.Context, address string) (*AccountObjectsResult, error) {
	if !ledger.IsValidAddress(address) {
		return nil, errors.Wrapf(ledger.ErrValidation, "invalid address format: %s", address)
	}
	var result AccountObjectsResult
	err := c.request(ctx, map[string]any{
		"command":      "account_objects",
		"account":      address,
		"type":         "credential",
		"ledger_index": "validated",
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAccepted returns the address's accepted credentials with metadata
// decoded. Order is whatever the ledger returns; a corrupt URI degrades the
// single item's metadata to nil rather than failing the listing.
func (c *Client) ListAccepted(ctx context.Context, address string) ([]credential.View, error) {
	result, err := c.AccountObjects(ctx, address)
	if err != nil {
		return nil, err
	}
	accepted := make([]credential.View, 0, len(result.AccountObjects))
	for _, object := range result.AccountObjects {
		if !object.Accepted() {
			continue
		}
		accepted = append(accepted, credential.NewView(object))
	}
	logrus.Debugf("account<%s> has %d accepted of %d credential objects", address, len(accepted), len(result.AccountObjects))
	return accepted, nil
}

// GetCredential looks up the credential exactly matching (credentialType,
// issuer) among the address's objects. An absent object yields ErrNotFound;
// a present but unaccepted object yields ErrNotAccepted.
func (c *Client) GetCredential(ctx context.Context, address, credentialType, issuer string) (*credential.View, error) {
	if !ledger.IsValidAddress(issuer) {
		return nil, errors.Wrapf(ledger.ErrValidation, "invalid issuer address format: %s", issuer)
	}
	result, err := c.AccountObjects(ctx, address)
	if err != nil {
		return nil, err
	}
	for _, object := range result.AccountObjects {
		if object.CredentialType != credentialType || object.Issuer != issuer {
			continue
		}
		if !object.Accepted() {
			return nil, ErrNotAccepted
		}
		view := credential.NewView(object)
		return &view, nil
	}
	return nil, ErrNotFound
}

// CredentialVisible reports whether the (credentialType, issuer) credential
// exists among the subject's objects at all, accepted or not. Used to
// confirm an issuance has landed before prompting the subject to accept.
func (c *Client) CredentialVisible(ctx context.Context, subject, credentialType, issuer string) (bool, error) {
	result, err := c.AccountObjects(ctx, subject)
	if err != nil {
		return false, err
	}
	for _, object := range result.AccountObjects {
		if object.CredentialType == credentialType && object.Issuer == issuer {
			return true, nil
		}
	}
	return false, nil
}
