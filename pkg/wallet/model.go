// Package wallet is the client for the payload signing service: it submits
// unsigned transactions as payloads, hands back artifacts the user's wallet
// can consume, and reports whether the user signed.
package wallet

import (
	"github.com/pkg/errors"
)

// ErrBroker indicates the signing service was unreachable or rejected a
// payload. The caller may retry the whole submission manually.
var ErrBroker = errors.New("signing service error")

// PayloadReference identifies a payload submitted to the signing service.
// It is consumed exactly once by a confirmation wait and never reused.
type PayloadReference struct {
	ID string `json:"uuid"`
	// QRCode is the scannable hand-off artifact.
	QRCode string `json:"qrUrl"`
	// DeepLink opens the payload directly in the user's wallet.
	DeepLink string `json:"deepLink"`
	// websocketURL is the payload-specific push subscription endpoint.
	websocketURL string
}

// Resolution is the status of a payload. The only valid pending state is
// signed == nil with resolved == false; the two terminal states are
// (signed != nil, resolved == true). Anything else is a protocol error.
type Resolution struct {
	Signed           *bool  `json:"signed"`
	Resolved         bool   `json:"resolved"`
	TransactionID    string `json:"txid,omitempty"`
	Account          string `json:"account,omitempty"`
	DispatchedResult string `json:"dispatchedResult,omitempty"`
	Dispatched       bool   `json:"dispatched"`
	Expired          bool   `json:"expired"`
}

// Terminal reports whether the resolution is one of the two terminal states.
func (r Resolution) Terminal() bool {
	return r.Resolved && r.Signed != nil
}

// Validate rejects state combinations the protocol does not allow.
func (r Resolution) Validate() error {
	if r.Resolved && r.Signed == nil {
		return errors.Wrap(ErrBroker, "protocol error: resolved payload without a signed outcome")
	}
	if !r.Resolved && r.Signed != nil {
		return errors.Wrap(ErrBroker, "protocol error: signed outcome on an unresolved payload")
	}
	return nil
}

// SignedSuccessfully reports a terminal, user-approved resolution.
func (r Resolution) SignedSuccessfully() bool {
	return r.Terminal() && *r.Signed
}
