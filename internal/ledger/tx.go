package ledger

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ledgerworks/credential-service/internal/credential"
)

// Transaction types for the credential operations and generic payment.
const (
	TxCredentialCreate = "CredentialCreate"
	TxCredentialAccept = "CredentialAccept"
	TxPayment          = "Payment"
)

// DropsPerXRP is the fixed conversion factor between the currency's major
// unit and the ledger's integer minor unit.
const DropsPerXRP = 1_000_000

// TxDescriptor is an unsigned transaction in the ledger's JSON shape,
// ready to be submitted to the signing service or signed server-side.
type TxDescriptor struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	Subject         string `json:"Subject,omitempty"`
	Issuer          string `json:"Issuer,omitempty"`
	CredentialType  string `json:"CredentialType,omitempty"`
	URI             string `json:"URI,omitempty"`
	Expiration      uint32 `json:"Expiration,omitempty"`
	Destination     string `json:"Destination,omitempty"`
	Amount          string `json:"Amount,omitempty"`
}

// IssueOpts are the optional parts of a CredentialCreate transaction.
type IssueOpts struct {
	// Issuer is included only when it differs from the funding account,
	// supporting third party issuance.
	Issuer string
	// Expire, when set, becomes the object's ledger expiration time.
	Expire *time.Time
	// Metadata, when set, is encoded and attached as the object's URI field.
	Metadata *credential.Metadata
}

// BuildIssue constructs an unsigned CredentialCreate transaction. Pure:
// no I/O, deterministic given inputs.
func BuildIssue(account, subject, credentialType string, opts IssueOpts) (*TxDescriptor, error) {
	if !IsValidAddress(account) {
		return nil, errors.Wrapf(ErrValidation, "invalid account address format: %s", account)
	}
	if !IsValidAddress(subject) {
		return nil, errors.Wrapf(ErrValidation, "invalid subject address format: %s", subject)
	}
	normalizedType, err := normalizeCredentialType(credentialType)
	if err != nil {
		return nil, err
	}
	tx := TxDescriptor{
		TransactionType: TxCredentialCreate,
		Account:         account,
		Subject:         subject,
		CredentialType:  normalizedType,
	}
	if opts.Issuer != "" && opts.Issuer != account {
		if !IsValidAddress(opts.Issuer) {
			return nil, errors.Wrapf(ErrValidation, "invalid issuer address format: %s", opts.Issuer)
		}
		tx.Issuer = opts.Issuer
	}
	if opts.Expire != nil {
		tx.Expiration = ToLedgerTime(*opts.Expire)
	}
	if opts.Metadata != nil {
		uri, err := credential.EncodeMetadata(*opts.Metadata)
		if err != nil {
			return nil, err
		}
		tx.URI = uri
	}
	return &tx, nil
}

// BuildAccept constructs an unsigned CredentialAccept transaction for the
// subject account accepting a credential from issuer.
func BuildAccept(account, issuer, credentialType string) (*TxDescriptor, error) {
	if !IsValidAddress(account) {
		return nil, errors.Wrapf(ErrValidation, "invalid account address format: %s", account)
	}
	if !IsValidAddress(issuer) {
		return nil, errors.Wrapf(ErrValidation, "invalid issuer address format: %s", issuer)
	}
	normalizedType, err := normalizeCredentialType(credentialType)
	if err != nil {
		return nil, err
	}
	return &TxDescriptor{
		TransactionType: TxCredentialAccept,
		Account:         account,
		Issuer:          issuer,
		CredentialType:  normalizedType,
	}, nil
}

// BuildPayment constructs an unsigned Payment transaction. The amount is
// given in major units and converted to the ledger's integer minor unit.
func BuildPayment(from, to, amount string) (*TxDescriptor, error) {
	if !IsValidAddress(from) {
		return nil, errors.Wrapf(ErrValidation, "invalid sender address format: %s", from)
	}
	if !IsValidAddress(to) {
		return nil, errors.Wrapf(ErrValidation, "invalid destination address format: %s", to)
	}
	drops, err := ToDrops(amount)
	if err != nil {
		return nil, err
	}
	return &TxDescriptor{
		TransactionType: TxPayment,
		Account:         from,
		Destination:     to,
		Amount:          drops,
	}, nil
}

// ToDrops converts a major-unit decimal amount to a minor-unit integer
// string. The conversion is exact only for inputs representable without
// rounding at 6 decimal places; further digits are truncated.
func ToDrops(amount string) (string, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return "", errors.Wrap(ErrValidation, "amount is required")
	}
	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return "", errors.Wrapf(ErrValidation, "amount<%s> is not a valid decimal", amount)
	}
	if len(frac) > 6 {
		frac = frac[:6]
	}
	frac += strings.Repeat("0", 6-len(frac))
	drops := strings.TrimLeft(whole+frac, "0")
	if drops == "" {
		drops = "0"
	}
	return drops, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeCredentialType validates that a credential type is hex-encoded
// and uppercases it to match the ledger's canonical form.
func normalizeCredentialType(credentialType string) (string, error) {
	if credentialType == "" {
		return "", errors.Wrap(ErrValidation, "credential type is required")
	}
	if _, err := hex.DecodeString(credentialType); err != nil {
		return "", errors.Wrapf(ErrValidation, "credential type<%s> must be hex encoded", credentialType)
	}
	return strings.ToUpper(credentialType), nil
}
