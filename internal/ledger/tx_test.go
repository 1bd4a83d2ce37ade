package ledger

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerworks/credential-service/internal/credential"
)

const (
	testIssuer  = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	testSubject = "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH"
	// hex for "default"
	testCredentialType = "64656661756C74"
)

func TestBuildIssue(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		tx, err := BuildIssue(testIssuer, testSubject, testCredentialType, IssueOpts{})
		require.NoError(t, err)
		assert.Equal(t, TxCredentialCreate, tx.TransactionType)
		assert.Equal(t, testIssuer, tx.Account)
		assert.Equal(t, testSubject, tx.Subject)
		assert.Equal(t, testCredentialType, tx.CredentialType)
		assert.Empty(t, tx.Issuer)
		assert.Empty(t, tx.URI)
		assert.Zero(t, tx.Expiration)
	})

	t.Run("metadata becomes canonical uri", func(t *testing.T) {
		tx, err := BuildIssue(testIssuer, testSubject, testCredentialType, IssueOpts{
			Metadata: &credential.Metadata{Name: "Resident", Type: testCredentialType},
		})
		require.NoError(t, err)

		decoded, err := hex.DecodeString(tx.URI)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Resident","expire-date":null,"type":"64656661756C74","location":null,"rate":null}`, string(decoded))

		// key order is part of the wire format
		assert.Equal(t, `{"name":"Resident","expire-date":null,"type":"64656661756C74","location":null,"rate":null}`, string(decoded))
	})

	t.Run("third party issuer is included only when it differs", func(t *testing.T) {
		tx, err := BuildIssue(testIssuer, testSubject, testCredentialType, IssueOpts{Issuer: testIssuer})
		require.NoError(t, err)
		assert.Empty(t, tx.Issuer)

		tx, err = BuildIssue(testIssuer, testSubject, testCredentialType, IssueOpts{Issuer: testSubject})
		require.NoError(t, err)
		assert.Equal(t, testSubject, tx.Issuer)
	})

	t.Run("expire converts to ledger time", func(t *testing.T) {
		expire := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		tx, err := BuildIssue(testIssuer, testSubject, testCredentialType, IssueOpts{Expire: &expire})
		require.NoError(t, err)
		assert.Equal(t, ToLedgerTime(expire), tx.Expiration)
		assert.Equal(t, expire, FromLedgerTime(tx.Expiration))
	})

	t.Run("rejects malformed subject", func(t *testing.T) {
		for _, subject := range []string{"", "r", "rTooShort", "xN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH"} {
			_, err := BuildIssue(testIssuer, subject, testCredentialType, IssueOpts{})
			assert.ErrorIs(t, err, ErrValidation, "subject: %q", subject)
		}
	})

	t.Run("rejects out of range metadata rate", func(t *testing.T) {
		for _, rate := range []float64{-0.01, 5.01} {
			rate := rate
			_, err := BuildIssue(testIssuer, testSubject, testCredentialType, IssueOpts{
				Metadata: &credential.Metadata{Name: "n", Type: "t", Rate: &rate},
			})
			assert.ErrorIs(t, err, credential.ErrInvalidMetadata, "rate: %v", rate)
		}
		for _, rate := range []float64{0, 5} {
			rate := rate
			_, err := BuildIssue(testIssuer, testSubject, testCredentialType, IssueOpts{
				Metadata: &credential.Metadata{Name: "n", Type: "t", Rate: &rate},
			})
			assert.NoError(t, err, "rate: %v", rate)
		}
	})

	t.Run("rejects non hex credential type", func(t *testing.T) {
		_, err := BuildIssue(testIssuer, testSubject, "not-hex", IssueOpts{})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestBuildAccept(t *testing.T) {
	tx, err := BuildAccept(testSubject, testIssuer, testCredentialType)
	require.NoError(t, err)
	assert.Equal(t, TxCredentialAccept, tx.TransactionType)
	assert.Equal(t, testSubject, tx.Account)
	assert.Equal(t, testIssuer, tx.Issuer)
	assert.Equal(t, testCredentialType, tx.CredentialType)
	assert.Empty(t, tx.URI)

	_, err = BuildAccept("", testIssuer, testCredentialType)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = BuildAccept(testSubject, "bogus", testCredentialType)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBuildPayment(t *testing.T) {
	tx, err := BuildPayment(testIssuer, testSubject, "12.5")
	require.NoError(t, err)
	assert.Equal(t, TxPayment, tx.TransactionType)
	assert.Equal(t, testIssuer, tx.Account)
	assert.Equal(t, testSubject, tx.Destination)
	assert.Equal(t, "12500000", tx.Amount)

	_, err = BuildPayment("bogus", testSubject, "1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestToDrops(t *testing.T) {
	cases := []struct {
		amount string
		drops  string
	}{
		{"1", "1000000"},
		{"0", "0"},
		{"0.000001", "1"},
		{"12.5", "12500000"},
		{"100.123456", "100123456"},
		{".5", "500000"},
		// truncation beyond six decimal places is the documented precision boundary
		{"0.0000019", "1"},
	}
	for _, tc := range cases {
		drops, err := ToDrops(tc.amount)
		require.NoError(t, err, "amount: %s", tc.amount)
		assert.Equal(t, tc.drops, drops, "amount: %s", tc.amount)
	}

	for _, amount := range []string{"", "abc", "1.2.3", "-1", "1,5"} {
		_, err := ToDrops(amount)
		assert.ErrorIs(t, err, ErrValidation, "amount: %q", amount)
	}
}
