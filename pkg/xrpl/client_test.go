package xrpl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerworks/credential-service/internal/credential"
	"github.com/ledgerworks/credential-service/internal/ledger"
)

const (
	testIssuer  = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	testSubject = "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH"
	testType    = "64656661756C74"
)

var upgrader = websocket.Upgrader{}

// newFakeLedger starts a websocket server that answers each single-request
// connection using the reply function, mirroring the connect-request-close
// discipline of the client.
func newFakeLedger(t *testing.T, reply func(command map[string]any) map[string]any) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var command map[string]any
		if err = conn.ReadJSON(&command); err != nil {
			return
		}
		require.NoError(t, conn.WriteJSON(reply(command)))
	}))
	t.Cleanup(server.Close)

	endpoint := "ws" + strings.TrimPrefix(server.URL, "http")
	return NewClient(endpoint, WithRequestTimeout(5*time.Second), WithConfirmationInterval(time.Millisecond))
}

func successReply(result any) map[string]any {
	raw, _ := json.Marshal(result)
	return map[string]any{
		"status": "success",
		"type":   "response",
		"result": json.RawMessage(raw),
	}
}

func credentialObject(flags uint32, credentialType string) credential.Descriptor {
	return credential.Descriptor{
		LedgerEntryType: "Credential",
		CredentialType:  credentialType,
		Issuer:          testIssuer,
		Subject:         testSubject,
		Flags:           flags,
		PreviousTxnID:   "ABC123",
		Index:           "DEF456",
	}
}

func TestListAcceptedFiltersUnaccepted(t *testing.T) {
	objects := []credential.Descriptor{
		credentialObject(credential.LSFAccepted, "01"),
		credentialObject(0, "02"),
		credentialObject(credential.LSFAccepted, "03"),
		credentialObject(0, "04"),
		credentialObject(credential.LSFAccepted, "05"),
	}
	client := newFakeLedger(t, func(command map[string]any) map[string]any {
		assert.Equal(t, "account_objects", command["command"])
		assert.Equal(t, testSubject, command["account"])
		assert.Equal(t, "credential", command["type"])
		return successReply(AccountObjectsResult{Account: testSubject, AccountObjects: objects})
	})

	accepted, err := client.ListAccepted(context.Background(), testSubject)
	require.NoError(t, err)
	require.Len(t, accepted, 3)
	assert.Equal(t, "01", accepted[0].CredentialType)
	assert.Equal(t, "03", accepted[1].CredentialType)
	assert.Equal(t, "05", accepted[2].CredentialType)
}

func TestListAcceptedDecodesMetadataPerItem(t *testing.T) {
	uri, err := credential.EncodeMetadata(credential.Metadata{Name: "Resident", Type: testType})
	require.NoError(t, err)

	good := credentialObject(credential.LSFAccepted, testType)
	good.URI = uri
	corrupt := credentialObject(credential.LSFAccepted, "02")
	corrupt.URI = "ZZZZ"

	client := newFakeLedger(t, func(map[string]any) map[string]any {
		return successReply(AccountObjectsResult{AccountObjects: []credential.Descriptor{good, corrupt}})
	})

	accepted, err := client.ListAccepted(context.Background(), testSubject)
	require.NoError(t, err)
	require.Len(t, accepted, 2)
	require.NotNil(t, accepted[0].Metadata)
	assert.Equal(t, "Resident", accepted[0].Metadata.Name)
	assert.Nil(t, accepted[1].Metadata)
}

func TestListAcceptedRejectsBadAddress(t *testing.T) {
	client := NewClient("ws://unused")
	_, err := client.ListAccepted(context.Background(), "not-an-address")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestGetCredentialOutcomes(t *testing.T) {
	accepted := credentialObject(credential.LSFAccepted, testType)
	unaccepted := credentialObject(0, "02")

	client := newFakeLedger(t, func(map[string]any) map[string]any {
		return successReply(AccountObjectsResult{AccountObjects: []credential.Descriptor{accepted, unaccepted}})
	})

	t.Run("accepted credential is returned", func(t *testing.T) {
		view, err := client.GetCredential(context.Background(), testSubject, testType, testIssuer)
		require.NoError(t, err)
		assert.Equal(t, testType, view.CredentialType)
		assert.Equal(t, testIssuer, view.Issuer)
	})

	t.Run("present but unaccepted", func(t *testing.T) {
		_, err := client.GetCredential(context.Background(), testSubject, "02", testIssuer)
		assert.ErrorIs(t, err, ErrNotAccepted)
	})

	t.Run("absent", func(t *testing.T) {
		_, err := client.GetCredential(context.Background(), testSubject, "FF", testIssuer)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCredentialVisible(t *testing.T) {
	unaccepted := credentialObject(0, testType)
	client := newFakeLedger(t, func(map[string]any) map[string]any {
		return successReply(AccountObjectsResult{AccountObjects: []credential.Descriptor{unaccepted}})
	})

	visible, err := client.CredentialVisible(context.Background(), testSubject, testType, testIssuer)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = client.CredentialVisible(context.Background(), testSubject, "FF", testIssuer)
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestQueryErrorReply(t *testing.T) {
	client := newFakeLedger(t, func(map[string]any) map[string]any {
		return map[string]any{
			"status":        "error",
			"error":         "actNotFound",
			"error_message": "Account not found.",
		}
	})

	_, err := client.AccountObjects(context.Background(), testSubject)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuery)
	assert.Contains(t, err.Error(), "actNotFound")
}

func TestQueryUnreachableEndpoint(t *testing.T) {
	client := NewClient("ws://127.0.0.1:1", WithRequestTimeout(100*time.Millisecond))
	_, err := client.AccountObjects(context.Background(), testSubject)
	assert.ErrorIs(t, err, ErrQuery)
}

func TestSubmitAndWait(t *testing.T) {
	tx := &ledger.TxDescriptor{
		TransactionType: ledger.TxCredentialCreate,
		Account:         testIssuer,
		Subject:         testSubject,
		CredentialType:  testType,
	}

	t.Run("validated success", func(t *testing.T) {
		client := newFakeLedger(t, func(command map[string]any) map[string]any {
			switch command["command"] {
			case "submit":
				assert.NotEmpty(t, command["secret"])
				return successReply(map[string]any{
					"engine_result": "tesSUCCESS",
					"tx_json":       map[string]any{"hash": "HASH1"},
				})
			case "tx":
				assert.Equal(t, "HASH1", command["transaction"])
				return successReply(map[string]any{
					"hash":         "HASH1",
					"validated":    true,
					"ledger_index": 42,
					"meta":         map[string]any{"TransactionResult": "tesSUCCESS"},
				})
			}
			t.Fatalf("unexpected command: %v", command["command"])
			return nil
		})

		result, err := client.SubmitAndWait(context.Background(), tx, "sEdTM1uX8pu2do5XvTnutH6HsouMaM2")
		require.NoError(t, err)
		assert.Equal(t, "HASH1", result.Hash)
		assert.Equal(t, uint32(42), result.LedgerIndex)
		assert.Equal(t, TxSuccess, result.Meta.TransactionResult)
	})

	t.Run("hard rejection surfaces engine result", func(t *testing.T) {
		client := newFakeLedger(t, func(map[string]any) map[string]any {
			return successReply(map[string]any{
				"engine_result":         "temMALFORMED",
				"engine_result_message": "Malformed transaction.",
				"tx_json":               map[string]any{"hash": "HASH2"},
			})
		})

		_, err := client.SubmitAndWait(context.Background(), tx, "sEdTM1uX8pu2do5XvTnutH6HsouMaM2")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrQuery)
		assert.Contains(t, err.Error(), "temMALFORMED")
	})

	t.Run("validated failure code fails", func(t *testing.T) {
		client := newFakeLedger(t, func(command map[string]any) map[string]any {
			if command["command"] == "submit" {
				return successReply(map[string]any{
					"engine_result": "tesSUCCESS",
					"tx_json":       map[string]any{"hash": "HASH3"},
				})
			}
			return successReply(map[string]any{
				"hash":      "HASH3",
				"validated": true,
				"meta":      map[string]any{"TransactionResult": "tecNO_TARGET"},
			})
		})

		_, err := client.SubmitAndWait(context.Background(), tx, "sEdTM1uX8pu2do5XvTnutH6HsouMaM2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tecNO_TARGET")
	})
}
