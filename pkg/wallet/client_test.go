package wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"

	"github.com/ledgerworks/credential-service/internal/ledger"
)

const (
	testAPIBase   = "https://signing.example.com/api/v1/platform"
	testPayloadID = "d1a2b3c4-0000-1111-2222-333344445555"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:       "key",
		APISecret:    "secret",
		BaseURL:      testAPIBase,
		WebsocketURL: "wss://signing.example.com/sign",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	if client.http.Transport == nil {
		client.http.Transport = http.DefaultTransport
	}
	gock.InterceptClient(client.http)
	t.Cleanup(gock.Off)
	return client
}

func testTx() *ledger.TxDescriptor {
	return &ledger.TxDescriptor{
		TransactionType: ledger.TxCredentialCreate,
		Account:         "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
		Subject:         "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH",
		CredentialType:  "64656661756C74",
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{BaseURL: testAPIBase})
	assert.Error(t, err)

	_, err = NewClient(Config{APIKey: "key", APISecret: "secret"})
	assert.Error(t, err)
}

func TestCreatePayload(t *testing.T) {
	client := newTestClient(t)

	gock.New(testAPIBase).
		Post("/payload").
		MatchHeader("X-API-Key", "key").
		MatchHeader("X-API-Secret", "secret").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"uuid": testPayloadID,
			"next": map[string]any{"always": "https://signing.example.com/sign/" + testPayloadID},
			"refs": map[string]any{
				"qr_png":           "https://signing.example.com/sign/" + testPayloadID + "_q.png",
				"websocket_status": "wss://signing.example.com/sign/" + testPayloadID,
			},
		})

	ref, err := client.CreatePayload(context.Background(), testTx())
	require.NoError(t, err)
	assert.Equal(t, testPayloadID, ref.ID)
	assert.Contains(t, ref.QRCode, "_q.png")
	assert.Contains(t, ref.DeepLink, testPayloadID)
	assert.Equal(t, "wss://signing.example.com/sign/"+testPayloadID, ref.websocketURL)
}

func TestCreatePayloadRejected(t *testing.T) {
	client := newTestClient(t)

	gock.New(testAPIBase).
		Post("/payload").
		Reply(http.StatusForbidden).
		JSON(map[string]any{"error": true})

	_, err := client.CreatePayload(context.Background(), testTx())
	assert.ErrorIs(t, err, ErrBroker)
}

func TestGetPayload(t *testing.T) {
	t.Run("pending", func(t *testing.T) {
		client := newTestClient(t)
		gock.New(testAPIBase).
			Get("/payload/" + testPayloadID).
			Reply(http.StatusOK).
			JSON(map[string]any{
				"meta":     map[string]any{"signed": nil, "resolved": false},
				"response": map[string]any{},
			})

		resolution, err := client.GetPayload(context.Background(), testPayloadID)
		require.NoError(t, err)
		require.NotNil(t, resolution)
		assert.False(t, resolution.Terminal())
	})

	t.Run("signed", func(t *testing.T) {
		client := newTestClient(t)
		gock.New(testAPIBase).
			Get("/payload/" + testPayloadID).
			Reply(http.StatusOK).
			JSON(map[string]any{
				"meta": map[string]any{"signed": true, "resolved": true},
				"response": map[string]any{
					"txid":    "TX1",
					"account": "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
				},
			})

		resolution, err := client.GetPayload(context.Background(), testPayloadID)
		require.NoError(t, err)
		require.NotNil(t, resolution)
		assert.True(t, resolution.SignedSuccessfully())
		assert.Equal(t, "TX1", resolution.TransactionID)
		assert.Equal(t, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", resolution.Account)
	})

	t.Run("unknown payload is nil, not an error", func(t *testing.T) {
		client := newTestClient(t)
		gock.New(testAPIBase).
			Get("/payload/" + testPayloadID).
			Reply(http.StatusNotFound).
			JSON(map[string]any{"error": true})

		resolution, err := client.GetPayload(context.Background(), testPayloadID)
		require.NoError(t, err)
		assert.Nil(t, resolution)
	})

	t.Run("resolved without outcome is a protocol error", func(t *testing.T) {
		client := newTestClient(t)
		gock.New(testAPIBase).
			Get("/payload/" + testPayloadID).
			Reply(http.StatusOK).
			JSON(map[string]any{
				"meta":     map[string]any{"signed": nil, "resolved": true},
				"response": map[string]any{},
			})

		_, err := client.GetPayload(context.Background(), testPayloadID)
		assert.ErrorIs(t, err, ErrBroker)
	})
}

// newFakeSubscription serves one websocket connection and plays back the
// given events in order.
func newFakeSubscription(t *testing.T, events []map[string]any) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for _, event := range events {
			if err = conn.WriteJSON(event); err != nil {
				return
			}
		}
		// hold the connection open so the close comes from the client side
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSubscribeDeliversFirstTerminalEvent(t *testing.T) {
	client := newTestClient(t)
	url := newFakeSubscription(t, []map[string]any{
		{"message": "welcome"},
		{"expires_in_seconds": 280},
		{"signed": false, "txid": ""},
		{"signed": true, "txid": "LATE"},
	})

	var delivered []Resolution
	ref := &PayloadReference{ID: testPayloadID, websocketURL: url}
	err := client.Subscribe(context.Background(), ref, func(resolution Resolution) {
		delivered = append(delivered, resolution)
	})
	require.NoError(t, err)

	// informational events skipped, only the first signed event honored
	require.Len(t, delivered, 1)
	require.True(t, delivered[0].Terminal())
	assert.False(t, *delivered[0].Signed)
}

func TestSubscribeRejectsNonBooleanSigned(t *testing.T) {
	client := newTestClient(t)
	url := newFakeSubscription(t, []map[string]any{
		{"signed": "yes"},
	})

	ref := &PayloadReference{ID: testPayloadID, websocketURL: url}
	err := client.Subscribe(context.Background(), ref, func(Resolution) {
		t.Fatal("callback must not fire for a malformed event")
	})
	assert.ErrorIs(t, err, ErrBroker)
}

func TestSubscribePrefersAuthoritativeStatus(t *testing.T) {
	client := newTestClient(t)
	gock.New(testAPIBase).
		Get("/payload/" + testPayloadID).
		Reply(http.StatusOK).
		JSON(map[string]any{
			"meta": map[string]any{"signed": true, "resolved": true},
			"response": map[string]any{
				"txid":    "AUTHORITATIVE",
				"account": "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
			},
		})
	url := newFakeSubscription(t, []map[string]any{
		{"signed": true, "txid": "FROM_EVENT"},
	})

	var delivered Resolution
	ref := &PayloadReference{ID: testPayloadID, websocketURL: url}
	err := client.Subscribe(context.Background(), ref, func(resolution Resolution) {
		delivered = resolution
	})
	require.NoError(t, err)
	assert.Equal(t, "AUTHORITATIVE", delivered.TransactionID)
}

func TestSubscribeCancelled(t *testing.T) {
	client := newTestClient(t)
	url := newFakeSubscription(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ref := &PayloadReference{ID: testPayloadID, websocketURL: url}
	err := client.Subscribe(ctx, ref, func(Resolution) {
		t.Fatal("callback must not fire after cancellation")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
