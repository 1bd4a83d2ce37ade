package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"

	credmodel "github.com/ledgerworks/credential-service/internal/credential"
)

const testServiceURL = "http://localhost:8080"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(testServiceURL)
	require.NoError(t, err)
	gock.InterceptClient(client.http)
	t.Cleanup(gock.Off)
	return client
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestGetIssuer(t *testing.T) {
	client := newTestClient(t)

	gock.New(testServiceURL).
		Get("/v1/credentials/issuer").
		Reply(http.StatusOK).
		JSON(map[string]string{"address": "rLUEXYuLiQptky37CqLcm9USQpPiz5rkpD"})

	issuer, err := client.GetIssuer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rLUEXYuLiQptky37CqLcm9USQpPiz5rkpD", issuer)
}

func TestIssueCredential(t *testing.T) {
	client := newTestClient(t)

	gock.New(testServiceURL).
		Put("/v1/credentials").
		Reply(http.StatusCreated).
		JSON(map[string]any{
			"issuance": map[string]any{
				"id":             "e4b2a9f0-49f9-4a4e-b2ce-2b7b6350a150",
				"issuer":         "rLUEXYuLiQptky37CqLcm9USQpPiz5rkpD",
				"subject":        "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH",
				"credentialType": "64656661756C74",
				"txHash":         "ABC123",
				"ledgerIndex":    42,
			},
		})

	rate := 4.5
	issuance, err := client.IssueCredential(context.Background(), IssueCredentialRequest{
		Subject:        "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH",
		CredentialType: "64656661756C74",
		Metadata:       &credmodel.Metadata{Name: "Resident", Type: "64656661756C74", Rate: &rate},
	})
	require.NoError(t, err)
	assert.Equal(t, "ABC123", issuance.TxHash)
	assert.Equal(t, uint32(42), issuance.LedgerIndex)
}

func TestIssueCredentialSurfacesServiceError(t *testing.T) {
	client := newTestClient(t)

	gock.New(testServiceURL).
		Put("/v1/credentials").
		Reply(http.StatusBadRequest).
		JSON(map[string]string{"error": "invalid issue credential request: field validation error"})

	_, err := client.IssueCredential(context.Background(), IssueCredentialRequest{Subject: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid issue credential request")
}

func TestGetPayloadStatus(t *testing.T) {
	client := newTestClient(t)

	t.Run("resolved payload", func(tt *testing.T) {
		gock.New(testServiceURL).
			Get("/v1/credentials/payloads/payload-1").
			Reply(http.StatusOK).
			JSON(map[string]any{
				"id": "payload-1",
				"resolution": map[string]any{
					"signed":   true,
					"resolved": true,
					"txid":     "TX9",
				},
			})

		resolution, err := client.GetPayloadStatus(context.Background(), "payload-1")
		require.NoError(tt, err)
		require.NotNil(tt, resolution)
		assert.True(tt, resolution.SignedSuccessfully())
		assert.Equal(tt, "TX9", resolution.TransactionID)
	})

	t.Run("unknown payload is nil, not an error", func(tt *testing.T) {
		gock.New(testServiceURL).
			Get("/v1/credentials/payloads/unknown").
			Reply(http.StatusNotFound).
			JSON(map[string]string{"error": "payload not found with id: unknown"})

		resolution, err := client.GetPayloadStatus(context.Background(), "unknown")
		require.NoError(tt, err)
		assert.Nil(tt, resolution)
	})
}
