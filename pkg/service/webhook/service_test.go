package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerworks/credential-service/config"
	"github.com/ledgerworks/credential-service/pkg/testutil"
)

func newTestWebhookService(t *testing.T) *Service {
	t.Helper()
	service, err := NewWebhookService(config.WebhookServiceConfig{
		BaseServiceConfig: &config.BaseServiceConfig{Name: "webhook"},
		WebhookTimeout:    "2s",
	}, testutil.NewMemoryStorage(t))
	require.NoError(t, err)
	return service
}

func TestCreateWebhook(t *testing.T) {
	service := newTestWebhookService(t)
	ctx := context.Background()

	created, err := service.CreateWebhook(ctx, CreateWebhookRequest{
		Noun: Credential,
		Verb: Create,
		URL:  "https://www.example.com/callback",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.example.com/callback"}, created.Webhook.URLS)

	// a second URL for the same noun.verb joins the same webhook
	created, err = service.CreateWebhook(ctx, CreateWebhookRequest{
		Noun: Credential,
		Verb: Create,
		URL:  "https://www.example.com/other",
	})
	require.NoError(t, err)
	assert.Len(t, created.Webhook.URLS, 2)

	// registering the same URL twice is a no-op
	created, err = service.CreateWebhook(ctx, CreateWebhookRequest{
		Noun: Credential,
		Verb: Create,
		URL:  "https://www.example.com/other",
	})
	require.NoError(t, err)
	assert.Len(t, created.Webhook.URLS, 2)
}

func TestCreateWebhookRequestIsValid(t *testing.T) {
	valid := CreateWebhookRequest{Noun: Credential, Verb: Create, URL: "https://www.example.com/callback"}
	assert.True(t, valid.IsValid())

	badNoun := valid
	badNoun.Noun = Noun("Garbage")
	assert.False(t, badNoun.IsValid())

	badVerb := valid
	badVerb.Verb = Verb("Destroy")
	assert.False(t, badVerb.IsValid())

	badURL := valid
	badURL.URL = "not-a-url"
	assert.False(t, badURL.IsValid())
}

func TestGetAndDeleteWebhook(t *testing.T) {
	service := newTestWebhookService(t)
	ctx := context.Background()

	_, err := service.GetWebhook(ctx, GetWebhookRequest{Noun: Credential, Verb: Create})
	assert.Error(t, err)

	_, err = service.CreateWebhook(ctx, CreateWebhookRequest{
		Noun: Credential,
		Verb: Create,
		URL:  "https://www.example.com/callback",
	})
	require.NoError(t, err)

	gotten, err := service.GetWebhook(ctx, GetWebhookRequest{Noun: Credential, Verb: Create})
	require.NoError(t, err)
	assert.Equal(t, Credential, gotten.Webhook.Noun)

	err = service.DeleteWebhook(ctx, DeleteWebhookRequest{
		Noun: Credential,
		Verb: Create,
		URL:  "https://www.example.com/callback",
	})
	require.NoError(t, err)

	// the webhook is gone once its last URL is removed
	webhooks, err := service.GetWebhooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, webhooks.Webhooks)
}

func TestPublishWebhook(t *testing.T) {
	var delivered atomic.Int32
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		delivered.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(receiver.Close)

	service := newTestWebhookService(t)
	_, err := service.CreateWebhook(context.Background(), CreateWebhookRequest{
		Noun: Credential,
		Verb: Accept,
		URL:  receiver.URL,
	})
	require.NoError(t, err)

	service.PublishWebhook(Credential, Accept, map[string]string{"id": "payload-1"})

	assert.Eventually(t, func() bool {
		return delivered.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
}
