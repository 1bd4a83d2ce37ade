package credential

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerworks/credential-service/config"
	credmodel "github.com/ledgerworks/credential-service/internal/credential"
	"github.com/ledgerworks/credential-service/internal/ledger"
	"github.com/ledgerworks/credential-service/pkg/service/keystore"
	"github.com/ledgerworks/credential-service/pkg/testutil"
	"github.com/ledgerworks/credential-service/pkg/wallet"
	"github.com/ledgerworks/credential-service/pkg/xrpl"
)

const (
	testSeed    = "sEdTM1uX8pu2do5XvTnutH6HsouMaM2"
	testIssuer  = "rLUEXYuLiQptky37CqLcm9USQpPiz5rkpD"
	testSubject = "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH"
	testType    = "64656661756C74"
)

type fakeLedger struct {
	submitted   *ledger.TxDescriptor
	submitErr   error
	credentials []credmodel.View
	getErr      error
}

func (f *fakeLedger) SubmitAndWait(_ context.Context, tx *ledger.TxDescriptor, seed string) (*xrpl.TxResult, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if seed == "" {
		return nil, errors.New("no seed provided")
	}
	f.submitted = tx
	result := &xrpl.TxResult{Hash: "HASH1", LedgerIndex: 42, Validated: true}
	result.Meta.TransactionResult = xrpl.TxSuccess
	return result, nil
}

func (f *fakeLedger) ListAccepted(context.Context, string) ([]credmodel.View, error) {
	return f.credentials, nil
}

func (f *fakeLedger) GetCredential(context.Context, string, string, string) (*credmodel.View, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if len(f.credentials) == 0 {
		return nil, xrpl.ErrNotFound
	}
	return &f.credentials[0], nil
}

func (f *fakeLedger) CredentialVisible(context.Context, string, string, string) (bool, error) {
	return f.submitted != nil, nil
}

type fakeBroker struct {
	created    *ledger.TxDescriptor
	resolution *wallet.Resolution
}

func (f *fakeBroker) CreatePayload(_ context.Context, tx *ledger.TxDescriptor) (*wallet.PayloadReference, error) {
	f.created = tx
	return &wallet.PayloadReference{ID: "payload-1", DeepLink: "https://example.com/p/1"}, nil
}

func (f *fakeBroker) GetPayload(context.Context, string) (*wallet.Resolution, error) {
	return f.resolution, nil
}

func (f *fakeBroker) Subscribe(context.Context, *wallet.PayloadReference, func(wallet.Resolution)) error {
	return nil
}

func newTestService(t *testing.T, ledgerClient Ledger, broker wallet.Broker) *Service {
	t.Helper()
	db := testutil.NewMemoryStorage(t)

	keyStore, err := keystore.NewKeyStoreService(config.KeyStoreServiceConfig{
		BaseServiceConfig:  &config.BaseServiceConfig{Name: "keystore"},
		ServiceKeyPassword: "test-password",
	}, db)
	require.NoError(t, err)
	require.NoError(t, keyStore.StoreIssuerSeed(context.Background(), testSeed))

	service, err := NewCredentialService(config.CredentialConfig{
		BaseServiceConfig: &config.BaseServiceConfig{Name: "credential"},
	}, db, keyStore, ledgerClient, broker)
	require.NoError(t, err)
	return service
}

func TestGetIssuer(t *testing.T) {
	service := newTestService(t, &fakeLedger{}, &fakeBroker{})

	issuer, err := service.GetIssuer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testIssuer, issuer.Address)
}

func TestIssueCredential(t *testing.T) {
	fake := &fakeLedger{}
	service := newTestService(t, fake, &fakeBroker{})
	ctx := context.Background()

	rate := 4.5
	response, err := service.IssueCredential(ctx, IssueCredentialRequest{
		Subject:        testSubject,
		CredentialType: testType,
		Metadata:       &credmodel.Metadata{Name: "Resident", Type: testType, Rate: &rate},
	})
	require.NoError(t, err)

	require.NotNil(t, fake.submitted)
	assert.Equal(t, ledger.TxCredentialCreate, fake.submitted.TransactionType)
	assert.Equal(t, testIssuer, fake.submitted.Account)
	assert.Equal(t, testSubject, fake.submitted.Subject)
	assert.NotEmpty(t, fake.submitted.URI)

	issuance := response.Issuance
	assert.NotEmpty(t, issuance.ID)
	assert.Equal(t, "HASH1", issuance.TxHash)
	assert.Equal(t, uint32(42), issuance.LedgerIndex)
	assert.Equal(t, testIssuer, issuance.Issuer)

	// the audit record is persisted and listable
	issuances, err := service.ListIssuances(ctx)
	require.NoError(t, err)
	require.Len(t, issuances.Issuances, 1)
	assert.Equal(t, issuance.ID, issuances.Issuances[0].ID)
}

func TestIssueCredentialRejectsBadSubject(t *testing.T) {
	service := newTestService(t, &fakeLedger{}, &fakeBroker{})

	_, err := service.IssueCredential(context.Background(), IssueCredentialRequest{
		Subject:        "not-an-address",
		CredentialType: testType,
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestIssueCredentialSubmitFailure(t *testing.T) {
	fake := &fakeLedger{submitErr: errors.Wrap(xrpl.ErrQuery, "tecNO_TARGET")}
	service := newTestService(t, fake, &fakeBroker{})

	_, err := service.IssueCredential(context.Background(), IssueCredentialRequest{
		Subject:        testSubject,
		CredentialType: testType,
	})
	assert.ErrorIs(t, err, xrpl.ErrQuery)

	issuances, err := service.ListIssuances(context.Background())
	require.NoError(t, err)
	assert.Empty(t, issuances.Issuances)
}

func TestCreateAcceptPayload(t *testing.T) {
	broker := &fakeBroker{}
	service := newTestService(t, &fakeLedger{}, broker)

	response, err := service.CreateAcceptPayload(context.Background(), CreateAcceptPayloadRequest{
		Subject:        testSubject,
		CredentialType: testType,
	})
	require.NoError(t, err)
	assert.Equal(t, "payload-1", response.Payload.ID)

	require.NotNil(t, broker.created)
	assert.Equal(t, ledger.TxCredentialAccept, broker.created.TransactionType)
	assert.Equal(t, testSubject, broker.created.Account)
	assert.Equal(t, testIssuer, broker.created.Issuer)
}

func TestCreateAcceptPayloadWithoutBroker(t *testing.T) {
	service := newTestService(t, &fakeLedger{}, nil)

	_, err := service.CreateAcceptPayload(context.Background(), CreateAcceptPayloadRequest{
		Subject:        testSubject,
		CredentialType: testType,
	})
	assert.Error(t, err)
}

func TestGetPayloadStatus(t *testing.T) {
	signed := true
	broker := &fakeBroker{resolution: &wallet.Resolution{Signed: &signed, Resolved: true, TransactionID: "TX9"}}
	service := newTestService(t, &fakeLedger{}, broker)

	status, err := service.GetPayloadStatus(context.Background(), "payload-1")
	require.NoError(t, err)
	require.NotNil(t, status.Resolution)
	assert.True(t, status.Resolution.SignedSuccessfully())

	// unknown payloads resolve to nil, not an error
	broker.resolution = nil
	status, err = service.GetPayloadStatus(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, status.Resolution)
}

func TestGetCredentialPassesThroughSentinels(t *testing.T) {
	fake := &fakeLedger{getErr: xrpl.ErrNotAccepted}
	service := newTestService(t, fake, &fakeBroker{})

	_, err := service.GetCredential(context.Background(), testSubject, testType, testIssuer)
	assert.ErrorIs(t, err, xrpl.ErrNotAccepted)
}
