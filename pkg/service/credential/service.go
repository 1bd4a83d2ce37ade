// Package credential is the issuance service: it writes credentials to the
// ledger on behalf of the issuing account, prepares acceptance payloads for
// subjects, and answers credential queries.
package credential

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ledgerworks/credential-service/config"
	credmodel "github.com/ledgerworks/credential-service/internal/credential"
	"github.com/ledgerworks/credential-service/internal/ledger"
	"github.com/ledgerworks/credential-service/internal/util"
	"github.com/ledgerworks/credential-service/pkg/service/framework"
	"github.com/ledgerworks/credential-service/pkg/service/keystore"
	"github.com/ledgerworks/credential-service/pkg/storage"
	"github.com/ledgerworks/credential-service/pkg/wallet"
	"github.com/ledgerworks/credential-service/pkg/xrpl"
)

// Ledger is the query and submission surface of the ledger client the
// service consumes.
type Ledger interface {
	SubmitAndWait(ctx context.Context, tx *ledger.TxDescriptor, seed string) (*xrpl.TxResult, error)
	ListAccepted(ctx context.Context, address string) ([]credmodel.View, error)
	GetCredential(ctx context.Context, address, credentialType, issuer string) (*credmodel.View, error)
	CredentialVisible(ctx context.Context, subject, credentialType, issuer string) (bool, error)
}

type Service struct {
	storage  *Storage
	config   config.CredentialConfig
	keystore *keystore.Service
	ledger   Ledger
	broker   wallet.Broker
}

func (s Service) Type() framework.Type {
	return framework.Credential
}

func (s Service) Status() framework.Status {
	ae := util.NewAppendError()
	if s.storage == nil {
		ae.AppendString("no storage configured")
	}
	if s.keystore == nil {
		ae.AppendString("no keystore configured")
	}
	if s.ledger == nil {
		ae.AppendString("no ledger client configured")
	}
	if !ae.IsEmpty() {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: fmt.Sprintf("credential service is not ready: %s", ae.Error().Error()),
		}
	}
	return framework.Status{Status: framework.StatusReady}
}

func (s Service) Config() config.CredentialConfig {
	return s.config
}

// NewCredentialService instantiates the credential service. The broker may be
// nil when no signing service is configured; acceptance payloads are then
// unavailable while issuance and queries still work.
func NewCredentialService(config config.CredentialConfig, s storage.ServiceStorage, keyStore *keystore.Service, ledgerClient Ledger, broker wallet.Broker) (*Service, error) {
	credentialStorage, err := NewCredentialStorage(s)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "could not instantiate storage for the credential service")
	}

	service := Service{
		storage:  credentialStorage,
		config:   config,
		keystore: keyStore,
		ledger:   ledgerClient,
		broker:   broker,
	}
	if !service.Status().IsReady() {
		return nil, errors.New(service.Status().Message)
	}
	return &service, nil
}

// GetIssuer returns the classic address credentials are issued from.
func (s Service) GetIssuer(ctx context.Context) (*GetIssuerResponse, error) {
	address, err := s.keystore.GetIssuerAddress(ctx)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "getting issuer address")
	}
	return &GetIssuerResponse{Address: address}, nil
}

// IssueCredential writes a CredentialCreate transaction for the subject and
// waits until it is validated. The issuance is recorded for audit before
// returning.
func (s Service) IssueCredential(ctx context.Context, request IssueCredentialRequest) (*IssueCredentialResponse, error) {
	logrus.Debugf("issuing credential: %+v", request)

	issuerAddress, err := s.keystore.GetIssuerAddress(ctx)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "getting issuer address")
	}

	tx, err := ledger.BuildIssue(issuerAddress, request.Subject, request.CredentialType, ledger.IssueOpts{
		Expire:   request.Expire,
		Metadata: request.Metadata,
	})
	if err != nil {
		return nil, err
	}

	seed, err := s.keystore.GetIssuerSeed(ctx)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "getting issuer seed")
	}

	result, err := s.ledger.SubmitAndWait(ctx, tx, seed)
	if err != nil {
		return nil, util.LoggingErrorMsgf(err, "submitting credential for subject<%s>", request.Subject)
	}

	issuance := StoredIssuance{
		ID:             uuid.NewString(),
		Issuer:         issuerAddress,
		Subject:        tx.Subject,
		CredentialType: tx.CredentialType,
		TxHash:         result.Hash,
		LedgerIndex:    result.LedgerIndex,
		URI:            tx.URI,
		CreatedAt:      now(),
	}
	if err = s.storage.StoreIssuance(ctx, issuance); err != nil {
		// the credential is already on the ledger; surface the record loss
		return nil, util.LoggingErrorMsgf(err, "credential %s issued but audit record could not be stored", result.Hash)
	}

	logrus.Infof("issued credential<%s> to subject<%s> in ledger %d", tx.CredentialType, tx.Subject, result.LedgerIndex)
	return &IssueCredentialResponse{Issuance: issuance}, nil
}

// CreateAcceptPayload prepares a CredentialAccept transaction for the subject
// and submits it to the signing service, returning the hand-off artifacts.
func (s Service) CreateAcceptPayload(ctx context.Context, request CreateAcceptPayloadRequest) (*CreateAcceptPayloadResponse, error) {
	if s.broker == nil {
		return nil, util.LoggingNewError("no signing service configured")
	}

	issuerAddress, err := s.keystore.GetIssuerAddress(ctx)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "getting issuer address")
	}
	tx, err := ledger.BuildAccept(request.Subject, issuerAddress, request.CredentialType)
	if err != nil {
		return nil, err
	}

	ref, err := s.broker.CreatePayload(ctx, tx)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "creating acceptance payload")
	}
	return &CreateAcceptPayloadResponse{Payload: *ref}, nil
}

// GetPayloadStatus fetches the signing service's view of a payload. An
// unknown or expired payload yields a nil resolution.
func (s Service) GetPayloadStatus(ctx context.Context, id string) (*GetPayloadStatusResponse, error) {
	if s.broker == nil {
		return nil, util.LoggingNewError("no signing service configured")
	}
	resolution, err := s.broker.GetPayload(ctx, id)
	if err != nil {
		return nil, util.LoggingErrorMsgf(err, "getting payload status: %s", id)
	}
	return &GetPayloadStatusResponse{ID: id, Resolution: resolution}, nil
}

// ListAcceptedCredentials returns the accepted credentials held by an account.
func (s Service) ListAcceptedCredentials(ctx context.Context, address string) (*ListCredentialsResponse, error) {
	credentials, err := s.ledger.ListAccepted(ctx, address)
	if err != nil {
		return nil, err
	}
	return &ListCredentialsResponse{Credentials: credentials}, nil
}

// GetCredential looks up a single credential on an account. Passes through
// the ledger client's not-found and not-accepted sentinels for the router to
// map to responses.
func (s Service) GetCredential(ctx context.Context, address, credentialType, issuer string) (*GetCredentialResponse, error) {
	view, err := s.ledger.GetCredential(ctx, address, credentialType, issuer)
	if err != nil {
		return nil, err
	}
	return &GetCredentialResponse{Credential: *view}, nil
}

// ListIssuances returns the audit records of all issued credentials.
func (s Service) ListIssuances(ctx context.Context) (*ListIssuancesResponse, error) {
	issuances, err := s.storage.ListIssuances(ctx)
	if err != nil {
		return nil, err
	}
	return &ListIssuancesResponse{Issuances: issuances}, nil
}
