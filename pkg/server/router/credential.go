package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	credmodel "github.com/ledgerworks/credential-service/internal/credential"
	"github.com/ledgerworks/credential-service/internal/ledger"
	"github.com/ledgerworks/credential-service/pkg/server/framework"
	"github.com/ledgerworks/credential-service/pkg/service/credential"
	svcframework "github.com/ledgerworks/credential-service/pkg/service/framework"
	"github.com/ledgerworks/credential-service/pkg/wallet"
	"github.com/ledgerworks/credential-service/pkg/xrpl"
)

const (
	IDParam             string = "id"
	AddressParam        string = "address"
	CredentialTypeParam string = "credentialType"
	IssuerParam         string = "issuer"
)

type CredentialRouter struct {
	service *credential.Service
}

func NewCredentialRouter(s svcframework.Service) (*CredentialRouter, error) {
	if s == nil {
		return nil, errors.New("service cannot be nil")
	}
	credService, ok := s.(*credential.Service)
	if !ok {
		return nil, fmt.Errorf("could not create credential router with service type: %s", s.Type())
	}
	return &CredentialRouter{
		service: credService,
	}, nil
}

type GetIssuerResponse struct {
	// The classic address of the configured issuing account.
	Address string `json:"address"`
}

// GetIssuer godoc
//
// @Summary     Get Issuer
// @Description Get the address of the configured issuing account
// @Tags        CredentialAPI
// @Accept      json
// @Produce     json
// @Success     200 {object} GetIssuerResponse
// @Failure     500 {string} string "Internal server error"
// @Router      /v1/credentials/issuer [get]
func (cr CredentialRouter) GetIssuer(c *gin.Context) error {
	issuer, err := cr.service.GetIssuer(c)
	if err != nil {
		errMsg := "could not get issuer"
		return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
	}

	resp := GetIssuerResponse{Address: issuer.Address}
	return framework.Respond(c, resp, http.StatusOK)
}

type IssueCredentialRequest struct {
	// The classic address of the account the credential is issued to.
	Subject string `json:"subject" validate:"required" example:"rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH"`

	// Hex encoded credential type, 1 to 64 bytes.
	CredentialType string `json:"credentialType" validate:"required" example:"64656661756C74"`

	// Optional descriptive metadata, published on ledger as the credential URI.
	Metadata *credmodel.Metadata `json:"metadata,omitempty"`

	// Optional expiration time of the credential.
	Expire string `json:"expire,omitempty" example:"2026-01-01T19:23:24Z"`
}

func (r IssueCredentialRequest) ToServiceRequest() (credential.IssueCredentialRequest, error) {
	request := credential.IssueCredentialRequest{
		Subject:        r.Subject,
		CredentialType: r.CredentialType,
		Metadata:       r.Metadata,
	}
	if r.Expire != "" {
		expire, err := time.Parse(time.RFC3339, r.Expire)
		if err != nil {
			return request, errors.Wrap(err, "parsing expire")
		}
		request.Expire = &expire
	}
	return request, nil
}

type IssueCredentialResponse struct {
	Issuance credential.StoredIssuance `json:"issuance"`
}

// IssueCredential godoc
//
// @Summary     Issue Credential
// @Description Issue a credential on ledger to the given subject account
// @Tags        CredentialAPI
// @Accept      json
// @Produce     json
// @Param       request body     IssueCredentialRequest true "request body"
// @Success     201     {object} IssueCredentialResponse
// @Failure     400     {string} string "Bad request"
// @Failure     500     {string} string "Internal server error"
// @Router      /v1/credentials [put]
func (cr CredentialRouter) IssueCredential(c *gin.Context) error {
	var request IssueCredentialRequest
	invalidIssueCredentialRequest := "invalid issue credential request"
	if err := framework.Decode(c.Request, &request); err != nil {
		return framework.LoggingRespondErrWithMsg(c, err, invalidIssueCredentialRequest, http.StatusBadRequest)
	}

	if err := framework.ValidateRequest(request); err != nil {
		return framework.LoggingRespondErrWithMsg(c, err, invalidIssueCredentialRequest, http.StatusBadRequest)
	}

	req, err := request.ToServiceRequest()
	if err != nil {
		return framework.LoggingRespondErrWithMsg(c, err, invalidIssueCredentialRequest, http.StatusBadRequest)
	}

	issueCredentialResponse, err := cr.service.IssueCredential(c, req)
	if err != nil {
		errMsg := "could not issue credential"
		if errors.Is(err, ledger.ErrValidation) {
			return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusBadRequest)
		}
		return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
	}

	resp := IssueCredentialResponse{Issuance: issueCredentialResponse.Issuance}
	return framework.Respond(c, resp, http.StatusCreated)
}

type CreateAcceptPayloadRequest struct {
	// The classic address of the account accepting the credential.
	Subject string `json:"subject" validate:"required" example:"rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH"`

	// Hex encoded credential type, 1 to 64 bytes.
	CredentialType string `json:"credentialType" validate:"required" example:"64656661756C74"`
}

func (r CreateAcceptPayloadRequest) ToServiceRequest() credential.CreateAcceptPayloadRequest {
	return credential.CreateAcceptPayloadRequest{
		Subject:        r.Subject,
		CredentialType: r.CredentialType,
	}
}

type CreateAcceptPayloadResponse struct {
	Payload wallet.PayloadReference `json:"payload"`
}

// CreateAcceptPayload godoc
//
// @Summary     Create Accept Payload
// @Description Create a signing payload the subject signs to accept a credential
// @Tags        CredentialAPI
// @Accept      json
// @Produce     json
// @Param       request body     CreateAcceptPayloadRequest true "request body"
// @Success     201     {object} CreateAcceptPayloadResponse
// @Failure     400     {string} string "Bad request"
// @Failure     500     {string} string "Internal server error"
// @Router      /v1/credentials/accept [put]
func (cr CredentialRouter) CreateAcceptPayload(c *gin.Context) error {
	var request CreateAcceptPayloadRequest
	invalidAcceptPayloadRequest := "invalid accept payload request"
	if err := framework.Decode(c.Request, &request); err != nil {
		return framework.LoggingRespondErrWithMsg(c, err, invalidAcceptPayloadRequest, http.StatusBadRequest)
	}

	if err := framework.ValidateRequest(request); err != nil {
		return framework.LoggingRespondErrWithMsg(c, err, invalidAcceptPayloadRequest, http.StatusBadRequest)
	}

	createPayloadResponse, err := cr.service.CreateAcceptPayload(c, request.ToServiceRequest())
	if err != nil {
		errMsg := "could not create accept payload"
		if errors.Is(err, ledger.ErrValidation) {
			return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusBadRequest)
		}
		return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
	}

	resp := CreateAcceptPayloadResponse{Payload: createPayloadResponse.Payload}
	return framework.Respond(c, resp, http.StatusCreated)
}

type GetPayloadStatusResponse struct {
	ID         string             `json:"id"`
	Resolution *wallet.Resolution `json:"resolution,omitempty"`
}

// GetPayloadStatus godoc
//
// @Summary     Get Payload Status
// @Description Get the resolution status of a signing payload by its ID
// @Tags        CredentialAPI
// @Accept      json
// @Produce     json
// @Param       id  path     string true "ID"
// @Success     200 {object} GetPayloadStatusResponse
// @Failure     400 {string} string "Bad request"
// @Failure     404 {string} string "Not found"
// @Router      /v1/credentials/payloads/{id} [get]
func (cr CredentialRouter) GetPayloadStatus(c *gin.Context) error {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		errMsg := "cannot get payload status without ID parameter"
		return framework.LoggingRespondErrMsg(c, errMsg, http.StatusBadRequest)
	}

	status, err := cr.service.GetPayloadStatus(c, *id)
	if err != nil {
		errMsg := fmt.Sprintf("could not get payload status with id: %s", *id)
		return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
	}
	if status.Resolution == nil {
		errMsg := fmt.Sprintf("payload not found with id: %s", *id)
		return framework.LoggingRespondErrMsg(c, errMsg, http.StatusNotFound)
	}

	resp := GetPayloadStatusResponse{ID: status.ID, Resolution: status.Resolution}
	return framework.Respond(c, resp, http.StatusOK)
}

type ListIssuancesResponse struct {
	Issuances []credential.StoredIssuance `json:"issuances,omitempty"`
}

// ListIssuances godoc
//
// @Summary     List Issuances
// @Description List the issuance records produced by this service
// @Tags        CredentialAPI
// @Accept      json
// @Produce     json
// @Success     200 {object} ListIssuancesResponse
// @Failure     500 {string} string "Internal server error"
// @Router      /v1/credentials/issuances [get]
func (cr CredentialRouter) ListIssuances(c *gin.Context) error {
	issuances, err := cr.service.ListIssuances(c)
	if err != nil {
		errMsg := "could not list issuances"
		return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
	}

	resp := ListIssuancesResponse{Issuances: issuances.Issuances}
	return framework.Respond(c, resp, http.StatusOK)
}

type ListCredentialsResponse struct {
	// Accepted credentials held by the account.
	Credentials []credmodel.View `json:"credentials,omitempty"`
}

// ListCredentials godoc
//
// @Summary     List Credentials
// @Description List the accepted credentials held by an account
// @Tags        CredentialAPI
// @Accept      json
// @Produce     json
// @Param       address path     string true "Address"
// @Success     200     {object} ListCredentialsResponse
// @Failure     400     {string} string "Bad request"
// @Failure     500     {string} string "Internal server error"
// @Router      /v1/credentials/accounts/{address} [get]
func (cr CredentialRouter) ListCredentials(c *gin.Context) error {
	address := framework.GetParam(c, AddressParam)
	if address == nil {
		errMsg := "cannot list credentials without address parameter"
		return framework.LoggingRespondErrMsg(c, errMsg, http.StatusBadRequest)
	}

	credentials, err := cr.service.ListAcceptedCredentials(c, *address)
	if err != nil {
		errMsg := fmt.Sprintf("could not list credentials for account: %s", *address)
		return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
	}

	resp := ListCredentialsResponse{Credentials: credentials.Credentials}
	return framework.Respond(c, resp, http.StatusOK)
}

type GetCredentialResponse struct {
	Credential credmodel.View `json:"credential"`
}

// GetCredential godoc
//
// @Summary     Get Credential
// @Description Get an accepted credential by account, credential type, and issuer
// @Tags        CredentialAPI
// @Accept      json
// @Produce     json
// @Param       address        path     string true "Address"
// @Param       credentialType path     string true "Credential Type"
// @Param       issuer         path     string true "Issuer"
// @Success     200 {object} GetCredentialResponse
// @Failure     400 {string} string "Bad request"
// @Failure     404 {string} string "Not found"
// @Router      /v1/credentials/accounts/{address}/{credentialType}/{issuer} [get]
func (cr CredentialRouter) GetCredential(c *gin.Context) error {
	address := framework.GetParam(c, AddressParam)
	credentialType := framework.GetParam(c, CredentialTypeParam)
	issuer := framework.GetParam(c, IssuerParam)
	if address == nil || credentialType == nil || issuer == nil {
		errMsg := "cannot get credential without address, credentialType, and issuer parameters"
		return framework.LoggingRespondErrMsg(c, errMsg, http.StatusBadRequest)
	}

	gotCredential, err := cr.service.GetCredential(c, *address, *credentialType, *issuer)
	if err != nil {
		if errors.Is(err, xrpl.ErrNotFound) {
			errMsg := fmt.Sprintf("credential not found for account: %s", *address)
			return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusNotFound)
		}
		if errors.Is(err, xrpl.ErrNotAccepted) {
			errMsg := fmt.Sprintf("credential not yet accepted by account: %s", *address)
			return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusNotFound)
		}
		errMsg := fmt.Sprintf("could not get credential for account: %s", *address)
		return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
	}

	resp := GetCredentialResponse{Credential: gotCredential.Credential}
	return framework.Respond(c, resp, http.StatusOK)
}
