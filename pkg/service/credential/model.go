package credential

import (
	"time"

	"github.com/ledgerworks/credential-service/internal/credential"
	"github.com/ledgerworks/credential-service/pkg/wallet"
)

type IssueCredentialRequest struct {
	Subject        string               `json:"subject" validate:"required"`
	CredentialType string               `json:"credentialType" validate:"required"`
	Metadata       *credential.Metadata `json:"metadata,omitempty"`
	Expire         *time.Time           `json:"expire,omitempty"`
}

type IssueCredentialResponse struct {
	Issuance StoredIssuance `json:"issuance"`
}

type CreateAcceptPayloadRequest struct {
	Subject        string `json:"subject" validate:"required"`
	CredentialType string `json:"credentialType" validate:"required"`
}

type CreateAcceptPayloadResponse struct {
	Payload wallet.PayloadReference `json:"payload"`
}

type GetPayloadStatusResponse struct {
	ID         string             `json:"id"`
	Resolution *wallet.Resolution `json:"resolution,omitempty"`
}

type GetIssuerResponse struct {
	Address string `json:"address"`
}

type ListCredentialsResponse struct {
	Credentials []credential.View `json:"credentials"`
}

type GetCredentialResponse struct {
	Credential credential.View `json:"credential"`
}

type ListIssuancesResponse struct {
	Issuances []StoredIssuance `json:"issuances"`
}
