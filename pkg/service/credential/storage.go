package credential

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ledgerworks/credential-service/internal/util"
	"github.com/ledgerworks/credential-service/pkg/storage"
)

var issuanceNamespace = storage.Join("credential", "issuance")

func now() string {
	return time.Now().Format(time.RFC3339)
}

// StoredIssuance is the audit record kept for every credential the service
// writes to the ledger.
type StoredIssuance struct {
	ID             string `json:"id"`
	Issuer         string `json:"issuer"`
	Subject        string `json:"subject"`
	CredentialType string `json:"credentialType"`
	TxHash         string `json:"txHash"`
	LedgerIndex    uint32 `json:"ledgerIndex"`
	URI            string `json:"uri,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

type Storage struct {
	db storage.ServiceStorage
}

func NewCredentialStorage(db storage.ServiceStorage) (*Storage, error) {
	if db == nil {
		return nil, errors.New("db reference is nil")
	}
	return &Storage{db: db}, nil
}

func (cs *Storage) StoreIssuance(ctx context.Context, issuance StoredIssuance) error {
	if issuance.ID == "" {
		return util.LoggingNewError("could not store issuance without an ID")
	}
	issuanceBytes, err := json.Marshal(issuance)
	if err != nil {
		return util.LoggingErrorMsgf(err, "marshalling issuance: %s", issuance.ID)
	}
	return cs.db.Write(ctx, issuanceNamespace, issuance.ID, issuanceBytes)
}

func (cs *Storage) GetIssuance(ctx context.Context, id string) (*StoredIssuance, error) {
	issuanceBytes, err := cs.db.Read(ctx, issuanceNamespace, id)
	if err != nil {
		return nil, util.LoggingErrorMsgf(err, "reading issuance: %s", id)
	}
	if len(issuanceBytes) == 0 {
		return nil, nil
	}
	var issuance StoredIssuance
	if err = json.Unmarshal(issuanceBytes, &issuance); err != nil {
		return nil, util.LoggingErrorMsgf(err, "unmarshalling issuance: %s", id)
	}
	return &issuance, nil
}

func (cs *Storage) ListIssuances(ctx context.Context) ([]StoredIssuance, error) {
	gotIssuances, err := cs.db.ReadAll(ctx, issuanceNamespace)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "could not list issuances")
	}
	issuances := make([]StoredIssuance, 0, len(gotIssuances))
	for id, issuanceBytes := range gotIssuances {
		var issuance StoredIssuance
		if err = json.Unmarshal(issuanceBytes, &issuance); err != nil {
			logrus.WithError(err).Warnf("unmarshal issuance: %s", id)
			continue
		}
		issuances = append(issuances, issuance)
	}
	return issuances, nil
}
