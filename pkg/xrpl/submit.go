package xrpl

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ledgerworks/credential-service/internal/ledger"
)

// TxSuccess is the canonical success result code for an applied transaction.
const TxSuccess = "tesSUCCESS"

const maxConfirmationChecks = 10

// SubmitResult is the immediate result of a submit command.
type SubmitResult struct {
	EngineResult        string `json:"engine_result"`
	EngineResultCode    int    `json:"engine_result_code"`
	EngineResultMessage string `json:"engine_result_message"`
	TxJSON              struct {
		Hash string `json:"hash"`
	} `json:"tx_json"`
}

// TxResult is the validated outcome of a transaction.
type TxResult struct {
	Hash        string `json:"hash"`
	LedgerIndex uint32 `json:"ledger_index"`
	Validated   bool   `json:"validated"`
	Meta        struct {
		TransactionResult string `json:"TransactionResult"`
	} `json:"meta"`
}

// SubmitAndWait signs and submits a transaction with the given seed, then
// polls until the transaction appears in a validated ledger. Returns an
// error unless the final result code is TxSuccess.
func (c *Client) SubmitAndWait(ctx context.Context, tx *ledger.TxDescriptor, seed string) (*TxResult, error) {
	var submitted SubmitResult
	err := c.request(ctx, map[string]any{
		"command": "submit",
		"tx_json": tx,
		"secret":  seed,
	}, &submitted)
	if err != nil {
		return nil, err
	}
	// ter/tec class codes may still end up validated; anything else is a hard
	// rejection before the transaction reached a ledger
	if submitted.EngineResult != TxSuccess && !retriableEngineResult(submitted.EngineResult) {
		return nil, errors.Wrapf(ErrQuery, "transaction failed: %s (%s)", submitted.EngineResult, submitted.EngineResultMessage)
	}
	if submitted.TxJSON.Hash == "" {
		return nil, errors.Wrap(ErrQuery, "submit reply carried no transaction hash")
	}
	logrus.Debugf("submitted transaction %s: %s", submitted.TxJSON.Hash, submitted.EngineResult)

	result, err := c.waitValidated(ctx, submitted.TxJSON.Hash)
	if err != nil {
		return nil, err
	}
	if result.Meta.TransactionResult != TxSuccess {
		return nil, errors.Wrapf(ErrQuery, "transaction failed: %s", result.Meta.TransactionResult)
	}
	return result, nil
}

// waitValidated polls the tx command until the transaction is validated.
func (c *Client) waitValidated(ctx context.Context, hash string) (*TxResult, error) {
	var result TxResult
	operation := func() error {
		var lookup TxResult
		if err := c.request(ctx, map[string]any{
			"command":     "tx",
			"transaction": hash,
		}, &lookup); err != nil {
			return err
		}
		if !lookup.Validated {
			return errors.Wrapf(ErrQuery, "transaction %s not yet validated", hash)
		}
		result = lookup
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.confirmationInterval), maxConfirmationChecks),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, errors.Wrapf(ErrQuery, "waiting for validation of %s: %v", hash, err)
	}
	return &result, nil
}

// retriableEngineResult reports whether an engine result class can still be
// included in a validated ledger (queued or retried by the network).
func retriableEngineResult(result string) bool {
	if len(result) < 3 {
		return false
	}
	switch result[:3] {
	case "ter", "tec", "que":
		return true
	}
	return false
}
