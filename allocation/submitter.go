package allocation

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"math/big"
	"time"
)

//go:generate mockgen -destination=mocks/mock_token.go -package=mocks token-allocation/allocation Token

// Token is the deployed token contract batches are submitted to. Batch blocks
// until the transaction is mined or the client gives up on it.
type Token interface {
	Batch(ctx context.Context, addresses []common.Address, amounts []*big.Int) (*types.Receipt, error)
}

var (
	ErrInvalidAddress = errors.New("invalid beneficiary address")
	ErrReverted       = errors.New("transaction reverted")
	ErrNoReceipt      = errors.New("no receipt for transaction")
)

// Outcome is the result of one batch submission.
type Outcome struct {
	BatchIndex int
	Size       int
	Success    bool
	GasUsed    uint64
	TxHash     common.Hash
	Duration   time.Duration
	Err        error
}

// Submitter sends batches one at a time. A failed batch is recorded and the
// next batch is still attempted; nothing is retried.
type Submitter struct {
	token    Token
	reporter *Reporter
	logger   zerolog.Logger
}

func NewSubmitter(token Token, reporter *Reporter, logger zerolog.Logger) *Submitter {
	return &Submitter{
		token:    token,
		reporter: reporter,
		logger:   logger,
	}
}

// Submit attempts every batch in order and returns one outcome per attempted
// batch. Dispatching stops early only when ctx is cancelled.
func (s *Submitter) Submit(ctx context.Context, batches []Batch) []*Outcome {
	outcomes := make([]*Outcome, 0, len(batches))

	for _, batch := range batches {
		if ctx.Err() != nil {
			s.logger.Warn().Err(ctx.Err()).Int("remaining", len(batches)-len(outcomes)).Msg("submission interrupted")
			break
		}

		outcome := s.submitBatch(ctx, batch)
		s.reporter.Report(outcome, len(batches))
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (s *Submitter) submitBatch(ctx context.Context, batch Batch) *Outcome {
	outcome := &Outcome{
		BatchIndex: batch.Index,
		Size:       batch.Len(),
	}

	s.logger.Debug().
		Int("batch", batch.Index+1).
		Strs("addresses", batch.Addresses).
		Interface("amounts", batch.Amounts).
		Msg("attempting to allocate tokens")

	addresses, err := toAddresses(batch.Addresses)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	start := time.Now()
	receipt, err := s.token.Batch(ctx, addresses, batch.Amounts)
	outcome.Duration = time.Since(start)
	if err != nil {
		outcome.Err = errors.Wrapf(err, "Failed to submit batch %d", batch.Index+1)
		return outcome
	}

	if receipt == nil {
		outcome.Err = errors.Wrapf(ErrNoReceipt, "batch %d", batch.Index+1)
		return outcome
	}

	outcome.TxHash = receipt.TxHash
	outcome.GasUsed = receipt.GasUsed

	if receipt.Status != types.ReceiptStatusSuccessful {
		outcome.Err = errors.Wrapf(ErrReverted, "batch %d, tx %s", batch.Index+1, receipt.TxHash.Hex())
		return outcome
	}

	outcome.Success = true

	return outcome
}

func toAddresses(raw []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(raw))
	for i, address := range raw {
		if !common.IsHexAddress(address) {
			return nil, errors.Wrapf(ErrInvalidAddress, "%q at position %d", address, i)
		}
		addresses = append(addresses, common.HexToAddress(address))
	}
	return addresses, nil
}
