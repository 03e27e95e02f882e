package allocation

import (
	"github.com/pkg/errors"
	"io"
	"math/big"
)

const DefaultBatchSize = 80

var ErrInvalidBatchSize = errors.New("batch size must be at least 1")

// Batch is one group of beneficiaries sent in a single batch transaction.
// Addresses and Amounts are index-aligned.
type Batch struct {
	Index     int
	Addresses []string
	Amounts   []*big.Int
}

func (b Batch) Len() int {
	return len(b.Addresses)
}

// Collect drains src into batches of size rows, preserving input order. Only
// the last batch may be shorter. An empty source yields no batches.
func Collect(src RowSource, size int) ([]Batch, error) {
	if size < 1 {
		return nil, errors.Wrapf(ErrInvalidBatchSize, "got %d", size)
	}

	batches := make([]Batch, 0)
	current := newBatch(0, size)

	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		current.Addresses = append(current.Addresses, row.Address)
		current.Amounts = append(current.Amounts, row.Amount)

		if current.Len() == size {
			batches = append(batches, current)
			current = newBatch(len(batches), size)
		}
	}

	if current.Len() > 0 {
		batches = append(batches, current)
	}

	return batches, nil
}

func newBatch(index, size int) Batch {
	return Batch{
		Index:     index,
		Addresses: make([]string, 0, size),
		Amounts:   make([]*big.Int, 0, size),
	}
}
