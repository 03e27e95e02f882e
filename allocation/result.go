package allocation

import (
	"github.com/ethereum/go-ethereum/common"
	"time"
)

type Result struct {
	RunID           string         `json:"run_id"`
	ContractAddress string         `json:"contract_address"`
	StartTime       *time.Time     `json:"start_time"`
	EndTime         *time.Time     `json:"end_time"`
	RowCount        int            `json:"row_count"`
	SkippedRows     *int           `json:"skipped_rows,omitempty"`
	BatchSize       int            `json:"batch_size"`
	BatchCount      int            `json:"batch_count"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	TotalGasUsed    uint64         `json:"total_gas_used"`
	DryRun          bool           `json:"dry_run"`
	Batches         []*BatchResult `json:"batches"`
}

type BatchResult struct {
	Index   int     `json:"index"`
	Size    int     `json:"size"`
	Success bool    `json:"success"`
	GasUsed uint64  `json:"gas_used"`
	TxHash  string  `json:"tx_hash,omitempty"`
	Seconds float64 `json:"seconds"`
	Error   string  `json:"error,omitempty"`
}

func (r *Result) Attempted() int {
	return r.Succeeded + r.Failed
}

func (r *Result) add(o *Outcome) {
	br := &BatchResult{
		Index:   o.BatchIndex,
		Size:    o.Size,
		Success: o.Success,
		GasUsed: o.GasUsed,
		Seconds: o.Duration.Seconds(),
	}
	if o.TxHash != (common.Hash{}) {
		br.TxHash = o.TxHash.Hex()
	}
	if o.Err != nil {
		br.Error = o.Err.Error()
	}

	if o.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.TotalGasUsed += o.GasUsed
	r.Batches = append(r.Batches, br)
}
