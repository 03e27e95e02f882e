package allocation

import (
	"fmt"
	"io"
	"strings"
)

// Reporter prints human-readable progress lines. It never influences the run.
type Reporter struct {
	out    io.Writer
	strict bool
}

func NewReporter(out io.Writer, strict bool) *Reporter {
	return &Reporter{out: out, strict: strict}
}

// Banner prints a framed section header.
func (r *Reporter) Banner(title string) {
	rule := strings.Repeat("-", 44)
	fmt.Fprintf(r.out, "%s\n%s\n%s\n", rule, title, rule)
}

func (r *Reporter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "[Allocation] "+format+"\n", args...)
}

func (r *Reporter) Plan(batches []Batch, decimals uint) {
	for _, batch := range batches {
		fmt.Fprintf(r.out, "[Allocation][Batch %d/%d] %d accounts.\n", batch.Index+1, len(batches), batch.Len())
		for i, address := range batch.Addresses {
			fmt.Fprintf(r.out, "    %s %s\n", address, FormatAmount(batch.Amounts[i], decimals))
		}
	}
}

func (r *Reporter) Report(o *Outcome, total int) {
	prefix := fmt.Sprintf("[Allocation][Batch %d/%d]", o.BatchIndex+1, total)

	if !o.Success {
		fmt.Fprintf(r.out, "%s ERROR: %s\n", prefix, o.Err)
		return
	}

	fmt.Fprintf(r.out, "%s Allocation + transfer was successful. %d accounts. %d gas used. Tx: %s\n",
		prefix, o.Size, o.GasUsed, o.TxHash.Hex())
}

func (r *Reporter) Summary(res *Result) {
	if res.BatchCount == 0 {
		r.Printf("Nothing to allocate. %d valid rows.", res.RowCount)
	} else {
		r.Printf("Done. %d/%d batches attempted. %d succeeded. %d failed. %d gas used.",
			res.Attempted(), res.BatchCount, res.Succeeded, res.Failed, res.TotalGasUsed)
	}

	if r.strict && res.SkippedRows != nil {
		r.Printf("%d rows skipped (empty or invalid address/amount).", *res.SkippedRows)
	}
}
