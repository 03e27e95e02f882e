package allocation

import (
	"context"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"io"
	"time"
)

// Orchestrator drives one allocation run: parse, batch, submit, report.
type Orchestrator struct {
	config   *RunConfig
	token    Token
	reporter *Reporter
	logger   zerolog.Logger
}

// NewOrchestrator builds a run. token may be nil for a dry run.
func NewOrchestrator(config *RunConfig, token Token, reporter *Reporter, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		config:   config,
		token:    token,
		reporter: reporter,
		logger:   logger,
	}
}

// Allocate reads allocations from input and submits them. The returned error
// is only ever a fatal one; per-batch failures are part of the Result.
func (o *Orchestrator) Allocate(ctx context.Context, input io.Reader) (*Result, error) {
	runID := uuid.New().String()
	logger := o.logger.With().Str("run_id", runID).Str("contract", o.config.ContractAddress).Logger()

	startTime := time.Now()
	res := &Result{
		RunID:           runID,
		ContractAddress: o.config.ContractAddress,
		StartTime:       &startTime,
		BatchSize:       o.config.BatchSize,
		DryRun:          o.config.DryRun,
		Batches:         make([]*BatchResult, 0),
	}

	o.reporter.Banner("Parsing allocations file")
	o.reporter.Printf("Removing beneficiaries without tokens or address data.")
	logger.Info().Str("input", o.config.InputPath).Int("batch_size", o.config.BatchSize).Msg("parsing allocations")

	parser := NewParser(input, o.config.TokenDecimals, logger)
	batches, err := Collect(parser, o.config.BatchSize)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to parse allocations")
	}

	for _, batch := range batches {
		res.RowCount += batch.Len()
	}
	res.BatchCount = len(batches)
	if o.config.Strict {
		skipped := parser.Skipped()
		res.SkippedRows = &skipped
	}

	logger.Info().Int("rows", res.RowCount).Int("skipped", parser.Skipped()).Int("batches", res.BatchCount).Msg("allocations parsed")

	switch {
	case len(batches) == 0:
		logger.Warn().Msg("no valid allocations, nothing submitted")
	case o.config.DryRun:
		o.reporter.Banner("Allocation plan (dry run)")
		o.reporter.Plan(batches, o.config.TokenDecimals)
	default:
		if o.token == nil {
			return nil, errors.New("No token contract to submit to")
		}

		o.reporter.Banner("Performing allocations")
		submitter := NewSubmitter(o.token, o.reporter, logger)
		for _, outcome := range submitter.Submit(ctx, batches) {
			res.add(outcome)
			if outcome.Err != nil {
				logger.Error().Err(outcome.Err).Int("batch", outcome.BatchIndex+1).Msg("batch failed")
			}
		}
	}

	endTime := time.Now()
	res.EndTime = &endTime

	o.reporter.Summary(res)
	logger.Info().
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Uint64("gas_used", res.TotalGasUsed).
		Dur("duration", endTime.Sub(startTime)).
		Msg("allocation finished")

	return res, nil
}
