package audit

import (
	"context"
	"fmt"
)

// VerifyReport is the result of walking a chain from genesis.
type VerifyReport struct {
	Records  uint64 `json:"records"`
	HeadHash string `json:"head_hash"`
	Valid    bool   `json:"valid"`
	// FirstBadSequence is the position in the chain (1-based) of the first
	// record that failed, or zero when the chain is valid.
	FirstBadSequence uint64 `json:"first_bad_sequence,omitempty"`
	Problem          string `json:"problem,omitempty"`
}

// Verify walks store from the first record and checks every sequence number,
// back-link and record hash.
func Verify(ctx context.Context, store Store) (*VerifyReport, error) {
	report := &VerifyReport{HeadHash: GenesisHash, Valid: true}
	var n uint64

	fail := func(problem string) bool {
		report.Valid = false
		report.FirstBadSequence = n
		report.Problem = problem
		return false
	}

	err := store.Scan(ctx, func(_ int64, payload []byte) bool {
		if ctx.Err() != nil {
			return false
		}
		n++
		link, err := inspect(payload)
		switch {
		case err != nil:
			return fail(fmt.Sprintf("record %d: %v", n, err))
		case link.Sequence != n:
			return fail(fmt.Sprintf("record %d: sequence is %d", n, link.Sequence))
		case link.PrevHash != report.HeadHash:
			return fail(fmt.Sprintf("record %d: prev_hash does not match record %d", n, n-1))
		}
		report.Records = n
		report.HeadHash = link.RecordHash
		return true
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return report, nil
}

// Verify checks the chain behind this log and records the outcome in metrics.
func (l *Log) Verify(ctx context.Context) (*VerifyReport, error) {
	report, err := Verify(ctx, l.store)
	if err != nil {
		return nil, &PersistenceError{Backend: l.backend, Operation: "verify", Cause: err}
	}
	l.metrics.SetChainStatus(report.Valid, int64(report.Records))
	if !report.Valid {
		l.logger.ErrorContext(ctx, "CRITICAL: audit chain verification failed",
			"backend", l.backend,
			"first_bad_sequence", report.FirstBadSequence,
			"problem", report.Problem,
		)
	}
	return report, nil
}
