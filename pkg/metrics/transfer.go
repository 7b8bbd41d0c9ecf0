package metrics

import "time"

// TransferMetrics provides observability for download transfers.
//
// This interface is optional - pass nil to disable metrics collection with
// zero overhead.
type TransferMetrics interface {
	// RecordStarted increments the started-transfers counter.
	RecordStarted(source string)

	// RecordCompleted records a finished transfer with its byte count and
	// wall-clock duration.
	RecordCompleted(source string, bytes int64, duration time.Duration)

	// RecordFailed records a failed or cancelled transfer by reason
	// ("transfer", "placement", "cancelled").
	RecordFailed(source string, reason string)

	// RecordVerifyFailure records a post-placement verification mismatch
	// by kind ("size", "checksum").
	RecordVerifyFailure(kind string)

	// RecordSkipped increments the counter of transfers skipped because the
	// destination was already current.
	RecordSkipped(source string)
}
