package driver

import "go.uber.org/zap"

// DefaultBatchSize is the chunk size spec.md §4.6 names for splitting an id list into
// successive IN-clause queries.
const DefaultBatchSize = 10000

// Options configures a [Driver]'s batching and logging behavior.
type Options struct {
	// BatchSize overrides DefaultBatchSize when positive. Zero means "use the
	// default"; it does not mean "disable batching" — use DisableBatching for that,
	// rather than overloading BatchSize's zero value with two meanings.
	BatchSize int

	// DisableBatching runs the whole resolved id list as a single IN clause,
	// matching the `batch_size: false` setting spec.md §4.6 describes.
	DisableBatching bool

	// Logger receives one structured entry per batch (source table, batch size,
	// trace id) and one per query error. A nil Logger disables logging.
	Logger *zap.Logger
}

func (o Options) batchSize() int {
	if o.DisableBatching {
		return 0
	}
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
