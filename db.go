package treeql

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/treeql/treeql/internal/driver"
)

// Options identifies optional parameters controlling an extraction. Default struct
// values (a nil Logger, a zero BatchSize) signify default behavior, following the
// teacher's db.go Options convention.
type Options struct {
	// Logger receives one structured entry per batch fetched and one per query
	// error. A nil Logger disables logging.
	Logger *zap.Logger

	// BatchSize overrides the default id-chunk size (10,000) used by Entities.
	BatchSize int

	// DisableBatching runs the whole resolved id list as a single query.
	DisableBatching bool
}

func (o *Options) driverOptions() driver.Options {
	if o == nil {
		return driver.Options{}
	}
	return driver.Options{Logger: o.Logger, BatchSize: o.BatchSize, DisableBatching: o.DisableBatching}
}

// DB wraps [sql.DB] for use with Entity/EntityIDs/Entities, keeping an Options value
// alongside the connection the way the teacher's db.go does. Those operations do not
// read the embedded Options: they take their Options as an explicit argument. Its
// use is not required — any [Queryer] (a *sql.DB or *sql.Tx) works directly.
type DB struct {
	*sql.DB
	*Options
}

// Open opens a new database connection using the supplied options.
func Open(driverName, dataSource string, options *Options) (*DB, error) {
	db, err := sql.Open(driverName, dataSource)
	return &DB{DB: db, Options: options}, err
}

// Begin returns a new transaction carrying the same Options.
func (d *DB) Begin() (*Tx, error) {
	return d.BeginTx(context.Background(), nil)
}

// BeginTx returns a new transaction carrying the same Options.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := d.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, Options: d.Options}, nil
}

// Tx wraps [sql.Tx], carrying the same Options as the DB it was started from.
type Tx struct {
	*sql.Tx
	*Options
}
