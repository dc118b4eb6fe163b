package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls.
// The concrete type is infra-defined (pgx.Tx for Postgres); repositories must
// gracefully accept nil for the non-transactional path.
type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via `tx`. It keeps use-case interfaces clean:
// no storage types leak out, and the redemption commit can span the code row,
// the profile snapshot, and the activation log atomically.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
