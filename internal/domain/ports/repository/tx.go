package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via tx.
//
// Repositories accept a nil tx and fall back to the pool; the concrete type
// of tx is infra-defined (pgx.Tx for Postgres). Keeping the handle opaque
// keeps transaction types out of the use-case interfaces.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
