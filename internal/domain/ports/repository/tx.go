package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres). Repositories must gracefully accept a nil Tx and
// fall back to their non-transactional path.
type Tx interface{}

// NoTX marks a call that runs outside any transaction.
var NoTX Tx = nil

// TransactionManager executes a function inside one database transaction,
// passing the handle via tx. Keeps use-case interfaces free of storage types
// while letting repositories run SELECT ... FOR UPDATE and tx-bound writes.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
