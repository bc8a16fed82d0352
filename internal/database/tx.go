package database

import (
	"context"
	"fmt"

	"github.com/deppfellow/company-api/internal/sqlerr"
)

// Write is one parameterized statement of a batch.
type Write struct {
	SQL  string
	Args []any
}

// ExecBatch runs writes in order inside a single transaction.
//
// Either every write is committed or none is: the first failing write stops
// the batch, the transaction is rolled back, and the failure is returned as
// a single *sqlerr.Error carrying that write's innermost message. Statements
// run strictly one after another on the transaction's connection. An empty
// batch begins and commits without executing anything.
//
// The transaction is always finished before ExecBatch returns, including
// when a statement panics.
func ExecBatch(ctx context.Context, db TxBeginner, writes []Write) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return sqlerr.Wrap("begin batch", err)
	}

	finished := false
	defer func() {
		if !finished {
			// A failed rollback leaves nothing to undo; the batch error wins.
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	for i, w := range writes {
		if _, err := tx.Exec(ctx, w.SQL, w.Args...); err != nil {
			return sqlerr.Wrap(fmt.Sprintf("batch write %d of %d", i+1, len(writes)), err)
		}
	}

	// Commit closes the transaction whether or not it succeeds.
	finished = true
	if err := tx.Commit(ctx); err != nil {
		return sqlerr.Wrap("commit batch", err)
	}

	return nil
}
