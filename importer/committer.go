package importer

import (
	"context"
	"errors"
)

type Committer struct {
	target Target
}

func NewCommitter(target Target) *Committer {
	return &Committer{target: target}
}

// Commit persists row. A duplicate key reported by the store is not an
// error: the row was lost to a concurrent writer and is skipped.
func (c *Committer) Commit(ctx context.Context, row Row) (inserted bool, err error) {
	err = c.target.Commit(ctx, row.Record)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrDuplicate):
		return false, nil
	default:
		return false, &StoreError{Op: "commit", Line: row.Line, Err: err}
	}
}
