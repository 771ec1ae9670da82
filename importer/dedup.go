package importer

import "context"

// Target is the store an entity is imported into.
type Target interface {
	// Exists reports whether a document with the given business key exists.
	Exists(ctx context.Context, key string) (bool, error)
	// Commit builds and persists the document for rec. It returns
	// ErrDuplicate when the store rejects the key as already taken.
	Commit(ctx context.Context, rec Record) error
}

// Deduplicator checks rows against the store by business key. When it
// tracks the batch, keys accepted earlier in the same input count as
// existing too.
type Deduplicator struct {
	target Target
	key    string
	seen   map[string]struct{}
}

func NewDeduplicator(target Target, key string, trackBatch bool) *Deduplicator {
	d := &Deduplicator{target: target, key: key}
	if trackBatch {
		d.seen = make(map[string]struct{})
	}
	return d
}

// Exists reports whether row's key is already taken.
func (d *Deduplicator) Exists(ctx context.Context, row Row) (bool, error) {
	key := row.Record.Get(d.key)
	if _, ok := d.seen[key]; ok {
		return true, nil
	}
	exists, err := d.target.Exists(ctx, key)
	if err != nil {
		return false, &StoreError{Op: "lookup", Line: row.Line, Err: err}
	}
	return exists, nil
}

// Accept records row's key as taken for the rest of the batch.
func (d *Deduplicator) Accept(row Row) {
	if d.seen != nil {
		d.seen[row.Record.Get(d.key)] = struct{}{}
	}
}
