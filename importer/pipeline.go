package importer

import (
	"context"
	"errors"
	"iter"

	"go.uber.org/zap"
)

// State is the position of a pipeline run in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateParsing
	StateValidating
	StateDeduplicating
	StateCommitting
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsing:
		return "parsing"
	case StateValidating:
		return "validating"
	case StateDeduplicating:
		return "deduplicating"
	case StateCommitting:
		return "committing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// Summary is the outcome of one batch. In a dry run Inserted counts the rows
// that would have been inserted.
type Summary struct {
	State     State
	Processed int
	Inserted  int
	Skipped   int
	// Line of the row that aborted the batch, zero when unknown.
	Line int
	Err  error
}

func (s Summary) OK() bool { return s.State == StateDone }

type Options struct {
	// DryRun validates and deduplicates without committing.
	DryRun bool
}

// Pipeline imports one entity. A Pipeline holds no per-batch state and may
// be shared.
type Pipeline struct {
	schema Schema
	target Target
	opts   Options
}

func New(schema Schema, target Target, opts Options) *Pipeline {
	return &Pipeline{schema: schema, target: target, opts: opts}
}

// Run drains rows in order. Each row is validated, checked for an existing
// key and committed before the next row is read. The first malformed row,
// invalid row or store failure aborts the batch; rows committed before it
// stay committed.
func (p *Pipeline) Run(ctx context.Context, rows iter.Seq2[Row, error]) Summary {
	sum := Summary{State: StateParsing}
	dedup := NewDeduplicator(p.target, p.schema.Key, p.opts.DryRun)
	committer := NewCommitter(p.target)

	for row, err := range rows {
		if err != nil {
			return sum.abort(lineOf(err, row.Line), err)
		}
		if err := ctx.Err(); err != nil {
			return sum.abort(row.Line, err)
		}

		sum.State = StateValidating
		if err := Validate(row, p.schema); err != nil {
			return sum.abort(row.Line, err)
		}

		sum.State = StateDeduplicating
		exists, err := dedup.Exists(ctx, row)
		if err != nil {
			return sum.abort(row.Line, err)
		}
		sum.Processed++
		if exists {
			sum.Skipped++
			zap.L().Debug("Skipping existing record",
				zap.String("entity", p.schema.Entity),
				zap.Int("line", row.Line),
				zap.String("key", row.Record.Get(p.schema.Key)))
			sum.State = StateParsing
			continue
		}

		if p.opts.DryRun {
			dedup.Accept(row)
			sum.Inserted++
			sum.State = StateParsing
			continue
		}

		sum.State = StateCommitting
		inserted, err := committer.Commit(ctx, row)
		if err != nil {
			return sum.abort(row.Line, err)
		}
		if inserted {
			sum.Inserted++
		} else {
			sum.Skipped++
		}
		sum.State = StateParsing
	}

	sum.State = StateDone
	return sum
}

func (s Summary) abort(line int, err error) Summary {
	s.State = StateAborted
	s.Line = line
	s.Err = err
	return s
}

func lineOf(err error, fallback int) int {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Line > 0 {
		return fe.Line
	}
	return fallback
}
