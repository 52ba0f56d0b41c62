package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"go.uber.org/atomic"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/store"
)

// Sequences owns the per-direction counters of one session. Counters
// are atomic so the send path, the inbound loop and the heartbeat can
// touch them without shared locking, and they checkpoint to the
// durable store keyed by BIC so a session can resume where it left
// off.
type Sequences struct {
	bic    string
	input  *atomic.Uint64
	output *atomic.Uint64
	store  store.Store
	logger *slog.Logger
}

// NewSequences builds counters for bic. The store is optional; without
// it Synchronize starts both counters at zero and Checkpoint is a
// no-op.
func NewSequences(bic string, st store.Store, logger *slog.Logger) *Sequences {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequences{
		bic:    bic,
		input:  atomic.NewUint64(0),
		output: atomic.NewUint64(0),
		store:  st,
		logger: logger,
	}
}

// Synchronize loads the persisted counters. Absent keys initialize a
// fresh session at zero.
func (q *Sequences) Synchronize(ctx context.Context) error {
	if q.store == nil {
		q.input.Store(0)
		q.output.Store(0)
		return nil
	}

	in, err := q.load(ctx, store.SessionInputSeqKey(q.bic))
	if err != nil {
		return err
	}
	out, err := q.load(ctx, store.SessionOutputSeqKey(q.bic))
	if err != nil {
		return err
	}

	q.input.Store(in)
	q.output.Store(out)
	q.logger.Debug("sequence counters synchronized", "bic", q.bic, "input", in, "output", out)
	return nil
}

func (q *Sequences) load(ctx context.Context, key string) (uint64, error) {
	raw, err := q.store.Get(ctx, key)
	if errors.Is(err, store.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", key, err)
	}
	v, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter %s: %w", key, err)
	}
	return v, nil
}

// NextOutput atomically claims the next output sequence number.
func (q *Sequences) NextOutput() uint64 { return q.output.Inc() }

// rollbackOutput returns a claimed number that never reached the
// wire. Callers must hold the send lock so no later claim exists.
func (q *Sequences) rollbackOutput() { q.output.Dec() }

// Output returns the last assigned output sequence number.
func (q *Sequences) Output() uint64 { return q.output.Load() }

// Input returns the sequence number of the last accepted inbound
// message.
func (q *Sequences) Input() uint64 { return q.input.Load() }

// SetInput records the observed inbound sequence number.
func (q *Sequences) SetInput(v uint64) { q.input.Store(v) }

// Checkpoint persists both counters. Failures are logged and
// swallowed: a missed checkpoint costs a resync on restart, not the
// session.
func (q *Sequences) Checkpoint(ctx context.Context) {
	if q.store == nil {
		return
	}

	in := strconv.FormatUint(q.input.Load(), 10)
	out := strconv.FormatUint(q.output.Load(), 10)

	if err := q.store.Put(ctx, store.SessionInputSeqKey(q.bic), []byte(in)); err != nil {
		q.logger.Warn("input sequence checkpoint failed", "bic", q.bic, "error", err)
	}
	if err := q.store.Put(ctx, store.SessionOutputSeqKey(q.bic), []byte(out)); err != nil {
		q.logger.Warn("output sequence checkpoint failed", "bic", q.bic, "error", err)
	}
}
