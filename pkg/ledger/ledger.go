package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/store"
)

var (
	// ErrCaseNotFound is returned when no case exists for an id.
	ErrCaseNotFound = errors.New("case not found")

	// ErrCaseClosed is returned for any mutation of a CLOSED case.
	ErrCaseClosed = errors.New("case closed")

	// ErrInvalidTransition is returned when a status move is not in the
	// transition table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRecordExists is returned when a rejection record already holds
	// the message id.
	ErrRecordExists = errors.New("rejection record exists")

	// ErrRecordNotFound is returned when no rejection record exists for
	// a message id.
	ErrRecordNotFound = errors.New("rejection record not found")
)

// Config holds the ledger dependencies.
type Config struct {
	// Store persists cases and rejection records. Required.
	Store store.Store

	// Institution stamped on cases this ledger opens, normally the
	// operator's own BIC. Optional.
	Institution string

	// Logger for ledger activity. Defaults to slog.Default().
	Logger *slog.Logger
}

// Ledger stores investigation cases and rejection records. A single
// mutex serializes every read-modify-write so racing updates cannot
// overwrite each other; reads go straight to the store.
type Ledger struct {
	store       store.Store
	institution string
	logger      *slog.Logger

	mu sync.Mutex
}

// NewLedger builds a ledger over the given store.
func NewLedger(cfg Config) (*Ledger, error) {
	if cfg.Store == nil {
		return nil, errors.New("durable store required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		store:       cfg.Store,
		institution: cfg.Institution,
		logger:      logger,
	}, nil
}

// OpenCase raises a new investigation for a message. The case starts
// OPEN with a generated id; details, when present, become the first
// history entry. The new case is added to the message's reverse index
// so later resolutions can find it by message id alone.
func (l *Ledger) OpenCase(ctx context.Context, messageID, inquiryType, details string) (*Case, error) {
	if messageID == "" {
		return nil, errors.New("message id required")
	}
	if inquiryType == "" {
		return nil, errors.New("inquiry type required")
	}

	now := time.Now().UTC()
	c := &Case{
		ID:          "CASE-" + uuid.NewString(),
		MessageID:   messageID,
		InquiryType: inquiryType,
		Status:      StatusOpen,
		Institution: l.institution,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if details != "" {
		c.appendEntry(now, ActorSystem, details)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.putCase(ctx, c); err != nil {
		return nil, err
	}
	if err := l.indexCase(ctx, messageID, c.ID); err != nil {
		return nil, err
	}

	l.logger.Info("investigation case opened",
		"case", c.ID,
		"message", messageID,
		"inquiry", inquiryType)
	return c, nil
}

// GetCase returns the case stored under id.
func (l *Ledger) GetCase(ctx context.Context, id string) (*Case, error) {
	return l.loadCase(ctx, id)
}

// CasesForMessage returns every case raised for a message, oldest
// first. A message with no cases yields an empty slice.
func (l *Ledger) CasesForMessage(ctx context.Context, messageID string) ([]*Case, error) {
	ids, err := l.caseIndex(ctx, messageID)
	if err != nil {
		return nil, err
	}
	cases := make([]*Case, 0, len(ids))
	for _, id := range ids {
		c, err := l.loadCase(ctx, id)
		if errors.Is(err, ErrCaseNotFound) {
			l.logger.Warn("case index names a missing case", "case", id, "message", messageID)
			continue
		}
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// Cases returns every case in the ledger, oldest first. A non-empty
// status restricts the result to cases currently in that status.
func (l *Ledger) Cases(ctx context.Context, status Status) ([]*Case, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	keys, err := l.store.Keys(ctx, store.CaseKey(""))
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}

	indexPrefix := store.CaseIndexKey("")
	cases := make([]*Case, 0, len(keys))
	for _, key := range keys {
		if strings.HasPrefix(key, indexPrefix) {
			continue
		}
		c, err := l.loadCase(ctx, strings.TrimPrefix(key, store.CaseKey("")))
		if err != nil {
			return nil, err
		}
		if status != "" && c.Status != status {
			continue
		}
		cases = append(cases, c)
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].CreatedAt.Before(cases[j].CreatedAt) })
	return cases, nil
}

// AppendEntry adds a history line to an open case and refreshes its
// last-updated timestamp. The status does not change.
func (l *Ledger) AppendEntry(ctx context.Context, caseID, actor, note string) (*Case, error) {
	if note == "" {
		return nil, errors.New("note required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Closed() {
		return nil, fmt.Errorf("case %s: %w", caseID, ErrCaseClosed)
	}

	now := time.Now().UTC()
	c.appendEntry(now, actor, note)
	c.UpdatedAt = now
	if err := l.putCase(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Transition moves a case to a new status, appending the note to its
// history. Moves must follow the transition table; nothing leaves
// CLOSED. When the target status is RESOLVED or CLOSED the note also
// becomes the case's resolution details.
func (l *Ledger) Transition(ctx context.Context, caseID string, to Status, actor, note string) (*Case, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", to, ErrInvalidTransition)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Closed() {
		return nil, fmt.Errorf("case %s: %w", caseID, ErrCaseClosed)
	}
	if !canTransition(c.Status, to) {
		return nil, fmt.Errorf("case %s cannot move from %s to %s: %w",
			caseID, c.Status, to, ErrInvalidTransition)
	}

	now := time.Now().UTC()
	from := c.Status
	c.Status = to
	c.UpdatedAt = now
	if note != "" {
		c.appendEntry(now, actor, note)
		if to == StatusResolved || to == StatusClosed {
			c.Resolution = note
		}
	}
	if to == StatusClosed {
		c.ClosedAt = &now
	}
	if err := l.putCase(ctx, c); err != nil {
		return nil, err
	}

	l.logger.Info("investigation case transitioned",
		"case", caseID,
		"from", from,
		"to", to)
	return c, nil
}

// CloseCase resolves and closes a case in one step.
func (l *Ledger) CloseCase(ctx context.Context, caseID, actor, resolution string) (*Case, error) {
	return l.Transition(ctx, caseID, StatusClosed, actor, resolution)
}

func (l *Ledger) loadCase(ctx context.Context, id string) (*Case, error) {
	buf, err := l.store.Get(ctx, store.CaseKey(id))
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, fmt.Errorf("case %s: %w", id, ErrCaseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load case %s: %w", id, err)
	}
	var c Case
	if err := json.Unmarshal(buf, &c); err != nil {
		return nil, fmt.Errorf("decode case %s: %w", id, err)
	}
	return &c, nil
}

func (l *Ledger) putCase(ctx context.Context, c *Case) error {
	buf, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode case %s: %w", c.ID, err)
	}
	if err := l.store.Put(ctx, store.CaseKey(c.ID), buf); err != nil {
		return fmt.Errorf("persist case %s: %w", c.ID, err)
	}
	return nil
}

func (l *Ledger) caseIndex(ctx context.Context, messageID string) ([]string, error) {
	buf, err := l.store.Get(ctx, store.CaseIndexKey(messageID))
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load case index for %s: %w", messageID, err)
	}
	var ids []string
	if err := json.Unmarshal(buf, &ids); err != nil {
		return nil, fmt.Errorf("decode case index for %s: %w", messageID, err)
	}
	return ids, nil
}

func (l *Ledger) indexCase(ctx context.Context, messageID, caseID string) error {
	ids, err := l.caseIndex(ctx, messageID)
	if err != nil {
		return err
	}
	ids = append(ids, caseID)
	buf, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode case index for %s: %w", messageID, err)
	}
	if err := l.store.Put(ctx, store.CaseIndexKey(messageID), buf); err != nil {
		return fmt.Errorf("persist case index for %s: %w", messageID, err)
	}
	return nil
}
