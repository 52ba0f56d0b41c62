package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/reject"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/store"
)

// RejectionRecord is the immutable audit fact that a message was
// rejected. One record exists per message id, written by whichever
// classification saw the rejection first.
type RejectionRecord struct {
	MessageID   string          `json:"messageId"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Severity    reject.Severity `json:"severity"`
	Terminal    bool            `json:"terminal"`
	BIC         string          `json:"bic,omitempty"`
	RecordedAt  time.Time       `json:"recordedAt"`
}

// RecordRejection persists a rejection record. The write is once only:
// a record already held for the message id is left untouched and
// ErrRecordExists is returned. A zero RecordedAt is stamped with the
// current time.
func (l *Ledger) RecordRejection(ctx context.Context, rec RejectionRecord) (*RejectionRecord, error) {
	if rec.MessageID == "" {
		return nil, errors.New("message id required")
	}
	if rec.Code == "" {
		return nil, errors.New("reject code required")
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := store.RejectionKey(rec.MessageID)
	exists, err := l.store.Contains(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("check rejection for %s: %w", rec.MessageID, err)
	}
	if exists {
		return nil, fmt.Errorf("message %s: %w", rec.MessageID, ErrRecordExists)
	}

	buf, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode rejection for %s: %w", rec.MessageID, err)
	}
	if err := l.store.Put(ctx, key, buf); err != nil {
		return nil, fmt.Errorf("persist rejection for %s: %w", rec.MessageID, err)
	}

	l.logger.Info("rejection recorded",
		"message", rec.MessageID,
		"code", rec.Code,
		"severity", rec.Severity)
	return &rec, nil
}

// RejectionFor returns the rejection record held for a message.
func (l *Ledger) RejectionFor(ctx context.Context, messageID string) (*RejectionRecord, error) {
	buf, err := l.store.Get(ctx, store.RejectionKey(messageID))
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, fmt.Errorf("message %s: %w", messageID, ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load rejection for %s: %w", messageID, err)
	}
	var rec RejectionRecord
	if err := json.Unmarshal(buf, &rec); err != nil {
		return nil, fmt.Errorf("decode rejection for %s: %w", messageID, err)
	}
	return &rec, nil
}
