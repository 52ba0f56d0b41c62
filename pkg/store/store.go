package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no value exists for a key.
var ErrKeyNotFound = errors.New("key not found")

// Store is an opaque key to bytes mapping. Implementations must be
// safe for concurrent use and return ErrKeyNotFound from Get for
// absent keys.
type Store interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Contains reports whether key has a value.
	Contains(ctx context.Context, key string) (bool, error)

	// Keys returns every key with the given prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the backend.
	Close(ctx context.Context) error
}

// DictionaryKey holds the serialized reject-code definitions.
const DictionaryKey = "reject.dictionary"

// SessionInputSeqKey is the persisted inbound sequence counter for a
// logical terminal.
func SessionInputSeqKey(bic string) string {
	return "session." + bic + ".inputSeq"
}

// SessionOutputSeqKey is the persisted outbound sequence counter for a
// logical terminal.
func SessionOutputSeqKey(bic string) string {
	return "session." + bic + ".outputSeq"
}

// CaseKey addresses an investigation case document.
func CaseKey(id string) string {
	return "case." + id
}

// CaseIndexKey addresses the message-to-cases reverse index entry.
func CaseIndexKey(messageID string) string {
	return "case.index." + messageID
}

// RejectionKey addresses the write-once rejection record for a message.
func RejectionKey(messageID string) string {
	return "rejection." + messageID
}
