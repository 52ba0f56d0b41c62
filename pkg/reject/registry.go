package reject

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/atomic"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/store"
)

// ErrNoStore is returned by Reload when the registry was built without
// a durable store.
var ErrNoStore = errors.New("no store configured")

// Config holds the registry dependencies.
type Config struct {
	// Store supplies replacement dictionaries for Reload. Optional;
	// without it the registry serves the built-in defaults.
	Store store.Store

	// Logger for reload activity. Defaults to slog.Default().
	Logger *slog.Logger
}

// Registry holds the active reject-code dictionary. The table lives
// behind an atomic pointer: Lookup never takes a lock, and Reload
// assembles the replacement table completely before swapping it in.
type Registry struct {
	table  *atomic.Pointer[map[string]Definition]
	store  store.Store
	logger *slog.Logger
}

// NewRegistry builds a registry seeded with the built-in defaults.
func NewRegistry(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tab := index(Defaults())
	return &Registry{
		table:  atomic.NewPointer(&tab),
		store:  cfg.Store,
		logger: logger,
	}
}

// Lookup returns the definition for code from the active table.
func (r *Registry) Lookup(code string) (Definition, bool) {
	tab := *r.table.Load()
	def, ok := tab[code]
	return def, ok
}

// Resolve returns the definition for code, falling back to the
// fail-safe Unknown definition when the table has no entry.
func (r *Registry) Resolve(code string) Definition {
	if def, ok := r.Lookup(code); ok {
		return def
	}
	return Unknown(code)
}

// Snapshot returns the active definitions in unspecified order.
func (r *Registry) Snapshot() []Definition {
	tab := *r.table.Load()
	defs := make([]Definition, 0, len(tab))
	for _, d := range tab {
		defs = append(defs, d)
	}
	return defs
}

// Replace swaps in a table built from the defaults overlaid with defs.
// Entries in defs override defaults sharing a code and may add new
// codes. The swap is all-or-nothing: an invalid definition leaves the
// active table untouched.
func (r *Registry) Replace(defs []Definition) error {
	for _, d := range defs {
		if d.Code == "" {
			return errors.New("definition with empty code")
		}
		if !d.Severity.Valid() {
			return fmt.Errorf("definition %s: invalid severity %q", d.Code, d.Severity)
		}
	}

	tab := index(Defaults())
	for _, d := range defs {
		tab[d.Code] = d
	}
	r.table.Store(&tab)
	return nil
}

// Reload reads the stored dictionary (a JSON array of definitions
// under store.DictionaryKey) and swaps it in over the defaults. When
// no dictionary is stored, the defaults alone become active.
func (r *Registry) Reload(ctx context.Context) error {
	if r.store == nil {
		return ErrNoStore
	}

	raw, err := r.store.Get(ctx, store.DictionaryKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		tab := index(Defaults())
		r.table.Store(&tab)
		r.logger.Debug("no stored reject dictionary, defaults active")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading reject dictionary: %w", err)
	}

	var defs []Definition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("decoding reject dictionary: %w", err)
	}

	if err := r.Replace(defs); err != nil {
		return fmt.Errorf("applying reject dictionary: %w", err)
	}

	r.logger.Info("reject dictionary reloaded", "definitions", len(defs))
	return nil
}

func index(defs []Definition) map[string]Definition {
	tab := make(map[string]Definition, len(defs))
	for _, d := range defs {
		tab[d.Code] = d
	}
	return tab
}
