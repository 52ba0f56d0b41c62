package reject

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/store"
)

func TestDefaults(t *testing.T) {
	tab := index(Defaults())

	tests := []struct {
		code        string
		severity    Severity
		category    Category
		investigate bool
	}{
		{"H01", SeverityRetryable, CategorySession, false},
		{"H99", SeverityWarning, CategorySession, false},
		{"K90", SeverityTerminal, CategorySecurity, true},
		{"K91", SeverityTerminal, CategorySecurity, true},
		{"T12", SeverityTerminal, CategoryText, false},
		{"T27", SeverityRetryable, CategoryText, false},
		{"U00", SeverityRetryable, CategorySystem, false},
		{"U13", SeverityWarning, CategorySystem, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			def, ok := tab[tt.code]
			require.True(t, ok, "code %s missing from defaults", tt.code)
			assert.Equal(t, tt.severity, def.Severity)
			assert.Equal(t, tt.category, def.Category)
			assert.Equal(t, tt.investigate, def.Investigate)
			assert.NotEmpty(t, def.Description)
			assert.NotEmpty(t, def.Remediation)
		})
	}
}

func TestUnknownFailSafe(t *testing.T) {
	def := Unknown("Z99")

	assert.Equal(t, "Z99", def.Code)
	assert.Equal(t, SeverityTerminal, def.Severity)
	assert.True(t, def.Terminal())
	assert.True(t, def.Investigate)
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry(Config{})

	def := r.Resolve("K90")
	assert.Equal(t, SeverityTerminal, def.Severity)
	assert.Equal(t, "message authentication failure", def.Description)

	def = r.Resolve("ZZZ")
	assert.Equal(t, SeverityTerminal, def.Severity)
	assert.Equal(t, "unrecognized reject code", def.Description)

	_, ok := r.Lookup("ZZZ")
	assert.False(t, ok)
}

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry(Config{})

	err := r.Replace([]Definition{
		{Code: "K90", Severity: SeverityRetryable, Category: CategorySecurity, Description: "relaxed for testing"},
		{Code: "X99", Severity: SeverityWarning, Category: CategorySystem, Description: "site-specific"},
	})
	require.NoError(t, err)

	def, ok := r.Lookup("K90")
	require.True(t, ok)
	assert.Equal(t, SeverityRetryable, def.Severity)

	def, ok = r.Lookup("X99")
	require.True(t, ok)
	assert.Equal(t, SeverityWarning, def.Severity)

	// Defaults not overridden stay in place.
	def, ok = r.Lookup("T12")
	require.True(t, ok)
	assert.Equal(t, SeverityTerminal, def.Severity)
}

func TestRegistryReplaceInvalid(t *testing.T) {
	r := NewRegistry(Config{})

	err := r.Replace([]Definition{
		{Code: "K90", Severity: Severity("FATAL")},
	})
	require.Error(t, err)

	// Active table untouched after the failed swap.
	def, ok := r.Lookup("K90")
	require.True(t, ok)
	assert.Equal(t, SeverityTerminal, def.Severity)

	err = r.Replace([]Definition{{Severity: SeverityWarning}})
	assert.Error(t, err)
}

func TestRegistryReload(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	stored := []Definition{
		{Code: "T99", Severity: SeverityRetryable, Category: CategoryText, Description: "added by standards release"},
	}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, mem.Put(ctx, store.DictionaryKey, raw))

	r := NewRegistry(Config{Store: mem})
	require.NoError(t, r.Reload(ctx))

	def, ok := r.Lookup("T99")
	require.True(t, ok)
	assert.Equal(t, SeverityRetryable, def.Severity)

	// Defaults remain available underneath the stored overlay.
	_, ok = r.Lookup("K90")
	assert.True(t, ok)
}

func TestRegistryReloadEmptyStore(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(Config{Store: store.NewMemory()})

	// Move off the defaults, then reload with nothing stored.
	require.NoError(t, r.Replace([]Definition{
		{Code: "K90", Severity: SeverityWarning, Description: "override"},
	}))

	require.NoError(t, r.Reload(ctx))

	def, ok := r.Lookup("K90")
	require.True(t, ok)
	assert.Equal(t, SeverityTerminal, def.Severity, "reload without a stored dictionary reverts to defaults")
}

func TestRegistryReloadErrors(t *testing.T) {
	ctx := context.Background()

	r := NewRegistry(Config{})
	assert.ErrorIs(t, r.Reload(ctx), ErrNoStore)

	mem := store.NewMemory()
	require.NoError(t, mem.Put(ctx, store.DictionaryKey, []byte("not json")))
	r = NewRegistry(Config{Store: mem})
	assert.Error(t, r.Reload(ctx))
}

func TestRegistryConcurrentLookup(t *testing.T) {
	r := NewRegistry(Config{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				def := r.Resolve("K90")
				if !def.Severity.Valid() {
					t.Errorf("observed invalid severity %q during swap", def.Severity)
					return
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		err := r.Replace([]Definition{
			{Code: "K90", Severity: SeverityRetryable, Description: "swap target"},
		})
		require.NoError(t, err)
	}
	wg.Wait()
}
