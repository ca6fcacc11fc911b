package testsupport

import (
	"testing"

	"platter/internal/config"
	"platter/internal/store"
)

// MustOpenStore opens the canonical store for a test config and registers
// cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
