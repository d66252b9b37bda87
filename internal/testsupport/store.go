package testsupport

import (
	"context"
	"testing"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/config"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/library"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEbook creates an ebook record for tests using the provided store.
func NewEbook(t testing.TB, store *library.Store, title, author, remoteAddress string) *library.Ebook {
	t.Helper()

	ebook, err := store.AddEbook(context.Background(), title, author, remoteAddress)
	if err != nil {
		t.Fatalf("store.AddEbook: %v", err)
	}
	return ebook
}
