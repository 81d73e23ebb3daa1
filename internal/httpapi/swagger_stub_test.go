package httpapi

import (
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMountSwagger_NoOpWithoutTag(t *testing.T) {
	r := chi.NewRouter()
	// Default build mounts nothing and must not panic.
	MountSwagger(r)
	if len(r.Routes()) != 0 {
		t.Fatalf("expected no routes mounted, got %d", len(r.Routes()))
	}
}
