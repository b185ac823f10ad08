package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		backend, err := NewFileBackend(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		payload := []byte(`[{"id":"u1"}]`)
		if err := backend.Save(ctx, "users", payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := backend.Load(ctx, "users")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != string(payload) {
			t.Errorf("expected %s, got %s", payload, got)
		}
	})

	t.Run("missing entry", func(t *testing.T) {
		backend, err := NewFileBackend(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := backend.Load(ctx, "users"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("overwrite replaces payload", func(t *testing.T) {
		backend, err := NewFileBackend(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := backend.Save(ctx, "users", []byte(`"old"`)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := backend.Save(ctx, "users", []byte(`"new"`)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := backend.Load(ctx, "users")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `"new"` {
			t.Errorf("expected new payload, got %s", got)
		}
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		dir := t.TempDir()
		backend, err := NewFileBackend(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := backend.Save(ctx, "users", []byte(`[]`)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entries) != 1 || entries[0].Name() != "users.json" {
			t.Errorf("expected exactly users.json, got %v", entries)
		}
	})

	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "state")
		if _, err := NewFileBackend(dir); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("expected directory to exist: %v", err)
		}
	})
}

func TestFileBackendNameForPath(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		path string
		name string
		ok   bool
	}{
		{backend.Path("users"), "users", true},
		{filepath.Join(backend.Dir(), "posts.json"), "posts", true},
		{filepath.Join(backend.Dir(), "users-12345.tmp"), "", false},
		{filepath.Join(backend.Dir(), "notes.txt"), "", false},
	}

	for _, tc := range tests {
		name, ok := backend.NameForPath(tc.path)
		if ok != tc.ok || name != tc.name {
			t.Errorf("NameForPath(%s) = (%q, %v), expected (%q, %v)", tc.path, name, ok, tc.name, tc.ok)
		}
	}
}

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	if _, err := backend.Load(ctx, "users"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := backend.Save(ctx, "users", []byte(`[]`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := backend.Load(ctx, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("expected [], got %s", got)
	}

	// Returned payloads are copies, not aliases.
	got[0] = 'x'
	again, err := backend.Load(ctx, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(again) != `[]` {
		t.Errorf("stored payload was mutated through a returned slice: %s", again)
	}
}
