package storage

import (
	"context"
	"testing"
)

func TestLocalBus(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to matching subscribers", func(t *testing.T) {
		bus := NewLocalBus()

		var got []string
		unsubscribe, err := bus.Subscribe("posts", func(u Update) {
			got = append(got, string(u.Value))
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer unsubscribe()

		if err := bus.Publish(ctx, Update{Name: "posts", Value: []byte(`1`)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := bus.Publish(ctx, Update{Name: "stories", Value: []byte(`2`)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(got) != 1 || got[0] != "1" {
			t.Errorf("expected only the posts update, got %v", got)
		}
	})

	t.Run("fans out to all subscribers of a name", func(t *testing.T) {
		bus := NewLocalBus()

		count := 0
		for i := 0; i < 3; i++ {
			unsubscribe, err := bus.Subscribe("posts", func(Update) { count++ })
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer unsubscribe()
		}

		if err := bus.Publish(ctx, Update{Name: "posts", Value: []byte(`1`)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 3 {
			t.Errorf("expected 3 deliveries, got %d", count)
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		bus := NewLocalBus()

		count := 0
		unsubscribe, err := bus.Subscribe("posts", func(Update) { count++ })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		unsubscribe()

		if err := bus.Publish(ctx, Update{Name: "posts", Value: []byte(`1`)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 0 {
			t.Errorf("expected no deliveries after unsubscribe, got %d", count)
		}
	})

	t.Run("publish without subscribers is a no-op", func(t *testing.T) {
		bus := NewLocalBus()
		if err := bus.Publish(ctx, Update{Name: "posts", Value: []byte(`1`)}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
