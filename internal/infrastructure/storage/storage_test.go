package storage

import (
	"context"
	"testing"
)

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	in := []byte("abc")
	if err := s.Put(ctx, "k", in); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	in[0] = 'x'

	out, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(out) != "abc" {
		t.Fatalf("unexpected Get %q ok=%v err=%v", out, ok, err)
	}
	out[0] = 'y'
	if again, _, _ := s.Get(ctx, "k"); string(again) != "abc" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}

	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Errorf("expected missing key to be absent")
	}
}
