package cache

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

func TestMemoryStoreGetSet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Get(ctx, "absent"); !errors.Is(err, ErrMiss) {
		t.Errorf("err = %v, want ErrMiss", err)
	}
	if err := s.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := s.Get(ctx, "k")
	if err != nil || v != "v" {
		t.Errorf("Get = (%q, %v), want (v, nil)", v, err)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "short", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := s.Get(ctx, "short"); !errors.Is(err, ErrMiss) {
		t.Errorf("expired key: err = %v, want ErrMiss", err)
	}
}

func TestMemoryStoreMGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	s.Set(ctx, "a", "1", 0)
	s.Set(ctx, "b", "2", 0)
	got, err := s.MGet(ctx, "a", "b", "c")
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Errorf("MGet = %v, want a=1 b=2 only", got)
	}
}

func TestMemoryStoreSDrain(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.SAdd(ctx, "set", "1", "2", "2", "3"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	members, err := s.SDrain(ctx, "set")
	if err != nil {
		t.Fatalf("SDrain: %v", err)
	}
	sort.Strings(members)
	want := []string{"1", "2", "3"}
	if len(members) != len(want) {
		t.Fatalf("members = %v, want %v", members, want)
	}
	for i := range want {
		if members[i] != want[i] {
			t.Errorf("members = %v, want %v", members, want)
			break
		}
	}

	// Drained set is empty; members added afterwards form a fresh set.
	if again, _ := s.SDrain(ctx, "set"); len(again) != 0 {
		t.Errorf("second drain = %v, want empty", again)
	}
	s.SAdd(ctx, "set", "9")
	fresh, _ := s.SDrain(ctx, "set")
	if len(fresh) != 1 || fresh[0] != "9" {
		t.Errorf("fresh drain = %v, want [9]", fresh)
	}
}
