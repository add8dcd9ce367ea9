package store

import (
	"testing"
	"time"
)

func TestStore_SetAndGet(t *testing.T) {
	s := New[string](5 * time.Minute)
	defer s.Close()

	s.Set("key1", "value1")
	val, ok := s.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestStore_GetMiss(t *testing.T) {
	s := New[string](5 * time.Minute)
	defer s.Close()

	if _, ok := s.Get("nonexistent"); ok {
		t.Fatal("expected miss for nonexistent key")
	}
}

func TestStore_Expiration(t *testing.T) {
	s := New[string](time.Hour)
	defer s.Close()

	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Set("key1", "value1")
	now = now.Add(2 * time.Hour)

	if _, ok := s.Get("key1"); ok {
		t.Fatal("expected entry to be expired")
	}
	if s.Len() != 1 {
		t.Fatalf("expired entry should remain until swept, len = %d", s.Len())
	}
	s.sweep()
	if s.Len() != 0 {
		t.Errorf("sweep left %d entries", s.Len())
	}
}

func TestStore_Delete(t *testing.T) {
	s := New[int](5 * time.Minute)
	defer s.Close()

	s.Set("key1", 1)
	s.Delete("key1")

	if _, ok := s.Get("key1"); ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestStore_CloseTwice(t *testing.T) {
	s := New[int](time.Minute)
	s.Close()
	s.Close()
	s.Set("k", 1)
	if v, ok := s.Get("k"); !ok || v != 1 {
		t.Error("store should stay usable after Close")
	}
}
