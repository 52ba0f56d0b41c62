package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemory_GetPut(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get missing key err = %v, want ErrKeyNotFound", err)
	}

	if err := s.Put(ctx, "session.BANKBEBB.outputSeq", []byte("7")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, err := s.Get(ctx, "session.BANKBEBB.outputSeq")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v) != "7" {
		t.Errorf("value = %q, want 7", v)
	}

	// Mutating the returned slice must not affect the stored value.
	v[0] = 'X'
	v2, _ := s.Get(ctx, "session.BANKBEBB.outputSeq")
	if string(v2) != "7" {
		t.Errorf("stored value mutated to %q", v2)
	}
}

func TestMemory_ContainsDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	ok, _ := s.Contains(ctx, "k")
	if ok {
		t.Error("Contains reported missing key as present")
	}

	_ = s.Put(ctx, "k", []byte("v"))
	if ok, _ = s.Contains(ctx, "k"); !ok {
		t.Error("Contains = false after Put")
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of absent key = %v, want nil", err)
	}
	if ok, _ = s.Contains(ctx, "k"); ok {
		t.Error("Contains = true after Delete")
	}
}

func TestMemory_KeysPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	for _, k := range []string{"case.2", "case.1", "case.index.m1", "rejection.m1"} {
		_ = s.Put(ctx, k, []byte("x"))
	}

	keys, err := s.Keys(ctx, "case.")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"case.1", "case.2", "case.index.m1"}
	if len(keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestKeyHelpers(t *testing.T) {
	if got := SessionInputSeqKey("BANKBEBB"); got != "session.BANKBEBB.inputSeq" {
		t.Errorf("SessionInputSeqKey = %q", got)
	}
	if got := SessionOutputSeqKey("BANKBEBB"); got != "session.BANKBEBB.outputSeq" {
		t.Errorf("SessionOutputSeqKey = %q", got)
	}
	if got := CaseKey("c1"); got != "case.c1" {
		t.Errorf("CaseKey = %q", got)
	}
	if got := CaseIndexKey("m1"); got != "case.index.m1" {
		t.Errorf("CaseIndexKey = %q", got)
	}
	if got := RejectionKey("m1"); got != "rejection.m1" {
		t.Errorf("RejectionKey = %q", got)
	}
}
