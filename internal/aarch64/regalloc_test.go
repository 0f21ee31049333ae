package aarch64_test

import (
	"testing"

	"riscy/internal/aarch64"
)

func TestRegAllocAssignsDistinctRegisters(t *testing.T) {
	blk := aarch64.Block{GuestPC: 0x1000}
	lm := aarch64.LivenessMap{
		1: {Start: 0, End: 2},
		2: {Start: 1, End: 3},
		3: {Start: 4, End: 5},
	}

	assign, err := aarch64.RegAlloc{}.Allocate(blk, lm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assign.V2P[1] == assign.V2P[2] {
		t.Fatalf("overlapping ranges got the same register: %d", assign.V2P[1])
	}
	// Vreg 3's range starts after both 1 and 2 have ended, so it may
	// reuse either's register; it must still get one from the pool.
	if _, ok := assign.V2P[3]; !ok {
		t.Fatal("vreg 3 was not assigned a register")
	}
}

func TestRegAllocFailsWhenPoolExhausted(t *testing.T) {
	blk := aarch64.Block{GuestPC: 0x2000}
	lm := aarch64.LivenessMap{}
	// One more simultaneously live vreg than the pool has slots for.
	for v := aarch64.VReg(1); v <= 26; v++ {
		lm[v] = aarch64.LiveRange{Start: 0, End: 10}
	}

	_, err := aarch64.RegAlloc{}.Allocate(blk, lm)
	if err == nil {
		t.Fatal("expected pool exhaustion error, got nil")
	}
	if _, ok := err.(aarch64.RegAllocError); !ok {
		t.Fatalf("expected RegAllocError, got %T", err)
	}
}
