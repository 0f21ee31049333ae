package aarch64

import "fmt"

// pool lists the physical registers available to the allocator; the
// allocator takes free registers from the end of the list, so x28 is
// handed out first. It excludes every reserved register: x0 (state
// pointer), x1 (indirect-jump argument), x19 (saved LR), x21 (memory
// base), x29 (frame pointer), x30 (link register) and x31 (stack
// pointer / zero register).
var pool = []PReg{
	2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18,
	20, 22, 23, 24, 25, 26, 27, 28,
}

// RegAllocError reports that a block needed more simultaneously live
// virtual registers than the physical pool has room for. This is
// fatal: there is no spill path.
type RegAllocError struct {
	GuestPC uint64
}

func (e RegAllocError) Error() string {
	return fmt.Sprintf("aarch64: register pool exhausted in block at 0x%x", e.GuestPC)
}

// RegAlloc assigns each live VReg in a Block a PReg from pool via
// classical linear scan over live ranges. A PReg returns to the pool
// once the range holding it ends at or before the next range's start,
// and may then be reused.
type RegAlloc struct{}

// Allocate computes a RegAssignment for blk given its LivenessMap.
func (RegAlloc) Allocate(blk Block, lm LivenessMap) (RegAssignment, error) {
	type interval struct {
		v          VReg
		start, end uint32
	}
	intervals := make([]interval, 0, len(lm))
	for v, r := range lm {
		intervals = append(intervals, interval{v: v, start: r.Start, end: r.End})
	}
	// Sort by increasing start position (insertion sort: block-local
	// interval counts are small and this keeps the pass allocation-free
	// on the common case).
	for i := 1; i < len(intervals); i++ {
		for j := i; j > 0 && intervals[j-1].start > intervals[j].start; j-- {
			intervals[j-1], intervals[j] = intervals[j], intervals[j-1]
		}
	}

	assign := RegAssignment{V2P: map[VReg]PReg{}}
	type active struct {
		v   VReg
		end uint32
		p   PReg
	}
	var actives []active
	free := append([]PReg(nil), pool...)

	release := func(pos uint32) {
		kept := actives[:0]
		for _, a := range actives {
			if a.end <= pos {
				free = append(free, a.p)
			} else {
				kept = append(kept, a)
			}
		}
		actives = kept
	}

	for _, iv := range intervals {
		release(iv.start)
		if len(free) == 0 {
			return RegAssignment{}, RegAllocError{GuestPC: blk.GuestPC}
		}
		p := free[len(free)-1]
		free = free[:len(free)-1]
		assign.V2P[iv.v] = p
		actives = append(actives, active{v: iv.v, end: iv.end, p: p})
	}

	return assign, nil
}
