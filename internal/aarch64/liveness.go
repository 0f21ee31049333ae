package aarch64

// Liveness computes a per-block LivenessMap by scanning instruction
// positions in order and widening each referenced VReg's range to
// cover every position it is touched at. Position len(blk.Instrs) is
// reserved for the terminator's operand, if any.
type Liveness struct{}

// Compute returns the LivenessMap for blk. StateReg (VReg 0) is never
// included: it denotes the state pointer, not an allocatable value.
func (Liveness) Compute(blk Block) LivenessMap {
	lm := LivenessMap{}

	touch := func(v VReg, pos uint32) {
		if v == StateReg {
			return
		}
		if r, ok := lm[v]; ok {
			if pos < r.Start {
				r.Start = pos
			}
			if pos > r.End {
				r.End = pos
			}
			lm[v] = r
		} else {
			lm[v] = LiveRange{Start: pos, End: pos}
		}
	}

	for pos, in := range blk.Instrs {
		p := uint32(pos)
		for _, op := range in.Ops {
			switch op.Kind {
			case OperandVReg:
				touch(op.VReg, p)
			case OperandMem:
				touch(op.Base, p)
			}
		}
	}

	termPos := uint32(len(blk.Instrs))
	switch blk.Term.Kind {
	case MTCBr:
		touch(blk.Term.Data.(MTermCBr).Cond, termPos)
	case MTBrIndirect:
		touch(blk.Term.Data.(MTermBrIndirect).Target, termPos)
	}

	return lm
}
