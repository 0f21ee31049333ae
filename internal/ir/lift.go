package ir

import "riscy/internal/riscv"

// Lifter converts a decoded riscv.BasicBlock into a Block. It carries
// no state; a zero Lifter is ready to use.
type Lifter struct{}

// bccCond maps a RISC-V conditional-branch opcode to its IR predicate.
var bccCond = map[riscv.Opcode]ICmpCond{
	riscv.OpBEQ:  EQ,
	riscv.OpBNE:  NE,
	riscv.OpBLT:  SLT,
	riscv.OpBGE:  SGE,
	riscv.OpBLTU: ULT,
	riscv.OpBGEU: UGE,
}

// Lift produces the IR for bb. Opcodes with no lowering rule are
// skipped; their names are returned in skipped so callers can surface
// a diagnostic without treating the skip as an error: lifting-level
// failures never abort translation.
func (Lifter) Lift(bb riscv.BasicBlock) (Block, []string) {
	b := NewBuilder(bb.Start)
	var skipped []string

	// condID and targetID thread the CBr condition and BrIndirect
	// target explicitly from the instruction that computes them to the
	// terminator, rather than recovering them by scanning backward for
	// "the last produced value".
	var condID ValueId
	var haveCond bool
	var targetID ValueId
	var haveTarget bool

	for _, inst := range bb.Insts {
		switch inst.Opcode {
		case riscv.OpADDI:
			rdReg, _ := inst.Operands[0].IsReg()
			rs1, _ := inst.Operands[1].IsReg()
			imm, _ := inst.Operands[2].IsImm()
			v1 := b.ReadReg(rs1)
			c := b.Const(I64Type(), uint64(imm))
			sum := b.BinOp(Add, I64Type(), v1, c)
			b.WriteReg(rdReg, sum)

		case riscv.OpADD, riscv.OpSUB, riscv.OpAND, riscv.OpOR, riscv.OpXOR:
			rdReg, _ := inst.Operands[0].IsReg()
			rs1, _ := inst.Operands[1].IsReg()
			rs2, _ := inst.Operands[2].IsReg()
			v1 := b.ReadReg(rs1)
			v2 := b.ReadReg(rs2)
			kind := map[riscv.Opcode]BinOpKind{
				riscv.OpADD: Add, riscv.OpSUB: Sub, riscv.OpAND: And,
				riscv.OpOR: Or, riscv.OpXOR: Xor,
			}[inst.Opcode]
			r := b.BinOp(kind, I64Type(), v1, v2)
			b.WriteReg(rdReg, r)

		case riscv.OpLW:
			rdReg, _ := inst.Operands[0].IsReg()
			base, off, _ := inst.Operands[1].IsMem()
			bv := b.ReadReg(base)
			v32 := b.Load(I32Type(), bv, off)
			v64 := b.SExt(v32, I64Type())
			b.WriteReg(rdReg, v64)

		case riscv.OpLWU:
			rdReg, _ := inst.Operands[0].IsReg()
			base, off, _ := inst.Operands[1].IsMem()
			bv := b.ReadReg(base)
			v32 := b.Load(I32Type(), bv, off)
			v64 := b.ZExt(v32, I64Type())
			b.WriteReg(rdReg, v64)

		case riscv.OpLD:
			rdReg, _ := inst.Operands[0].IsReg()
			base, off, _ := inst.Operands[1].IsMem()
			bv := b.ReadReg(base)
			v := b.Load(I64Type(), bv, off)
			b.WriteReg(rdReg, v)

		case riscv.OpSW:
			base, off, _ := inst.Operands[0].IsMem()
			rs, _ := inst.Operands[1].IsReg()
			bv := b.ReadReg(base)
			val := b.ReadReg(rs)
			b.Store(I32Type(), val, bv, off)

		case riscv.OpSD:
			base, off, _ := inst.Operands[0].IsMem()
			rs, _ := inst.Operands[1].IsReg()
			bv := b.ReadReg(base)
			val := b.ReadReg(rs)
			b.Store(I64Type(), val, bv, off)

		case riscv.OpBEQ, riscv.OpBNE, riscv.OpBLT, riscv.OpBGE, riscv.OpBLTU, riscv.OpBGEU:
			rs1, _ := inst.Operands[0].IsReg()
			rs2, _ := inst.Operands[1].IsReg()
			v1 := b.ReadReg(rs1)
			v2 := b.ReadReg(rs2)
			condID = b.ICmp(bccCond[inst.Opcode], v1, v2)
			haveCond = true

		case riscv.OpAUIPC:
			rdReg, _ := inst.Operands[0].IsReg()
			imm, _ := inst.Operands[1].IsImm()
			pcv := b.GetPC()
			c := b.Const(I64Type(), uint64(imm))
			sum := b.BinOp(Add, I64Type(), pcv, c)
			b.WriteReg(rdReg, sum)

		case riscv.OpJAL:
			rdReg, _ := inst.Operands[0].IsReg()
			ra := b.Const(I64Type(), inst.PC+4)
			b.WriteReg(rdReg, ra)

		case riscv.OpJALR:
			rdReg, _ := inst.Operands[0].IsReg()
			base, off, _ := inst.Operands[1].IsMem()
			bv := b.ReadReg(base)
			offv := b.Const(I64Type(), uint64(off))
			tgt := b.BinOp(Add, I64Type(), bv, offv)
			ones := b.Const(I64Type(), ^uint64(1))
			targetID = b.BinOp(And, I64Type(), tgt, ones)
			haveTarget = true
			ra := b.Const(I64Type(), inst.PC+4)
			b.WriteReg(rdReg, ra)

		case riscv.OpECALL, riscv.OpEBREAK:
			// Terminator carries Trap; no IR body.

		default:
			skipped = append(skipped, inst.Opcode.String())
		}
	}

	switch bb.Term {
	case riscv.TermBranch:
		t := TermCBr{F: 0}
		if haveCond {
			t.Cond = condID
		}
		if len(bb.Succs) > 0 {
			t.T = bb.Succs[0]
		}
		if len(bb.Succs) > 1 {
			t.F = bb.Succs[1]
		}
		b.SetTerm(Terminator{Kind: TCBr, Data: t})

	case riscv.TermJump, riscv.TermFallthrough, riscv.TermNone:
		var target uint64
		if len(bb.Succs) > 0 {
			target = bb.Succs[0]
		}
		b.SetTerm(Terminator{Kind: TBr, Data: TermBr{Target: target}})

	case riscv.TermIndirectJump:
		var target ValueId
		if haveTarget {
			target = targetID
		}
		b.SetTerm(Terminator{Kind: TBrIndirect, Data: TermBrIndirect{Target: target}})

	case riscv.TermReturn:
		b.SetTerm(Terminator{Kind: TRet})

	case riscv.TermTrap:
		b.SetTerm(Terminator{Kind: TTrap})
	}

	return b.Block(), skipped
}
