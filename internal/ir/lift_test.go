package ir_test

import (
	"testing"

	"riscy/internal/ir"
	"riscy/internal/riscv"
)

func TestLiftADDI(t *testing.T) {
	bb := riscv.BasicBlock{
		Start: 0x1000,
		Insts: []riscv.DecodedInst{
			{PC: 0x1000, Opcode: riscv.OpADDI, Operands: []riscv.Operand{
				riscv.Reg(1), riscv.Reg(0), riscv.Imm(4),
			}},
		},
		Term:  riscv.TermFallthrough,
		Succs: []uint64{0x1004},
	}

	blk, skipped := ir.Lifter{}.Lift(bb)
	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped opcodes: %v", skipped)
	}
	if err := ir.Validate(blk); err != nil {
		t.Fatalf("invalid block: %v", err)
	}
	if blk.Term.Kind != ir.TBr {
		t.Fatalf("expected TBr terminator, got %v", blk.Term.Kind)
	}
	if blk.Term.Data.(ir.TermBr).Target != 0x1004 {
		t.Fatalf("expected fallthrough target 0x1004, got 0x%x", blk.Term.Data.(ir.TermBr).Target)
	}

	// ReadReg(x0), Const(4), BinOp(Add), WriteReg(x1, ...): the write
	// suppression only applies to writes of x0, so all four survive.
	if len(blk.Insts) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(blk.Insts))
	}
}

func TestLiftSuppressesX0Writes(t *testing.T) {
	bb := riscv.BasicBlock{
		Start: 0x2000,
		Insts: []riscv.DecodedInst{
			{PC: 0x2000, Opcode: riscv.OpADDI, Operands: []riscv.Operand{
				riscv.Reg(0), riscv.Reg(0), riscv.Imm(1),
			}},
		},
		Term:  riscv.TermReturn,
		Succs: nil,
	}

	blk, _ := ir.Lifter{}.Lift(bb)
	for _, in := range blk.Insts {
		if _, ok := in.Payload.(ir.WriteReg); ok {
			t.Fatalf("expected write to x0 to be suppressed, found %+v", in)
		}
	}
	if blk.Term.Kind != ir.TRet {
		t.Fatalf("expected TRet terminator, got %v", blk.Term.Kind)
	}
}

func TestLiftThreadsIndirectJumpTarget(t *testing.T) {
	bb := riscv.BasicBlock{
		Start: 0x3000,
		Insts: []riscv.DecodedInst{
			{PC: 0x3000, Opcode: riscv.OpJALR, Operands: []riscv.Operand{
				riscv.Reg(0), riscv.Mem(5, 0),
			}},
		},
		Term: riscv.TermIndirectJump,
	}

	blk, _ := ir.Lifter{}.Lift(bb)
	if blk.Term.Kind != ir.TBrIndirect {
		t.Fatalf("expected TBrIndirect terminator, got %v", blk.Term.Kind)
	}
	target := blk.Term.Data.(ir.TermBrIndirect).Target
	if int(target) >= len(blk.Insts) {
		t.Fatalf("target value %%%d is not defined in block", target)
	}
	if err := ir.Validate(blk); err != nil {
		t.Fatalf("invalid block: %v", err)
	}
}

func TestLiftRecordsSkippedOpcodes(t *testing.T) {
	bb := riscv.BasicBlock{
		Start: 0x4000,
		Insts: []riscv.DecodedInst{
			{PC: 0x4000, Opcode: riscv.OpSLTI, Operands: []riscv.Operand{
				riscv.Reg(1), riscv.Reg(2), riscv.Imm(1),
			}},
		},
		Term: riscv.TermTrap,
	}

	_, skipped := ir.Lifter{}.Lift(bb)
	if len(skipped) != 1 || skipped[0] != "SLTI" {
		t.Fatalf("expected skipped=[SLTI], got %v", skipped)
	}
}
