package aarch64

import (
	"fmt"
	"sort"

	"riscy/internal/util"
)

// Emitter renders a translated program (one machine Block per guest
// basic block, each already register-allocated) to a single AArch64
// assembly text unit.
type Emitter struct{}

// TranslatedBlock pairs a machine Block with the RegAssignment computed
// for it; Emit needs both to print physical register names.
type TranslatedBlock struct {
	Block Block
	Regs  RegAssignment
}

// Emit renders every block in blocks (keyed by guest PC) to one
// assembly text unit entered at entryPC. Blocks are printed in
// ascending guest-PC order for a stable, diffable translation.
func (Emitter) Emit(entryPC uint64, blocks map[uint64]TranslatedBlock) string {
	var w util.Writer

	pcs := make([]uint64, 0, len(blocks))
	for pc := range blocks {
		pcs = append(pcs, pc)
	}
	sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })

	w.Directive(".text")
	w.Directive(".global riscy_translated_entry")
	w.Label("riscy_translated_entry")
	w.Ins2("mov", "x19", "x30")
	w.Ins2("ldr", "x2", "=entry_pc")
	w.Ins2("ldr", "x1", "[x2]")
	w.Ins1("bl", "riscy_indirect_jump")
	w.Ins1("ret", "x19")

	for _, pc := range pcs {
		emitBlock(&w, blocks[pc])
	}

	w.Directive(".data")
	w.Directive(".align 3")
	w.Directive(".global entry_pc")
	w.Label("entry_pc")
	w.Directive(".quad %d", entryPC)
	w.Directive(".global num_blocks")
	w.Label("num_blocks")
	w.Directive(".quad %d", len(pcs))
	w.Directive(".global block_addrs")
	w.Label("block_addrs")
	for _, pc := range pcs {
		w.Directive(".quad 0x%x", pc)
	}
	w.Directive(".global block_ptrs")
	w.Label("block_ptrs")
	for _, pc := range pcs {
		w.Directive(".quad %s", blockLabel(pc))
	}

	return w.String()
}

func emitBlock(w *util.Writer, tb TranslatedBlock) {
	blk := tb.Block
	w.Label(blockLabel(blk.GuestPC))
	// Every block prologue reloads the memory-base register from the
	// state struct at offset 256, immediately after the 32 guest
	// registers.
	w.Ins2("ldr", "x21", "[x0, #256]")

	preg := func(v VReg) string {
		if v == StateReg {
			return "x0"
		}
		p, ok := tb.Regs.V2P[v]
		if !ok {
			panic(fmt.Sprintf("aarch64: vreg %%%d has no physical assignment", v))
		}
		return fmt.Sprintf("x%d", p)
	}
	pregW := func(v VReg) string {
		if v == StateReg {
			return "w0"
		}
		p, ok := tb.Regs.V2P[v]
		if !ok {
			panic(fmt.Sprintf("aarch64: vreg %%%d has no physical assignment", v))
		}
		return fmt.Sprintf("w%d", p)
	}
	operand := func(op Operand) string {
		switch op.Kind {
		case OperandVReg:
			return preg(op.VReg)
		case OperandPReg:
			return fmt.Sprintf("x%d", op.PReg)
		case OperandImm:
			return fmt.Sprintf("#%d", op.Imm)
		case OperandMem:
			return fmt.Sprintf("[%s, #%d]", preg(op.Base), op.Off)
		case OperandLabel:
			return op.Label
		default:
			return "?"
		}
	}
	// operandW renders a VReg/PReg operand as its w-form; used for the
	// 32-bit-and-narrower load/store data register and the w-source
	// half of sxtw/uxtw, where the address or destination register
	// itself stays 64-bit.
	operandW := func(op Operand) string {
		switch op.Kind {
		case OperandVReg:
			return pregW(op.VReg)
		case OperandPReg:
			return fmt.Sprintf("w%d", op.PReg)
		default:
			return operand(op)
		}
	}

	for _, in := range blk.Instrs {
		if cond, ok := csetCond[in.Op]; ok {
			w.Ins2("cset", operand(in.Ops[0]), cond)
			continue
		}
		switch in.Op {
		case OpMovK:
			w.Write("\tmovk\t%s, #%d, lsl #%d\n", operand(in.Ops[0]), in.Ops[1].Imm, in.Ops[2].Imm)
			continue
		case OpLdrW, OpLdrH, OpLdrB:
			w.Ins2(mnemonics[in.Op], operandW(in.Ops[0]), operand(in.Ops[1]))
			continue
		case OpStrW, OpStrH, OpStrB:
			w.Ins2(mnemonics[in.Op], operandW(in.Ops[0]), operand(in.Ops[1]))
			continue
		case OpSxtw, OpUxtw:
			w.Ins2(mnemonics[in.Op], operand(in.Ops[0]), operandW(in.Ops[1]))
			continue
		}
		mnem := mnemonics[in.Op]
		switch len(in.Ops) {
		case 1:
			w.Ins1(mnem, operand(in.Ops[0]))
		case 2:
			w.Ins2(mnem, operand(in.Ops[0]), operand(in.Ops[1]))
		case 3:
			w.Ins3(mnem, operand(in.Ops[0]), operand(in.Ops[1]), operand(in.Ops[2]))
		default:
			panic(fmt.Sprintf("aarch64: instruction %v has %d operands", in.Op, len(in.Ops)))
		}
	}

	switch blk.Term.Kind {
	case MTBr:
		d := blk.Term.Data.(MTermBr)
		w.Ins1("b", d.Label)

	case MTCBr:
		d := blk.Term.Data.(MTermCBr)
		w.Ins2("cbnz", preg(d.Cond), d.TLabel)
		w.Ins1("b", d.FLabel)

	case MTBrIndirect:
		d := blk.Term.Data.(MTermBrIndirect)
		w.Ins2("mov", "x1", preg(d.Target))
		w.Ins1("bl", "riscy_indirect_jump")

	case MTRet:
		w.Ins0("ret")

	case MTTrap:
		w.Ins0("brk #0")
	}
}

var mnemonics = map[Op]string{
	OpMov: "mov", OpMovZ: "movz",
	OpAdd: "add", OpSub: "sub", OpAnd: "and", OpOrr: "orr", OpEor: "eor",
	OpLsl: "lsl", OpLsr: "lsr", OpAsr: "asr",
	OpLdrX: "ldr", OpLdrW: "ldr", OpLdrH: "ldrh", OpLdrB: "ldrb",
	OpStrX: "str", OpStrW: "str", OpStrH: "strh", OpStrB: "strb",
	OpCmp: "cmp",
	OpSxtw: "sxtw", OpUxtw: "uxtw",
}

// csetCond gives the AArch64 condition mnemonic for each Cset opcode.
var csetCond = map[Op]string{
	OpCsetEq: "eq", OpCsetNe: "ne", OpCsetLo: "lo", OpCsetLs: "ls",
	OpCsetHi: "hi", OpCsetHs: "hs", OpCsetLt: "lt", OpCsetLe: "le",
	OpCsetGt: "gt", OpCsetGe: "ge",
}
