package aarch64

import (
	"fmt"

	"riscy/internal/ir"
)

// memBaseReg is the reserved physical register holding the host offset
// between guest and host addressing (x21 in the emitted assembly).
const memBaseReg PReg = 21

// blockLabel is the assembly label for the block starting at guest PC pc.
func blockLabel(pc uint64) string {
	return fmt.Sprintf("__block_%x", pc)
}

// Selector converts an ir.Block into a Block over virtual registers.
// It carries no state; a zero Selector is ready to use.
type Selector struct{}

// vregMapper assigns a fresh VReg the first time an ir.ValueId appears
// as a dest or operand, and hands out additional fresh VRegs (for
// effective-address temporaries that have no corresponding IR value)
// on request.
type vregMapper struct {
	byValue map[ir.ValueId]VReg
	next    VReg
}

func newVregMapper() *vregMapper {
	return &vregMapper{byValue: map[ir.ValueId]VReg{}, next: 1}
}

func (m *vregMapper) of(id ir.ValueId) VReg {
	if v, ok := m.byValue[id]; ok {
		return v
	}
	v := m.next
	m.next++
	m.byValue[id] = v
	return v
}

func (m *vregMapper) fresh() VReg {
	v := m.next
	m.next++
	return v
}

// Select lowers bb to a machine Block over virtual registers.
func (Selector) Select(bb ir.Block) Block {
	out := Block{GuestPC: bb.Start}
	vm := newVregMapper()

	emit := func(op Op, ops ...Operand) {
		out.Instrs = append(out.Instrs, Instr{Op: op, Ops: ops})
	}

	for _, in := range bb.Insts {
		switch p := in.Payload.(type) {
		case ir.Const:
			dest, ok := in.HasDest()
			if !ok {
				panic("aarch64: Const instruction missing dest")
			}
			vd := vm.of(dest)
			selectConst(emit, vd, p.Value)

		case ir.ReadReg:
			dest, ok := in.HasDest()
			if !ok {
				panic("aarch64: ReadReg instruction missing dest")
			}
			vd := vm.of(dest)
			emit(OpLdrX, RegV(vd), MemOp(StateReg, int32(p.Reg)*8))

		case ir.WriteReg:
			emit(OpStrX, RegV(vm.of(p.Value)), MemOp(StateReg, int32(p.Reg)*8))

		case ir.BinOp:
			dest, ok := in.HasDest()
			if !ok {
				panic("aarch64: BinOp instruction missing dest")
			}
			vd := vm.of(dest)
			op, ok := binOpMap[p.Kind]
			if !ok {
				panic(fmt.Sprintf("aarch64: unhandled BinOp kind %v", p.Kind))
			}
			emit(op, RegV(vd), RegV(vm.of(p.Lhs)), RegV(vm.of(p.Rhs)))

		case ir.ICmp:
			emit(OpCmp, RegV(vm.of(p.Lhs)), RegV(vm.of(p.Rhs)))
			if dest, ok := in.HasDest(); ok {
				vd := vm.of(dest)
				emit(CsetFor(int(p.Cond)), RegV(vd))
			}

		case ir.ZExt:
			dest, ok := in.HasDest()
			if !ok {
				panic("aarch64: ZExt instruction missing dest")
			}
			vd := vm.of(dest)
			vs := vm.of(p.Src)
			if p.To.Kind == ir.I64 {
				emit(OpUxtw, RegV(vd), RegV(vs))
			} else {
				emit(OpMov, RegV(vd), RegV(vs))
			}

		case ir.SExt:
			dest, ok := in.HasDest()
			if !ok {
				panic("aarch64: SExt instruction missing dest")
			}
			vd := vm.of(dest)
			vs := vm.of(p.Src)
			if p.To.Kind == ir.I64 {
				emit(OpSxtw, RegV(vd), RegV(vs))
			} else {
				emit(OpMov, RegV(vd), RegV(vs))
			}

		case ir.Trunc:
			dest, ok := in.HasDest()
			if !ok {
				panic("aarch64: Trunc instruction missing dest")
			}
			emit(OpMov, RegV(vm.of(dest)), RegV(vm.of(p.Src)))

		case ir.Load:
			dest, ok := in.HasDest()
			if !ok {
				panic("aarch64: Load instruction missing dest")
			}
			vd := vm.of(dest)
			vaddr := vm.fresh()
			emit(OpAdd, RegV(vaddr), RegV(vm.of(p.Base)), RegP(memBaseReg))
			emit(loadOpFor(p.Ty), RegV(vd), MemOp(vaddr, int32(p.Offset)))

		case ir.Store:
			vaddr := vm.fresh()
			emit(OpAdd, RegV(vaddr), RegV(vm.of(p.Base)), RegP(memBaseReg))
			emit(storeOpFor(p.Ty), RegV(vm.of(p.Value)), MemOp(vaddr, int32(p.Offset)))

		case ir.GetPC:
			dest, ok := in.HasDest()
			if !ok {
				panic("aarch64: GetPC instruction missing dest")
			}
			selectConst(emit, vm.of(dest), bb.Start)

		default:
			panic(fmt.Sprintf("aarch64: unhandled IR payload %T", p))
		}
	}

	out.Term = selectTerm(bb.Term, vm)
	return out
}

var binOpMap = map[ir.BinOpKind]Op{
	ir.Add: OpAdd, ir.Sub: OpSub, ir.And: OpAnd, ir.Or: OpOrr, ir.Xor: OpEor,
	ir.Shl: OpLsl, ir.LShr: OpLsr, ir.AShr: OpAsr,
}

func loadOpFor(ty ir.Type) Op {
	switch ty.Kind {
	case ir.I64:
		return OpLdrX
	case ir.I32:
		return OpLdrW
	case ir.I16:
		return OpLdrH
	case ir.I8:
		return OpLdrB
	default:
		return OpLdrX
	}
}

func storeOpFor(ty ir.Type) Op {
	switch ty.Kind {
	case ir.I64:
		return OpStrX
	case ir.I32:
		return OpStrW
	case ir.I16:
		return OpStrH
	case ir.I8:
		return OpStrB
	default:
		return OpStrX
	}
}

// selectConst lowers a Const value to a wide-move sequence: a single
// Mov if it fits in 16 bits, otherwise a MovZ of the low 16 bits
// followed by a MovK for each nonzero higher 16-bit slice.
func selectConst(emit func(Op, ...Operand), vd VReg, val uint64) {
	if val>>16 == 0 {
		emit(OpMov, RegV(vd), ImmOp(val))
		return
	}
	emit(OpMovZ, RegV(vd), ImmOp(val&0xffff))
	for shift := uint(16); shift <= 48; shift += 16 {
		slice := (val >> shift) & 0xffff
		if slice != 0 {
			emit(OpMovK, RegV(vd), ImmOp(slice), ImmOp(uint64(shift)))
		}
	}
}

func selectTerm(t ir.Terminator, vm *vregMapper) Terminator {
	switch t.Kind {
	case ir.TBr:
		d := t.Data.(ir.TermBr)
		return Terminator{Kind: MTBr, Data: MTermBr{Label: blockLabel(d.Target)}}
	case ir.TCBr:
		d := t.Data.(ir.TermCBr)
		return Terminator{Kind: MTCBr, Data: MTermCBr{
			Cond:   vm.of(d.Cond),
			TLabel: blockLabel(d.T),
			FLabel: blockLabel(d.F),
		}}
	case ir.TBrIndirect:
		d := t.Data.(ir.TermBrIndirect)
		return Terminator{Kind: MTBrIndirect, Data: MTermBrIndirect{Target: vm.of(d.Target)}}
	case ir.TRet:
		return Terminator{Kind: MTRet}
	case ir.TTrap:
		return Terminator{Kind: MTTrap}
	default:
		return Terminator{Kind: MTNone}
	}
}
