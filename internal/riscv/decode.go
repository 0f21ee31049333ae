package riscv

// Memory exposes little-endian 32-bit reads at a guest address. Backing
// storage (an ELF image, a flat byte buffer, a test fixture) is out of
// scope for this package; only the read contract matters here.
type Memory interface {
	Read32(addr uint64) (uint32, bool)
}

// DecodeError classifies why Decode could not produce a DecodedInst.
type DecodeError int

const (
	// ErrNone indicates no error; used as the zero value.
	ErrNone DecodeError = iota
	// ErrMisalignedPC indicates pc was not 4-byte aligned.
	ErrMisalignedPC
	// ErrOOBRead indicates the word at pc could not be read from Memory.
	ErrOOBRead
	// ErrInvalidOpcode indicates the word did not match a supported encoding.
	ErrInvalidOpcode
)

func (e DecodeError) Error() string {
	switch e {
	case ErrMisalignedPC:
		return "misaligned pc"
	case ErrOOBRead:
		return "out-of-bounds read"
	case ErrInvalidOpcode:
		return "invalid opcode"
	default:
		return "no error"
	}
}

// Decoder turns 32-bit RISC-V instruction words into DecodedInst values.
// It carries no state; a zero Decoder is ready to use.
type Decoder struct{}

func bits(x uint32, hi, lo int) uint32 {
	return (x >> uint(lo)) & ((1 << uint(hi-lo+1)) - 1)
}

func sext(v int64, bits int) int64 {
	shift := 64 - bits
	return (v << uint(shift)) >> uint(shift)
}

func rd(x uint32) uint8     { return uint8(bits(x, 11, 7)) }
func funct3(x uint32) uint8 { return uint8(bits(x, 14, 12)) }
func rs1(x uint32) uint8    { return uint8(bits(x, 19, 15)) }
func rs2(x uint32) uint8    { return uint8(bits(x, 24, 20)) }
func funct7(x uint32) uint8 { return uint8(bits(x, 31, 25)) }

// Decode reads and decodes one instruction word at pc. It returns
// ErrMisalignedPC if pc is not 4-byte aligned, ErrOOBRead if the word
// cannot be read, and ErrInvalidOpcode if the word does not match a
// supported encoding.
func (Decoder) Decode(mem Memory, pc uint64) (DecodedInst, error) {
	if pc&3 != 0 {
		return DecodedInst{}, ErrMisalignedPC
	}
	word, ok := mem.Read32(pc)
	if !ok {
		return DecodedInst{}, ErrOOBRead
	}

	inst := DecodedInst{PC: pc, Raw: word}
	opc := word & 0x7F

	switch opc {
	case 0x37: // LUI
		inst.Opcode = OpLUI
		imm := sext(int64(word&0xFFFFF000), 32)
		inst.Operands = []Operand{Reg(rd(word)), Imm(imm)}

	case 0x17: // AUIPC
		inst.Opcode = OpAUIPC
		imm := sext(int64(word&0xFFFFF000), 32)
		inst.Operands = []Operand{Reg(rd(word)), Imm(imm)}

	case 0x6F: // JAL
		inst.Opcode = OpJAL
		imm := int32(bits(word, 31, 31))<<20 |
			int32(bits(word, 19, 12))<<12 |
			int32(bits(word, 20, 20))<<11 |
			int32(bits(word, 30, 21))<<1
		inst.Operands = []Operand{Reg(rd(word)), Imm(sext(int64(imm), 21))}

	case 0x67: // JALR
		if funct3(word) != 0 {
			return DecodedInst{}, ErrInvalidOpcode
		}
		inst.Opcode = OpJALR
		imm12 := bits(word, 31, 20)
		inst.Operands = []Operand{Reg(rd(word)), Mem(rs1(word), sext(int64(imm12), 12))}

	case 0x63: // BRANCH
		var err error
		inst.Opcode, err = branchOp(funct3(word))
		if err != nil {
			return DecodedInst{}, err
		}
		imm := int32(bits(word, 31, 31))<<12 |
			int32(bits(word, 7, 7))<<11 |
			int32(bits(word, 30, 25))<<5 |
			int32(bits(word, 11, 8))<<1
		inst.Operands = []Operand{Reg(rs1(word)), Reg(rs2(word)), Imm(sext(int64(imm), 13))}

	case 0x03: // LOAD
		var err error
		inst.Opcode, err = loadOp(funct3(word))
		if err != nil {
			return DecodedInst{}, err
		}
		imm12 := bits(word, 31, 20)
		inst.Operands = []Operand{Reg(rd(word)), Mem(rs1(word), sext(int64(imm12), 12))}

	case 0x23: // STORE
		var err error
		inst.Opcode, err = storeOp(funct3(word))
		if err != nil {
			return DecodedInst{}, err
		}
		imm := int32(bits(word, 31, 25))<<5 | int32(bits(word, 11, 7))
		inst.Operands = []Operand{Mem(rs1(word), sext(int64(imm), 12)), Reg(rs2(word))}

	case 0x13: // OP-IMM
		var err error
		inst.Opcode, inst.Operands, err = opImm(word)
		if err != nil {
			return DecodedInst{}, err
		}

	case 0x1B: // OP-IMM-32 (W)
		var err error
		inst.Opcode, inst.Operands, err = opImm32(word)
		if err != nil {
			return DecodedInst{}, err
		}

	case 0x33: // OP
		var err error
		inst.Opcode, err = regOp(funct3(word), funct7(word))
		if err != nil {
			return DecodedInst{}, err
		}
		inst.Operands = []Operand{Reg(rd(word)), Reg(rs1(word)), Reg(rs2(word))}

	case 0x3B: // OP-32 (W)
		var err error
		inst.Opcode, err = regOp32(funct3(word), funct7(word))
		if err != nil {
			return DecodedInst{}, err
		}
		inst.Operands = []Operand{Reg(rd(word)), Reg(rs1(word)), Reg(rs2(word))}

	case 0x0F: // FENCE
		inst.Opcode = OpFENCE

	case 0x73: // SYSTEM
		if funct3(word) != 0 {
			return DecodedInst{}, ErrInvalidOpcode
		}
		switch bits(word, 31, 20) {
		case 0:
			inst.Opcode = OpECALL
		case 1:
			inst.Opcode = OpEBREAK
		default:
			return DecodedInst{}, ErrInvalidOpcode
		}

	default:
		return DecodedInst{}, ErrInvalidOpcode
	}

	return inst, nil
}

func branchOp(f3 uint8) (Opcode, error) {
	switch f3 {
	case 0x0:
		return OpBEQ, nil
	case 0x1:
		return OpBNE, nil
	case 0x4:
		return OpBLT, nil
	case 0x5:
		return OpBGE, nil
	case 0x6:
		return OpBLTU, nil
	case 0x7:
		return OpBGEU, nil
	default:
		return OpInvalid, ErrInvalidOpcode
	}
}

func loadOp(f3 uint8) (Opcode, error) {
	switch f3 {
	case 0x0:
		return OpLB, nil
	case 0x1:
		return OpLH, nil
	case 0x2:
		return OpLW, nil
	case 0x3:
		return OpLD, nil
	case 0x4:
		return OpLBU, nil
	case 0x5:
		return OpLHU, nil
	case 0x6:
		return OpLWU, nil
	default:
		return OpInvalid, ErrInvalidOpcode
	}
}

func storeOp(f3 uint8) (Opcode, error) {
	switch f3 {
	case 0x0:
		return OpSB, nil
	case 0x1:
		return OpSH, nil
	case 0x2:
		return OpSW, nil
	case 0x3:
		return OpSD, nil
	default:
		return OpInvalid, ErrInvalidOpcode
	}
}

func opImm(word uint32) (Opcode, []Operand, error) {
	f3 := funct3(word)
	regs := []Operand{Reg(rd(word)), Reg(rs1(word))}
	switch f3 {
	case 0x0:
		return OpADDI, append(regs, Imm(sext(int64(bits(word, 31, 20)), 12))), nil
	case 0x2:
		return OpSLTI, append(regs, Imm(sext(int64(bits(word, 31, 20)), 12))), nil
	case 0x3:
		return OpSLTIU, append(regs, Imm(sext(int64(bits(word, 31, 20)), 12))), nil
	case 0x4:
		return OpXORI, append(regs, Imm(sext(int64(bits(word, 31, 20)), 12))), nil
	case 0x6:
		return OpORI, append(regs, Imm(sext(int64(bits(word, 31, 20)), 12))), nil
	case 0x7:
		return OpANDI, append(regs, Imm(sext(int64(bits(word, 31, 20)), 12))), nil
	case 0x1:
		return OpSLLI, append(regs, Imm(int64(bits(word, 25, 20)))), nil
	case 0x5:
		// Bit 25 is shamt[5] for 64-bit shifts, so only bits 31..26
		// select logical versus arithmetic.
		switch funct7(word) >> 1 {
		case 0x00:
			return OpSRLI, append(regs, Imm(int64(bits(word, 25, 20)))), nil
		case 0x10:
			return OpSRAI, append(regs, Imm(int64(bits(word, 25, 20)))), nil
		default:
			return OpInvalid, nil, ErrInvalidOpcode
		}
	default:
		return OpInvalid, nil, ErrInvalidOpcode
	}
}

func opImm32(word uint32) (Opcode, []Operand, error) {
	f3 := funct3(word)
	regs := []Operand{Reg(rd(word)), Reg(rs1(word))}
	switch f3 {
	case 0x0:
		return OpADDIW, append(regs, Imm(sext(int64(bits(word, 31, 20)), 12))), nil
	case 0x1:
		if funct7(word) != 0x00 {
			return OpInvalid, nil, ErrInvalidOpcode
		}
		return OpSLLIW, append(regs, Imm(int64(bits(word, 24, 20)))), nil
	case 0x5:
		switch funct7(word) {
		case 0x00:
			return OpSRLIW, append(regs, Imm(int64(bits(word, 24, 20)))), nil
		case 0x20:
			return OpSRAIW, append(regs, Imm(int64(bits(word, 24, 20)))), nil
		default:
			return OpInvalid, nil, ErrInvalidOpcode
		}
	default:
		return OpInvalid, nil, ErrInvalidOpcode
	}
}

func regOp(f3, f7 uint8) (Opcode, error) {
	switch f3 {
	case 0x0:
		switch f7 {
		case 0x00:
			return OpADD, nil
		case 0x20:
			return OpSUB, nil
		default:
			return OpInvalid, ErrInvalidOpcode
		}
	case 0x1:
		if f7 != 0x00 {
			return OpInvalid, ErrInvalidOpcode
		}
		return OpSLL, nil
	case 0x2:
		if f7 != 0x00 {
			return OpInvalid, ErrInvalidOpcode
		}
		return OpSLT, nil
	case 0x3:
		if f7 != 0x00 {
			return OpInvalid, ErrInvalidOpcode
		}
		return OpSLTU, nil
	case 0x4:
		if f7 != 0x00 {
			return OpInvalid, ErrInvalidOpcode
		}
		return OpXOR, nil
	case 0x5:
		switch f7 {
		case 0x00:
			return OpSRL, nil
		case 0x20:
			return OpSRA, nil
		default:
			return OpInvalid, ErrInvalidOpcode
		}
	case 0x6:
		if f7 != 0x00 {
			return OpInvalid, ErrInvalidOpcode
		}
		return OpOR, nil
	case 0x7:
		if f7 != 0x00 {
			return OpInvalid, ErrInvalidOpcode
		}
		return OpAND, nil
	default:
		return OpInvalid, ErrInvalidOpcode
	}
}

func regOp32(f3, f7 uint8) (Opcode, error) {
	switch f3 {
	case 0x0:
		switch f7 {
		case 0x00:
			return OpADDW, nil
		case 0x20:
			return OpSUBW, nil
		default:
			return OpInvalid, ErrInvalidOpcode
		}
	case 0x1:
		if f7 != 0x00 {
			return OpInvalid, ErrInvalidOpcode
		}
		return OpSLLW, nil
	case 0x5:
		switch f7 {
		case 0x00:
			return OpSRLW, nil
		case 0x20:
			return OpSRAW, nil
		default:
			return OpInvalid, ErrInvalidOpcode
		}
	default:
		return OpInvalid, ErrInvalidOpcode
	}
}
