package main

// Register describes an x86-64 general-purpose register: its assembly
// name, width in bits, and the 4-bit encoding used in ModR/M and REX bytes.
type Register struct {
	Name     string
	Size     int
	Encoding uint8
}

// x86_64Registers holds the sixteen 64-bit general-purpose registers and
// four low-byte aliases. Win64 integer args, the frame pointer, the
// evaluation-stack base register, and scratch registers all come from here.
var x86_64Registers = map[string]Register{
	"rax": {Name: "rax", Size: 64, Encoding: 0},
	"rcx": {Name: "rcx", Size: 64, Encoding: 1},
	"rdx": {Name: "rdx", Size: 64, Encoding: 2},
	"rbx": {Name: "rbx", Size: 64, Encoding: 3},
	"rsp": {Name: "rsp", Size: 64, Encoding: 4},
	"rbp": {Name: "rbp", Size: 64, Encoding: 5},
	"rsi": {Name: "rsi", Size: 64, Encoding: 6},
	"rdi": {Name: "rdi", Size: 64, Encoding: 7},
	"r8":  {Name: "r8", Size: 64, Encoding: 8},
	"r9":  {Name: "r9", Size: 64, Encoding: 9},
	"r10": {Name: "r10", Size: 64, Encoding: 10},
	"r11": {Name: "r11", Size: 64, Encoding: 11},
	"r12": {Name: "r12", Size: 64, Encoding: 12},
	"r13": {Name: "r13", Size: 64, Encoding: 13},
	"r14": {Name: "r14", Size: 64, Encoding: 14},
	"r15": {Name: "r15", Size: 64, Encoding: 15},

	// 8-bit low-byte forms, needed for setcc targets (setl al, sete al, ...).
	"al": {Name: "al", Size: 8, Encoding: 0},
	"cl": {Name: "cl", Size: 8, Encoding: 1},
	"dl": {Name: "dl", Size: 8, Encoding: 2},
	"bl": {Name: "bl", Size: 8, Encoding: 3},
}

// GetRegister looks up a register by its assembly name.
func GetRegister(name string) (Register, bool) {
	r, ok := x86_64Registers[name]
	return r, ok
}

// IsRegister reports whether name is a known register.
func IsRegister(name string) bool {
	_, ok := x86_64Registers[name]
	return ok
}

// rex builds a REX prefix byte. w selects the 64-bit operand size, r extends
// ModRM.reg, x extends SIB.index, b extends ModRM.rm or SIB.base or the
// opcode's embedded register. Every multi-byte instruction emitter in this
// package builds its REX byte the same way, so it lives here next to the
// encodings it reads.
func rex(w, r, x, b bool) byte {
	out := byte(0x40)
	if w {
		out |= 0x08
	}
	if r {
		out |= 0x04
	}
	if x {
		out |= 0x02
	}
	if b {
		out |= 0x01
	}
	return out
}

// modRM builds a ModR/M byte from its mod, reg and rm fields. mod=3 is the
// register-direct form; the memory-operand emitters pass mod 0, 1 or 2.
func modRM(mod, reg, rm uint8) byte {
	return (mod << 6) | ((reg & 0x7) << 3) | (rm & 0x7)
}

// extBit reports the high bit of a 4-bit register encoding, used to set the
// matching REX extension bit.
func extBit(encoding uint8) bool {
	return encoding >= 8
}
