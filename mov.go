package main

// encodeMem writes the ModR/M (and SIB, if the base register needs one) and
// displacement bytes for a [base+disp] memory operand whose reg field is
// regEnc. rsp and r12 require an SIB byte to address through them at all;
// rbp cannot use the no-displacement form, so a zero displacement is
// widened to a one-byte explicit zero.
func encodeMem(o *Out, regEnc uint8, base Register, disp int32) {
	baseEnc := base.Encoding & 0x7
	needsSIB := baseEnc == 4
	mod := uint8(0)
	switch {
	case disp == 0 && base.Encoding&0x7 != 5:
		mod = 0
	case disp >= -128 && disp <= 127:
		mod = 1
	default:
		mod = 2
	}
	rm := baseEnc
	if needsSIB {
		rm = 4
	}
	o.Write(modRM(mod, regEnc&0x7, rm))
	if needsSIB {
		o.Write((0 << 6) | (4 << 3) | baseEnc) // scale=1, no index, base
	}
	switch mod {
	case 1:
		o.Write(byte(disp))
	case 2:
		o.WriteUnsigned(uint32(disp))
	}
}

// MovRegToReg emits mov dst, src (both 64-bit general-purpose registers).
func (o *Out) MovRegToReg(dst, src Register) {
	o.Write(rex(true, extBit(src.Encoding), false, extBit(dst.Encoding)))
	o.Write(0x89)
	o.Write(modRM(3, src.Encoding&0x7, dst.Encoding&0x7))
}

// MovImmToReg emits a 64-bit immediate load (movabs dst, imm64).
func (o *Out) MovImmToReg(dst Register, imm uint64) {
	o.Write(rex(true, false, false, extBit(dst.Encoding)))
	o.Write(0xB8 + (dst.Encoding & 0x7))
	o.Write8u(imm)
}

// MovRegToMem emits mov [base+disp], src — a frame-slot or struct-field
// store.
func (o *Out) MovRegToMem(base Register, disp int32, src Register) {
	o.Write(rex(true, extBit(src.Encoding), false, extBit(base.Encoding)))
	o.Write(0x89)
	encodeMem(o, src.Encoding, base, disp)
}

// MovMemToReg emits mov dst, [base+disp] — a frame-slot or struct-field
// load.
func (o *Out) MovMemToReg(dst Register, base Register, disp int32) {
	o.Write(rex(true, extBit(dst.Encoding), false, extBit(base.Encoding)))
	o.Write(0x8B)
	encodeMem(o, dst.Encoding, base, disp)
}

// LeaRipToReg emits lea dst, [rip+disp32] against a target whose RVA is
// already known (an interned string literal or the import table), and
// records the RIP fixup codegen resolves once the whole function body has
// been emitted.
func (o *Out) LeaRipToReg(dst Register, targetRVA uint32) {
	o.Write(rex(true, extBit(dst.Encoding), false, false))
	o.Write(0x8D)
	o.Write(modRM(0, dst.Encoding&0x7, 5))
	o.CG.addRIPFixup(targetRVA)
	o.WriteUnsigned(0) // placeholder, patched later
}

// LeaScaledToReg emits lea dst, [base + index*8] — the address of one
// element of a list or array's backing store, given the data pointer in
// base and a zero-based element index in index.
func (o *Out) LeaScaledToReg(dst, base, index Register) {
	o.Write(rex(true, extBit(dst.Encoding), extBit(index.Encoding), extBit(base.Encoding)))
	o.Write(0x8D)
	o.Write(modRM(0, dst.Encoding&0x7, 4)) // rm=4 selects SIB
	o.Write((3 << 6) | ((index.Encoding & 0x7) << 3) | (base.Encoding & 0x7))
}

// LeaMemToReg emits lea dst, [base+disp] — a frame-relative address, used
// to set up the evaluation-stack base register and to compute the start of
// the print-integer scratch buffer.
func (o *Out) LeaMemToReg(dst, base Register, disp int32) {
	o.Write(rex(true, extBit(dst.Encoding), false, extBit(base.Encoding)))
	o.Write(0x8D)
	encodeMem(o, dst.Encoding, base, disp)
}

// MovByteImmToMem emits mov byte [base+disp], imm8 — used by the
// print-integer routine to place a literal digit or sign byte.
func (o *Out) MovByteImmToMem(base Register, disp int32, imm8 byte) {
	o.Write(rex(false, false, false, extBit(base.Encoding)))
	o.Write(0xC6)
	encodeMem(o, 0, base, disp)
	o.Write(imm8)
}

// MovByteRegToMem emits mov byte [base+disp], src, where src is one of the
// 8-bit low-byte register aliases (al/cl/dl/bl) — used to store a computed
// ASCII digit.
func (o *Out) MovByteRegToMem(base Register, disp int32, src Register) {
	o.Write(rex(false, extBit(src.Encoding), false, extBit(base.Encoding)))
	o.Write(0x88)
	encodeMem(o, src.Encoding, base, disp)
}
