package main

// CmpRegToReg emits cmp a, b and sets flags from a-b.
func (o *Out) CmpRegToReg(a, b Register) {
	o.Write(rex(true, extBit(b.Encoding), false, extBit(a.Encoding)))
	o.Write(0x39)
	o.Write(modRM(3, b.Encoding&0x7, a.Encoding&0x7))
}

// CmpRegToImm emits cmp a, imm32 (sign-extended).
func (o *Out) CmpRegToImm(a Register, imm int32) {
	o.Write(rex(true, false, false, extBit(a.Encoding)))
	if imm >= -128 && imm <= 127 {
		o.Write(0x83)
		o.Write(modRM(3, 7, a.Encoding&0x7))
		o.Write(byte(imm))
		return
	}
	o.Write(0x81)
	o.Write(modRM(3, 7, a.Encoding&0x7))
	o.WriteUnsigned(uint32(imm))
}

// TestRegToReg emits test a, b (a & b, flags only, result discarded) —
// used for the short-circuit AND/OR guards and for logical NOT.
func (o *Out) TestRegToReg(a, b Register) {
	o.Write(rex(true, extBit(b.Encoding), false, extBit(a.Encoding)))
	o.Write(0x85)
	o.Write(modRM(3, b.Encoding&0x7, a.Encoding&0x7))
}

// setcc is the shared encoder for the six signed condition codes the
// comparison operators and NOT need. cc is the SETcc opcode's low byte
// (0x94 sete/setz, 0x95 setne, 0x9C setl, 0x9D setge, 0x9E setle, 0x9F setg).
func setcc(o *Out, cc byte, dst Register) {
	o.Write(0x0F)
	o.Write(cc)
	o.Write(modRM(3, 0, dst.Encoding&0x7))
}

func (o *Out) SetE(dst Register)  { setcc(o, 0x94, dst) }
func (o *Out) SetNE(dst Register) { setcc(o, 0x95, dst) }
func (o *Out) SetL(dst Register)  { setcc(o, 0x9C, dst) }
func (o *Out) SetLE(dst Register) { setcc(o, 0x9E, dst) }
func (o *Out) SetG(dst Register)  { setcc(o, 0x9F, dst) }
func (o *Out) SetGE(dst Register) { setcc(o, 0x9D, dst) }
func (o *Out) SetZ(dst Register)  { setcc(o, 0x94, dst) }
