package main

// SubRegFromReg emits sub dst, src (dst -= src).
func (o *Out) SubRegFromReg(dst, src Register) {
	o.Write(rex(true, extBit(src.Encoding), false, extBit(dst.Encoding)))
	o.Write(0x29)
	o.Write(modRM(3, src.Encoding&0x7, dst.Encoding&0x7))
}

// SubImmFromReg emits sub dst, imm32 (sign-extended). Used for the SUB
// operator and for frame/eval-stack pointer adjustments.
func (o *Out) SubImmFromReg(dst Register, imm int32) {
	o.Write(rex(true, false, false, extBit(dst.Encoding)))
	if imm >= -128 && imm <= 127 {
		o.Write(0x83)
		o.Write(modRM(3, 5, dst.Encoding&0x7))
		o.Write(byte(imm))
		return
	}
	o.Write(0x81)
	o.Write(modRM(3, 5, dst.Encoding&0x7))
	o.WriteUnsigned(uint32(imm))
}
