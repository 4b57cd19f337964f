package main

// MovzxALToReg emits movzx dst, al, zero-extending the byte SETcc just
// wrote into a full 64-bit 0 or 1.
func (o *Out) MovzxALToReg(dst Register) {
	o.Write(rex(true, extBit(dst.Encoding), false, false))
	o.Write(0x0F)
	o.Write(0xB6)
	o.Write(modRM(3, dst.Encoding&0x7, 0))
}
