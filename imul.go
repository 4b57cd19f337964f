package main

// IMulRegToReg emits imul dst, src (dst *= src, signed, low 64 bits kept).
func (o *Out) IMulRegToReg(dst, src Register) {
	o.Write(rex(true, extBit(dst.Encoding), false, extBit(src.Encoding)))
	o.Write(0x0F)
	o.Write(0xAF)
	o.Write(modRM(3, dst.Encoding&0x7, src.Encoding&0x7))
}
