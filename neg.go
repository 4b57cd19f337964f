package main

// NegReg emits neg dst (dst = -dst), used for the unary NEG operator and
// for the print routine's handling of a negative value.
func (o *Out) NegReg(dst Register) {
	o.Write(rex(true, false, false, extBit(dst.Encoding)))
	o.Write(0xF7)
	o.Write(modRM(3, 3, dst.Encoding&0x7))
}
