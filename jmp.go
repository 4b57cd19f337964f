package main

// JmpLabel emits an unconditional near jump to label and records the
// fixup; label may not have been placed yet (a forward branch).
func (o *Out) JmpLabel(label int) {
	o.Write(0xE9)
	o.CG.addLabelFixup(label)
	o.WriteUnsigned(0)
}

// JzLabel emits a near jump taken when ZF is set — every conditional
// branch in this compiler tests a register for zero/nonzero with
// TestRegToReg first, so JzLabel and JnzLabel are the only conditional
// jumps codegen needs; signed comparisons are turned into a 0/1 value by
// the SETcc family before such a test.
func (o *Out) JzLabel(label int) {
	o.Write(0x0F)
	o.Write(0x84)
	o.CG.addLabelFixup(label)
	o.WriteUnsigned(0)
}

// JnzLabel emits a near jump taken when ZF is clear.
func (o *Out) JnzLabel(label int) {
	o.Write(0x0F)
	o.Write(0x85)
	o.CG.addLabelFixup(label)
	o.WriteUnsigned(0)
}
