package main

import "fmt"

// FixupKind distinguishes the two kinds of forward references codegen
// leaves behind: a jump to a label not yet placed, and a RIP-relative
// load/call whose target RVA is already known (rdata layout and the IAT are
// both fixed before codegen starts) but whose own position isn't, since it
// depends on how much code precedes it.
type FixupKind int

const (
	FixLabel FixupKind = iota
	FixRIP
)

// Fixup is one deferred rel32 write. Offset is the byte offset, within the
// .text buffer, of the 4-byte placeholder that follows the opcode bytes
// already emitted for this instruction.
type Fixup struct {
	Kind      FixupKind
	Offset    int
	Label     int
	TargetRVA uint32
}

// FrameLayout is the fixed-slot stack frame §4.4 describes, laid out in
// exactly the order it names: locals, heap handle, stdout handle,
// bytes-written, a 32-byte print scratch buffer, loop-counter slots, then
// the evaluation stack. Every field is a constant rbp-relative offset
// computed once, before a single byte of code is emitted.
type FrameLayout struct {
	Size            int32 // total bytes reserved below rbp, always a multiple of 16
	HeapHandleOff   int32
	StdoutOff       int32
	BytesWrittenOff int32
	IntBufOff       int32 // 32 bytes, [IntBufOff, IntBufOff+32)
	LoopBase        int32 // loop slot k lives at LoopBase + 8*k
	EvalStackOff    int32 // rbp-relative offset of evaluation-stack slot 0
	MaxStack        int32
	MaxRepeat       int32
}

// LocalOff returns the frame displacement of local variable index, per
// §3's fixed invariant: -16 - 8·index.
func LocalOff(index int) int32 {
	return -16 - 8*int32(index)
}

// CodeGen owns the growing .text buffer, the label table, the deferred
// fixup list, and everything resolved before codegen runs: string RVAs and
// IAT slot RVAs. Statement and expression lowering methods live in
// lower.go; this file owns frame layout and the patch pass.
type CodeGen struct {
	text   *BufferWrapper
	out    *Out
	fixups []Fixup
	labels []int // byte offset each label was placed at, -1 if not yet placed

	sym        *SymbolTable
	frame      FrameLayout
	stringRVAs []uint32
	iatRVA     map[string]uint32

	textRVA  uint32
	rdataRVA uint32

	loopDepth int
	stack     *EvalStackTracker
}

// NewCodeGen builds a generator whose frame is already sized from sema's
// analysis: the declared locals, maxStack expression-stack slots, maxRepeat
// loop-counter slots, and the fixed per-frame bookkeeping cells every
// program needs regardless of its size.
func NewCodeGen(sym *SymbolTable, maxStack, maxRepeat int, stringRVAs []uint32, iatRVA map[string]uint32, textRVA, rdataRVA uint32) *CodeGen {
	cg := &CodeGen{
		text:       NewBufferWrapper(),
		sym:        sym,
		stringRVAs: stringRVAs,
		iatRVA:     iatRVA,
		textRVA:    textRVA,
		rdataRVA:   rdataRVA,
		stack:      NewEvalStackTracker(),
	}
	cg.out = NewOut(cg.text, cg)
	cg.layoutFrame(sym.Count(), maxStack, maxRepeat)
	return cg
}

// layoutFrame computes every frame-slot offset in the order §4.4 lists:
// locals (fixed at -16-8·index per symbol, so this only needs to know how
// many there are), then heap_handle, stdout_handle, bytes_written, the
// 32-byte print scratch buffer, maxRepeat loop-counter slots, and finally
// maxStack evaluation-stack slots. The total is aligned up to 16 and then
// widened by the 32-byte Win64 shadow area.
func (cg *CodeGen) layoutFrame(varCount, maxStack, maxRepeat int) {
	cg.frame.HeapHandleOff = -16 - 8*int32(varCount)
	cg.frame.StdoutOff = cg.frame.HeapHandleOff - 8
	cg.frame.BytesWrittenOff = cg.frame.StdoutOff - 8
	cg.frame.IntBufOff = cg.frame.BytesWrittenOff - 32
	cg.frame.LoopBase = cg.frame.IntBufOff - int32(maxRepeat)*8
	cg.frame.EvalStackOff = cg.frame.LoopBase - int32(maxStack)*8
	cg.frame.MaxStack = int32(maxStack)
	cg.frame.MaxRepeat = int32(maxRepeat)

	contentSize := -cg.frame.EvalStackOff // distance from rbp down to the frame's deepest byte
	total := contentSize + abi.ShadowSpaceSize()
	align := abi.StackAlignment()
	if rem := total % align; rem != 0 {
		total += align - rem
	}
	cg.frame.Size = total
}

// LoopSlotOff returns the frame displacement of the loop-counter slot for
// nesting depth (0-based, the depth a Repeat is entering).
func (cg *CodeGen) LoopSlotOff(depth int) int32 {
	return cg.frame.LoopBase + int32(depth)*8
}

// NewLabel allocates a fresh, unplaced label id.
func (cg *CodeGen) NewLabel() int {
	cg.labels = append(cg.labels, -1)
	return len(cg.labels) - 1
}

// PlaceLabel marks a label as bound to the current end of the .text buffer.
func (cg *CodeGen) PlaceLabel(id int) {
	cg.labels[id] = cg.text.Len()
}

// addLabelFixup records a forward (or backward) reference to a label; the
// 4-byte placeholder starts at the buffer's current position.
func (cg *CodeGen) addLabelFixup(label int) {
	cg.fixups = append(cg.fixups, Fixup{Kind: FixLabel, Offset: cg.text.Len(), Label: label})
}

// addRIPFixup records a RIP-relative reference whose target RVA is already
// known.
func (cg *CodeGen) addRIPFixup(targetRVA uint32) {
	cg.fixups = append(cg.fixups, Fixup{Kind: FixRIP, Offset: cg.text.Len(), TargetRVA: targetRVA})
}

// StringRVA returns the .rdata RVA of the interned string literal at index i.
func (cg *CodeGen) StringRVA(i int) uint32 {
	return cg.stringRVAs[i]
}

// ImportRVA returns the IAT slot RVA reserved for a kernel32 import.
func (cg *CodeGen) ImportRVA(name string) uint32 {
	rva, ok := cg.iatRVA[name]
	if !ok {
		panic(InternalError(fmt.Sprintf("no IAT slot reserved for %s", name)))
	}
	return rva
}

// Patch resolves every deferred fixup now that the .text buffer is final
// and every label has been placed. It must run after the whole function
// body (prologue through the trailing ExitProcess call) has been emitted.
func (cg *CodeGen) Patch() error {
	buf := cg.text.Bytes()
	for _, fx := range cg.fixups {
		var targetRVA uint32
		switch fx.Kind {
		case FixLabel:
			pos := cg.labels[fx.Label]
			if pos < 0 {
				return InternalError(fmt.Sprintf("label %d never placed", fx.Label))
			}
			targetRVA = cg.textRVA + uint32(pos)
		case FixRIP:
			targetRVA = fx.TargetRVA
		}
		fixupRVA := cg.textRVA + uint32(fx.Offset)
		rel32 := int32(targetRVA) - int32(fixupRVA+4)
		buf[fx.Offset+0] = byte(rel32)
		buf[fx.Offset+1] = byte(rel32 >> 8)
		buf[fx.Offset+2] = byte(rel32 >> 16)
		buf[fx.Offset+3] = byte(rel32 >> 24)
	}
	return nil
}

// Bytes returns the final, patched .text section contents. Call only after
// Patch has succeeded.
func (cg *CodeGen) Bytes() []byte {
	return cg.text.Bytes()
}

// pushEval and popEval drive the compile-time evaluation-stack tracker
// that shadows every pushEvalVal/popEvalVal codegen emits.
func (cg *CodeGen) pushEval() {
	cg.stack.Push()
}

func (cg *CodeGen) popEval() {
	cg.stack.Pop()
}

// CheckStackBound asserts the deepest push lower.go ever emitted fits
// within the frame's reserved evaluation-stack region. Gen calls this
// after the whole function body has been generated, before Patch.
func (cg *CodeGen) CheckStackBound() {
	cg.stack.CheckBound(cg.frame.MaxStack)
}
