package main

// Register shortcuts used throughout lowering. Every one of these is a
// lookup into the fixed table in reg.go; keeping them as package vars here
// (rather than calling GetRegister at every use site) matches the
// instruction emitters' style of naming registers once and reusing the
// value.
var (
	rax = mustReg("rax")
	rcx = mustReg("rcx")
	rdx = mustReg("rdx")
	rbxR = mustReg("rbx")
	rbp = mustReg("rbp")
	rsp = mustReg("rsp")
	r8r  = mustReg("r8")
	r9r  = mustReg("r9")
	r10r = mustReg("r10")
	r11r = mustReg("r11")
	r12r = mustReg("r12")
	r13r = mustReg("r13")
	alR  = mustReg("al")
	dlR  = mustReg("dl")
)

func mustReg(name string) Register {
	r, ok := GetRegister(name)
	if !ok {
		panic(InternalError("unknown register " + name))
	}
	return r
}

// Win32 constants the prologue and built-in bodies bake in directly —
// these are the named-import arguments §4.4/§4.6/§6 fix, not values a
// generated program ever computes.
const (
	cpUTF8            = 65001
	stdOutputHandle   = 0xFFFFFFF5 // -11 as a zero-extended 32-bit value, §6
	heapZeroMemory    = 0x00000008
)

// Gen runs the whole code generator: prologue, every top-level statement,
// epilogue, then resolves fixups. rdata must already be laid out (string
// RVAs and IAT slot RVAs assigned) before this runs — codegen only ever
// reads those positions, it never decides them.
func Gen(prog *Program, res *SemaResult, rdata *RdataLayout) ([]byte, error) {
	stringRVAs := make([]uint32, len(prog.Strings))
	for i, s := range prog.Strings {
		stringRVAs[i] = s.RVA
	}
	cg := NewCodeGen(res.Sym, res.MaxStack, res.MaxRepeat, stringRVAs, rdata.ImportRVA, textRVA, rdata.RVA)
	cg.genPrologue()
	for _, st := range prog.Stmts {
		cg.genStmt(st)
	}
	cg.genEpilogue()
	cg.CheckStackBound()
	if err := cg.Patch(); err != nil {
		return nil, err
	}
	return cg.Bytes(), nil
}

// genPrologue emits exactly the sequence §4.4 describes: push the frame
// pointer, size the frame, seat the evaluation-stack base register, then
// the three startup calls every generated program makes regardless of
// what it does — SetConsoleOutputCP so a console renders Cyrillic/UTF-8
// output correctly, GetProcessHeap and GetStdHandle so the rest of the
// program has a heap and an output handle to use.
func (cg *CodeGen) genPrologue() {
	o := cg.out
	o.PushReg(rbp)
	o.MovRegToReg(rbp, rsp)
	o.SubImmFromReg(rsp, cg.frame.Size)
	o.LeaMemToReg(rbxR, rbp, cg.frame.EvalStackOff)

	o.MovImmToReg(rcx, cpUTF8)
	o.CallIAT("SetConsoleOutputCP")

	o.CallIAT("GetProcessHeap")
	o.MovRegToMem(rbp, cg.frame.HeapHandleOff, rax)

	o.MovImmToReg(rcx, stdOutputHandle)
	o.CallIAT("GetStdHandle")
	o.MovRegToMem(rbp, cg.frame.StdoutOff, rax)
}

// genEpilogue tail-calls ExitProcess(0); it never returns, so there is no
// frame teardown to emit.
func (cg *CodeGen) genEpilogue() {
	o := cg.out
	o.MovImmToReg(rcx, 0)
	o.CallIAT("ExitProcess")
}

func (cg *CodeGen) genStmt(st *Stmt) {
	o := cg.out
	switch st.Kind {
	case StBlock:
		for _, s := range st.Items {
			cg.genStmt(s)
		}

	case StPrint:
		if st.Expr.Kind == ExStr {
			cg.genPrintString(st.Expr.Str)
		} else {
			cg.genPrintInt(st.Expr)
		}
		cg.genPrintNewline()

	case StLet, StSet:
		cg.genExpr(st.Expr)
		o.MovRegToMem(rbp, LocalOff(st.Sym.Index), rax)

	case StIf:
		cg.genExpr(st.Expr)
		o.TestRegToReg(rax, rax)
		lElse := cg.NewLabel()
		lEnd := cg.NewLabel()
		o.JzLabel(lElse)
		cg.genStmt(st.Then)
		o.JmpLabel(lEnd)
		cg.PlaceLabel(lElse)
		if st.Else != nil {
			cg.genStmt(st.Else)
		}
		cg.PlaceLabel(lEnd)

	case StRepeat:
		cg.genRepeat(st)

	case StExpr:
		cg.genExpr(st.Expr)
	}
}

// genRepeat lowers `повторять.раз count body` using the next free
// loop-counter slot (§4.4's max_repeat sizing guarantees one is always
// free at the current nesting depth). A signed jle comparison means a
// non-positive count runs the body zero times, per §9.
func (cg *CodeGen) genRepeat(st *Stmt) {
	o := cg.out
	depth := cg.loopDepth
	slot := cg.LoopSlotOff(depth)
	cg.loopDepth++

	cg.genExpr(st.Expr)
	o.MovRegToMem(rbp, slot, rax)

	lStart := cg.NewLabel()
	lEnd := cg.NewLabel()
	cg.PlaceLabel(lStart)
	o.MovMemToReg(rax, rbp, slot)
	o.CmpRegToImm(rax, 0)
	o.SetLE(alR)
	o.MovzxALToReg(rax)
	o.TestRegToReg(rax, rax)
	o.JnzLabel(lEnd)

	cg.genStmt(st.Body)

	o.MovMemToReg(rax, rbp, slot)
	o.SubImmFromReg(rax, 1)
	o.MovRegToMem(rbp, slot, rax)
	o.JmpLabel(lStart)
	cg.PlaceLabel(lEnd)

	cg.loopDepth--
}

// genExpr lowers e, leaving its value in rax.
func (cg *CodeGen) genExpr(e *Expr) {
	o := cg.out
	switch e.Kind {
	case ExNum:
		o.MovImmToReg(rax, uint64(e.NumVal))
	case ExBool:
		v := uint64(0)
		if e.Bool {
			v = 1
		}
		o.MovImmToReg(rax, v)
	case ExVar:
		o.MovMemToReg(rax, rbp, LocalOff(e.Sym.Index))
	case ExUnary:
		cg.genExpr(e.L)
		switch e.UnOp {
		case OpNeg:
			o.NegReg(rax)
		case OpNot:
			o.TestRegToReg(rax, rax)
			o.SetZ(alR)
			o.MovzxALToReg(rax)
		}
	case ExBinary:
		cg.genBinary(e)
	case ExCall:
		cg.genCall(e)
	case ExLambda:
		// Lambdas are parsed but never lowered (Non-goal); sema only ever
		// lets one through as a whole, discarded expression statement, so
		// there is nothing to emit.
	default:
		panic(InternalError("cannot evaluate this expression at codegen time"))
	}
}

// pushEvalVal stores rax onto the dedicated evaluation stack and advances
// rbx, per §4.5's left-operand-spill protocol.
func (cg *CodeGen) pushEvalVal() {
	cg.out.MovRegToMem(rbxR, 0, rax)
	cg.out.AddImmToReg(rbxR, 8)
	cg.pushEval()
}

// popEvalVal retreats rbx and loads the spilled value into dst.
func (cg *CodeGen) popEvalVal(dst Register) {
	cg.out.SubImmFromReg(rbxR, 8)
	cg.out.MovMemToReg(dst, rbxR, 0)
	cg.popEval()
}

// genBinary lowers every BinOp per §4.5: short-circuit AND/OR branch
// around the right operand; every other binary op evaluates left, spills
// it to the evaluation stack, evaluates right, pops left back into rcx,
// then combines the two in rax.
func (cg *CodeGen) genBinary(e *Expr) {
	o := cg.out
	if e.BinOp == OpAnd || e.BinOp == OpOr {
		cg.genExpr(e.L)
		o.TestRegToReg(rax, rax)
		lShort := cg.NewLabel()
		if e.BinOp == OpAnd {
			o.JzLabel(lShort) // left is 0 -> AND is false, skip right
		} else {
			o.JnzLabel(lShort) // left is nonzero -> OR is true, skip right
		}
		cg.genExpr(e.R)
		o.TestRegToReg(rax, rax)
		o.SetNE(alR)
		o.MovzxALToReg(rax)
		lDone := cg.NewLabel()
		o.JmpLabel(lDone)
		cg.PlaceLabel(lShort)
		v := uint64(0)
		if e.BinOp == OpOr {
			v = 1
		}
		o.MovImmToReg(rax, v)
		cg.PlaceLabel(lDone)
		return
	}

	cg.genExpr(e.L)
	cg.pushEvalVal()
	cg.genExpr(e.R)
	cg.popEvalVal(rcx) // rcx = left, rax = right

	switch e.BinOp {
	case OpAdd:
		o.AddRegToReg(rax, rcx)
	case OpSub:
		o.SubRegFromReg(rcx, rax)
		o.MovRegToReg(rax, rcx)
	case OpMul:
		o.IMulRegToReg(rax, rcx)
	case OpDiv:
		o.MovRegToReg(r8r, rax) // divisor
		o.MovRegToReg(rax, rcx) // dividend = left
		o.Cqo()
		o.IDivReg(r8r)
	case OpEq:
		o.CmpRegToReg(rcx, rax)
		o.SetE(alR)
		o.MovzxALToReg(rax)
	case OpNe:
		o.CmpRegToReg(rcx, rax)
		o.SetNE(alR)
		o.MovzxALToReg(rax)
	case OpLt:
		o.CmpRegToReg(rcx, rax)
		o.SetL(alR)
		o.MovzxALToReg(rax)
	case OpGt:
		o.CmpRegToReg(rcx, rax)
		o.SetG(alR)
		o.MovzxALToReg(rax)
	case OpLe:
		o.CmpRegToReg(rcx, rax)
		o.SetLE(alR)
		o.MovzxALToReg(rax)
	case OpGe:
		o.CmpRegToReg(rcx, rax)
		o.SetGE(alR)
		o.MovzxALToReg(rax)
	}
}

func (cg *CodeGen) genCall(e *Expr) {
	switch e.Name {
	case "создать.лист.цифр":
		cg.genCreateAggregate(e, false)
	case "создать.массив.цифр":
		cg.genCreateAggregate(e, true)
	case "диапазон.от.0.до":
		cg.genRange(e)
	case "сколько.внутри":
		cg.genHowManyInside(e)
	case "сунь.по.индексу":
		cg.genPutAtIndex(e)
	case "впихни.в.лист":
		cg.genPushIntoList(e)
	case "достань.последний":
		cg.genPopLast(e)
	case "дай.по.индексу":
		cg.genGetAtIndex(e)
	default:
		panic(InternalError("unreachable: unknown built-in reached codegen: " + e.Name))
	}
}

// allocHeader allocates the shared 24-byte {length,capacity,data} header
// via HeapAlloc(HEAP_ZERO_MEMORY), leaving the pointer in r12 — a
// callee-saved register that survives the call and any call after it,
// since every built-in here calls HeapAlloc at most twice and r12 must
// hold the header pointer across both.
func (cg *CodeGen) allocHeader() {
	o := cg.out
	o.MovMemToReg(rcx, rbp, cg.frame.HeapHandleOff)
	o.MovImmToReg(rdx, heapZeroMemory)
	o.MovImmToReg(r8r, 24)
	o.CallIAT("HeapAlloc")
	o.MovRegToReg(r12r, rax)
}

// allocData allocates sizeReg (already computed in r8r by the caller)
// bytes via HeapAlloc(HEAP_ZERO_MEMORY) and leaves the pointer in rax.
func (cg *CodeGen) allocData() {
	o := cg.out
	o.MovMemToReg(rcx, rbp, cg.frame.HeapHandleOff)
	o.MovImmToReg(rdx, heapZeroMemory)
	o.CallIAT("HeapAlloc")
}

// genCreateAggregate lowers создать.лист.цифр (isArray=false, zero-arg
// form defaults capacity to 8) and создать.массив.цифр (isArray=true,
// argument mandatory, length=capacity=n). Both share the same header
// shape and data-allocation path; they differ only in what gets written
// into the header's length field.
func (cg *CodeGen) genCreateAggregate(e *Expr, isArray bool) {
	o := cg.out
	if len(e.Args) == 1 {
		cg.genExpr(e.Args[0])
	} else {
		o.MovImmToReg(rax, 8)
	}
	o.MovRegToReg(r13r, rax) // requested capacity, survives allocHeader's call

	cg.allocHeader() // r12 = header ptr; header is zeroed, so data stays NULL if capacity is 0

	if isArray {
		o.MovRegToMem(r12r, 0, r13r) // length = n
	} else {
		o.MovImmToReg(rax, 0)
		o.MovRegToMem(r12r, 0, rax) // length = 0
	}
	o.MovRegToMem(r12r, 8, r13r) // capacity

	o.TestRegToReg(r13r, r13r)
	lSkip := cg.NewLabel()
	o.JzLabel(lSkip)

	o.MovImmToReg(rax, 0)
	o.LeaScaledToReg(rax, rax, r13r) // rax = capacity * 8
	o.MovRegToReg(r8r, rax)
	cg.allocData()
	o.MovRegToMem(r12r, 16, rax) // data ptr

	cg.PlaceLabel(lSkip)
	o.MovRegToReg(rax, r12r)
}

// genRange lowers диапазон.от.0.до(n): allocate a list of length/capacity
// n, then fill data[i] = i with an emitted counted loop.
func (cg *CodeGen) genRange(e *Expr) {
	o := cg.out
	cg.genExpr(e.Args[0])
	o.MovRegToReg(r13r, rax) // n

	cg.allocHeader()
	o.MovRegToMem(r12r, 0, r13r) // length = n
	o.MovRegToMem(r12r, 8, r13r) // capacity = n

	o.TestRegToReg(r13r, r13r)
	lSkip := cg.NewLabel()
	o.JzLabel(lSkip)

	o.MovImmToReg(rax, 0)
	o.LeaScaledToReg(rax, rax, r13r)
	o.MovRegToReg(r8r, rax)
	cg.allocData()
	o.MovRegToReg(r9r, rax)        // data ptr — no further call, free to hold across the loop
	o.MovRegToMem(r12r, 16, r9r)

	o.MovImmToReg(r10r, 0) // loop index i
	lLoop := cg.NewLabel()
	lLoopEnd := cg.NewLabel()
	cg.PlaceLabel(lLoop)
	o.CmpRegToReg(r10r, r13r)
	o.SetGE(alR)
	o.MovzxALToReg(rax)
	o.TestRegToReg(rax, rax)
	o.JnzLabel(lLoopEnd)
	o.LeaScaledToReg(r11r, r9r, r10r)
	o.MovRegToMem(r11r, 0, r10r)
	o.AddImmToReg(r10r, 1)
	o.JmpLabel(lLoop)
	cg.PlaceLabel(lLoopEnd)

	cg.PlaceLabel(lSkip)
	o.MovRegToReg(rax, r12r)
}

// genHowManyInside lowers сколько.внутри(x): the length field is at
// offset 0 in both List and Array headers.
func (cg *CodeGen) genHowManyInside(e *Expr) {
	o := cg.out
	cg.genExpr(e.Args[0])
	o.MovMemToReg(rax, rax, 0)
}

// genGetAtIndex lowers дай.по.индексу(base, i): no bounds check, per §7.
func (cg *CodeGen) genGetAtIndex(e *Expr) {
	o := cg.out
	cg.genExpr(e.Args[0])
	o.MovRegToReg(r10r, rax)
	cg.genExpr(e.Args[1])
	o.MovMemToReg(rdx, r10r, 16)
	o.LeaScaledToReg(r11r, rdx, rax)
	o.MovMemToReg(rax, r11r, 0)
}

// builtinTmp1Off and builtinTmp2Off are two 8-byte frame-resident spill
// slots built-in lowerings use to carry a base pointer/index/value across a
// nested genExpr call, the way original_source/codegen.c's cg->temp_offset
// and cg->temp2_offset do (codegen.c:704-726). A scratch register does not
// survive a nested expression that itself lowers to a built-in call — those
// reuse rax/r8-r11 internally — so anything that must outlive the next
// genExpr call is stored to the frame, not kept in a register. These reuse
// the 32-byte print scratch buffer's backing bytes rather than widening the
// frame with a new slot category: genPrintInt only ever touches that region
// after its own argument expression has already been fully evaluated, so
// there is no overlap with a built-in lowering's use of the same bytes.
func (cg *CodeGen) builtinTmp1Off() int32 { return cg.frame.IntBufOff }
func (cg *CodeGen) builtinTmp2Off() int32 { return cg.frame.IntBufOff + 8 }

// genPutAtIndex lowers сунь.по.индексу(base, i, v), returning v. base and i
// are spilled to frame slots immediately after being evaluated, since i's
// and v's own expressions may themselves be built-in calls that clobber
// whatever scratch register would otherwise hold them (original_source/
// codegen.c:703-720).
func (cg *CodeGen) genPutAtIndex(e *Expr) {
	o := cg.out
	cg.genExpr(e.Args[0])
	o.MovRegToMem(rbp, cg.builtinTmp1Off(), rax) // base
	cg.genExpr(e.Args[1])
	o.MovRegToMem(rbp, cg.builtinTmp2Off(), rax) // index
	cg.genExpr(e.Args[2])                        // value stays in rax; nothing after this evaluates another expression
	o.MovRegToReg(r8r, rax)
	o.MovMemToReg(r10r, rbp, cg.builtinTmp1Off())
	o.MovMemToReg(r11r, rbp, cg.builtinTmp2Off())
	o.MovMemToReg(rdx, r10r, 16)
	o.LeaScaledToReg(rcx, rdx, r11r)
	o.MovRegToMem(rcx, 0, r8r)
	o.MovRegToReg(rax, r8r)
}

// genPushIntoList lowers впихни.в.лист(l, v): a push past capacity is a
// silent no-op, per §4.5/§9 — there is no growth. l is spilled to a frame
// slot before evaluating v, which may itself be a built-in call
// (original_source/codegen.c:723-726).
func (cg *CodeGen) genPushIntoList(e *Expr) {
	o := cg.out
	cg.genExpr(e.Args[0])
	o.MovRegToMem(rbp, cg.builtinTmp1Off(), rax) // list
	cg.genExpr(e.Args[1])
	o.MovRegToMem(rbp, cg.builtinTmp2Off(), rax) // value

	o.MovMemToReg(r10r, rbp, cg.builtinTmp1Off())
	o.MovMemToReg(r11r, rbp, cg.builtinTmp2Off())

	o.MovMemToReg(rcx, r10r, 0) // length
	o.MovMemToReg(rdx, r10r, 8) // capacity
	o.CmpRegToReg(rcx, rdx)
	o.SetGE(alR)
	o.MovzxALToReg(rax)
	o.TestRegToReg(rax, rax)
	lDone := cg.NewLabel()
	o.JnzLabel(lDone)

	o.MovMemToReg(r8r, r10r, 16) // data ptr
	o.LeaScaledToReg(r9r, r8r, rcx)
	o.MovRegToMem(r9r, 0, r11r)
	o.AddImmToReg(rcx, 1)
	o.MovRegToMem(r10r, 0, rcx)

	cg.PlaceLabel(lDone)
	o.MovRegToReg(rax, r10r)
}

// genPopLast lowers достань.последний(l): returns 0 on an empty list.
func (cg *CodeGen) genPopLast(e *Expr) {
	o := cg.out
	cg.genExpr(e.Args[0])
	o.MovRegToReg(r10r, rax)
	o.MovMemToReg(rcx, r10r, 0) // length

	lEmpty := cg.NewLabel()
	lDone := cg.NewLabel()
	o.TestRegToReg(rcx, rcx)
	o.JzLabel(lEmpty)

	o.SubImmFromReg(rcx, 1)
	o.MovRegToMem(r10r, 0, rcx)
	o.MovMemToReg(r8r, r10r, 16)
	o.LeaScaledToReg(r9r, r8r, rcx)
	o.MovMemToReg(rax, r9r, 0)
	o.JmpLabel(lDone)

	cg.PlaceLabel(lEmpty)
	o.MovImmToReg(rax, 0)
	cg.PlaceLabel(lDone)
}

// genPrintString emits WriteFile(stdout, &literal, len(literal)).
func (cg *CodeGen) genPrintString(lit *StringLit) {
	o := cg.out
	o.MovMemToReg(rcx, rbp, cg.frame.StdoutOff)
	o.LeaRipToReg(rdx, lit.RVA)
	o.MovImmToReg(r8r, uint64(len(lit.Data)))
	o.LeaMemToReg(r9r, rbp, cg.frame.BytesWrittenOff)
	cg.zeroShadowSlot()
	o.CallIAT("WriteFile")
}

// genPrintNewline emits WriteFile(stdout, "\n", 1) using the first byte of
// the print scratch buffer as the source.
func (cg *CodeGen) genPrintNewline() {
	o := cg.out
	o.MovByteImmToMem(rbp, cg.frame.IntBufOff, '\n')
	o.MovMemToReg(rcx, rbp, cg.frame.StdoutOff)
	o.LeaMemToReg(rdx, rbp, cg.frame.IntBufOff)
	o.MovImmToReg(r8r, 1)
	o.LeaMemToReg(r9r, rbp, cg.frame.BytesWrittenOff)
	cg.zeroShadowSlot()
	o.CallIAT("WriteFile")
}

// zeroShadowSlot writes a NULL into the fifth WriteFile argument's stack
// slot (the LPOVERLAPPED parameter, unused here). Win64 passes a function's
// fifth-and-later integer arguments on the stack at [rsp+0x20..]; rax is
// free to clobber at every one of this routine's call sites.
func (cg *CodeGen) zeroShadowSlot() {
	o := cg.out
	o.MovImmToReg(rax, 0)
	o.MovRegToMem(rsp, 0x20, rax)
}

// genPrintInt lowers the non-string Print case: evaluate e, convert the
// result to decimal ASCII in the 32-byte scratch buffer (right-to-left,
// handling zero and INT_MIN specially per §4.5), then WriteFile the
// digits. The caller (genStmt) appends the trailing newline separately.
func (cg *CodeGen) genPrintInt(e *Expr) {
	o := cg.out
	cg.genExpr(e)

	o.MovRegToReg(r10r, rax) // value, becomes the running magnitude
	o.LeaMemToReg(r11r, rbp, cg.frame.IntBufOff+32) // write cursor, one past the buffer's end
	o.MovImmToReg(r12r, 0)                          // sign flag

	o.CmpRegToImm(r10r, 0)
	o.SetL(alR)
	o.MovzxALToReg(rax)
	o.TestRegToReg(rax, rax)
	lNotNeg := cg.NewLabel()
	o.JzLabel(lNotNeg)
	o.MovImmToReg(r12r, 1)
	o.NegReg(r10r) // two's-complement negate; correct even for INT_MIN's magnitude
	cg.PlaceLabel(lNotNeg)

	lLoop := cg.NewLabel()
	lAfterDigits := cg.NewLabel()
	o.TestRegToReg(r10r, r10r)
	o.JnzLabel(lLoop)
	o.SubImmFromReg(r11r, 1)
	o.MovByteImmToMem(r11r, 0, '0')
	o.JmpLabel(lAfterDigits)

	cg.PlaceLabel(lLoop)
	o.TestRegToReg(r10r, r10r)
	o.JzLabel(lAfterDigits)
	o.MovRegToReg(rax, r10r)
	o.MovImmToReg(rdx, 0) // zero-extend: magnitude can exceed int64 range, divide unsigned
	o.MovImmToReg(r8r, 10)
	o.DivReg(r8r)
	o.MovRegToReg(r10r, rax) // quotient -> next iteration
	o.AddImmToReg(rdx, int32('0'))
	o.SubImmFromReg(r11r, 1)
	o.MovByteRegToMem(r11r, 0, dlR)
	o.JmpLabel(lLoop)

	cg.PlaceLabel(lAfterDigits)
	o.TestRegToReg(r12r, r12r)
	lSignDone := cg.NewLabel()
	o.JzLabel(lSignDone)
	o.SubImmFromReg(r11r, 1)
	o.MovByteImmToMem(r11r, 0, '-')
	cg.PlaceLabel(lSignDone)

	o.LeaMemToReg(rax, rbp, cg.frame.IntBufOff+32)
	o.SubRegFromReg(rax, r11r) // rax = digit count (+ sign byte, if any)
	o.MovRegToReg(r8r, rax)
	o.MovMemToReg(rcx, rbp, cg.frame.StdoutOff)
	o.MovRegToReg(rdx, r11r)
	o.LeaMemToReg(r9r, rbp, cg.frame.BytesWrittenOff)
	cg.zeroShadowSlot()
	o.CallIAT("WriteFile")
}
