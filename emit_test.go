package main

import "testing"

// newTestOut builds an Out backed by a throwaway CodeGen for tests that
// need fixup bookkeeping (jumps, RIP-relative loads, IAT calls); tests that
// only check raw instruction bytes use this too for convenience.
func newTestOut() (*Out, *CodeGen) {
	cg := &CodeGen{
		text:   NewBufferWrapper(),
		iatRVA: map[string]uint32{"WriteFile": 0x2100},
		labels: nil,
	}
	cg.out = NewOut(cg.text, cg)
	return cg.out, cg
}

func TestMovRegToRegEncoding(t *testing.T) {
	o, cg := newTestOut()
	o.MovRegToReg(rax, rcx)
	// REX.W (0x48) + 0x89 /r, ModRM=11 rcx(src=1) rax(dst=0) -> 0xC8
	want := []byte{0x48, 0x89, 0xC8}
	got := cg.text.Bytes()
	if !bytesEqual(got, want) {
		t.Errorf("mov rax, rcx: got % x, want % x", got, want)
	}
}

func TestMovImmToRegEncoding(t *testing.T) {
	o, cg := newTestOut()
	o.MovImmToReg(rax, 42)
	got := cg.text.Bytes()
	if len(got) != 10 {
		t.Fatalf("movabs should be REX+opcode+8 bytes immediate = 10, got %d", len(got))
	}
	if got[0] != 0x48 || got[1] != 0xB8 {
		t.Errorf("expected REX.W B8, got %02x %02x", got[0], got[1])
	}
	if got[2] != 42 {
		t.Errorf("immediate low byte: got %d, want 42", got[2])
	}
}

func TestMovRegToRegExtendedRegisterSetsREXBit(t *testing.T) {
	o, cg := newTestOut()
	o.MovRegToReg(r8r, rax)
	got := cg.text.Bytes()
	// dst=r8 requires REX.B
	if got[0]&0x01 == 0 {
		t.Errorf("expected REX.B set when dst is r8, got REX=%02x", got[0])
	}
}

func TestAddRegToRegEncoding(t *testing.T) {
	o, cg := newTestOut()
	o.AddRegToReg(rax, rcx)
	want := []byte{0x48, 0x01, 0xC8}
	got := cg.text.Bytes()
	if !bytesEqual(got, want) {
		t.Errorf("add rax, rcx: got % x, want % x", got, want)
	}
}

func TestSubRegFromRegEncoding(t *testing.T) {
	o, cg := newTestOut()
	o.SubRegFromReg(rcx, rax)
	want := []byte{0x48, 0x29, 0xC1}
	got := cg.text.Bytes()
	if !bytesEqual(got, want) {
		t.Errorf("sub rcx, rax: got % x, want % x", got, want)
	}
}

func TestIMulRegToRegEncoding(t *testing.T) {
	o, cg := newTestOut()
	o.IMulRegToReg(rax, rcx)
	want := []byte{0x48, 0x0F, 0xAF, 0xC1}
	got := cg.text.Bytes()
	if !bytesEqual(got, want) {
		t.Errorf("imul rax, rcx: got % x, want % x", got, want)
	}
}

func TestCqoAndIDiv(t *testing.T) {
	o, cg := newTestOut()
	o.Cqo()
	o.IDivReg(r8r)
	got := cg.text.Bytes()
	if got[0] != 0x48 || got[1] != 0x99 {
		t.Errorf("cqo: got %02x %02x, want 48 99", got[0], got[1])
	}
	// idiv r8: REX.WB, F7 /7
	rest := got[2:]
	if rest[0]&0x01 == 0 {
		t.Errorf("idiv r8 needs REX.B, got %02x", rest[0])
	}
	if rest[1] != 0xF7 {
		t.Errorf("expected opcode F7, got %02x", rest[1])
	}
	if (rest[2]>>3)&0x7 != 7 {
		t.Errorf("expected ModRM.reg=7 (idiv), got %02x", rest[2])
	}
}

func TestCmpAndSetccOpcodes(t *testing.T) {
	o, cg := newTestOut()
	o.CmpRegToReg(rcx, rax)
	o.SetL(alR)
	got := cg.text.Bytes()
	// cmp rcx, rax: REX.W 39 /r
	if got[1] != 0x39 {
		t.Errorf("expected cmp opcode 0x39, got %02x", got[1])
	}
	// setl al: 0F 9C /0
	setl := got[3:]
	if setl[0] != 0x0F || setl[1] != 0x9C {
		t.Errorf("expected setl opcode 0F 9C, got %02x %02x", setl[0], setl[1])
	}
}

func TestMovzxALToReg(t *testing.T) {
	o, cg := newTestOut()
	o.MovzxALToReg(rax)
	want := []byte{0x48, 0x0F, 0xB6, 0xC0}
	got := cg.text.Bytes()
	if !bytesEqual(got, want) {
		t.Errorf("movzx rax, al: got % x, want % x", got, want)
	}
}

func TestNegReg(t *testing.T) {
	o, cg := newTestOut()
	o.NegReg(rax)
	want := []byte{0x48, 0xF7, 0xD8}
	got := cg.text.Bytes()
	if !bytesEqual(got, want) {
		t.Errorf("neg rax: got % x, want % x", got, want)
	}
}

func TestPushRbp(t *testing.T) {
	o, cg := newTestOut()
	o.PushReg(rbp)
	want := []byte{0x55}
	got := cg.text.Bytes()
	if !bytesEqual(got, want) {
		t.Errorf("push rbp: got % x, want % x", got, want)
	}
}

func TestJmpLabelRecordsFixupAndPlaceholder(t *testing.T) {
	o, cg := newTestOut()
	lbl := cg.NewLabel()
	o.JmpLabel(lbl)
	got := cg.text.Bytes()
	if got[0] != 0xE9 {
		t.Fatalf("expected near jmp opcode 0xE9, got %02x", got[0])
	}
	if len(cg.fixups) != 1 || cg.fixups[0].Kind != FixLabel || cg.fixups[0].Label != lbl {
		t.Fatalf("expected one label fixup recorded, got %+v", cg.fixups)
	}
	if got[1] != 0 || got[2] != 0 || got[3] != 0 || got[4] != 0 {
		t.Errorf("expected zero placeholder bytes, got % x", got[1:5])
	}
}

func TestCallIATRecordsRIPFixup(t *testing.T) {
	o, cg := newTestOut()
	o.CallIAT("WriteFile")
	got := cg.text.Bytes()
	if got[0] != 0xFF {
		t.Fatalf("expected call/jmp group opcode 0xFF, got %02x", got[0])
	}
	if len(cg.fixups) != 1 || cg.fixups[0].Kind != FixRIP || cg.fixups[0].TargetRVA != 0x2100 {
		t.Fatalf("expected one RIP fixup targeting 0x2100, got %+v", cg.fixups)
	}
}

func TestCallIATUnknownImportPanics(t *testing.T) {
	o, _ := newTestOut()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling an import with no reserved IAT slot")
		}
	}()
	o.CallIAT("NotAnImport")
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
