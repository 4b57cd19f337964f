package main

// CallingConvention names the handful of ABI facts the frame builder and
// code generator depend on. Every target this compiler ever emits for is
// Win64, so there is exactly one implementation — but keeping it behind
// the interface (rather than inlining the constants) documents which
// numbers in layoutFrame and the prologue come from the ABI, not from
// this program's own design.
type CallingConvention interface {
	// IntegerArgRegs names the registers that carry a call's first four
	// integer/pointer arguments, in order.
	IntegerArgRegs() []string

	// IntegerReturnReg names the register a call's result comes back in.
	IntegerReturnReg() string

	// ShadowSpaceSize is the number of bytes the caller must reserve below
	// rsp before any call, regardless of argument count.
	ShadowSpaceSize() int32

	// StackAlignment is the required alignment of rsp at the point of a
	// call.
	StackAlignment() int32
}

// MicrosoftX64 implements the Windows x64 calling convention.
type MicrosoftX64 struct{}

func (MicrosoftX64) IntegerArgRegs() []string { return []string{"rcx", "rdx", "r8", "r9"} }
func (MicrosoftX64) IntegerReturnReg() string { return "rax" }
func (MicrosoftX64) ShadowSpaceSize() int32   { return 32 }
func (MicrosoftX64) StackAlignment() int32    { return 16 }

// abi is the one calling convention this compiler ever targets.
var abi CallingConvention = MicrosoftX64{}
