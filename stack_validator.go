// stack_validator.go - Track evaluation-stack operations to catch a
// mismatch between sema's max_stack computation and what codegen actually
// emits.
package main

import (
	"fmt"
	"os"
)

// EvalStackTracker shadows the dedicated evaluation stack (the one the
// code emitted by pushEvalVal/popEvalVal maintains at runtime via rbx) at
// compile time, so a bug
// in expression lowering shows up as a panic during code generation
// instead of a corrupted frame at runtime. It never affects emitted code.
type EvalStackTracker struct {
	depth      int
	maxSeen    int
	operations []string
	enabled    bool
}

func NewEvalStackTracker() *EvalStackTracker {
	return &EvalStackTracker{operations: make([]string, 0, 64), enabled: true}
}

func (t *EvalStackTracker) Push() {
	if !t.enabled {
		return
	}
	t.depth++
	if t.depth > t.maxSeen {
		t.maxSeen = t.depth
	}
	t.operations = append(t.operations, fmt.Sprintf("push (depth=%d)", t.depth))
	if VerboseMode {
		fmt.Fprintf(os.Stderr, "EVALSTACK: push, depth now %d\n", t.depth)
	}
}

func (t *EvalStackTracker) Pop() {
	if !t.enabled {
		return
	}
	if t.depth <= 0 {
		fmt.Fprintf(os.Stderr, "ERROR: evaluation stack underflow, depth %d\n", t.depth)
		t.dump()
		panic(InternalError("evaluation stack underflow in codegen"))
	}
	t.depth--
	t.operations = append(t.operations, fmt.Sprintf("pop (depth=%d)", t.depth))
	if VerboseMode {
		fmt.Fprintf(os.Stderr, "EVALSTACK: pop, depth now %d\n", t.depth)
	}
}

// CheckBound panics if the deepest push this tracker ever saw exceeds
// max — sema's §4.3 max_stack formula must have sized the frame's
// evaluation-stack region generously enough for everything codegen emits.
func (t *EvalStackTracker) CheckBound(max int32) {
	if !t.enabled {
		return
	}
	if int32(t.maxSeen) > max {
		fmt.Fprintf(os.Stderr, "ERROR: evaluation stack reached depth %d, frame only reserved %d\n", t.maxSeen, max)
		t.dump()
		panic(InternalError(fmt.Sprintf("max_stack underestimated: needed %d, computed %d", t.maxSeen, max)))
	}
}

func (t *EvalStackTracker) dump() {
	fmt.Fprintln(os.Stderr, "recent evaluation-stack operations:")
	start := len(t.operations) - 20
	if start < 0 {
		start = 0
	}
	for i := start; i < len(t.operations); i++ {
		fmt.Fprintf(os.Stderr, "  %s\n", t.operations[i])
	}
}
