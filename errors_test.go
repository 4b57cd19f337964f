package main

import "testing"

func TestCompilerErrorFormatWithLocation(t *testing.T) {
	err := CompilerError{Level: LevelFatal, Category: CategorySemantic,
		Message: "undefined variable 'x'", Location: SourceLocation{Line: 3, Column: 5}}
	want := "3:5: fatal error: undefined variable 'x'"
	if got := err.Format(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestCompilerErrorFormatWithoutLocation(t *testing.T) {
	err := InternalError("cannot write output.exe")
	want := "fatal error: cannot write output.exe"
	if got := err.Format(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestCompilerErrorImplementsError(t *testing.T) {
	var err error = UndefinedVariableError("y", SourceLocation{})
	if err.Error() != "undefined variable 'y'" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestErrorCollectorReportsInOrder(t *testing.T) {
	ec := NewErrorCollector()
	ec.Add(SyntaxError("bad byte 0x24", SourceLocation{}))
	ec.Add(UnknownBuiltinError("nope", SourceLocation{}))
	if !ec.HasErrors() {
		t.Fatal("expected HasErrors() to be true")
	}
	if ec.First().Message != "bad byte 0x24" {
		t.Errorf("First() = %+v", ec.First())
	}
	want := "fatal error: bad byte 0x24\nfatal error: unknown built-in 'nope'"
	if got := ec.Report(); got != want {
		t.Errorf("Report() = %q, want %q", got, want)
	}
}

func TestEvalStackTrackerDetectsUnderflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic popping an empty evaluation stack")
		}
	}()
	tr := NewEvalStackTracker()
	tr.Pop()
}

func TestEvalStackTrackerCheckBoundPasses(t *testing.T) {
	tr := NewEvalStackTracker()
	tr.Push()
	tr.Push()
	tr.Pop()
	tr.CheckBound(2) // deepest seen was 2, frame reserved 2 -> fine
}

func TestEvalStackTrackerCheckBoundCatchesUnderestimate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when max_stack underestimates actual depth")
		}
	}()
	tr := NewEvalStackTracker()
	tr.Push()
	tr.Push()
	tr.CheckBound(1) // frame only reserved 1 slot, but depth reached 2
}
