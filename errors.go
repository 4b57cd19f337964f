package main

import (
	"fmt"
	"strings"
)

// ErrorLevel indicates the severity of a diagnostic. cotlinc only ever
// raises LevelFatal on the path that reaches the user (see §7: a single
// failure mode), but the level/category split is kept because it's how
// each diagnostic constructor documents what produced it.
type ErrorLevel int

const (
	LevelWarning ErrorLevel = iota
	LevelError
	LevelFatal
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal error"
	default:
		return "unknown"
	}
}

// ErrorCategory classifies which compilation stage raised the error.
type ErrorCategory int

const (
	CategorySyntax ErrorCategory = iota
	CategorySemantic
	CategoryCodegen
	CategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case CategorySyntax:
		return "syntax"
	case CategorySemantic:
		return "semantic"
	case CategoryCodegen:
		return "codegen"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// SourceLocation names a position in the input file. A zero Line means no
// position is known: String then returns "" and the diagnostic prints just
// the message. Internal errors always carry a zero location.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (loc SourceLocation) String() string {
	if loc.Line == 0 {
		return ""
	}
	if loc.File == "" {
		return fmt.Sprintf("%d:%d", loc.Line, loc.Column)
	}
	return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
}

// CompilerError is the one diagnostic type cotlinc ever constructs.
type CompilerError struct {
	Level    ErrorLevel
	Category ErrorCategory
	Message  string
	Location SourceLocation
}

func (e CompilerError) Error() string {
	if loc := e.Location.String(); loc != "" {
		return fmt.Sprintf("%s: %s", loc, e.Message)
	}
	return e.Message
}

// Format renders the diagnostic the way the compiler prints it to stderr:
// one line, no color, no source snippet — §7 asks for single-line English
// messages, nothing more elaborate.
func (e CompilerError) Format() string {
	var sb strings.Builder
	if loc := e.Location.String(); loc != "" {
		sb.WriteString(loc)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Level.String())
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	return sb.String()
}

// Diagnostic constructors. Each names the stage and situation it applies to.

func UndefinedVariableError(name string, loc SourceLocation) CompilerError {
	return CompilerError{Level: LevelFatal, Category: CategorySemantic,
		Message: fmt.Sprintf("undefined variable '%s'", name), Location: loc}
}

func DuplicateVariableError(name string, loc SourceLocation) CompilerError {
	return CompilerError{Level: LevelFatal, Category: CategorySemantic,
		Message: fmt.Sprintf("duplicate variable '%s'", name), Location: loc}
}

func TypeMismatchError(expected, actual string, loc SourceLocation) CompilerError {
	return CompilerError{Level: LevelFatal, Category: CategorySemantic,
		Message: fmt.Sprintf("type mismatch: expected %s, got %s", expected, actual), Location: loc}
}

func UnknownBuiltinError(name string, loc SourceLocation) CompilerError {
	return CompilerError{Level: LevelFatal, Category: CategorySemantic,
		Message: fmt.Sprintf("unknown built-in '%s'", name), Location: loc}
}

func ArityError(name string, loc SourceLocation) CompilerError {
	return CompilerError{Level: LevelFatal, Category: CategorySemantic,
		Message: fmt.Sprintf("wrong number or type of arguments to '%s'", name), Location: loc}
}

func SyntaxError(message string, loc SourceLocation) CompilerError {
	return CompilerError{Level: LevelFatal, Category: CategorySyntax, Message: message, Location: loc}
}

func UnexpectedTokenError(expected, got string, loc SourceLocation) CompilerError {
	return CompilerError{Level: LevelFatal, Category: CategorySyntax,
		Message: fmt.Sprintf("expected %s, got %s", expected, got), Location: loc}
}

func InternalError(message string) CompilerError {
	return CompilerError{Level: LevelFatal, Category: CategoryInternal, Message: message}
}

// ErrorCollector exists for its Format helpers; the driver (main.go) never
// accumulates more than one error before exiting, matching §7's single
// fatal-abort model, but keeping a collector type lets codegen/PE-writer
// internal invariant checks and user-facing sema/parse diagnostics share one
// reporting path.
type ErrorCollector struct {
	errors []CompilerError
}

func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

func (ec *ErrorCollector) Add(err CompilerError) {
	ec.errors = append(ec.errors, err)
}

func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errors) > 0
}

func (ec *ErrorCollector) First() CompilerError {
	return ec.errors[0]
}

func (ec *ErrorCollector) Report() string {
	var sb strings.Builder
	for i, err := range ec.errors {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(err.Format())
	}
	return sb.String()
}
