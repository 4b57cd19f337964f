package main

import (
	"flag"
	"fmt"
	"os"

	env "github.com/xyproto/env/v2"
)

const versionString = "cotlinc 1.0.0"

// VerboseMode gates every instruction emitter's hex trace to stderr
// (writer.go) and the evaluation-stack tracker's per-push/pop logging
// (stack_validator.go). Set from either -v/--verbose or COTLINC_VERBOSE.
var VerboseMode bool

// MaxErrors is read once at startup from COTLINC_MAX_ERRORS. The compiler
// only ever reports one fatal error and exits (§7), so this is reserved
// for a future multi-error mode and is otherwise unused at runtime.
// main_test.go checks the env.Int read this value comes from, not the
// variable itself.
var MaxErrors int

func main() {
	var verbose = flag.Bool("v", false, "verbose mode (trace emitted bytes and evaluation-stack depth)")
	var verboseLong = flag.Bool("verbose", false, "verbose mode (trace emitted bytes and evaluation-stack depth)")
	var outputFlag = flag.String("o", "", "output executable path (default: input path with .exe extension)")
	var outputLongFlag = flag.String("output", "", "output executable path (default: input path with .exe extension)")
	var versionFlag = flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(versionString)
		os.Exit(0)
	}

	VerboseMode = *verbose || *verboseLong || env.Bool("COTLINC_VERBOSE")
	MaxErrors = env.Int("COTLINC_MAX_ERRORS", 1)

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: cotlinc <input> [<output.exe>]")
		os.Exit(1)
	}
	inputPath := args[0]

	outputPath := *outputFlag
	if *outputLongFlag != "" {
		outputPath = *outputLongFlag
	}
	if outputPath == "" && len(args) >= 2 {
		outputPath = args[1]
	}
	if outputPath == "" {
		outputPath = DefaultOutputPath(inputPath)
	}

	if err := Compile(inputPath, outputPath); err != nil {
		if ce, ok := err.(CompilerError); ok {
			fmt.Fprintln(os.Stderr, ce.Format())
		} else {
			fmt.Fprintln(os.Stderr, "fatal error:", err)
		}
		os.Exit(1)
	}
}

// Compile runs the full pipeline §2 names: read/decode source, lex, parse,
// analyze, lay out .rdata, generate code, assemble the PE image, write it
// to outputPath. A panic carrying a CompilerError (raised by the lexer,
// parser, sema, or codegen on any fatal condition) is recovered here and
// turned into the single returned error, matching §7's one-fatal-abort
// model end to end.
func Compile(inputPath, outputPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(CompilerError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()

	src, readErr := ReadSource(inputPath)
	if readErr != nil {
		return InternalError(fmt.Sprintf("cannot read %s: %v", inputPath, readErr))
	}

	toks := Tokenize(src)
	prog := NewParser(toks).Parse()
	sema := Analyze(prog)

	rdata := BuildRdata(prog.Strings)
	text, genErr := Gen(prog, sema, rdata)
	if genErr != nil {
		return genErr
	}

	image := WritePE(text, rdata)
	if writeErr := os.WriteFile(outputPath, image, 0o755); writeErr != nil {
		return InternalError(fmt.Sprintf("cannot write %s: %v", outputPath, writeErr))
	}
	return nil
}
