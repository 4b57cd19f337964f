package main

// builtin describes one of the eight fixed built-in callees §4.3 tabulates:
// its argument arity/type constraints and its result type. argTypes has one
// entry per required argument; optionalLast, when true, permits calling
// with one fewer argument than len(argTypes) (create.list.digits' zero-arg
// form, defaulting capacity to 8 at codegen time).
type builtin struct {
	argTypes     []TypeKind
	optionalLast bool
	result       TypeKind
}

// typeAggregate marks an argTypes slot that accepts either List or Array.
const typeAggregate TypeKind = -1

var builtins = map[string]builtin{
	"создать.лист.цифр":  {argTypes: []TypeKind{TypeInt}, optionalLast: true, result: TypeList},
	"создать.массив.цифр": {argTypes: []TypeKind{TypeInt}, result: TypeArray},
	"сколько.внутри":     {argTypes: []TypeKind{typeAggregate}, result: TypeInt},
	"сунь.по.индексу":    {argTypes: []TypeKind{typeAggregate, TypeInt, TypeInt}, result: TypeInt},
	"впихни.в.лист":      {argTypes: []TypeKind{TypeList, TypeInt}, result: TypeList},
	"достань.последний":  {argTypes: []TypeKind{TypeList}, result: TypeInt},
	"дай.по.индексу":     {argTypes: []TypeKind{typeAggregate, TypeInt}, result: TypeInt},
	"диапазон.от.0.до":   {argTypes: []TypeKind{TypeInt}, result: TypeList},
}

// Sema walks the parsed program once, building the symbol table, checking
// every expression's type, and computing the two frame-sizing metrics
// §4.3/§4.4 need: MaxStack and MaxRepeat.
type Sema struct {
	sym       *SymbolTable
	maxStack  int
	maxRepeat int
}

// SemaResult is everything codegen needs from semantic analysis.
type SemaResult struct {
	Sym       *SymbolTable
	MaxStack  int
	MaxRepeat int
}

// Analyze runs the full pass over prog and returns the resolved symbol
// table and frame metrics, or panics with a CompilerError on the first
// semantic violation (§7: single fatal-abort failure mode).
func Analyze(prog *Program) *SemaResult {
	s := &Sema{sym: NewSymbolTable()}
	s.block(prog.Stmts, 0)
	return &SemaResult{Sym: s.sym, MaxStack: s.maxStack, MaxRepeat: s.maxRepeat}
}

func (s *Sema) block(stmts []*Stmt, repeatDepth int) {
	for _, st := range stmts {
		s.stmt(st, repeatDepth)
	}
}

func (s *Sema) stmt(st *Stmt, repeatDepth int) {
	switch st.Kind {
	case StBlock:
		s.block(st.Items, repeatDepth)

	case StPrint:
		s.trackDepth(st.Expr)
		if st.Expr.Kind != ExStr {
			t := s.typeExpr(st.Expr)
			if t != TypeInt {
				panic(TypeMismatchError("Int or string literal", t.String(), SourceLocation{}))
			}
		}

	case StLet:
		t := s.typeExpr(st.Expr)
		s.trackDepth(st.Expr)
		if !isDeclarable(t) {
			panic(TypeMismatchError("Int, List, or Array", t.String(), SourceLocation{}))
		}
		sym, ok := s.sym.Declare(st.Name, t)
		if !ok {
			panic(DuplicateVariableError(st.Name, SourceLocation{}))
		}
		st.Sym = sym

	case StSet:
		sym, ok := s.sym.Lookup(st.Name)
		if !ok {
			panic(UndefinedVariableError(st.Name, SourceLocation{}))
		}
		t := s.typeExpr(st.Expr)
		s.trackDepth(st.Expr)
		if t != sym.Type {
			panic(TypeMismatchError(sym.Type.String(), t.String(), SourceLocation{}))
		}
		st.Sym = sym

	case StIf:
		t := s.typeExpr(st.Expr)
		s.trackDepth(st.Expr)
		if t != TypeInt {
			panic(TypeMismatchError("Int", t.String(), SourceLocation{}))
		}
		s.stmt(st.Then, repeatDepth)
		if st.Else != nil {
			s.stmt(st.Else, repeatDepth)
		}

	case StRepeat:
		t := s.typeExpr(st.Expr)
		s.trackDepth(st.Expr)
		if t != TypeInt {
			panic(TypeMismatchError("Int", t.String(), SourceLocation{}))
		}
		depth := repeatDepth + 1
		if depth > s.maxRepeat {
			s.maxRepeat = depth
		}
		s.stmt(st.Body, depth)

	case StExpr:
		s.typeExpr(st.Expr)
		s.trackDepth(st.Expr)
	}
}

func isDeclarable(t TypeKind) bool {
	return t == TypeInt || t == TypeList || t == TypeArray
}

// trackDepth updates MaxStack from one top-level statement expression.
func (s *Sema) trackDepth(e *Expr) {
	if d := exprDepth(e); d > s.maxStack {
		s.maxStack = d
	}
}

// exprDepth implements §4.3's recursive formula: a non-short-circuit
// binary op reserves one evaluation-stack slot for its left operand while
// the right side evaluates, so its depth is max(depth(left), 1+depth(right)).
// AND/OR never push (the right side is skipped or the left already decided
// the result), so they take the plain max of both sides. Everything else —
// atoms, unary, call, lambda — has no operand that must survive a nested
// evaluation, so its depth is just the deepest thing it contains.
func exprDepth(e *Expr) int {
	switch e.Kind {
	case ExNum, ExBool, ExVar, ExStr:
		return 0
	case ExUnary:
		return exprDepth(e.L)
	case ExBinary:
		if e.BinOp == OpAnd || e.BinOp == OpOr {
			return maxInt(exprDepth(e.L), exprDepth(e.R))
		}
		return maxInt(exprDepth(e.L), 1+exprDepth(e.R))
	case ExCall:
		m := 0
		for _, a := range e.Args {
			if d := exprDepth(a); d > m {
				m = d
			}
		}
		return m
	case ExLambda:
		return exprDepth(e.Body)
	}
	return 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// typeExpr type-checks e against the five-tag lattice and returns its
// result type. String literals have no type tag of their own (they are
// not first-class — §4.3); typeExpr returns Invalid for ExStr so any use
// outside the one Print special-case that skips this check fails type
// checking naturally.
func (s *Sema) typeExpr(e *Expr) TypeKind {
	switch e.Kind {
	case ExNum:
		e.Type = TypeInt
	case ExBool:
		e.Type = TypeInt
	case ExStr:
		e.Type = TypeInvalid
	case ExVar:
		sym, ok := s.sym.Lookup(e.Name)
		if !ok {
			panic(UndefinedVariableError(e.Name, SourceLocation{}))
		}
		e.Sym = sym
		e.Type = sym.Type
	case ExUnary:
		t := s.typeExpr(e.L)
		if t != TypeInt {
			panic(TypeMismatchError("Int", t.String(), SourceLocation{}))
		}
		e.Type = TypeInt
	case ExBinary:
		lt := s.typeExpr(e.L)
		rt := s.typeExpr(e.R)
		if lt != TypeInt || rt != TypeInt {
			panic(TypeMismatchError("Int", lt.String()+"/"+rt.String(), SourceLocation{}))
		}
		e.Type = TypeInt
	case ExCall:
		e.Type = s.typeCall(e)
	case ExLambda:
		// Lambdas are parsed but never lowered (§1 Non-goals); they are only
		// valid as a bare, unused expression statement. Their declared type
		// is Lambda; using one anywhere a value is required is a type error
		// by virtue of Lambda never matching any required type above.
		s.typeExpr(e.Body)
		e.Type = TypeLambda
	default:
		e.Type = TypeInvalid
	}
	return e.Type
}

func (s *Sema) typeCall(e *Expr) TypeKind {
	b, ok := builtins[e.Name]
	if !ok {
		panic(UnknownBuiltinError(e.Name, SourceLocation{}))
	}
	n := len(e.Args)
	min := len(b.argTypes)
	if b.optionalLast {
		min--
	}
	if n < min || n > len(b.argTypes) {
		panic(ArityError(e.Name, SourceLocation{}))
	}
	for i, a := range e.Args {
		at := s.typeExpr(a)
		want := b.argTypes[i]
		if want == typeAggregate {
			if at != TypeList && at != TypeArray {
				panic(ArityError(e.Name, SourceLocation{}))
			}
			continue
		}
		if at != want {
			panic(ArityError(e.Name, SourceLocation{}))
		}
	}
	return b.result
}
