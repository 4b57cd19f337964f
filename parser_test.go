package main

import "testing"

func parse(t *testing.T, src string) *Program {
	t.Helper()
	toks := Tokenize([]byte(src))
	return NewParser(toks).Parse()
}

func TestParsePrintArithmetic(t *testing.T) {
	prog := parse(t, "исп.команду.print(1 + 2 * 3);")
	if len(prog.Stmts) != 1 || prog.Stmts[0].Kind != StPrint {
		t.Fatalf("expected one print statement, got %+v", prog.Stmts)
	}
	e := prog.Stmts[0].Expr
	if e.Kind != ExBinary || e.BinOp != OpAdd {
		t.Fatalf("expected top-level ADD, got %+v", e)
	}
	if e.R.BinOp != OpMul {
		t.Fatalf("expected * to bind tighter than +, got %+v", e.R)
	}
}

func TestParseLetAndSet(t *testing.T) {
	prog := parse(t, "пусть x = 10; повторять.раз 3 { исп.команду.print(x); x = x - 1 }")
	if len(prog.Stmts) != 2 {
		t.Fatalf("expected 2 top-level statements, got %d", len(prog.Stmts))
	}
	if prog.Stmts[0].Kind != StLet || prog.Stmts[0].Name != "x" {
		t.Fatalf("expected let x, got %+v", prog.Stmts[0])
	}
	rep := prog.Stmts[1]
	if rep.Kind != StRepeat {
		t.Fatalf("expected repeat, got %+v", rep)
	}
	body := rep.Body.Items
	if len(body) != 2 || body[1].Kind != StSet {
		t.Fatalf("expected [print, set] inside repeat body, got %+v", body)
	}
}

func TestParseIfElse(t *testing.T) {
	prog := parse(t, `в таком случае 1 == 2 { исп.команду.print(1) } иначе.если { исп.команду.print(2) }`)
	st := prog.Stmts[0]
	if st.Kind != StIf {
		t.Fatalf("expected if statement, got %+v", st)
	}
	if st.Expr.BinOp != OpEq {
		t.Fatalf("expected == to parse as EQ, got %v", st.Expr.BinOp)
	}
	if st.Else == nil {
		t.Fatal("expected an else block from иначе.если")
	}
}

func TestParseCallAndStringInterning(t *testing.T) {
	prog := parse(t, `исп.команду.print("привет"); исп.команду.print("мир")`)
	if len(prog.Strings) != 2 {
		t.Fatalf("expected 2 interned strings, got %d", len(prog.Strings))
	}
	if prog.Strings[0].Index != 0 || prog.Strings[1].Index != 1 {
		t.Fatalf("expected parse-order indices 0,1, got %d,%d", prog.Strings[0].Index, prog.Strings[1].Index)
	}
	if string(prog.Strings[0].Data) != "привет" {
		t.Errorf("got %q", prog.Strings[0].Data)
	}
}

func TestParseCallOnNonNameIsFatal(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for call on a non-identifier callee")
		}
	}()
	parse(t, "(1 + 2)(3);")
}

func TestParseLambdaLookahead(t *testing.T) {
	prog := parse(t, "(x) => x + 1;")
	e := prog.Stmts[0].Expr
	if e.Kind != ExLambda || e.Name != "x" {
		t.Fatalf("expected lambda with param x, got %+v", e)
	}
	if e.Body.Kind != ExBinary {
		t.Fatalf("expected lambda body to parse as an expression, got %+v", e.Body)
	}
}

func TestParseParenthesizedExpressionIsNotLambda(t *testing.T) {
	prog := parse(t, "исп.команду.print((1 + 2) * 3);")
	e := prog.Stmts[0].Expr
	if e.Kind != ExBinary || e.BinOp != OpMul {
		t.Fatalf("expected (1+2)*3 to parse as MUL at top, got %+v", e)
	}
	if e.L.Kind != ExBinary || e.L.BinOp != OpAdd {
		t.Fatalf("expected parenthesized ADD on the left, got %+v", e.L)
	}
}

func TestParseLogicalPrecedence(t *testing.T) {
	prog := parse(t, "исп.команду.print(1 == 1 и.также 2 == 2 или.иначе 0 == 1);")
	e := prog.Stmts[0].Expr
	if e.BinOp != OpOr {
		t.Fatalf("expected OR at top level, got %v", e.BinOp)
	}
	if e.L.BinOp != OpAnd {
		t.Fatalf("expected AND to bind tighter than OR, got %v", e.L.BinOp)
	}
}

func TestParseUnaryNotAndNeg(t *testing.T) {
	prog := parse(t, "исп.команду.print(не.а -5);")
	e := prog.Stmts[0].Expr
	if e.Kind != ExUnary || e.UnOp != OpNot {
		t.Fatalf("expected outer NOT, got %+v", e)
	}
	if e.L.Kind != ExUnary || e.L.UnOp != OpNeg {
		t.Fatalf("expected inner NEG, got %+v", e.L)
	}
}

func TestParseBuiltinCallWithArgs(t *testing.T) {
	prog := parse(t, "пусть r = диапазон.от.0.до(4); исп.команду.print(дай.по.индексу(r, 3))")
	letExpr := prog.Stmts[0].Expr
	if letExpr.Kind != ExCall || letExpr.Name != "диапазон.от.0.до" || len(letExpr.Args) != 1 {
		t.Fatalf("expected range call with 1 arg, got %+v", letExpr)
	}
	printExpr := prog.Stmts[1].Expr
	if printExpr.Kind != ExCall || printExpr.Name != "дай.по.индексу" || len(printExpr.Args) != 2 {
		t.Fatalf("expected get-at-index call with 2 args, got %+v", printExpr)
	}
}
