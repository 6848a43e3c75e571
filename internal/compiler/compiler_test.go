package compiler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"aurora/internal/ncs"
	"aurora/internal/routines"
	"aurora/internal/value"
)

type mapLoader map[string]string

func (m mapLoader) LoadSource(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", fmt.Errorf("no include named %q", name)
	}
	return src, nil
}

func compileSrc(t *testing.T, src string) *ncs.Program {
	t.Helper()
	prog, err := New(Options{Game: routines.GameK1}).Compile("test.nss", src)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return prog
}

func compileError(t *testing.T, src string, loader SourceLoader) *Error {
	t.Helper()
	_, err := New(Options{Game: routines.GameK1, Source: loader}).Compile("test.nss", src)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("error has type %T, want *Error", err)
	}
	return cerr
}

func hasOp(prog *ncs.Program, op ncs.Opcode) bool {
	for _, ins := range prog.Code {
		if ins.Op == op {
			return true
		}
	}
	return false
}

func hasConstI(prog *ncs.Program, val int32) bool {
	for _, ins := range prog.Code {
		if ins.Op == ncs.OpConstI && ins.A == val {
			return true
		}
	}
	return false
}

func hasActionID(prog *ncs.Program, id int32) bool {
	for _, ins := range prog.Code {
		if ins.Op == ncs.OpAction && ins.A == id {
			return true
		}
	}
	return false
}

func TestCompileLeavesBalancedStack(t *testing.T) {
	src := `const int LIMIT = 4;

int Sum(int nUpTo) {
    int total = 0;
    int i;
    for (i = 1; i <= nUpTo; i++) {
        total += i;
    }
    return total;
}

void main() {
    vector v = [1.0, 2.0, 3.0];
    v.y = VectorMagnitude(v);
    if (Sum(LIMIT) > 5) {
        PrintString("big " + IntToString(Sum(LIMIT)));
    }
}`
	c := New(Options{Game: routines.GameK1})
	prog, err := c.Compile("test.nss", src)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if len(prog.Code) == 0 {
		t.Fatal("no code emitted")
	}
	if d := c.Depth(); d != 0 {
		t.Fatalf("tracked stack depth is %d after compile, want 0", d)
	}
}

func TestVoidEngineCallsLeaveNothingBehind(t *testing.T) {
	src := `void main() {
    PrintString("waking");
    SetLocalInt(OBJECT_SELF, "awake", 1);
    DelayCommand(2.0, PrintString("later"));
    PrintInteger(GetLocalInt(OBJECT_SELF, "awake"));
}`
	c := New(Options{Game: routines.GameK1})
	if _, err := c.Compile("test.nss", src); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if d := c.Depth(); d != 0 {
		t.Fatalf("tracked stack depth is %d after compile, want 0", d)
	}
}

func TestVectorScalarArithmeticBalances(t *testing.T) {
	src := `void main() {
    vector v = [3.0, 4.0, 0.0];
    vector scaled = v * 2.0;
    vector mirrored = -1.0 * scaled;
    vector halved = mirrored / 2.0;
    float fLen = VectorMagnitude(halved);
    PrintFloat(fLen);
}`
	c := New(Options{Game: routines.GameK1})
	prog, err := c.Compile("test.nss", src)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if d := c.Depth(); d != 0 {
		t.Fatalf("tracked stack depth is %d after compile, want 0", d)
	}
	if !hasOp(prog, ncs.OpMul) || !hasOp(prog, ncs.OpDiv) {
		t.Fatal("vector-scalar ops not emitted")
	}
}

func TestErrorCodes(t *testing.T) {
	cases := []struct {
		name     string
		src      string
		code     string
		contains string
	}{
		{
			name:     "unknown identifier",
			src:      `void main() { nGhost; }`,
			code:     errUnknownIdent,
			contains: "unknown identifier nGhost",
		},
		{
			name:     "unknown function",
			src:      `void main() { Frob(); }`,
			code:     errUnknownFunc,
			contains: "unknown function Frob",
		},
		{
			name:     "prototype never defined",
			src:      `void Phantom(); void main() { Phantom(); }`,
			code:     errUnknownFunc,
			contains: "declared but never defined",
		},
		{
			name:     "operand kinds",
			src:      `void main() { int n = 1 + "x"; }`,
			code:     errTypeMismatch,
			contains: "operator + cannot take int and string",
		},
		{
			name:     "logical needs ints",
			src:      `void main() { int n = 1.0 && TRUE; }`,
			code:     errTypeMismatch,
			contains: "&& needs int operands",
		},
		{
			name:     "too many arguments",
			src:      `void main() { PrintString("a", "b"); }`,
			code:     errArgCount,
			contains: "PrintString takes 1 arguments, got 2",
		},
		{
			name:     "missing required argument",
			src:      `void main() { GetSubString("a", 0); }`,
			code:     errArgCount,
			contains: "GetSubString needs argument 3 (nCount)",
		},
		{
			name:     "argument kind",
			src:      `void main() { PrintString(3); }`,
			code:     errArgType,
			contains: "argument 1 of PrintString",
		},
		{
			name:     "condition kind",
			src:      `void main() { if ("x") {} }`,
			code:     errCondition,
			contains: "condition must be int, got string",
		},
		{
			name:     "assign into rvalue component",
			src:      `void main() { [1.0, 2.0, 3.0].x = 1.0; }`,
			code:     errNotAssignable,
			contains: "cannot assign to this expression",
		},
		{
			name:     "increment needs a variable",
			src:      `void main() { ++4; }`,
			code:     errNotAssignable,
			contains: "++ needs a variable",
		},
		{
			name:     "assign to constant",
			src:      `const int N = 1; void main() { N = 2; }`,
			code:     errNotAssignable,
			contains: "cannot assign to constant N",
		},
		{
			name:     "value returned from void",
			src:      `void main() { return 1; }`,
			code:     errReturnValue,
			contains: "main returns void",
		},
		{
			name:     "bare return from int",
			src:      `int StartingConditional() { return; }`,
			code:     errReturnValue,
			contains: "StartingConditional must return int",
		},
		{
			name:     "missing return on a path",
			src:      `int Half(int n) { if (n > 0) { return n / 2; } } void main() { Half(4); }`,
			code:     errMissingReturn,
			contains: "does not return a value on every path",
		},
		{
			name:     "break outside",
			src:      `void main() { break; }`,
			code:     errBadJump,
			contains: "break outside of loop or switch",
		},
		{
			name:     "continue inside switch only",
			src:      `void main() { switch (1) { case 1: continue; } }`,
			code:     errBadJump,
			contains: "continue outside of loop",
		},
		{
			name:     "duplicate local",
			src:      `void main() { int n; int n; }`,
			code:     errDuplicate,
			contains: "n is already declared in this scope",
		},
		{
			name:     "duplicate constant",
			src:      `const int N = 1; const int N = 2; void main() {}`,
			code:     errDuplicate,
			contains: "constant N is already defined",
		},
		{
			name:     "function defined twice",
			src:      `void F() {} void F() {} void main() {}`,
			code:     errDuplicate,
			contains: "function F is already defined",
		},
		{
			name:     "non-constant const initializer",
			src:      `const int N = GetStringLength("x"); void main() {}`,
			code:     errNotConstant,
			contains: "initializer of const N is not a constant expression",
		},
		{
			name:     "file-scope variable",
			src:      `int g_nState = 1; void main() {}`,
			code:     errNotConstant,
			contains: "file-scope variable g_nState must be const",
		},
		{
			name:     "include without loader",
			src:      `#include "lib"` + "\nvoid main() {}",
			code:     errInclude,
			contains: "no source loader configured",
		},
		{
			name:     "duplicate case label",
			src:      `void main() { switch (1) { case 1: break; case 1: break; } }`,
			code:     errSwitchLabel,
			contains: "duplicate case label 1",
		},
		{
			name:     "multiple defaults",
			src:      `void main() { switch (1) { default: break; default: break; } }`,
			code:     errSwitchLabel,
			contains: "multiple default labels",
		},
		{
			name:     "action argument not a call",
			src:      `void main() { DelayCommand(1.0, 5); }`,
			code:     errActionArg,
			contains: "an action argument must be a function call",
		},
		{
			name:     "component of a non-vector",
			src:      `void main() { int n; float f = n.x; }`,
			code:     errMember,
			contains: "only vectors",
		},
		{
			name:     "action variable",
			src:      `void main() { action a; }`,
			code:     errBadType,
			contains: "cannot declare a variable of type action",
		},
		{
			name:     "action return type",
			src:      `action F(); void main() {}`,
			code:     errBadType,
			contains: "a function cannot return action",
		},
		{
			name:     "no entry point",
			src:      `void Helper() {}`,
			code:     errEntryPoint,
			contains: "no entry point",
		},
		{
			name:     "entry with parameters",
			src:      `void main(int n) {}`,
			code:     errEntryPoint,
			contains: "main must be void main()",
		},
		{
			name:     "both entry points",
			src:      `void main() {} int StartingConditional() { return TRUE; }`,
			code:     errEntryPoint,
			contains: "defines both",
		},
		{
			name:     "prototype mismatch",
			src:      `void F(int n); void F(float f) {} void main() {}`,
			code:     errSignature,
			contains: "F does not match its earlier declaration",
		},
		{
			name:     "routine redefined",
			src:      `void PrintString(string s) {} void main() {}`,
			code:     errSignature,
			contains: "PrintString redefines an engine routine",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cerr := compileError(t, tc.src, nil)
			if cerr.Code != tc.code {
				t.Fatalf("code = %s, want %s (message %q)", cerr.Code, tc.code, cerr.Message)
			}
			if !strings.Contains(cerr.Message, tc.contains) {
				t.Fatalf("message %q does not contain %q", cerr.Message, tc.contains)
			}
		})
	}
}

func TestErrorPositions(t *testing.T) {
	src := "void main() {\n    nGhost;\n}"
	cerr := compileError(t, src, nil)
	if cerr.Line != 2 || cerr.Col != 5 {
		t.Fatalf("error at %d:%d, want 2:5", cerr.Line, cerr.Col)
	}

	cerr = compileError(t, `void Helper() {}`, nil)
	if cerr.Line != 1 || cerr.Col != 1 {
		t.Fatalf("missing entry reported at %d:%d, want 1:1", cerr.Line, cerr.Col)
	}
}

func TestIncludedErrorsNameTheirFile(t *testing.T) {
	loader := mapLoader{
		"lib": `void Broken() {
    int n = "x";
}`,
	}
	src := `#include "lib"

void main() {
    Broken();
}`
	cerr := compileError(t, src, loader)
	if cerr.Code != errTypeMismatch {
		t.Fatalf("code = %s, want %s", cerr.Code, errTypeMismatch)
	}
	if !strings.HasPrefix(cerr.Message, `in "lib": `) {
		t.Fatalf("message %q does not carry the include file", cerr.Message)
	}

	// The same failure in the root file stays unprefixed.
	cerr = compileError(t, `void main() { int n = "x"; }`, loader)
	if strings.HasPrefix(cerr.Message, `in "`) {
		t.Fatalf("root error %q should not name a file", cerr.Message)
	}
}

func TestIncludeCycleDetected(t *testing.T) {
	loader := mapLoader{
		"first":  `#include "second"`,
		"second": `#include "first"`,
	}
	cerr := compileError(t, `#include "first"`+"\nvoid main() {}", loader)
	if cerr.Code != errInclude {
		t.Fatalf("code = %s, want %s", cerr.Code, errInclude)
	}
	if !strings.Contains(cerr.Message, "include cycle") {
		t.Fatalf("message %q does not mention the cycle", cerr.Message)
	}
}

func TestEntryPreamble(t *testing.T) {
	prog := compileSrc(t, `void main() { PrintString("x"); }`)
	if prog.Code[0].Op != ncs.OpJsr || prog.Code[1].Op != ncs.OpRet {
		t.Fatalf("main preamble is %v %v, want JSR RET", prog.Code[0].Op, prog.Code[1].Op)
	}

	prog = compileSrc(t, `int StartingConditional() { return TRUE; }`)
	if prog.Code[0].Op != ncs.OpReserve || prog.Code[0].A != int32(value.KindInt) {
		t.Fatalf("conditional preamble starts with %v, want RSADD int", prog.Code[0])
	}
	if prog.Code[1].Op != ncs.OpJsr || prog.Code[2].Op != ncs.OpRet {
		t.Fatalf("conditional preamble is %v %v, want JSR RET", prog.Code[1].Op, prog.Code[2].Op)
	}
}

func TestConstantExpressionsFold(t *testing.T) {
	prog := compileSrc(t, `void main() { PrintInteger(2 + 3 * 4); }`)
	if !hasConstI(prog, 14) {
		t.Fatal("folded constant 14 not emitted")
	}
	if hasOp(prog, ncs.OpMul) || hasOp(prog, ncs.OpAdd) {
		t.Fatal("constant arithmetic survived folding")
	}
}

func TestDefaultsMaterializeAtCallSite(t *testing.T) {
	// Engine routine: PrintFloat's omitted width and decimals.
	prog := compileSrc(t, `void main() { PrintFloat(1.0); }`)
	if !hasConstI(prog, 18) || !hasConstI(prog, 9) {
		t.Fatal("engine defaults not pushed at the call site")
	}

	// Script function: the prototype's default travels to the caller.
	prog = compileSrc(t, `void F(int a, int b = 7);

void main() {
    F(1);
}

void F(int a, int b) {
    PrintInteger(a + b);
}`)
	if !hasConstI(prog, 7) {
		t.Fatal("script default not pushed at the call site")
	}
}

func TestActionArgumentCapturesState(t *testing.T) {
	prog := compileSrc(t, `void main() { DelayCommand(1.0, PrintString("hi")); }`)
	if !hasOp(prog, ncs.OpStoreState) {
		t.Fatal("no state capture emitted for the action argument")
	}
	if !hasActionID(prog, 7) {
		t.Fatal("DelayCommand call not emitted")
	}
	if !hasActionID(prog, 1) {
		t.Fatal("deferred PrintString body not emitted")
	}
}

func TestOptimizeDropsDecidedBranches(t *testing.T) {
	src := `void main() { if (TRUE) { PrintString("a"); } }`

	plain, err := New(Options{Game: routines.GameK1}).Compile("test.nss", src)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	tight, err := New(Options{Game: routines.GameK1, Optimize: true}).Compile("test.nss", src)
	if err != nil {
		t.Fatalf("optimized compile failed: %v", err)
	}

	if !hasOp(plain, ncs.OpJz) {
		t.Fatal("plain build has no conditional branch to decide")
	}
	if hasOp(tight, ncs.OpJz) {
		t.Fatal("constant-fed branch survived the peephole pass")
	}
	if len(tight.Code) >= len(plain.Code) {
		t.Fatalf("optimized code is %d instructions, plain %d", len(tight.Code), len(plain.Code))
	}
}
