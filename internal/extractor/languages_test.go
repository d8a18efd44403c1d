package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeintel/internal/langs"
	"github.com/standardbeagle/codeintel/internal/parserpool"
)

// writeTempSourceFile writes content under name (e.g. "Calc.cs") in a fresh
// temp dir and returns its absolute path, mirroring writeTempGoFile for the
// non-Go fixtures below.
func writeTempSourceFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const csharpSource = `public class Calculator
{
    public int Add(int a, int b)
    {
        return a + b;
    }

    public int Multiply(int a, int b)
    {
        return a * b;
    }

    public int AddAndMultiply(int a, int b)
    {
        return Add(a, b) + Multiply(a, b);
    }
}
`

// TestExtractCSharpIntraFileCallAttribution covers spec.md §8 scenario S1:
// Calculator.AddAndMultiply calls both Add and Multiply within Calc.cs, and
// both calls must resolve to their defining methods.
func TestExtractCSharpIntraFileCallAttribution(t *testing.T) {
	diskPath := writeTempSourceFile(t, "Calc.cs", csharpSource)
	pool := parserpool.New()
	e := New(pool)
	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "Calc.cs", langs.CSharp))

	for _, name := range []string{"Calculator.Add", "Calculator.Multiply", "Calculator.AddAndMultiply"} {
		_, ok := e.Lookup(name)
		assert.True(t, ok, "expected symbol %s", name)
	}

	e.ResolveReferenceFQNs()

	var sawAddCall, sawMultiplyCall bool
	for _, ref := range e.References() {
		if ref.SymbolName == "Add" && ref.Kind == "Call" {
			sawAddCall = true
			assert.Equal(t, "Calculator.Add", ref.SymbolFQN)
		}
		if ref.SymbolName == "Multiply" && ref.Kind == "Call" {
			sawMultiplyCall = true
			assert.Equal(t, "Calculator.Multiply", ref.SymbolFQN)
		}
	}
	assert.True(t, sawAddCall, "expected AddAndMultiply's call to Add")
	assert.True(t, sawMultiplyCall, "expected AddAndMultiply's call to Multiply")
}

const tsUtilsSource = `export class MathUtils {
    static square(n: number): number {
        return n * n;
    }
}
`

const tsMainSource = `import { MathUtils } from "./utils";

class Program {
    runCalculations(): number {
        return MathUtils.square(4);
    }
}
`

// TestExtractTypeScriptInterfileCall covers spec.md §8 scenario S2: a call
// from Program.runCalculations in main.ts to MathUtils.square defined in
// utils.ts must resolve across the two files.
func TestExtractTypeScriptInterfileCall(t *testing.T) {
	utilsPath := writeTempSourceFile(t, "utils.ts", tsUtilsSource)
	mainPath := writeTempSourceFile(t, "main.ts", tsMainSource)
	pool := parserpool.New()
	e := New(pool)

	require.NoError(t, e.ExtractSymbolsFromFile(utilsPath, "utils.ts", langs.TypeScript))
	require.NoError(t, e.ExtractSymbolsFromFile(mainPath, "main.ts", langs.TypeScript))

	_, ok := e.Lookup("MathUtils.square")
	require.True(t, ok, "expected MathUtils.square to be indexed from utils.ts")

	e.ResolveReferenceFQNs()

	var found bool
	for _, ref := range e.References() {
		if ref.SymbolName == "square" && ref.Kind == "Call" {
			found = true
			assert.Equal(t, "MathUtils.square", ref.SymbolFQN)
			assert.Equal(t, "main.ts", ref.ReferenceFile, "the call site lives in main.ts, not utils.ts")
		}
	}
	assert.True(t, found, "expected a Call reference to square from main.ts")
}

// pythonLineFidelitySource pads Calculator.add so it begins on line 16 and
// ends on line 20 (1-indexed), per spec.md §8 scenario S3.
const pythonLineFidelitySource = `class Calculator:
    """Padding to push add() down to line 16."""
    # line 3
    # line 4
    # line 5
    # line 6
    # line 7
    # line 8
    # line 9
    # line 10
    # line 11
    # line 12
    # line 13
    # line 14
    # line 15
    def add(self, x):
        # line 17
        # line 18
        # line 19
        return x + 1
`

// TestExtractPythonLineNumberFidelity covers spec.md §8 scenario S3: a
// def beginning at (1-indexed) line 16 and ending at line 20 must produce a
// Symbol whose StartLine/EndLine match within the spec's +/-1 tolerance.
func TestExtractPythonLineNumberFidelity(t *testing.T) {
	diskPath := writeTempSourceFile(t, "calc.py", pythonLineFidelitySource)
	pool := parserpool.New()
	e := New(pool)
	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "calc.py", langs.Python))

	sym, ok := e.Lookup("Calculator.add")
	require.True(t, ok)

	assert.InDelta(t, 16, sym.StartLine+1, 1, "add() should start at line 16 (1-indexed), within tolerance")
	assert.InDelta(t, 20, sym.EndLine+1, 1, "add() should end at line 20 (1-indexed), within tolerance")
}

const rustSource = `struct Shape;

impl Shape {
    fn area(&self) -> i32 {
        0
    }

    fn describe(&self) -> i32 {
        self.area()
    }
}
`

func TestExtractRustMethodDefinitionAndCall(t *testing.T) {
	diskPath := writeTempSourceFile(t, "shape.rs", rustSource)
	pool := parserpool.New()
	e := New(pool)
	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "shape.rs", langs.Rust))

	_, ok := e.Lookup("Shape.area")
	assert.True(t, ok, "expected Shape.area")
	_, ok = e.Lookup("Shape.describe")
	assert.True(t, ok, "expected Shape.describe")

	e.ResolveReferenceFQNs()
	var sawCall bool
	for _, ref := range e.References() {
		if ref.SymbolName == "area" && ref.Kind == "Call" {
			sawCall = true
			assert.Equal(t, "Shape.area", ref.SymbolFQN)
		}
	}
	assert.True(t, sawCall, "expected describe's call to self.area()")
}

const javaSource = `class Calculator {
    int add(int a, int b) {
        return a + b;
    }

    int compute(int a, int b) {
        return add(a, b);
    }
}
`

func TestExtractJavaMethodDefinitionAndCall(t *testing.T) {
	diskPath := writeTempSourceFile(t, "Calculator.java", javaSource)
	pool := parserpool.New()
	e := New(pool)
	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "Calculator.java", langs.Java))

	_, ok := e.Lookup("Calculator.add")
	assert.True(t, ok, "expected Calculator.add")
	_, ok = e.Lookup("Calculator.compute")
	assert.True(t, ok, "expected Calculator.compute")

	e.ResolveReferenceFQNs()
	var sawCall bool
	for _, ref := range e.References() {
		if ref.SymbolName == "add" && ref.Kind == "Call" {
			sawCall = true
			assert.Equal(t, "Calculator.add", ref.SymbolFQN)
		}
	}
	assert.True(t, sawCall, "expected compute's call to add(a, b)")
}

const cppSource = `class Calculator {
public:
    int add(int a, int b) {
        return a + b;
    }

    int compute(int a, int b) {
        return add(a, b);
    }
};
`

func TestExtractCppFunctionDefinitionAndCall(t *testing.T) {
	diskPath := writeTempSourceFile(t, "calculator.cpp", cppSource)
	pool := parserpool.New()
	e := New(pool)
	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "calculator.cpp", langs.Cpp))

	_, ok := e.Lookup("Calculator.add")
	assert.True(t, ok, "expected Calculator.add")
	_, ok = e.Lookup("Calculator.compute")
	assert.True(t, ok, "expected Calculator.compute")

	e.ResolveReferenceFQNs()
	var sawCall bool
	for _, ref := range e.References() {
		if ref.SymbolName == "add" && ref.Kind == "Call" {
			sawCall = true
			assert.Equal(t, "Calculator.add", ref.SymbolFQN)
		}
	}
	assert.True(t, sawCall, "expected compute's call to add(a, b)")
}

const jsSource = `class Greeter {
  greet() {
    return this.sayHello();
  }

  sayHello() {
    return "hello";
  }
}
`

func TestExtractJavaScriptMethodDefinitionAndCall(t *testing.T) {
	diskPath := writeTempSourceFile(t, "greeter.js", jsSource)
	pool := parserpool.New()
	e := New(pool)
	require.NoError(t, e.ExtractSymbolsFromFile(diskPath, "greeter.js", langs.JavaScript))

	_, ok := e.Lookup("Greeter.greet")
	assert.True(t, ok, "expected Greeter.greet")
	_, ok = e.Lookup("Greeter.sayHello")
	assert.True(t, ok, "expected Greeter.sayHello")

	e.ResolveReferenceFQNs()
	var sawCall bool
	for _, ref := range e.References() {
		if ref.SymbolName == "sayHello" && ref.Kind == "Call" {
			sawCall = true
			assert.Equal(t, "Greeter.sayHello", ref.SymbolFQN)
		}
	}
	assert.True(t, sawCall, "expected greet's call to this.sayHello()")
}
