package spreadsheet

import (
	"math"
	"strings"
	"testing"
)

func parseAndEval(expression string, b Bindings) (float64, error) {
	node, err := ParseExpression(expression)
	if err != nil {
		return 0, err
	}
	return node.Eval(b, NewDefaultBuiltInFunctions())
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		input string
		types []TokenType
	}{
		{"1+2", []TokenType{TokenNumber, TokenBinaryOp, TokenNumber, TokenEOF}},
		{"-A1", []TokenType{TokenUnaryPrefixOp, TokenCell, TokenEOF}},
		{"A1-B2", []TokenType{TokenCell, TokenBinaryOp, TokenCell, TokenEOF}},
		{"sqrt (4)", []TokenType{TokenFunction, TokenLeftParen, TokenNumber, TokenRightParen, TokenEOF}},
		{"round(A1, 2)", []TokenType{TokenFunction, TokenLeftParen, TokenCell, TokenComma, TokenNumber, TokenRightParen, TokenEOF}},
		{"2^-1", []TokenType{TokenNumber, TokenBinaryOp, TokenUnaryPrefixOp, TokenNumber, TokenEOF}},
		{"abc", []TokenType{TokenIdentifier, TokenEOF}},
		{"a1", []TokenType{TokenIdentifier, TokenEOF}},
		{"1.5e-3", []TokenType{TokenNumber, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, errs := NewLexer(tt.input).Tokenize()
			if len(errs) > 0 {
				t.Fatalf("Tokenize(%q) errors: %v", tt.input, errs)
			}
			if len(tokens) != len(tt.types) {
				t.Fatalf("Tokenize(%q) = %d tokens, want %d", tt.input, len(tokens), len(tt.types))
			}
			for i, tok := range tokens {
				if tok.Type != tt.types[i] {
					t.Errorf("token %d (%q) type = %v, want %v", i, tok.Value, tok.Type, tt.types[i])
				}
			}
		})
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		{"", "empty expression"},
		{"   ", "empty expression"},
		{"1+", "unexpected end of expression"},
		{"(1", "unbalanced parentheses"},
		{"1)", "unexpected closing parenthesis"},
		{"1 2", "unexpected token"},
		{"A1 B1", "unexpected token"},
		{"1 & 2", "unexpected character"},
		{`"x"`, "unexpected character"},
		{"A1:B2", "unexpected character"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, errs := NewLexer(tt.input).Tokenize()
			if len(errs) == 0 {
				t.Fatalf("Tokenize(%q) succeeded, want error %q", tt.input, tt.err)
			}
			if !strings.Contains(errs[0], tt.err) {
				t.Errorf("Tokenize(%q) error = %q, want %q", tt.input, errs[0], tt.err)
			}
		})
	}
}

func TestParserPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1+2*3", "(1+(2*3))"},
		{"1-2-3", "((1-2)-3)"},
		{"2^3^2", "(2^(3^2))"},
		{"-2^2", "-(2^2)"},
		{"2*-3", "(2*-3)"},
		{"abs(A1)+1", "(abs(A1)+1)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := ParseExpression(tt.input)
			if err != nil {
				t.Fatalf("ParseExpression(%q) failed: %v", tt.input, err)
			}
			if got := node.ToString(); got != tt.expected {
				t.Errorf("ParseExpression(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParserEval(t *testing.T) {
	b := Bindings{"A1": -3, "B2": 4}
	tests := []struct {
		input    string
		expected float64
	}{
		{"A1^2", 9},
		{"A1*B2", -12},
		{"sqrt(B2)+abs(A1)", 5},
		{"ROUND(1.25, 1)", 1.3},
		{"Floor(-0.5)", -1},
		{"ceil(-0.5)", 0},
		{"(((1)))", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAndEval(tt.input, b)
			if err != nil {
				t.Fatalf("eval %q failed: %v", tt.input, err)
			}
			if math.Abs(got-tt.expected) > 1e-10 {
				t.Errorf("eval %q = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParserEvalErrors(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		{"C3+1", "undefined symbol C3"},
		{"pi", "undefined symbol pi"},
		{"pow(2, 3)", "undefined function pow"},
		{"sqrt()", "sqrt requires exactly 1 argument"},
		{"round(1, 2, 3)", "round requires 1 or 2 arguments"},
		{"round(1, 0.5)", "integer number of places"},
		{"sqrt(-4)", "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parseAndEval(tt.input, Bindings{})
			if err == nil {
				t.Fatalf("eval %q succeeded, want error %q", tt.input, tt.err)
			}
			if !strings.Contains(err.Error(), tt.err) {
				t.Errorf("eval %q error = %q, want %q", tt.input, err.Error(), tt.err)
			}
		})
	}
}

func TestIsAllowedFunction(t *testing.T) {
	for _, name := range []string{"sqrt", "ABS", "Round", "floor", "CEIL"} {
		if !IsAllowedFunction(name) {
			t.Errorf("IsAllowedFunction(%q) = false", name)
		}
	}
	for _, name := range []string{"import", "exec", "sum", "pow", ""} {
		if IsAllowedFunction(name) {
			t.Errorf("IsAllowedFunction(%q) = true", name)
		}
	}
}
