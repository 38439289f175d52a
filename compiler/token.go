package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the SOM lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	TokenNone TokenType = iota // end of input or an unrecognised character

	// Literals
	TokenInteger // 42
	TokenDouble  // 3.14

	// Single-character operators
	TokenNot   // ~
	TokenAnd   // &
	TokenOr    // |
	TokenStar  // *
	TokenDiv   // /
	TokenMod   // \
	TokenPlus  // +
	TokenMinus // -
	TokenEqual // =
	TokenMore  // >
	TokenLess  // <
	TokenComma // ,
	TokenAt    // @
	TokenPer   // %

	// Delimiters
	TokenNewBlock // [
	TokenEndBlock // ]
	TokenColon    // :
	TokenPeriod   // .
	TokenExit     // ^
	TokenAssign   // :=
	TokenNewTerm  // (
	TokenEndTerm  // )
	TokenPound    // #

	// Words
	TokenPrimitive        // primitive
	TokenSeparator        // ----
	TokenString           // 'hello'
	TokenIdentifier       // foo, Bar
	TokenKeyword          // at:
	TokenKeywordSequence  // at:put:
	TokenOperatorSequence // <=, ~=, ->
)

var tokenNames = map[TokenType]string{
	TokenNone:             "NONE",
	TokenInteger:          "Integer",
	TokenDouble:           "Double",
	TokenNot:              "Not",
	TokenAnd:              "And",
	TokenOr:               "Or",
	TokenStar:             "Star",
	TokenDiv:              "Div",
	TokenMod:              "Mod",
	TokenPlus:             "Plus",
	TokenMinus:            "Minus",
	TokenEqual:            "Equal",
	TokenMore:             "More",
	TokenLess:             "Less",
	TokenComma:            "Comma",
	TokenAt:               "At",
	TokenPer:              "Per",
	TokenNewBlock:         "NewBlock",
	TokenEndBlock:         "EndBlock",
	TokenColon:            "Colon",
	TokenPeriod:           "Period",
	TokenExit:             "Exit",
	TokenAssign:           "Assign",
	TokenNewTerm:          "NewTerm",
	TokenEndTerm:          "EndTerm",
	TokenPound:            "Pound",
	TokenPrimitive:        "Primitive",
	TokenSeparator:        "Separator",
	TokenString:           "STString",
	TokenIdentifier:       "Identifier",
	TokenKeyword:          "Keyword",
	TokenKeywordSequence:  "KeywordSequence",
	TokenOperatorSequence: "OperatorSequence",
}

// String returns the token type name.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// IsPrintable reports whether tokens of this type carry text worth quoting
// in diagnostics.
func (t TokenType) IsPrintable() bool {
	return t == TokenInteger || t == TokenDouble || t >= TokenString
}

// singleOperators are the operator tokens that can stand alone as a binary
// selector.
var singleOperators = map[TokenType]bool{
	TokenNot:   true,
	TokenAnd:   true,
	TokenOr:    true,
	TokenStar:  true,
	TokenDiv:   true,
	TokenMod:   true,
	TokenPlus:  true,
	TokenEqual: true,
	TokenMore:  true,
	TokenLess:  true,
	TokenComma: true,
	TokenAt:    true,
	TokenPer:   true,
	TokenMinus: true,
}

// IsBinaryOperator reports whether t can start a binary message.
func (t TokenType) IsBinaryOperator() bool {
	return singleOperators[t] || t == TokenOperatorSequence
}

// ---------------------------------------------------------------------------
// Token
// ---------------------------------------------------------------------------

// Token is a lexical unit with the position of its first character.
type Token struct {
	Type   TokenType
	Text   string
	Line   int // 1-based
	Column int // 1-based
}

// String returns a debug representation of the token.
func (t Token) String() string {
	if t.Type.IsPrintable() {
		return fmt.Sprintf("%s (%s)", t.Type, t.Text)
	}
	return t.Type.String()
}
